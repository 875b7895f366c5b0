package statemachine

import (
	"fmt"
	"strings"

	"laundry_manager/internal/models"
)

const (
	ActorDriver = "driver"
	ActorStaff  = "staff"
)

// Transition defines a valid delivery status change and who can perform it
type Transition struct {
	From  models.DeliveryStatus
	To    models.DeliveryStatus
	Actor string
}

// validTransitions only moves forward. Staff may correct a stuck order by
// skipping the out_for_delivery step.
var validTransitions = []Transition{
	{From: models.DeliveryAssigned, To: models.DeliveryPickedUp, Actor: ActorDriver},
	{From: models.DeliveryPickedUp, To: models.DeliveryOutForDelivery, Actor: ActorDriver},
	{From: models.DeliveryOutForDelivery, To: models.DeliveryDelivered, Actor: ActorDriver},

	{From: models.DeliveryAssigned, To: models.DeliveryPickedUp, Actor: ActorStaff},
	{From: models.DeliveryPickedUp, To: models.DeliveryOutForDelivery, Actor: ActorStaff},
	{From: models.DeliveryPickedUp, To: models.DeliveryDelivered, Actor: ActorStaff},
	{From: models.DeliveryOutForDelivery, To: models.DeliveryDelivered, Actor: ActorStaff},
}

type transitionKey struct {
	From  models.DeliveryStatus
	To    models.DeliveryStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.DeliveryStatus, actor string) []models.DeliveryStatus {
	var nexts []models.DeliveryStatus
	for _, t := range validTransitions {
		if t.From == status && t.Actor == actor {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.DeliveryStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid delivery transition %s -> %s for %s; valid next states: %s",
		describe(from), to, actor, describeValidFrom(from, actor))
}

func describe(status models.DeliveryStatus) string {
	if status == "" {
		return "unassigned"
	}
	return string(status)
}

func describeValidFrom(status models.DeliveryStatus, actor string) string {
	nexts := ValidTransitionsFrom(status, actor)
	if len(nexts) == 0 {
		return "none"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
