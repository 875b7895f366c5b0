package statemachine

import (
	"testing"

	"laundry_manager/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  models.DeliveryStatus
		to    models.DeliveryStatus
		actor string
		ok    bool
	}{
		{"driver picks up", models.DeliveryAssigned, models.DeliveryPickedUp, ActorDriver, true},
		{"driver heads out", models.DeliveryPickedUp, models.DeliveryOutForDelivery, ActorDriver, true},
		{"driver delivers", models.DeliveryOutForDelivery, models.DeliveryDelivered, ActorDriver, true},
		{"driver cannot skip", models.DeliveryPickedUp, models.DeliveryDelivered, ActorDriver, false},
		{"driver cannot go back", models.DeliveryOutForDelivery, models.DeliveryPickedUp, ActorDriver, false},
		{"staff may skip", models.DeliveryPickedUp, models.DeliveryDelivered, ActorStaff, true},
		{"nothing after delivered", models.DeliveryDelivered, models.DeliveryAssigned, ActorStaff, false},
		{"unassigned cannot move", "", models.DeliveryPickedUp, ActorDriver, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCanTransitionListsValidStates(t *testing.T) {
	err := CanTransition(models.DeliveryAssigned, models.DeliveryDelivered, ActorDriver)
	assert.ErrorContains(t, err, "valid next states: picked_up")

	err = CanTransition(models.DeliveryDelivered, models.DeliveryPickedUp, ActorDriver)
	assert.ErrorContains(t, err, "valid next states: none")
}
