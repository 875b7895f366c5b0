package services

import (
	"context"
	"time"

	"laundry_manager/internal/repository"

	"go.uber.org/zap"
)

type Clock func() time.Time

// Notifier delivers a message to a user. Delivery failures stay inside the
// implementation.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message, kind string)
}

// Deps wires the order core to its collaborators.
type Deps struct {
	Orders      repository.OrderRepository
	Users       repository.UserRepository
	Frequencies repository.FrequencyRepository
	Pricing     repository.PricingRepository
	Numbers     *OrderNumberGenerator
	Notifier    Notifier
	Lock        *LockPolicy
	Mode        RecurrenceMode
	Location    *time.Location
	Clock       Clock
	Logger      *zap.Logger
}

func (d *Deps) setDefaults() {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Lock == nil {
		d.Lock = NewLockPolicy(d.Location, 8*time.Hour)
	}
	if d.Mode == "" {
		d.Mode = ModeRollForward
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string, string, string) {}
