package services

import (
	"time"

	"laundry_manager/internal/models"
)

// LockPolicy decides when an order stops accepting customer edits.
//
// The customer cutoff is the last instant of the day before delivery in the
// business time zone. The safety margin locks any open order whose delivery
// day starts within margin of now; the background sweep applies it.
type LockPolicy struct {
	loc    *time.Location
	margin time.Duration
}

func NewLockPolicy(loc *time.Location, margin time.Duration) *LockPolicy {
	if loc == nil {
		loc = time.UTC
	}
	return &LockPolicy{loc: loc, margin: margin}
}

// Cutoff returns the lock instant for a delivery date: one nanosecond before
// midnight at the start of the delivery day.
func (p *LockPolicy) Cutoff(delivery models.Date) time.Time {
	return delivery.Start(p.loc).Add(-time.Nanosecond)
}

// CutoffDate is the last day on which the customer may still request changes.
func (p *LockPolicy) CutoffDate(delivery models.Date) models.Date {
	return delivery.AddDays(-1)
}

func (p *LockPolicy) PastCutoff(order *models.Order, now time.Time) bool {
	if !order.DeliveryDate.Valid() {
		return false
	}
	return !now.Before(p.Cutoff(order.DeliveryDate))
}

func (p *LockPolicy) WithinSafetyMargin(order *models.Order, now time.Time) bool {
	if !order.DeliveryDate.Valid() {
		return false
	}
	return order.DeliveryDate.Start(p.loc).Sub(now) <= p.margin
}

// SweepExempt reports whether the sweep must leave the order alone.
func (p *LockPolicy) SweepExempt(order *models.Order) bool {
	switch models.OrderStatus(order.Status) {
	case models.OrderReadyForPickup, models.OrderDelivered, models.OrderCancelled:
		return true
	}
	return order.IsManuallyLocked()
}

// Lock marks the order automatically locked. It returns false when nothing
// changed; an existing locked_at is never replaced.
func (p *LockPolicy) Lock(order *models.Order, now time.Time) bool {
	if order.IsLocked || order.IsManuallyLocked() {
		return false
	}
	order.IsLocked = true
	if order.LockedAt == nil {
		t := now
		order.LockedAt = &t
	}
	order.LockType = string(models.LockAutomatic)
	return true
}

// CheckCutoff applies the customer cutoff rule lazily and reports whether the
// order changed and needs persisting.
func (p *LockPolicy) CheckCutoff(order *models.Order, now time.Time) bool {
	if order.IsManuallyLocked() || order.IsTerminal() {
		return false
	}
	if !p.PastCutoff(order, now) {
		return false
	}
	return p.Lock(order, now)
}

// Reset clears the lock state when the order moves to a new occurrence. A
// staff override applies to a single occurrence, so manual locks and unlocks
// are cleared too and the automatic rules govern the next one.
func (p *LockPolicy) Reset(order *models.Order) {
	order.IsLocked = false
	order.LockedAt = nil
	order.LockedBy = ""
	order.LockType = ""
	order.UnlockedAt = nil
	order.UnlockedBy = ""
}

// TemplateExempt reports whether the order is a recurring template that
// never stands for a deliverable occurrence itself.
func TemplateExempt(order *models.Order, mode RecurrenceMode) bool {
	return order.IsRecurring && mode == ModeTemplateInstances
}
