package services

import (
	"testing"
	"time"

	"laundry_manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutoffBoundary(t *testing.T) {
	p := NewLockPolicy(time.UTC, 8*time.Hour)
	order := &models.Order{DeliveryDate: "2024-03-10"}

	assert.False(t, p.PastCutoff(order, utc("2024-03-09T23:59:59Z")))
	assert.True(t, p.PastCutoff(order, p.Cutoff(order.DeliveryDate)))
	assert.True(t, p.PastCutoff(order, utc("2024-03-10T00:00:00Z")))
	assert.Equal(t, models.Date("2024-03-09"), p.CutoffDate(order.DeliveryDate))
}

func TestCutoffUsesBusinessZone(t *testing.T) {
	p := NewLockPolicy(time.FixedZone("AEST", 10*3600), 8*time.Hour)
	order := &models.Order{DeliveryDate: "2024-03-10"}

	// Midnight on 2024-03-10 at +10:00 is 14:00 UTC the day before.
	assert.False(t, p.PastCutoff(order, utc("2024-03-09T13:59:00Z")))
	assert.True(t, p.PastCutoff(order, utc("2024-03-09T14:00:00Z")))
}

func TestSafetyMargin(t *testing.T) {
	p := NewLockPolicy(time.UTC, 8*time.Hour)
	order := &models.Order{DeliveryDate: "2024-03-10"}

	assert.True(t, p.WithinSafetyMargin(order, utc("2024-03-09T16:00:00Z")), "exactly 8h")
	assert.False(t, p.WithinSafetyMargin(order, utc("2024-03-09T15:00:00Z")), "9h")
	assert.True(t, p.WithinSafetyMargin(order, utc("2024-03-11T00:00:00Z")), "past delivery")
	assert.False(t, p.WithinSafetyMargin(&models.Order{}, utc("2024-03-09T16:00:00Z")))
}

func TestLockKeepsOriginalTimestamp(t *testing.T) {
	p := NewLockPolicy(time.UTC, 8*time.Hour)
	order := &models.Order{DeliveryDate: "2024-03-10", Status: string(models.OrderPending)}
	first := utc("2024-03-09T16:00:00Z")

	require.True(t, p.Lock(order, first))
	assert.False(t, p.Lock(order, first.Add(time.Hour)))
	assert.True(t, order.IsLocked)
	assert.Equal(t, first, *order.LockedAt)
	assert.Equal(t, string(models.LockAutomatic), order.LockType)
}

func TestCheckCutoffSkipsManualAndTerminal(t *testing.T) {
	p := NewLockPolicy(time.UTC, 8*time.Hour)
	now := utc("2024-03-10T08:00:00Z")

	manual := &models.Order{DeliveryDate: "2024-03-10", LockType: string(models.LockManual)}
	assert.False(t, p.CheckCutoff(manual, now))
	assert.False(t, manual.IsLocked)

	delivered := &models.Order{DeliveryDate: "2024-03-10", Status: string(models.OrderDelivered)}
	assert.False(t, p.CheckCutoff(delivered, now))

	open := &models.Order{DeliveryDate: "2024-03-10", Status: string(models.OrderPending)}
	assert.True(t, p.CheckCutoff(open, now))
	assert.True(t, open.IsLocked)
}

func TestSweepExempt(t *testing.T) {
	p := NewLockPolicy(time.UTC, 8*time.Hour)

	assert.True(t, p.SweepExempt(&models.Order{Status: string(models.OrderReadyForPickup)}))
	assert.True(t, p.SweepExempt(&models.Order{Status: string(models.OrderCancelled)}))
	assert.True(t, p.SweepExempt(&models.Order{Status: string(models.OrderPending), LockType: string(models.LockManual)}))
	assert.False(t, p.SweepExempt(&models.Order{Status: string(models.OrderScheduled)}))
}

func TestResetClearsOverrides(t *testing.T) {
	p := NewLockPolicy(time.UTC, 8*time.Hour)
	now := utc("2024-03-09T16:00:00Z")

	auto := &models.Order{DeliveryDate: "2024-03-10"}
	p.Lock(auto, now)
	p.Reset(auto)
	assert.False(t, auto.IsLocked)
	assert.Nil(t, auto.LockedAt)

	manual := &models.Order{IsLocked: true, LockedAt: &now, LockedBy: "owner-1", LockType: string(models.LockManual)}
	p.Reset(manual)
	assert.False(t, manual.IsLocked)
	assert.Empty(t, manual.LockedBy)
	assert.Empty(t, manual.LockType)

	unlocked := &models.Order{LockType: string(models.LockManual), UnlockedAt: &now, UnlockedBy: "owner-1"}
	p.Reset(unlocked)
	assert.False(t, unlocked.IsManuallyLocked())
	assert.Nil(t, unlocked.UnlockedAt)
	assert.Empty(t, unlocked.UnlockedBy)
}

func TestTemplateExempt(t *testing.T) {
	template := &models.Order{IsRecurring: true}
	assert.True(t, TemplateExempt(template, ModeTemplateInstances))
	assert.False(t, TemplateExempt(template, ModeRollForward))
	assert.False(t, TemplateExempt(&models.Order{ParentRecurringID: "t-1"}, ModeTemplateInstances))
}
