package services

import (
	"testing"

	"laundry_manager/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockOrdersJob(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	order := f.createOrder("2024-03-10")
	jobs := NewJobs(f.orders, f.engine, nil)

	f.now = utc("2024-03-09T20:00:00Z")
	jobs.LockOrdersJob()
	assert.True(t, f.reload(order.ID).IsLocked)
}

func TestGenerateJobOnlyRunsInTemplateMode(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	f.createRecurring("2024-03-05", weekly)
	f.now = utc("2024-03-08T00:05:00Z")

	NewJobs(f.orders, f.engine, nil).GenerateRecurringOrdersJob()
	assert.Equal(t, int64(1), f.countOrders())
}

func TestGenerateJobCreatesDueInstance(t *testing.T) {
	f := newFixture(t, ModeTemplateInstances, utc("2024-03-01T09:00:00Z"))
	template := f.createRecurring("2024-03-05", weekly)
	f.now = utc("2024-03-05T00:05:00Z")

	NewJobs(f.orders, f.engine, nil).GenerateRecurringOrdersJob()

	n, err := f.deps.Orders.Count(f.ctx, repository.OrderFilter{ParentRecurringID: template.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
