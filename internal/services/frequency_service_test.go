package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyTemplateLifecycle(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	svc := NewFrequencyService(f.deps.Frequencies)

	created, err := svc.Create(f.ctx, as(f.admin), FrequencyInput{Name: " Every 3 days ", FrequencyType: "daily", FrequencyValue: 3})
	require.NoError(t, err)
	assert.Equal(t, "Every 3 days", created.Name)
	assert.Equal(t, f.admin.ID, created.CreatedBy)

	updated, err := svc.Update(f.ctx, as(f.owner), created.ID, FrequencyInput{Name: "Bi-weekly", FrequencyType: "weekly", FrequencyValue: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.FrequencyValue)

	got, err := svc.Get(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bi-weekly", got.Name)

	list, err := svc.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(f.ctx, as(f.owner), created.ID))
	_, err = svc.Get(f.ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFrequencyTemplateValidation(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	svc := NewFrequencyService(f.deps.Frequencies)

	_, err := svc.Create(f.ctx, as(f.customer), FrequencyInput{Name: "Weekly", FrequencyType: "weekly", FrequencyValue: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(f.ctx, as(f.owner), FrequencyInput{Name: "", FrequencyType: "weekly", FrequencyValue: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(f.ctx, as(f.owner), FrequencyInput{Name: "Yearly", FrequencyType: "yearly", FrequencyValue: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(f.ctx, as(f.owner), "missing", FrequencyInput{Name: "Weekly", FrequencyType: "weekly", FrequencyValue: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletingReferencedTemplateBreaksGeneration(t *testing.T) {
	f := newFixture(t, ModeRollForward, utc("2024-03-01T09:00:00Z"))
	svc := NewFrequencyService(f.deps.Frequencies)
	tmpl, err := svc.Create(f.ctx, as(f.owner), FrequencyInput{Name: "Weekly", FrequencyType: "weekly", FrequencyValue: 1})
	require.NoError(t, err)

	order, err := f.orders.CreateOrder(f.ctx, as(f.owner), CreateOrderInput{
		CustomerID:          f.customer.ID,
		Items:               items("10", 1),
		DeliveryDate:        "2024-03-10",
		IsRecurring:         true,
		FrequencyTemplateID: tmpl.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(f.ctx, as(f.owner), tmpl.ID))
	_, err = f.engine.ResolveFrequency(f.ctx, f.reload(order.ID))
	assert.ErrorIs(t, err, ErrValidation)
}
