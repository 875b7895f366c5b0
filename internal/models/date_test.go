package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-28")
	require.NoError(t, err)
	assert.Equal(t, Date("2024-02-28"), d)

	_, err = ParseDate("28/02/2024")
	assert.Error(t, err)
	assert.False(t, Date("2024-13-01").Valid())
}

func TestDateArithmetic(t *testing.T) {
	assert.Equal(t, Date("2024-03-01"), Date("2024-02-28").AddDays(2), "leap year")
	assert.Equal(t, Date("2023-12-31"), Date("2024-01-01").AddDays(-1))
	assert.True(t, Date("2024-03-09").Before("2024-03-10"))
	assert.True(t, Date("2024-12-01").After("2024-02-01"))
}

func TestDateOf(t *testing.T) {
	instant := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, Date("2024-03-09"), DateOf(instant, time.UTC))
	assert.Equal(t, Date("2024-03-10"), DateOf(instant, time.FixedZone("AEST", 10*3600)))

	start := Date("2024-03-10").Start(time.FixedZone("AEST", 10*3600))
	assert.True(t, start.Equal(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan([]byte("2024-03-10")))
	assert.Equal(t, Date("2024-03-10"), d)

	require.NoError(t, d.Scan(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Date("2024-04-01"), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestOrderChangesSummary(t *testing.T) {
	var empty *OrderChanges
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "no changes", empty.Summary())

	delivery := Date("2024-03-12")
	note := "fold"
	c := &OrderChanges{
		Items:               []OrderItem{{SKUName: "Shirt", Quantity: 2}},
		DeliveryDate:        &delivery,
		SpecialInstructions: &note,
	}
	assert.False(t, c.IsEmpty())
	assert.True(t, c.RecurrenceChanged())
	assert.Equal(t, "items: Shirt x2; delivery date: 2024-03-12; instructions updated", c.Summary())
}
