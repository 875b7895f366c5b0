package services

import (
	"fmt"

	"laundry_manager/internal/models"

	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var gstRate = decimal.RequireFromString("0.10")

type Totals struct {
	Base  decimal.Decimal `json:"total_amount"`
	GST   decimal.Decimal `json:"gst_amount"`
	Total decimal.Decimal `json:"total_with_gst"`
}

// CalculateTotals derives base, GST and the grand total for a line-item list.
// Every path that changes items goes through here.
func CalculateTotals(items []models.OrderItem) Totals {
	base := decimal.Zero
	for _, item := range items {
		base = base.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	base = base.Round(moneyPlaces)
	gst := base.Mul(gstRate).Round(moneyPlaces)
	return Totals{Base: base, GST: gst, Total: base.Add(gst)}
}

// ApplyTotals recalculates the order's derived money fields from its items.
func ApplyTotals(order *models.Order) {
	totals := CalculateTotals(order.Items)
	order.TotalAmount = totals.Base
	order.GSTAmount = totals.GST
	order.TotalWithGST = totals.Total
}

// ReconcileItems reprices each line: customer price, then catalog price,
// then the submitted price. The input slice is not modified.
func ReconcileItems(items []models.OrderItem, customerPrices, catalogPrices map[string]decimal.Decimal) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	for i, item := range items {
		if price, ok := customerPrices[item.SKUID]; ok {
			item.Price = price
		} else if price, ok := catalogPrices[item.SKUID]; ok {
			item.Price = price
		}
		out[i] = item
	}
	return out
}

func validateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for i, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrValidation, i+1)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: item %d price must not be negative", ErrValidation, i+1)
		}
	}
	return nil
}

func skuIDs(items []models.OrderItem) []string {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item.SKUID == "" || seen[item.SKUID] {
			continue
		}
		seen[item.SKUID] = true
		ids = append(ids, item.SKUID)
	}
	return ids
}
