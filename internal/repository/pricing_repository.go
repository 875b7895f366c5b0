package repository

import (
	"context"

	"laundry_manager/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PricingRepository interface {
	CreateSKU(ctx context.Context, sku *models.SKU) error
	SetCustomerPrice(ctx context.Context, pricing *models.CustomerPricing) error
	CatalogPrices(ctx context.Context, skuIDs []string) (map[string]decimal.Decimal, error)
	CustomerPrices(ctx context.Context, customerID string, skuIDs []string) (map[string]decimal.Decimal, error)
}

type pricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) PricingRepository {
	return &pricingRepository{db: db}
}

func (r *pricingRepository) CreateSKU(ctx context.Context, sku *models.SKU) error {
	return r.db.WithContext(ctx).Create(sku).Error
}

// SetCustomerPrice inserts or replaces the customer's price for a SKU.
func (r *pricingRepository) SetCustomerPrice(ctx context.Context, pricing *models.CustomerPricing) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "sku_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"custom_price", "updated_at"}),
	}).Create(pricing).Error
}

func (r *pricingRepository) CatalogPrices(ctx context.Context, skuIDs []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	if len(skuIDs) == 0 {
		return prices, nil
	}
	var skus []models.SKU
	if err := r.db.WithContext(ctx).Where("id IN ?", skuIDs).Find(&skus).Error; err != nil {
		return nil, err
	}
	for _, sku := range skus {
		prices[sku.ID] = sku.Price
	}
	return prices, nil
}

func (r *pricingRepository) CustomerPrices(ctx context.Context, customerID string, skuIDs []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	if len(skuIDs) == 0 {
		return prices, nil
	}
	var rows []models.CustomerPricing
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND sku_id IN ?", customerID, skuIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		prices[row.SKUID] = row.CustomPrice
	}
	return prices, nil
}
