package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SKU is a catalog entry. The catalog itself is maintained elsewhere; orders
// only read its default prices.
type SKU struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	Name      string          `json:"name" gorm:"not null"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Unit      string          `json:"unit"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *SKU) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type CustomerPricing struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	CustomerID  string          `json:"customer_id" gorm:"uniqueIndex:idx_customer_sku;size:36;not null"`
	SKUID       string          `json:"sku_id" gorm:"column:sku_id;uniqueIndex:idx_customer_sku;size:36;not null"`
	CustomPrice decimal.Decimal `json:"custom_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *CustomerPricing) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Counter is a named monotonically increasing sequence.
type Counter struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
