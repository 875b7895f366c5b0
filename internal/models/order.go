package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Order struct {
	ID                  string                         `json:"id" gorm:"primaryKey;size:36"`
	OrderNumber         string                         `json:"order_number" gorm:"uniqueIndex;size:32;not null"`
	CustomerID          string                         `json:"customer_id" gorm:"index;size:36;not null"`
	CustomerName        string                         `json:"customer_name"`
	CustomerEmail       string                         `json:"customer_email"`
	DriverID            string                         `json:"driver_id,omitempty" gorm:"index;size:36"`
	DriverName          string                         `json:"driver_name,omitempty"`
	Items               datatypes.JSONSlice[OrderItem] `json:"items"`
	TotalAmount         decimal.Decimal                `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	GSTAmount           decimal.Decimal                `json:"gst_amount" gorm:"column:gst_amount;type:numeric(12,2);not null"`
	TotalWithGST        decimal.Decimal                `json:"total_with_gst" gorm:"column:total_with_gst;type:numeric(12,2);not null"`
	PickupDate          Date                           `json:"pickup_date" gorm:"type:varchar(10)"`
	DeliveryDate        Date                           `json:"delivery_date" gorm:"type:varchar(10);index"`
	PickupAddress       string                         `json:"pickup_address"`
	DeliveryAddress     string                         `json:"delivery_address"`
	SpecialInstructions string                         `json:"special_instructions" gorm:"type:text"`
	Status              string                         `json:"status" gorm:"index;default:'pending'"` // pending, scheduled, ready_for_pickup, delivered, cancelled
	DeliveryStatus      string                         `json:"delivery_status,omitempty"`             // pending, assigned, picked_up, out_for_delivery, delivered
	PickedUpAt          *time.Time                     `json:"picked_up_at,omitempty"`
	DeliveredAt         *time.Time                     `json:"delivered_at,omitempty"`
	IsLocked            bool                           `json:"is_locked" gorm:"default:false"`
	LockedAt            *time.Time                     `json:"locked_at,omitempty"`
	LockedBy            string                         `json:"locked_by,omitempty"`
	LockType            string                         `json:"lock_type,omitempty"` // manual, automatic
	UnlockedAt          *time.Time                     `json:"unlocked_at,omitempty"`
	UnlockedBy          string                         `json:"unlocked_by,omitempty"`
	IsRecurring         bool                           `json:"is_recurring" gorm:"index;default:false"`
	RecurrencePattern   *Frequency                     `json:"recurrence_pattern,omitempty" gorm:"serializer:json;type:text"`
	FrequencyTemplateID string                         `json:"frequency_template_id,omitempty" gorm:"size:36"`
	NextOccurrenceDate  Date                           `json:"next_occurrence_date,omitempty" gorm:"type:varchar(10);index"`
	ParentRecurringID   string                         `json:"parent_recurring_id,omitempty" gorm:"index;size:36"`

	DeliveriesHistory datatypes.JSONSlice[DeliveryRecord] `json:"deliveries_history,omitempty"`

	PendingModifications    *OrderChanges `json:"pending_modifications,omitempty" gorm:"serializer:json;type:text"`
	ModificationStatus      string        `json:"modification_status,omitempty" gorm:"index"` // pending_customer_edit, pending_owner_approval, approved, rejected
	ModifiedBy              string        `json:"modified_by,omitempty"`
	ModificationRequestedAt *time.Time    `json:"modification_requested_at,omitempty"`
	ReviewedBy              string        `json:"reviewed_by,omitempty"`
	ReviewedAt              *time.Time    `json:"reviewed_at,omitempty"`
	RejectionReason         string        `json:"rejection_reason,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// IsTerminal reports whether the order no longer accepts edit requests.
func (o *Order) IsTerminal() bool {
	return o.Status == string(OrderDelivered) || o.Status == string(OrderCancelled)
}

func (o *Order) HasPendingRequest() bool {
	return o.ModificationStatus == string(ModificationPendingCustomerEdit) ||
		o.ModificationStatus == string(ModificationPendingOwnerApproval)
}

func (o *Order) IsManuallyLocked() bool {
	return o.LockType == string(LockManual)
}

// ClearPending resets every edit-workflow field except the review stamps.
func (o *Order) ClearPending() {
	o.PendingModifications = nil
	o.ModificationStatus = ""
	o.ModifiedBy = ""
	o.ModificationRequestedAt = nil
}

type OrderItem struct {
	SKUID    string          `json:"sku_id"`
	SKUName  string          `json:"sku_name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// DeliveryRecord captures one completed occurrence of a roll-forward order.
type DeliveryRecord struct {
	OccurrenceDeliveryDate Date      `json:"occurrence_delivery_date"`
	DeliveredAt            time.Time `json:"delivered_at"`
	DriverID               string    `json:"driver_id,omitempty"`
	Notes                  string    `json:"notes"`
}

// OrderChanges is a partial update. Nil fields are left untouched.
type OrderChanges struct {
	Items               []OrderItem `json:"items,omitempty"`
	PickupDate          *Date       `json:"pickup_date,omitempty"`
	DeliveryDate        *Date       `json:"delivery_date,omitempty"`
	PickupAddress       *string     `json:"pickup_address,omitempty"`
	DeliveryAddress     *string     `json:"delivery_address,omitempty"`
	SpecialInstructions *string     `json:"special_instructions,omitempty"`
	Status              *string     `json:"status,omitempty"`
	IsRecurring         *bool       `json:"is_recurring,omitempty"`
	RecurrencePattern   *Frequency  `json:"recurrence_pattern,omitempty"`
	FrequencyTemplateID *string     `json:"frequency_template_id,omitempty"`
}

func (c *OrderChanges) IsEmpty() bool {
	return c == nil || (c.Items == nil && c.PickupDate == nil && c.DeliveryDate == nil &&
		c.PickupAddress == nil && c.DeliveryAddress == nil && c.SpecialInstructions == nil &&
		c.Status == nil && c.IsRecurring == nil && c.RecurrencePattern == nil && c.FrequencyTemplateID == nil)
}

// RecurrenceChanged reports whether applying c can move the next occurrence.
func (c *OrderChanges) RecurrenceChanged() bool {
	return c.DeliveryDate != nil || c.RecurrencePattern != nil || c.FrequencyTemplateID != nil || c.IsRecurring != nil
}

// Summary renders the change set for notification messages.
func (c *OrderChanges) Summary() string {
	if c.IsEmpty() {
		return "no changes"
	}
	var parts []string
	if c.Items != nil {
		lines := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			lines = append(lines, fmt.Sprintf("%s x%d", item.SKUName, item.Quantity))
		}
		parts = append(parts, "items: "+strings.Join(lines, ", "))
	}
	if c.PickupDate != nil {
		parts = append(parts, "pickup date: "+c.PickupDate.String())
	}
	if c.DeliveryDate != nil {
		parts = append(parts, "delivery date: "+c.DeliveryDate.String())
	}
	if c.PickupAddress != nil {
		parts = append(parts, "pickup address: "+*c.PickupAddress)
	}
	if c.DeliveryAddress != nil {
		parts = append(parts, "delivery address: "+*c.DeliveryAddress)
	}
	if c.SpecialInstructions != nil {
		parts = append(parts, "instructions updated")
	}
	if c.Status != nil {
		parts = append(parts, "status: "+*c.Status)
	}
	if c.IsRecurring != nil {
		parts = append(parts, fmt.Sprintf("recurring: %t", *c.IsRecurring))
	}
	if c.RecurrencePattern != nil {
		parts = append(parts, "frequency: "+c.RecurrencePattern.String())
	}
	if c.FrequencyTemplateID != nil {
		parts = append(parts, "frequency template changed")
	}
	return strings.Join(parts, "; ")
}

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderScheduled      OrderStatus = "scheduled"
	OrderReadyForPickup OrderStatus = "ready_for_pickup"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderPending, OrderScheduled, OrderReadyForPickup, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryAssigned       DeliveryStatus = "assigned"
	DeliveryPickedUp       DeliveryStatus = "picked_up"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

type LockType string

const (
	LockManual    LockType = "manual"
	LockAutomatic LockType = "automatic"
)

type ModificationStatus string

const (
	ModificationPendingCustomerEdit  ModificationStatus = "pending_customer_edit"
	ModificationPendingOwnerApproval ModificationStatus = "pending_owner_approval"
	ModificationApproved             ModificationStatus = "approved"
	ModificationRejected             ModificationStatus = "rejected"
)
