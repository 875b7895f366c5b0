package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"index;size:36;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Message   string    `json:"message" gorm:"type:text"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

const (
	NotificationOrderCreated   = "order_created"
	NotificationOrderUpdated   = "order_updated"
	NotificationOrderLocked    = "order_locked"
	NotificationOrderCancelled = "order_cancelled"
	NotificationEditRequest    = "edit_request"
	NotificationEditReviewed   = "edit_reviewed"
	NotificationDriverAssigned = "driver_assigned"
	NotificationDelivery       = "delivery_update"
	NotificationRecurring      = "recurring_order"
)
