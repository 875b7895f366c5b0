package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	FullName       string         `json:"full_name" gorm:"not null"`
	Email          string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string         `json:"-"`
	PhoneNumber    string         `json:"phone_number"`
	Address        string         `json:"address"`
	Role           string         `json:"role" gorm:"index;default:'customer'"` // owner, admin, customer, driver
	WhatsAppNumber string         `json:"whatsapp_number" gorm:"column:whats_app_number"`
	IsActive       bool           `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type UserRole string

const (
	RoleOwner    UserRole = "owner"
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"
	RoleDriver   UserRole = "driver"
)

// IsStaff reports whether role may edit orders directly.
func IsStaff(role string) bool {
	return role == string(RoleOwner) || role == string(RoleAdmin)
}

func ValidRole(role string) bool {
	switch UserRole(role) {
	case RoleOwner, RoleAdmin, RoleCustomer, RoleDriver:
		return true
	}
	return false
}
