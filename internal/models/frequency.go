package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Frequency is a recurrence interval such as "every 2 weeks".
type Frequency struct {
	Type  string `json:"frequency_type"`
	Value int    `json:"frequency_value"`
}

func (f Frequency) String() string {
	return fmt.Sprintf("%s/%d", f.Type, f.Value)
}

type FrequencyType string

const (
	FrequencyDaily   FrequencyType = "daily"
	FrequencyWeekly  FrequencyType = "weekly"
	FrequencyMonthly FrequencyType = "monthly"
	FrequencyCustom  FrequencyType = "custom"
)

type FrequencyTemplate struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Name           string    `json:"name" gorm:"not null"`
	FrequencyType  string    `json:"frequency_type" gorm:"not null"`
	FrequencyValue int       `json:"frequency_value" gorm:"not null;default:1"`
	Description    string    `json:"description"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (t *FrequencyTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *FrequencyTemplate) Frequency() Frequency {
	return Frequency{Type: t.FrequencyType, Value: t.FrequencyValue}
}
