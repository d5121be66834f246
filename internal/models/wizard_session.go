package models

import (
	"time"

	"gorm.io/datatypes"
)

// WizardSession persists the single active wizard of a chat session
type WizardSession struct {
	SessionKey string         `gorm:"primaryKey" json:"sessionKey"`
	Kind       string         `gorm:"not null" json:"kind"` // create, update, bulk
	Payload    datatypes.JSON `gorm:"not null" json:"payload"`
	ExpiresAt  *time.Time     `gorm:"index" json:"expiresAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// TableName specifies the table name for WizardSession model
func (WizardSession) TableName() string {
	return "wizard_sessions"
}
