package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant represents a store owner whose catalog the assistant operates on.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Tenant struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ClientKey string `gorm:"uniqueIndex;not null" json:"clientKey"`
	FullName  string `json:"fullName,omitempty"`
	Backend   string `gorm:"default:'woo'" json:"backend"` // woo, odoo

	StoreURL       string `gorm:"column:woo_url" json:"storeUrl"`
	ConsumerKey    string `gorm:"column:woo_ck" json:"-"`
	ConsumerSecret string `gorm:"column:woo_cs" json:"-"` // sealed with ENC_KEY

	// Odoo backends reuse StoreURL; these select the database and login
	OdooDatabase string `json:"odooDatabase,omitempty"`
	OdooUsername string `json:"odooUsername,omitempty"`

	Prefs datatypes.JSON `json:"prefs,omitempty"`

	IsActive  bool           `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// TenantPrefs is the decoded shape of Tenant.Prefs
type TenantPrefs struct {
	AllowRealName *bool `json:"allowRealName,omitempty"`
}
