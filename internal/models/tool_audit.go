package models

import (
	"time"

	"gorm.io/datatypes"
)

// ToolAuditLog represents a log entry for one tool execution
type ToolAuditLog struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	TenantID      string         `gorm:"index" json:"tenantId"`
	SessionKey    string         `gorm:"index" json:"sessionKey,omitempty"`
	ToolName      string         `gorm:"not null;index" json:"toolName"`
	Category      string         `json:"category"` // read, write
	RequestData   datatypes.JSON `json:"requestData,omitempty"`
	Status        string         `gorm:"default:'success'" json:"status"` // success, failed, rejected
	ErrorMessage  string         `json:"errorMessage,omitempty"`
	ExecutionTime int            `json:"executionTimeMs"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// TableName specifies the table name for ToolAuditLog model
func (ToolAuditLog) TableName() string {
	return "tool_audit_logs"
}

// AllModels lists every table the service migrates on startup
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&WizardSession{},
		&ToolAuditLog{},
	}
}
