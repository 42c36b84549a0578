package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemError records a fault reported by any component. Read-only after
// creation; low-severity rows are purged by the retention job. These rows
// are the "defects" counted by the quality engine.
type SystemError struct {
	BaseModel

	ErrorType  string         `gorm:"not null;index"`
	Message    string         `gorm:"not null"`
	Severity   string         `gorm:"not null;index"` // "critical", "high", "medium", "low", "info"
	Component  string         `gorm:"not null"`
	StackTrace string
	TenantID   *uint          `gorm:"index"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	Timestamp  time.Time      `gorm:"not null;index"`

	// Relationships
	Alerts []Alert `gorm:"foreignKey:SystemErrorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
