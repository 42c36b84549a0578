package models

import (
	"time"

	"gorm.io/datatypes"
)

// Event is an append-only log entry owned by a tenant. Rows are never
// mutated or deleted except by retention cleanup.
type Event struct {
	BaseModel

	TenantID  uint           `gorm:"not null;index"`
	IPAddress string         `gorm:"not null"`
	Timestamp time.Time      `gorm:"not null;index"`
	Data      datatypes.JSON `gorm:"type:jsonb"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Tenant Tenant `gorm:"foreignKey:TenantID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
