package models

import "time"

// Alert is derived from a SystemError when severity crosses the alerting
// threshold. Every critical SystemError produces exactly one Alert.
type Alert struct {
	BaseModel

	SystemErrorID   uint   `gorm:"not null;index"`
	AlertType       string `gorm:"not null"`
	Message         string
	Severity        string `gorm:"not null"`
	Status          string `gorm:"not null;default:open"` // "open", "investigating", "mitigating", "resolved", "closed"
	ExpiresAt       time.Time
	AcknowledgedBy  string
	AcknowledgedAt  *time.Time
	ResolvedBy      string
	ResolvedAt      *time.Time
	ResolutionNotes string

	// Relationships
	SystemError SystemError `gorm:"foreignKey:SystemErrorID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
