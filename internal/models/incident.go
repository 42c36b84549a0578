package models

import (
	"time"

	"gorm.io/datatypes"
)

// Incident captures a detected or manually reported operational incident.
// ResponseActions is an ordered JSON list that is appended to but never
// reordered. Resolution fields are set by ResolveIncident; re-resolution
// overwrites them rather than being rejected.
type Incident struct {
	BaseModel

	Reference       string         `gorm:"not null;uniqueIndex"`
	IncidentType    string         `gorm:"not null;index"`
	Severity        string         `gorm:"not null"` // "p0".."p3"
	Description     string         `gorm:"not null"`
	Metadata        datatypes.JSON `gorm:"type:jsonb"`
	Status          string         `gorm:"not null;default:open"` // "open", "resolved"
	ResponseActions datatypes.JSON `gorm:"type:jsonb"`
	ResolvedAt      *time.Time
	ResolvedBy      string
	ResolutionNotes string
}
