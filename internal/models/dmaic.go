package models

import (
	"time"

	"gorm.io/datatypes"
)

// DMAICProject is a quality-improvement project. CurrentPhase moves
// forward-only through define/measure/analyze/improve/control; each
// transition is logged as an immutable DMAICPhaseLog row. Status is
// orthogonal to the phase and may be set to "completed" from any phase.
type DMAICProject struct {
	BaseModel

	Title                string `gorm:"not null"`
	ProblemStatement     string
	Goal                 string
	Owner                string `gorm:"not null"`
	CurrentPhase         string `gorm:"not null;default:define"`
	Status               string `gorm:"not null;default:active"` // "active", "completed"
	TargetCompletionDate time.Time
	ResultsSummary       string
	ImprovementsAchieved datatypes.JSON `gorm:"type:jsonb"`
	CompletedAt          *time.Time

	// Relationships
	PhaseLogs    []DMAICPhaseLog    `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Measurements []DMAICMeasurement `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

type DMAICPhaseLog struct {
	BaseModel

	ProjectID uint   `gorm:"not null;index"`
	Phase     string `gorm:"not null"`
	Notes     string
}

type DMAICMeasurement struct {
	BaseModel

	ProjectID   uint    `gorm:"not null;index"`
	MetricName  string  `gorm:"not null"`
	MetricValue float64 `gorm:"not null"`
	Notes       string
	MeasuredAt  time.Time `gorm:"not null"`
}
