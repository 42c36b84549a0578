package models

import "time"

// FunnelEvent records a visitor reaching a stage of the marketing funnel.
type FunnelEvent struct {
	BaseModel

	Stage     string    `gorm:"not null;index"` // see types.FunnelStages
	Channel   string    `gorm:"index"`
	TenantID  *uint     `gorm:"index"`
	Timestamp time.Time `gorm:"not null;index"`
}

// Campaign aggregates spend and outcomes for a marketing campaign.
type Campaign struct {
	BaseModel

	Name        string  `gorm:"not null"`
	Channel     string  `gorm:"not null;index"`
	Cost        float64 `gorm:"not null"`
	Leads       int     `gorm:"not null"`
	Conversions int     `gorm:"not null"`
}
