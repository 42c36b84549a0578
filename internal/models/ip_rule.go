package models

import "time"

// IPRule is a whitelist or blacklist entry for an address. An address is
// never active on both lists at once: adding it to one deactivates it on
// the other (last write wins). ExpiresAt only applies to blacklist rows.
type IPRule struct {
	BaseModel

	IPAddress string `gorm:"not null;index"`
	List      string `gorm:"not null;index"` // "whitelist", "blacklist"
	Reason    string
	IsActive  bool `gorm:"not null;default:true"`
	ExpiresAt *time.Time
}

// SecurityIncident is an audit row for detected threats and honeypot hits.
type SecurityIncident struct {
	BaseModel

	IPAddress    string    `gorm:"not null;index"`
	IncidentType string    `gorm:"not null"`
	Details      string
	Severity     string    `gorm:"not null"`
	Timestamp    time.Time `gorm:"not null;index"`
}
