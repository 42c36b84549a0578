package models

type Tenant struct {
	BaseModel

	Name            string `gorm:"not null;uniqueIndex"`
	AccessCode      string `gorm:"not null;uniqueIndex"`
	ContactEmail    string
	CompanyInfo     string
	Status          string `gorm:"not null;default:active"` // "active", "inactive", "suspended"
	SuspendedReason string
	PricingTier     string `gorm:"not null;default:demo"` // see pricing.Tiers

	// Relationships
	Events []Event `gorm:"foreignKey:TenantID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
