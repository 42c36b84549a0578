package economics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/pricing"
	"gorm.io/gorm"
)

// ErrTenantNotFound is returned when a metric is requested for an
// unknown tenant id. Never retried.
var ErrTenantNotFound = errors.New("tenant not found")

// EstimatedLifetimeMonths is the assumed average tenant relationship
// duration used for LTV. Documented assumption, not measured churn.
const EstimatedLifetimeMonths = 24

// LTVCACProfitableRatio is the industry heuristic: LTV:CAC above 3:1
// means the tenant is worth acquiring.
const LTVCACProfitableRatio = 3.0

// Calculator computes per-tenant financial health metrics from usage and
// the static pricing table. Construct one per process and share it.
type Calculator struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCalculator(conn *gorm.DB) *Calculator {
	return &Calculator{db: conn, now: time.Now}
}

type LTVResult struct {
	TenantID          uint    `json:"tenant_id"`
	PricingTier       string  `json:"pricing_tier"`
	MonthsActive      float64 `json:"months_active"`
	MonthlyPrice      float64 `json:"monthly_recurring_revenue"`
	OverageRevenue    float64 `json:"overage_revenue"`
	TotalRevenue      float64 `json:"total_revenue_to_date"`
	AvgMonthlyRevenue float64 `json:"avg_monthly_revenue"`
	EstimatedLifetime int     `json:"estimated_lifetime_months"`
	LifetimeValue     float64 `json:"lifetime_value"`
}

// LifetimeValue computes LTV as average monthly revenue times the
// assumed lifetime. Months active is floored at 1 so zero-age tenants
// never divide by zero.
func (c *Calculator) LifetimeValue(tenantID uint) (*LTVResult, error) {
	tenant, err := c.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	tier := pricing.TierOrDefault(tenant.PricingTier)

	ageDays := math.Floor(c.now().Sub(tenant.CreatedAt).Hours() / 24)
	monthsActive := math.Max(1, ageDays/30)

	var totalEvents int64
	if err := c.db.Model(&models.Event{}).Where("tenant_id = ?", tenantID).Count(&totalEvents).Error; err != nil {
		return nil, err
	}

	includedEvents := float64(tier.IncludedEvents) * monthsActive
	overageEvents := math.Max(0, float64(totalEvents)-includedEvents)
	overageRevenue := overageEvents / 1000 * tier.OveragePer1k

	totalRevenue := tier.PricePerMonth*monthsActive + overageRevenue
	avgMonthlyRevenue := totalRevenue / monthsActive

	return &LTVResult{
		TenantID:          tenantID,
		PricingTier:       tenant.PricingTier,
		MonthsActive:      round1(monthsActive),
		MonthlyPrice:      tier.PricePerMonth,
		OverageRevenue:    round2(overageRevenue),
		TotalRevenue:      round2(totalRevenue),
		AvgMonthlyRevenue: round2(avgMonthlyRevenue),
		EstimatedLifetime: EstimatedLifetimeMonths,
		LifetimeValue:     round2(avgMonthlyRevenue * EstimatedLifetimeMonths),
	}, nil
}

type CACResult struct {
	TenantID        uint    `json:"tenant_id"`
	AcquisitionCost float64 `json:"customer_acquisition_cost"`
	LifetimeValue   float64 `json:"lifetime_value"`
	LTVCACRatio     float64 `json:"ltv_cac_ratio"`
	IsProfitable    bool    `json:"is_profitable"`
	PaybackMonths   float64 `json:"payback_period_months"`
}

// AcquisitionCost uses the fixed target CAC; no real attribution
// tracking exists. Payback is 0 when average monthly revenue is 0.
func (c *Calculator) AcquisitionCost(tenantID uint) (*CACResult, error) {
	ltv, err := c.LifetimeValue(tenantID)
	if err != nil {
		return nil, err
	}

	cac := pricing.MarketingCACTarget

	ratio := 0.0
	if cac > 0 {
		ratio = ltv.LifetimeValue / cac
	}

	payback := 0.0
	if ltv.AvgMonthlyRevenue > 0 {
		payback = cac / ltv.AvgMonthlyRevenue
	}

	return &CACResult{
		TenantID:        tenantID,
		AcquisitionCost: cac,
		LifetimeValue:   ltv.LifetimeValue,
		LTVCACRatio:     round2(ratio),
		IsProfitable:    ratio > LTVCACProfitableRatio,
		PaybackMonths:   round1(payback),
	}, nil
}

type CostResult struct {
	TenantID         uint    `json:"tenant_id"`
	HostingCost      float64 `json:"hosting_cost"`
	SupportCost      float64 `json:"support_cost"`
	StorageCost      float64 `json:"storage_cost"`
	APICost          float64 `json:"api_cost"`
	TotalMonthlyCost float64 `json:"total_monthly_cost"`
	Events30d        int64   `json:"events_30d"`
}

// MonthlyOperatingCost sums fixed hosting and support costs with
// usage-proportional storage and API costs over the trailing 30 days.
// Storage assumes 1KB per event on average.
func (c *Calculator) MonthlyOperatingCost(tenantID uint) (*CostResult, error) {
	if _, err := c.tenant(tenantID); err != nil {
		return nil, err
	}

	var events30d int64
	err := c.db.Model(&models.Event{}).
		Where("tenant_id = ? AND timestamp >= ?", tenantID, c.now().AddDate(0, 0, -30)).
		Count(&events30d).Error
	if err != nil {
		return nil, err
	}

	storageGB := float64(events30d) * 1024 / (1024 * 1024 * 1024)
	storageCost := storageGB * pricing.StoragePerGB
	apiCost := float64(events30d) / 1000 * pricing.APICostPer1k

	total := pricing.HostingPerTenant + pricing.SupportPerTenant + storageCost + apiCost

	return &CostResult{
		TenantID:         tenantID,
		HostingCost:      pricing.HostingPerTenant,
		SupportCost:      pricing.SupportPerTenant,
		StorageCost:      round2(storageCost),
		APICost:          round2(apiCost),
		TotalMonthlyCost: round2(total),
		Events30d:        events30d,
	}, nil
}

type ProfitResult struct {
	TenantID        uint    `json:"tenant_id"`
	MonthlyRevenue  float64 `json:"monthly_revenue"`
	MonthlyCost     float64 `json:"monthly_cost"`
	MonthlyProfit   float64 `json:"monthly_profit"`
	ProfitMarginPct float64 `json:"profit_margin_pct"`
	TotalProfit     float64 `json:"total_profit_to_date"`
	IsProfitable    bool    `json:"is_profitable"`
	PaybackAchieved bool    `json:"payback_achieved"`
	Grade           string  `json:"grade"`
}

// Profitability combines revenue, operating cost and CAC into a letter
// grade. Margin is 0 when revenue is 0.
func (c *Calculator) Profitability(tenantID uint) (*ProfitResult, error) {
	ltv, err := c.LifetimeValue(tenantID)
	if err != nil {
		return nil, err
	}

	costs, err := c.MonthlyOperatingCost(tenantID)
	if err != nil {
		return nil, err
	}

	cac, err := c.AcquisitionCost(tenantID)
	if err != nil {
		return nil, err
	}

	monthlyProfit := ltv.AvgMonthlyRevenue - costs.TotalMonthlyCost

	margin := 0.0
	if ltv.AvgMonthlyRevenue > 0 {
		margin = monthlyProfit / ltv.AvgMonthlyRevenue * 100
	}

	totalProfit := ltv.TotalRevenue - costs.TotalMonthlyCost*ltv.MonthsActive - cac.AcquisitionCost

	return &ProfitResult{
		TenantID:        tenantID,
		MonthlyRevenue:  round2(ltv.AvgMonthlyRevenue),
		MonthlyCost:     costs.TotalMonthlyCost,
		MonthlyProfit:   round2(monthlyProfit),
		ProfitMarginPct: round1(margin),
		TotalProfit:     round2(totalProfit),
		IsProfitable:    monthlyProfit > 0,
		PaybackAchieved: totalProfit > 0,
		Grade:           Grade(margin, cac.LTVCACRatio),
	}, nil
}

// Grade maps profit margin and LTV:CAC ratio onto a letter grade. Margin
// contributes up to 50 points, the ratio the other 50. Deterministic:
// identical inputs always produce the same grade.
func Grade(profitMarginPct, ltvCACRatio float64) string {
	score := 0

	switch {
	case profitMarginPct >= 60:
		score += 50
	case profitMarginPct >= 40:
		score += 40
	case profitMarginPct >= 20:
		score += 30
	case profitMarginPct >= 0:
		score += 20
	}

	switch {
	case ltvCACRatio >= 5.0:
		score += 50
	case ltvCACRatio >= 4.0:
		score += 40
	case ltvCACRatio >= 3.0:
		score += 30
	case ltvCACRatio >= 2.0:
		score += 20
	default:
		score += 10
	}

	switch {
	case score >= 90:
		return "A+"
	case score >= 85:
		return "A"
	case score >= 80:
		return "A-"
	case score >= 75:
		return "B+"
	case score >= 70:
		return "B"
	case score >= 65:
		return "B-"
	case score >= 60:
		return "C+"
	case score >= 55:
		return "C"
	case score >= 50:
		return "C-"
	case score >= 45:
		return "D"
	default:
		return "F"
	}
}

func (c *Calculator) tenant(tenantID uint) (*models.Tenant, error) {
	var tenant models.Tenant

	if err := c.db.First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tenant %d: %w", tenantID, ErrTenantNotFound)
		}
		return nil, err
	}

	return &tenant, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
