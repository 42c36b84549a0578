package economics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/pricing"
	"github.com/connexx-dev/connexx/internal/types"
)

type BusinessMetrics struct {
	ActiveTenants      int64   `json:"active_tenants"`
	MRR                float64 `json:"mrr"`
	ARR                float64 `json:"arr"`
	AvgRevenuePerUser  float64 `json:"avg_revenue_per_tenant"`
	FixedCosts         float64 `json:"fixed_monthly_costs"`
	VariableCosts      float64 `json:"variable_monthly_costs"`
	MonthlyProfit      float64 `json:"monthly_profit"`
	GrossMarginPct     float64 `json:"gross_margin_pct"`
	ChurnRate30d       float64 `json:"churn_rate_30d_pct"`
	BreakEvenCustomers int     `json:"break_even_customers"`
	Status             string  `json:"status"`
}

// CompanyMetrics rolls the whole tenant base up into MRR, margin and
// break-even figures. MRR counts subscription prices only; overage is
// billed in arrears and excluded here.
func (c *Calculator) CompanyMetrics() (*BusinessMetrics, error) {
	var tenants []models.Tenant
	if err := c.db.Where("status = ?", types.TenantActive).Find(&tenants).Error; err != nil {
		return nil, err
	}

	mrr := 0.0
	for _, t := range tenants {
		mrr += pricing.TierOrDefault(t.PricingTier).PricePerMonth
	}

	active := int64(len(tenants))
	fixed := pricing.DevelopmentMonthly + pricing.InfrastructureFixed
	variablePerTenant := pricing.HostingPerTenant + pricing.SupportPerTenant
	variable := variablePerTenant * float64(active)

	profit := mrr - fixed - variable

	margin := 0.0
	arpu := 0.0
	if active > 0 {
		arpu = mrr / float64(active)
	}
	if mrr > 0 {
		margin = (mrr - variable) / mrr * 100
	}

	churned, err := c.churnRate30d()
	if err != nil {
		return nil, err
	}

	// Break-even needs each additional tenant to contribute positive
	// margin at the current average price.
	breakEven := 0
	if contribution := arpu - variablePerTenant; contribution > 0 {
		breakEven = int(math.Ceil(fixed / contribution))
	}

	status := "burning"
	if profit > 0 {
		status = "profitable"
	}

	return &BusinessMetrics{
		ActiveTenants:      active,
		MRR:                round2(mrr),
		ARR:                round2(mrr * 12),
		AvgRevenuePerUser:  round2(arpu),
		FixedCosts:         fixed,
		VariableCosts:      round2(variable),
		MonthlyProfit:      round2(profit),
		GrossMarginPct:     round1(margin),
		ChurnRate30d:       churned,
		BreakEvenCustomers: breakEven,
		Status:             status,
	}, nil
}

func (c *Calculator) churnRate30d() (float64, error) {
	cutoff := c.now().AddDate(0, 0, -30)

	var suspended int64
	err := c.db.Model(&models.Tenant{}).
		Where("status = ? AND updated_at >= ?", types.TenantSuspended, cutoff).
		Count(&suspended).Error
	if err != nil {
		return 0, err
	}

	var base int64
	if err := c.db.Model(&models.Tenant{}).Where("created_at < ?", cutoff).Count(&base).Error; err != nil {
		return 0, err
	}

	if base == 0 {
		return 0, nil
	}
	return round1(float64(suspended) / float64(base) * 100), nil
}

type TenantGrade struct {
	TenantID      uint    `json:"tenant_id"`
	Name          string  `json:"name"`
	PricingTier   string  `json:"pricing_tier"`
	Grade         string  `json:"grade"`
	MonthlyProfit float64 `json:"monthly_profit"`
}

// CustomerGrades grades every active tenant and sorts most profitable
// first. Tenants that fail to compute are skipped rather than failing
// the whole report.
func (c *Calculator) CustomerGrades() ([]TenantGrade, error) {
	var tenants []models.Tenant
	if err := c.db.Where("status = ?", types.TenantActive).Find(&tenants).Error; err != nil {
		return nil, err
	}

	grades := make([]TenantGrade, 0, len(tenants))
	for _, t := range tenants {
		p, err := c.Profitability(t.ID)
		if err != nil {
			continue
		}
		grades = append(grades, TenantGrade{
			TenantID:      t.ID,
			Name:          t.Name,
			PricingTier:   t.PricingTier,
			Grade:         p.Grade,
			MonthlyProfit: p.MonthlyProfit,
		})
	}

	sort.Slice(grades, func(i, j int) bool {
		if grades[i].MonthlyProfit != grades[j].MonthlyProfit {
			return grades[i].MonthlyProfit > grades[j].MonthlyProfit
		}
		return grades[i].TenantID < grades[j].TenantID
	})

	return grades, nil
}

type Cohort struct {
	Month        string  `json:"month"`
	Signups      int     `json:"signups"`
	StillActive  int     `json:"still_active"`
	RetentionPct float64 `json:"retention_pct"`
	TotalEvents  int64   `json:"total_events"`
}

// CohortAnalysis groups tenants by signup month and reports how many of
// each cohort remain active, oldest cohort first.
func (c *Calculator) CohortAnalysis() ([]Cohort, error) {
	var tenants []models.Tenant
	if err := c.db.Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, err
	}

	byMonth := map[string]*Cohort{}
	var order []string

	for _, t := range tenants {
		key := t.CreatedAt.UTC().Format("2006-01")
		cohort, ok := byMonth[key]
		if !ok {
			cohort = &Cohort{Month: key}
			byMonth[key] = cohort
			order = append(order, key)
		}

		cohort.Signups++
		if t.Status == types.TenantActive {
			cohort.StillActive++
		}

		var events int64
		if err := c.db.Model(&models.Event{}).Where("tenant_id = ?", t.ID).Count(&events).Error; err != nil {
			return nil, err
		}
		cohort.TotalEvents += events
	}

	cohorts := make([]Cohort, 0, len(order))
	for _, key := range order {
		cohort := byMonth[key]
		if cohort.Signups > 0 {
			cohort.RetentionPct = round1(float64(cohort.StillActive) / float64(cohort.Signups) * 100)
		}
		cohorts = append(cohorts, *cohort)
	}

	return cohorts, nil
}

type TierRecommendation struct {
	TenantID    uint    `json:"tenant_id"`
	Name        string  `json:"name"`
	CurrentTier string  `json:"current_tier"`
	Action      string  `json:"action"`
	TargetTier  string  `json:"target_tier,omitempty"`
	Reason      string  `json:"reason"`
	MarginPct   float64 `json:"margin_pct"`
}

// PricingRecommendations flags tenants whose margin suggests a tier
// change. Below 30% margin the tenant is underpaying and gets an upgrade
// recommendation when a higher tier exists; above 60% the advice is to
// invest in retention.
func (c *Calculator) PricingRecommendations() ([]TierRecommendation, error) {
	var tenants []models.Tenant
	if err := c.db.Where("status = ?", types.TenantActive).Find(&tenants).Error; err != nil {
		return nil, err
	}

	var recs []TierRecommendation
	for _, t := range tenants {
		p, err := c.Profitability(t.ID)
		if err != nil {
			continue
		}

		switch {
		case p.ProfitMarginPct < 30:
			next, ok := pricing.UpgradePath[t.PricingTier]
			if !ok {
				continue
			}
			recs = append(recs, TierRecommendation{
				TenantID:    t.ID,
				Name:        t.Name,
				CurrentTier: t.PricingTier,
				Action:      "upgrade",
				TargetTier:  next,
				Reason:      "margin below 30%, usage exceeds current tier economics",
				MarginPct:   p.ProfitMarginPct,
			})
		case p.ProfitMarginPct > 60:
			recs = append(recs, TierRecommendation{
				TenantID:    t.ID,
				Name:        t.Name,
				CurrentTier: t.PricingTier,
				Action:      "retain",
				Reason:      "high margin tenant, prioritize retention",
				MarginPct:   p.ProfitMarginPct,
			})
		}
	}

	return recs, nil
}

// ApplyTierChange normalizes a billing webhook into a tier assignment.
// The amount is recorded only for audit logging by the caller; the tier
// table stays the source of truth for pricing.
func (c *Calculator) ApplyTierChange(tenantID uint, newTier string, amount float64) error {
	if _, ok := pricing.Tiers[newTier]; !ok {
		return fmt.Errorf("unknown pricing tier %q", newTier)
	}

	tenant, err := c.tenant(tenantID)
	if err != nil {
		return err
	}

	return c.db.Model(tenant).Updates(map[string]any{
		"pricing_tier": newTier,
		"updated_at":   time.Now(),
	}).Error
}
