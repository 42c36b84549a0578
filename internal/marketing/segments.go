package marketing

import (
	"errors"
	"fmt"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

// Segmenter classifies tenants into marketing segments by age and
// activity.
type Segmenter struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSegmenter(conn *gorm.DB) *Segmenter {
	return &Segmenter{db: conn, now: time.Now}
}

type TierSegment struct {
	PricingTier string  `json:"pricing_tier"`
	Count       int64   `json:"count"`
	AvgAgeDays  float64 `json:"avg_age_days"`
}

type EngagementSegment struct {
	Count   int      `json:"count"`
	Tenants []string `json:"tenants"`
}

type Segments struct {
	ByTier        []TierSegment                `json:"by_tier"`
	ByEngagement  map[string]EngagementSegment `json:"by_engagement"`
	TotalSegments int                          `json:"total_segments"`
}

// Classify buckets every active tenant. New under 30 days; loyal over
// 180 days with heavy usage; champions are high-activity; at_risk is
// low or stale activity. A tenant lands in the first matching bucket.
func (s *Segmenter) Classify() (*Segments, error) {
	var tenants []models.Tenant
	err := s.db.Where("status = ?", types.TenantActive).Order("id ASC").Find(&tenants).Error
	if err != nil {
		return nil, err
	}

	now := s.now()

	tierAgg := map[string]*TierSegment{}
	var tierOrder []string

	engagement := map[string][]string{
		"champions":     {},
		"at_risk":       {},
		"new_customers": {},
		"loyal":         {},
	}

	for _, tenant := range tenants {
		ageDays := now.Sub(tenant.CreatedAt).Hours() / 24

		seg, ok := tierAgg[tenant.PricingTier]
		if !ok {
			seg = &TierSegment{PricingTier: tenant.PricingTier}
			tierAgg[tenant.PricingTier] = seg
			tierOrder = append(tierOrder, tenant.PricingTier)
		}
		seg.AvgAgeDays += ageDays
		seg.Count++

		var eventCount int64
		err := s.db.Model(&models.Event{}).Where("tenant_id = ?", tenant.ID).Count(&eventCount).Error
		if err != nil {
			return nil, err
		}

		var lastEvent models.Event
		hasActivity := true
		err = s.db.Where("tenant_id = ?", tenant.ID).Order("timestamp DESC").First(&lastEvent).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			hasActivity = false
		}

		switch {
		case ageDays < 30:
			engagement["new_customers"] = append(engagement["new_customers"], tenant.Name)
		case ageDays > 180 && eventCount > 100:
			engagement["loyal"] = append(engagement["loyal"], tenant.Name)
		case eventCount > 50:
			engagement["champions"] = append(engagement["champions"], tenant.Name)
		case eventCount < 10 || (hasActivity && now.Sub(lastEvent.Timestamp).Hours() > 30*24):
			engagement["at_risk"] = append(engagement["at_risk"], tenant.Name)
		}
	}

	byTier := make([]TierSegment, 0, len(tierOrder))
	for _, tier := range tierOrder {
		seg := tierAgg[tier]
		if seg.Count > 0 {
			seg.AvgAgeDays = round1(seg.AvgAgeDays / float64(seg.Count))
		}
		byTier = append(byTier, *seg)
	}

	byEngagement := make(map[string]EngagementSegment, len(engagement))
	for name, members := range engagement {
		display := members
		if len(display) > 10 {
			display = display[:10]
		}
		byEngagement[name] = EngagementSegment{Count: len(members), Tenants: display}
	}

	return &Segments{
		ByTier:        byTier,
		ByEngagement:  byEngagement,
		TotalSegments: len(engagement),
	}, nil
}

type GrowthStrategy struct {
	Priority       string `json:"priority"`
	Strategy       string `json:"strategy"`
	Detail         string `json:"detail,omitempty"`
	Action         string `json:"action"`
	ExpectedImpact string `json:"expected_impact"`
	Investment     string `json:"investment_needed,omitempty"`
}

// GrowthStrategies derives prioritized plays from channel performance,
// funnel leaks and segment sizes. The referral program entry is static
// advice that is always worth listing.
func (s *Segmenter) GrowthStrategies(funnel *Funnel, channels *Channels) ([]GrowthStrategy, error) {
	var strategies []GrowthStrategy

	stats, err := channels.Performance(30)
	if err != nil {
		return nil, err
	}
	if len(stats) > 0 {
		best := stats[0]
		for _, ch := range stats[1:] {
			if ch.ROIPct > best.ROIPct {
				best = ch
			}
		}
		strategies = append(strategies, GrowthStrategy{
			Priority:       "high",
			Strategy:       "Double Down on Best Channel",
			Detail:         fmt.Sprintf("%s at %.1f%% ROI", best.Channel, best.ROIPct),
			Action:         fmt.Sprintf("Increase budget for %s by 50%%", best.Channel),
			ExpectedImpact: fmt.Sprintf("Additional %.0f customers/month", float64(best.Conversions)*0.5),
			Investment:     fmt.Sprintf("€%.2f/month", best.TotalCost*0.5),
		})
	}

	leaks, err := funnel.IdentifyLeaks(30)
	if err != nil {
		return nil, err
	}
	if len(leaks) > 0 {
		worst := leaks[0]
		for _, leak := range leaks[1:] {
			if leak.ConversionRate < worst.ConversionRate {
				worst = leak
			}
		}
		strategies = append(strategies, GrowthStrategy{
			Priority:       "high",
			Strategy:       "Fix Critical Funnel Leak",
			Detail:         fmt.Sprintf("%s to %s converts at %.2f%%", worst.FromStage, worst.ToStage, worst.ConversionRate),
			Action:         worst.Recommendation,
			ExpectedImpact: "Increase overall conversion by 20-30%",
			Investment:     "€500-1000 for optimization",
		})
	}

	segments, err := s.Classify()
	if err != nil {
		return nil, err
	}

	if atRisk := segments.ByEngagement["at_risk"].Count; atRisk > 0 {
		strategies = append(strategies, GrowthStrategy{
			Priority:       "medium",
			Strategy:       "Win-Back Campaign for At-Risk Customers",
			Detail:         fmt.Sprintf("%d tenants at risk", atRisk),
			Action:         "Email campaign with special offer (20% discount for 3 months)",
			ExpectedImpact: fmt.Sprintf("Reactivate %.0f customers (30%% success rate)", float64(atRisk)*0.3),
			Investment:     fmt.Sprintf("€%.2f (email costs + discount)", float64(atRisk)*2),
		})
	}

	if loyal := segments.ByEngagement["loyal"].Count; loyal > 0 {
		strategies = append(strategies, GrowthStrategy{
			Priority:       "high",
			Strategy:       "Upsell Loyal Customers to Higher Tier",
			Detail:         fmt.Sprintf("%d loyal tenants", loyal),
			Action:         "Personalized outreach with feature upgrade benefits",
			ExpectedImpact: fmt.Sprintf("%.0f upgrades (20%% conversion)", float64(loyal)*0.2),
		})
	}

	strategies = append(strategies, GrowthStrategy{
		Priority:       "medium",
		Strategy:       "Launch Referral Program",
		Action:         "Offer 1 month free for each successful referral",
		ExpectedImpact: "15-25% of customers will refer (avg 1.2 referrals each)",
		Investment:     "Low (automated system + reward costs)",
	})

	return strategies, nil
}

type Dashboard struct {
	Funnel          *FunnelMetrics   `json:"funnel"`
	Channels        []ChannelStats   `json:"channels"`
	Segments        *Segments        `json:"segments"`
	Strategies      []GrowthStrategy `json:"growth_strategies"`
	CampaignROI     *ROIReport       `json:"campaign_performance"`
	TopChannel      *ChannelStats    `json:"top_channel,omitempty"`
	AtRiskCustomers int              `json:"at_risk_customers"`
}

// FullDashboard assembles the marketing view in one call.
func (s *Segmenter) FullDashboard(funnel *Funnel, channels *Channels) (*Dashboard, error) {
	metrics, err := funnel.Metrics(30)
	if err != nil {
		return nil, err
	}

	stats, err := channels.Performance(30)
	if err != nil {
		return nil, err
	}

	segments, err := s.Classify()
	if err != nil {
		return nil, err
	}

	strategies, err := s.GrowthStrategies(funnel, channels)
	if err != nil {
		return nil, err
	}

	roi, err := channels.ROI(0, 30)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Funnel:          metrics,
		Channels:        stats,
		Segments:        segments,
		Strategies:      strategies,
		CampaignROI:     roi,
		AtRiskCustomers: segments.ByEngagement["at_risk"].Count,
	}

	for i := range stats {
		if dashboard.TopChannel == nil || stats[i].ROIPct > dashboard.TopChannel.ROIPct {
			dashboard.TopChannel = &stats[i]
		}
	}

	return dashboard, nil
}
