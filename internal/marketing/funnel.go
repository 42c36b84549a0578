package marketing

import (
	"errors"
	"math"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

var ErrUnknownStage = errors.New("unknown funnel stage")

// Funnel analyzes the fixed five stage acquisition funnel from
// awareness to purchase.
type Funnel struct {
	db  *gorm.DB
	now func() time.Time
}

func NewFunnel(conn *gorm.DB) *Funnel {
	return &Funnel{db: conn, now: time.Now}
}

type FunnelMetrics struct {
	PeriodDays        int                `json:"period_days"`
	Counts            map[string]int64   `json:"funnel_counts"`
	ConversionRates   map[string]float64 `json:"conversion_rates"`
	OverallConversion float64            `json:"overall_conversion_rate"`
	TotalAwareness    int64              `json:"total_awareness"`
	TotalPurchases    int64              `json:"total_purchases"`
	Efficiency        string             `json:"funnel_efficiency"`
}

// Metrics counts visitors per stage over the window and derives the
// pairwise conversion rates. A stage with zero visitors converts at 0,
// never panics.
func (f *Funnel) Metrics(days int) (*FunnelMetrics, error) {
	if days <= 0 {
		days = 30
	}
	since := f.now().AddDate(0, 0, -days)

	counts := make(map[string]int64, len(types.FunnelStages))
	for _, stage := range types.FunnelStages {
		var count int64
		err := f.db.Model(&models.FunnelEvent{}).
			Where("stage = ? AND timestamp >= ?", string(stage), since).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		counts[string(stage)] = count
	}

	rates := make(map[string]float64, len(types.FunnelStages)-1)
	for i := 0; i < len(types.FunnelStages)-1; i++ {
		from := string(types.FunnelStages[i])
		to := string(types.FunnelStages[i+1])

		rate := 0.0
		if counts[from] > 0 {
			rate = float64(counts[to]) / float64(counts[from]) * 100
		}
		rates[from+"_to_"+to] = round2(rate)
	}

	awareness := counts[string(types.StageAwareness)]
	purchases := counts[string(types.StagePurchase)]

	overall := 0.0
	if awareness > 0 {
		overall = float64(purchases) / float64(awareness) * 100
	}

	return &FunnelMetrics{
		PeriodDays:        days,
		Counts:            counts,
		ConversionRates:   rates,
		OverallConversion: round2(overall),
		TotalAwareness:    awareness,
		TotalPurchases:    purchases,
		Efficiency:        efficiencyGrade(rates),
	}, nil
}

func efficiencyGrade(rates map[string]float64) string {
	if len(rates) == 0 {
		return "Poor (F)"
	}

	sum := 0.0
	for _, r := range rates {
		sum += r
	}
	avg := sum / float64(len(rates))

	switch {
	case avg >= 50:
		return "Excellent (A)"
	case avg >= 35:
		return "Good (B)"
	case avg >= 20:
		return "Average (C)"
	case avg >= 10:
		return "Below Average (D)"
	default:
		return "Poor (F)"
	}
}

type Leak struct {
	FromStage      string  `json:"from_stage"`
	ToStage        string  `json:"to_stage"`
	ConversionRate float64 `json:"conversion_rate"`
	Severity       string  `json:"severity"`
	Recommendation string  `json:"recommendation"`
}

// leakRecommendations keyed by the stage visitors leak out of.
var leakRecommendations = map[string]string{
	"awareness":     "Increase SEO efforts, run awareness campaigns, improve brand visibility",
	"interest":      "Improve value proposition, create compelling content, optimize landing pages",
	"consideration": "Add social proof, case studies, free trial offers",
	"trial":         "Improve onboarding, add product tours, provide better documentation",
	"purchase":      "Simplify checkout, offer discounts, remove friction points",
}

// IdentifyLeaks flags stage transitions converting under 25%. Under 10%
// the leak is critical. Leaks come back in funnel order.
func (f *Funnel) IdentifyLeaks(days int) ([]Leak, error) {
	metrics, err := f.Metrics(days)
	if err != nil {
		return nil, err
	}

	var leaks []Leak
	for i := 0; i < len(types.FunnelStages)-1; i++ {
		from := string(types.FunnelStages[i])
		to := string(types.FunnelStages[i+1])

		rate := metrics.ConversionRates[from+"_to_"+to]
		if rate >= 25 {
			continue
		}

		severity := "high"
		if rate < 10 {
			severity = "critical"
		}

		recommendation, ok := leakRecommendations[from]
		if !ok {
			recommendation = "Optimize this stage for better conversion"
		}

		leaks = append(leaks, Leak{
			FromStage:      from,
			ToStage:        to,
			ConversionRate: rate,
			Severity:       severity,
			Recommendation: recommendation,
		})
	}

	return leaks, nil
}

// RecordStage appends a funnel event. Ingest path, kept minimal.
func (f *Funnel) RecordStage(stage types.FunnelStage, channel string, tenantID *uint) error {
	if _, ok := stageIndex(stage); !ok {
		return ErrUnknownStage
	}

	return f.db.Create(&models.FunnelEvent{
		Stage:     string(stage),
		Channel:   channel,
		TenantID:  tenantID,
		Timestamp: f.now(),
	}).Error
}

func stageIndex(stage types.FunnelStage) (int, bool) {
	for i, s := range types.FunnelStages {
		if s == stage {
			return i, true
		}
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
