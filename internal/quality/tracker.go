package quality

import (
	"fmt"
	"math"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

// Tracker derives quality metrics from the event and error tables.
// Events are the opportunities, logged errors the defects.
type Tracker struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTracker(conn *gorm.DB) *Tracker {
	return &Tracker{db: conn, now: time.Now}
}

type ComponentDefects struct {
	Component string `json:"defect_type"`
	Count     int64  `json:"count"`
}

type SystemQualityReport struct {
	PeriodDays           int                `json:"period_days"`
	TotalOperations      int64              `json:"total_operations"`
	TotalDefects         int64              `json:"total_defects"`
	SigmaLevel           float64            `json:"sigma_level"`
	DPM                  float64            `json:"dpm"`
	QualityGrade         string             `json:"quality_grade"`
	FirstPassYieldPct    float64            `json:"first_pass_yield_pct"`
	DefectsByType        []ComponentDefects `json:"defects_by_type"`
	AvgResolutionSeconds float64            `json:"avg_resolution_time_seconds"`
	ThroughputPerDay     float64            `json:"throughput_per_day"`
}

// SystemQuality measures the whole platform over the trailing window.
// Only critical, high and medium errors count as defects; low and info
// rows are noise for sigma purposes.
func (t *Tracker) SystemQuality(days int) (*SystemQualityReport, error) {
	if days <= 0 {
		days = 30
	}
	since := t.now().AddDate(0, 0, -days)

	var operations int64
	err := t.db.Model(&models.Event{}).Where("timestamp >= ?", since).Count(&operations).Error
	if err != nil {
		return nil, err
	}

	var defects int64
	err = t.db.Model(&models.SystemError{}).
		Where("timestamp >= ? AND severity IN ?", since,
			[]string{string(types.SeverityCritical), string(types.SeverityHigh), string(types.SeverityMedium)}).
		Count(&defects).Error
	if err != nil {
		return nil, err
	}

	sigma := SigmaLevel(defects, operations)

	fpy := 100.0
	if operations > 0 {
		fpy = float64(operations-defects) / float64(operations) * 100
	}

	var byType []ComponentDefects
	err = t.db.Model(&models.SystemError{}).
		Select("component, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("component").
		Order("count DESC, component ASC").
		Scan(&byType).Error
	if err != nil {
		return nil, err
	}

	avgResolution, err := t.avgResolutionSeconds(since)
	if err != nil {
		return nil, err
	}

	return &SystemQualityReport{
		PeriodDays:           days,
		TotalOperations:      operations,
		TotalDefects:         defects,
		SigmaLevel:           sigma.SigmaLevel,
		DPM:                  sigma.DPM,
		QualityGrade:         sigma.Grade,
		FirstPassYieldPct:    math.Round(fpy*100) / 100,
		DefectsByType:        byType,
		AvgResolutionSeconds: math.Round(avgResolution*10) / 10,
		ThroughputPerDay:     math.Round(float64(operations)/float64(days)*10) / 10,
	}, nil
}

// avgResolutionSeconds is computed in Go from resolved timestamps so the
// query stays portable across postgres and sqlite.
func (t *Tracker) avgResolutionSeconds(since time.Time) (float64, error) {
	var alerts []models.Alert
	err := t.db.Where("resolved_at IS NOT NULL AND created_at >= ?", since).
		Select("created_at", "resolved_at").Find(&alerts).Error
	if err != nil {
		return 0, err
	}

	if len(alerts) == 0 {
		return 0, nil
	}

	total := 0.0
	for _, a := range alerts {
		total += a.ResolvedAt.Sub(a.CreatedAt).Seconds()
	}
	return total / float64(len(alerts)), nil
}

type TenantQualityReport struct {
	TenantID        uint    `json:"tenant_id"`
	PeriodDays      int     `json:"period_days"`
	TotalOperations int64   `json:"total_operations"`
	Defects         int64   `json:"defects"`
	SigmaLevel      float64 `json:"sigma_level"`
	DPM             float64 `json:"dpm"`
	QualityGrade    string  `json:"quality_grade"`
	EngagementScore float64 `json:"engagement_score"`
	ActiveDays      int     `json:"active_days"`
}

// TenantQuality measures one tenant's slice. All error severities count;
// a tenant-scoped error is always a defect from their point of view.
func (t *Tracker) TenantQuality(tenantID uint, days int) (*TenantQualityReport, error) {
	if days <= 0 {
		days = 30
	}
	since := t.now().AddDate(0, 0, -days)

	var operations int64
	err := t.db.Model(&models.Event{}).
		Where("tenant_id = ? AND timestamp >= ?", tenantID, since).
		Count(&operations).Error
	if err != nil {
		return nil, err
	}

	var defects int64
	err = t.db.Model(&models.SystemError{}).
		Where("tenant_id = ? AND timestamp >= ?", tenantID, since).
		Count(&defects).Error
	if err != nil {
		return nil, err
	}

	sigma := SigmaLevel(defects, operations)

	var timestamps []time.Time
	err = t.db.Model(&models.Event{}).
		Where("tenant_id = ? AND timestamp >= ?", tenantID, since).
		Pluck("timestamp", &timestamps).Error
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, ts := range timestamps {
		seen[ts.UTC().Format("2006-01-02")] = struct{}{}
	}
	activeDays := len(seen)

	return &TenantQualityReport{
		TenantID:        tenantID,
		PeriodDays:      days,
		TotalOperations: operations,
		Defects:         defects,
		SigmaLevel:      sigma.SigmaLevel,
		DPM:             sigma.DPM,
		QualityGrade:    sigma.Grade,
		EngagementScore: math.Round(float64(activeDays)/float64(days)*100*10) / 10,
		ActiveDays:      activeDays,
	}, nil
}

// Pareto groups defects by component and error type to find the small
// set of causes behind most failures.
func (t *Tracker) Pareto(days int) (*ParetoResult, error) {
	if days <= 0 {
		days = 30
	}
	since := t.now().AddDate(0, 0, -days)

	var groups []ParetoGroup
	err := t.db.Model(&models.SystemError{}).
		Select("component, error_type, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("component, error_type").
		Order("count DESC, component ASC, error_type ASC").
		Scan(&groups).Error
	if err != nil {
		return nil, err
	}

	if len(groups) == 0 {
		return &ParetoResult{Groups: []ParetoGroup{}, Message: "no defects in window"}, nil
	}

	groups, focus, total := cumulate(groups)

	return &ParetoResult{
		Groups:       groups,
		TotalDefects: total,
		FocusAreas:   focus,
		Message:      fmt.Sprintf("Focus on fixing %d issue types to eliminate 80%% of defects", len(focus)),
	}, nil
}

type Recommendation struct {
	Priority        string   `json:"priority"`
	Category        string   `json:"category"`
	Title           string   `json:"title"`
	CurrentState    string   `json:"current_state"`
	TargetState     string   `json:"target_state"`
	ActionItems     []string `json:"action_items"`
	EstimatedImpact string   `json:"estimated_impact"`
}

// Recommendations derives improvement advice from the 30 day quality
// window. Thresholds: below 4 sigma, any pareto focus areas, MTTR over
// an hour, first pass yield under 99%.
func (t *Tracker) Recommendations() ([]Recommendation, error) {
	report, err := t.SystemQuality(30)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation

	if report.SigmaLevel < 4.0 {
		recs = append(recs, Recommendation{
			Priority:     "high",
			Category:     "Quality",
			Title:        "Improve Process Quality to 4-Sigma",
			CurrentState: fmt.Sprintf("%.1f-Sigma (%.2f DPM)", report.SigmaLevel, report.DPM),
			TargetState:  "4-Sigma (6,210 DPM)",
			ActionItems: []string{
				"Implement automated testing to catch defects early",
				"Add input validation on all API endpoints",
				"Create quality gates for deployments",
			},
			EstimatedImpact: "Reduce defects by 50-70%",
		})
	}

	pareto, err := t.Pareto(30)
	if err != nil {
		return nil, err
	}
	if len(pareto.FocusAreas) > 0 {
		top := pareto.FocusAreas
		if len(top) > 3 {
			top = top[:3]
		}
		items := make([]string, 0, len(top))
		for _, g := range top {
			items = append(items, fmt.Sprintf("Fix: %s - %s", g.Component, g.ErrorType))
		}
		recs = append(recs, Recommendation{
			Priority:        "high",
			Category:        "Defect Reduction",
			Title:           "Focus on Top Defect Causes (80/20 Rule)",
			CurrentState:    fmt.Sprintf("%d issues cause 80%% of defects", len(top)),
			TargetState:     "Eliminate top causes",
			ActionItems:     items,
			EstimatedImpact: "Reduce overall defects by 80%",
		})
	}

	if report.AvgResolutionSeconds > 3600 {
		recs = append(recs, Recommendation{
			Priority:     "medium",
			Category:     "Cycle Time",
			Title:        "Reduce Mean Time To Resolution (MTTR)",
			CurrentState: fmt.Sprintf("%.0f minutes", report.AvgResolutionSeconds/60),
			TargetState:  "< 30 minutes",
			ActionItems: []string{
				"Implement automated incident response playbooks",
				"Create runbooks for common issues",
				"Set up automated alerting",
			},
			EstimatedImpact: "Reduce downtime by 50%",
		})
	}

	if report.FirstPassYieldPct < 99.0 {
		recs = append(recs, Recommendation{
			Priority:     "medium",
			Category:     "First Pass Yield",
			Title:        "Improve First-Time-Right Quality",
			CurrentState: fmt.Sprintf("%.1f%% FPY", report.FirstPassYieldPct),
			TargetState:  "99.0% FPY",
			ActionItems: []string{
				"Add pre-flight checks for data quality",
				"Implement schema validation",
				"Add user input sanitization",
			},
			EstimatedImpact: "Reduce rework by 30%",
		})
	}

	return recs, nil
}
