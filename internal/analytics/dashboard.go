package analytics

import (
	"time"

	"github.com/connexx-dev/connexx/internal/models"
)

// TenantAnalytics is the per-tenant dashboard payload.
type TenantAnalytics struct {
	TotalEvents        int64       `json:"total_events"`
	DailyActivity      []DayCount  `json:"daily_activity"`
	HourlyDistribution []HourCount `json:"hourly_distribution"`
	TopIPs             []IPCount   `json:"top_ips"`
	WeeklyTrend        []WeekCount `json:"weekly_trend"`
	GrowthRatePct      float64     `json:"growth_rate_pct"`
	CurrentWeekEvents  int64       `json:"current_week_events"`
	PreviousWeekEvents int64       `json:"previous_week_events"`
}

// ForTenant assembles the analytics dashboard for one tenant over the
// trailing days window. Growth compares the last 7 days to the 7 before.
func (a *Aggregator) ForTenant(tenantID uint, days int) (*TenantAnalytics, error) {
	var total int64
	if err := a.db.Model(&models.Event{}).Where("tenant_id = ?", tenantID).Count(&total).Error; err != nil {
		return nil, err
	}

	daily, err := a.BucketByDay(tenantID, days)
	if err != nil {
		return nil, err
	}

	hourly, err := a.HourlyDistribution(tenantID)
	if err != nil {
		return nil, err
	}

	topIPs, err := a.TopIPs(tenantID, 10, time.Duration(days)*24*time.Hour)
	if err != nil {
		return nil, err
	}

	weekly, err := a.WeeklyTrend(tenantID, 12)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	current, err := a.CountInWindow(tenantID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return nil, err
	}

	previous, err := a.CountInWindow(tenantID, now.AddDate(0, 0, -14), now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	return &TenantAnalytics{
		TotalEvents:        total,
		DailyActivity:      daily,
		HourlyDistribution: hourly,
		TopIPs:             topIPs,
		WeeklyTrend:        weekly,
		GrowthRatePct:      GrowthRate(current, previous),
		CurrentWeekEvents:  current,
		PreviousWeekEvents: previous,
	}, nil
}

// GlobalAnalytics is the admin-wide activity overview.
type GlobalAnalytics struct {
	StatusBreakdown     map[string]int64 `json:"status_breakdown"`
	ActiveTenants       []TenantActivity `json:"active_tenants"`
	AvgEventsPerTenant  float64          `json:"avg_events_per_tenant"`
	TotalActiveTenants  int64            `json:"total_active_tenants"`
	TotalEvents         int64            `json:"total_events"`
	EventsLast24h       int64            `json:"events_last_24h"`
	SystemHealth        string           `json:"system_health"`
}

type TenantActivity struct {
	Name       string `json:"name"`
	EventCount int64  `json:"event_count"`
}

// Global assembles the admin dashboard overview.
func (a *Aggregator) Global() (*GlobalAnalytics, error) {
	var statusRows []struct {
		Status string
		Count  int64
	}

	if err := a.db.Model(&models.Tenant{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, err
	}

	breakdown := make(map[string]int64, len(statusRows))
	for _, row := range statusRows {
		breakdown[row.Status] = row.Count
	}

	var active []TenantActivity
	err := a.db.Model(&models.Event{}).
		Select("tenants.name as name, COUNT(events.id) as event_count").
		Joins("JOIN tenants ON tenants.id = events.tenant_id").
		Where("events.timestamp >= ?", time.Now().AddDate(0, 0, -7)).
		Group("tenants.id, tenants.name").
		Order("event_count DESC").
		Limit(10).
		Scan(&active).Error
	if err != nil {
		return nil, err
	}

	var totalActive, totalEvents, last24h int64

	if err := a.db.Model(&models.Tenant{}).Where("status = ?", "active").Count(&totalActive).Error; err != nil {
		return nil, err
	}

	if err := a.db.Model(&models.Event{}).Count(&totalEvents).Error; err != nil {
		return nil, err
	}

	if err := a.db.Model(&models.Event{}).
		Where("timestamp >= ?", time.Now().Add(-24*time.Hour)).
		Count(&last24h).Error; err != nil {
		return nil, err
	}

	avg := 0.0
	if totalActive > 0 {
		avg = float64(totalEvents) / float64(totalActive)
	}

	health := "idle"
	if last24h > 0 {
		health = "healthy"
	}

	return &GlobalAnalytics{
		StatusBreakdown:    breakdown,
		ActiveTenants:      active,
		AvgEventsPerTenant: avg,
		TotalActiveTenants: totalActive,
		TotalEvents:        totalEvents,
		EventsLast24h:      last24h,
		SystemHealth:       health,
	}, nil
}

// ActivityPrediction is a simple linear projection from recent weeks.
type ActivityPrediction struct {
	PredictedNextWeek int64   `json:"predicted_next_week"`
	Trend             string  `json:"trend"` // "growing", "declining", "stable"
	WeeklyData        []int64 `json:"weekly_data"`
}

// PredictActivity projects the next week's event volume from the linear
// trend of the last 4 weeks.
func (a *Aggregator) PredictActivity(tenantID uint) (*ActivityPrediction, error) {
	trend, err := a.WeeklyTrend(tenantID, 4)
	if err != nil {
		return nil, err
	}

	weeks := make([]int64, 0, len(trend))
	for _, w := range trend {
		weeks = append(weeks, w.Count)
	}

	prediction := &ActivityPrediction{WeeklyData: weeks, Trend: "stable"}

	if len(weeks) >= 2 {
		var deltaSum int64
		for i := 1; i < len(weeks); i++ {
			deltaSum += weeks[i] - weeks[i-1]
		}
		avgGrowth := float64(deltaSum) / float64(len(weeks)-1)

		predicted := int64(float64(weeks[len(weeks)-1]) + avgGrowth)
		if predicted < 0 {
			predicted = 0
		}
		prediction.PredictedNextWeek = predicted

		if avgGrowth > 0 {
			prediction.Trend = "growing"
		} else if avgGrowth < 0 {
			prediction.Trend = "declining"
		}
	} else if len(weeks) == 1 {
		prediction.PredictedNextWeek = weeks[0]
	}

	return prediction, nil
}
