package analytics

import (
	"fmt"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"gorm.io/gorm"
)

// Aggregator computes windowed statistics over the event store. All
// methods are read-only and side-effect free, so callers may retry them
// freely on transient store errors.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(conn *gorm.DB) *Aggregator {
	return &Aggregator{db: conn}
}

type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type WeekCount struct {
	Week  string `json:"week"`
	Count int64  `json:"count"`
}

type IPCount struct {
	IP    string `json:"ip"`
	Count int64  `json:"count"`
}

// CountInWindow counts a tenant's events with timestamp in [start, end).
// No matching rows is a zero count, never an error.
func (a *Aggregator) CountInWindow(tenantID uint, start, end time.Time) (int64, error) {
	var count int64

	err := a.db.Model(&models.Event{}).
		Where("tenant_id = ? AND timestamp >= ? AND timestamp < ?", tenantID, start, end).
		Count(&count).Error

	return count, err
}

// BucketByDay returns per-day event counts for the trailing daysBack
// days, ordered by date. Days with zero events are omitted, not
// zero-filled; callers that need contiguous series must fill gaps.
func (a *Aggregator) BucketByDay(tenantID uint, daysBack int) ([]DayCount, error) {
	timestamps, err := a.eventTimestamps(tenantID, time.Now().AddDate(0, 0, -daysBack))
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	var order []string

	for _, ts := range timestamps {
		day := ts.Format("2006-01-02")
		if _, seen := counts[day]; !seen {
			order = append(order, day)
		}
		counts[day]++
	}

	buckets := make([]DayCount, 0, len(order))
	for _, day := range order {
		buckets = append(buckets, DayCount{Date: day, Count: counts[day]})
	}

	return buckets, nil
}

// TopIPs returns the n most frequent origin addresses in the trailing
// window, descending by count. Ties keep first-seen order via the
// smallest row id, so the result is stable.
func (a *Aggregator) TopIPs(tenantID uint, n int, window time.Duration) ([]IPCount, error) {
	var rows []struct {
		IPAddress string
		Count     int64
	}

	err := a.db.Model(&models.Event{}).
		Select("ip_address, COUNT(*) as count").
		Where("tenant_id = ? AND timestamp >= ?", tenantID, time.Now().Add(-window)).
		Group("ip_address").
		Order("count DESC, MIN(id) ASC").
		Limit(n).
		Scan(&rows).Error

	if err != nil {
		return nil, err
	}

	top := make([]IPCount, 0, len(rows))
	for _, row := range rows {
		top = append(top, IPCount{IP: row.IPAddress, Count: row.Count})
	}

	return top, nil
}

// GrowthRate compares two period counts as a percentage. A zero previous
// period yields 100.0 when the current period has activity and 0.0 when
// both are empty.
func GrowthRate(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}

	return float64(current-previous) / float64(previous) * 100
}

// HourlyDistribution buckets all of a tenant's events by hour of day.
// Hours with zero events are omitted.
func (a *Aggregator) HourlyDistribution(tenantID uint) ([]HourCount, error) {
	timestamps, err := a.eventTimestamps(tenantID, time.Time{})
	if err != nil {
		return nil, err
	}

	var counts [24]int64
	for _, ts := range timestamps {
		counts[ts.Hour()]++
	}

	var distribution []HourCount
	for hour, count := range counts {
		if count > 0 {
			distribution = append(distribution, HourCount{Hour: hour, Count: count})
		}
	}

	return distribution, nil
}

// WeeklyTrend buckets the trailing weeksBack weeks of events by ISO week.
func (a *Aggregator) WeeklyTrend(tenantID uint, weeksBack int) ([]WeekCount, error) {
	timestamps, err := a.eventTimestamps(tenantID, time.Now().AddDate(0, 0, -7*weeksBack))
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	var order []string

	for _, ts := range timestamps {
		year, week := ts.ISOWeek()
		key := isoWeekKey(year, week)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	trend := make([]WeekCount, 0, len(order))
	for _, key := range order {
		trend = append(trend, WeekCount{Week: key, Count: counts[key]})
	}

	return trend, nil
}

func isoWeekKey(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (a *Aggregator) eventTimestamps(tenantID uint, since time.Time) ([]time.Time, error) {
	var timestamps []time.Time

	query := a.db.Model(&models.Event{}).Where("tenant_id = ?", tenantID).Order("timestamp ASC")
	if !since.IsZero() {
		query = query.Where("timestamp >= ?", since)
	}

	if err := query.Pluck("timestamp", &timestamps).Error; err != nil {
		return nil, err
	}

	return timestamps, nil
}
