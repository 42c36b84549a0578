package monitoring

import (
	"math"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

// Reports builds error analytics over trailing windows.
type Reports struct {
	conn *gorm.DB
	now  func() time.Time
}

func NewReports(conn *gorm.DB) *Reports {
	return &Reports{conn: conn, now: time.Now}
}

type ErrorTypeCount struct {
	ErrorType string `json:"error_type"`
	Severity  string `json:"severity"`
	Count     int64  `json:"count"`
}

type ComponentCount struct {
	Component string `json:"component"`
	Severity  string `json:"severity"`
	Count     int64  `json:"count"`
}

type ErrorAnalytics struct {
	DailyErrors     map[string]map[string]int64 `json:"daily_errors"`
	TopErrors       []ErrorTypeCount            `json:"top_errors"`
	ComponentErrors []ComponentCount            `json:"component_errors"`
	MTTRMinutes     float64                     `json:"mttr_minutes"`
	PeriodDays      int                         `json:"period_days"`
}

// ErrorAnalytics summarizes the error log: counts per day and severity,
// the top 10 error types, per-component counts and mean time to
// resolution from the alert table.
func (r *Reports) ErrorAnalytics(days int) (*ErrorAnalytics, error) {
	if days <= 0 {
		days = 7
	}
	since := r.now().AddDate(0, 0, -days)

	var rows []struct {
		Severity  string
		Timestamp time.Time
	}
	err := r.conn.Model(&models.SystemError{}).
		Select("severity, timestamp").
		Where("timestamp >= ?", since).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	daily := map[string]map[string]int64{}
	for _, row := range rows {
		day := row.Timestamp.UTC().Format("2006-01-02")
		if daily[day] == nil {
			daily[day] = map[string]int64{}
		}
		daily[day][row.Severity]++
	}

	var topErrors []ErrorTypeCount
	err = r.conn.Model(&models.SystemError{}).
		Select("error_type, severity, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("error_type, severity").
		Order("count DESC, error_type ASC").
		Limit(10).
		Scan(&topErrors).Error
	if err != nil {
		return nil, err
	}

	var componentErrors []ComponentCount
	err = r.conn.Model(&models.SystemError{}).
		Select("component, severity, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("component, severity").
		Order("count DESC, component ASC").
		Scan(&componentErrors).Error
	if err != nil {
		return nil, err
	}

	mttr, err := r.mttrMinutes(since)
	if err != nil {
		return nil, err
	}

	return &ErrorAnalytics{
		DailyErrors:     daily,
		TopErrors:       topErrors,
		ComponentErrors: componentErrors,
		MTTRMinutes:     mttr,
		PeriodDays:      days,
	}, nil
}

func (r *Reports) mttrMinutes(since time.Time) (float64, error) {
	var alerts []models.Alert
	err := r.conn.Select("created_at", "resolved_at").
		Where("resolved_at IS NOT NULL AND created_at >= ?", since).
		Find(&alerts).Error
	if err != nil {
		return 0, err
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	total := 0.0
	for _, a := range alerts {
		total += a.ResolvedAt.Sub(a.CreatedAt).Minutes()
	}
	return math.Round(total/float64(len(alerts))*10) / 10, nil
}

// RecentErrors returns the newest errors, optionally filtered by
// severity. Limit defaults to 50.
func (r *Reports) RecentErrors(limit int, severity string) ([]models.SystemError, error) {
	if limit <= 0 {
		limit = 50
	}

	query := r.conn.Model(&models.SystemError{})
	if severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var errs []models.SystemError
	err := query.Order("timestamp DESC").Limit(limit).Find(&errs).Error
	return errs, err
}

// CleanupOldErrors deletes errors older than the retention window.
// Critical and high rows are kept forever for audit.
func (r *Reports) CleanupOldErrors(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	cutoff := r.now().AddDate(0, 0, -retentionDays)

	result := r.conn.Where("timestamp < ? AND severity NOT IN ?", cutoff,
		[]string{string(types.SeverityCritical), string(types.SeverityHigh)}).
		Delete(&models.SystemError{})
	return result.RowsAffected, result.Error
}
