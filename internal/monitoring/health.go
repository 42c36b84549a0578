package monitoring

import (
	"math"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

// HealthMonitor reports live system health from the database connection
// and the recent error log.
type HealthMonitor struct {
	conn *gorm.DB
	now  func() time.Time
}

func NewHealthMonitor(conn *gorm.DB) *HealthMonitor {
	return &HealthMonitor{conn: conn, now: time.Now}
}

type DatabaseHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Database pings the store with a trivial count.
func (h *HealthMonitor) Database() DatabaseHealth {
	start := time.Now()

	var count int64
	if err := h.conn.Model(&models.Tenant{}).Count(&count).Error; err != nil {
		return DatabaseHealth{Status: "unhealthy", Error: err.Error()}
	}

	return DatabaseHealth{
		Status:    "healthy",
		LatencyMS: time.Since(start).Milliseconds(),
	}
}

type ErrorRateHealth struct {
	Status         string           `json:"status"`
	TotalErrors1h  int64            `json:"total_errors_1h"`
	BySeverity     map[string]int64 `json:"by_severity"`
	CriticalErrors int64            `json:"critical_errors"`
	HighErrors     int64            `json:"high_errors"`
}

// ErrorRates checks the last hour. Any critical error is critical; more
// than 5 high errors degrades; more than 20 of anything is a warning.
func (h *HealthMonitor) ErrorRates() (ErrorRateHealth, error) {
	since := h.now().Add(-time.Hour)

	var rows []struct {
		Severity string
		Count    int64
	}
	err := h.conn.Model(&models.SystemError{}).
		Select("severity, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return ErrorRateHealth{Status: "unknown"}, err
	}

	bySeverity := map[string]int64{}
	var total int64
	for _, row := range rows {
		bySeverity[row.Severity] = row.Count
		total += row.Count
	}

	critical := bySeverity[string(types.SeverityCritical)]
	high := bySeverity[string(types.SeverityHigh)]

	status := "healthy"
	switch {
	case critical > 0:
		status = "critical"
	case high > 5:
		status = "degraded"
	case total > 20:
		status = "warning"
	}

	return ErrorRateHealth{
		Status:         status,
		TotalErrors1h:  total,
		BySeverity:     bySeverity,
		CriticalErrors: critical,
		HighErrors:     high,
	}, nil
}

type OverallHealth struct {
	OverallStatus string           `json:"overall_status"`
	Database      DatabaseHealth   `json:"database"`
	ErrorRates    ErrorRateHealth  `json:"error_rates"`
	ActiveAlerts  map[string]int64 `json:"active_alerts"`
	UptimePct     float64          `json:"uptime_percentage"`
	CheckedAt     time.Time        `json:"checked_at"`
}

// Overall merges the individual checks. Database failure or any
// critical error rate makes the whole system critical.
func (h *HealthMonitor) Overall() (*OverallHealth, error) {
	database := h.Database()

	errorRates, err := h.ErrorRates()
	if err != nil {
		errorRates = ErrorRateHealth{Status: "unknown"}
	}

	status := "healthy"
	switch {
	case database.Status == "unhealthy" || errorRates.Status == "critical":
		status = "critical"
	case errorRates.Status == "degraded" || errorRates.Status == "warning":
		status = "degraded"
	}

	var alertRows []struct {
		Severity string
		Count    int64
	}
	err = h.conn.Model(&models.Alert{}).
		Select("severity, COUNT(*) as count").
		Where("status IN ?", []string{types.AlertOpen, types.AlertInvestigating}).
		Group("severity").
		Scan(&alertRows).Error
	if err != nil {
		return nil, err
	}

	activeAlerts := map[string]int64{}
	for _, row := range alertRows {
		activeAlerts[row.Severity] = row.Count
	}

	uptime, err := h.uptimePct()
	if err != nil {
		uptime = 99.9
	}

	return &OverallHealth{
		OverallStatus: status,
		Database:      database,
		ErrorRates:    errorRates,
		ActiveAlerts:  activeAlerts,
		UptimePct:     uptime,
		CheckedAt:     h.now(),
	}, nil
}

// uptimePct estimates availability over 24h, charging 5 minutes of
// downtime per critical error.
func (h *HealthMonitor) uptimePct() (float64, error) {
	since := h.now().Add(-24 * time.Hour)

	var criticals int64
	err := h.conn.Model(&models.SystemError{}).
		Where("severity = ? AND timestamp >= ?", string(types.SeverityCritical), since).
		Count(&criticals).Error
	if err != nil {
		return 0, err
	}

	totalMinutes := 24.0 * 60
	downtime := float64(criticals) * 5
	uptime := (totalMinutes - downtime) / totalMinutes * 100

	uptime = math.Round(uptime*100) / 100
	if uptime < 0 {
		return 0, nil
	}
	if uptime > 100 {
		return 100, nil
	}
	return uptime, nil
}
