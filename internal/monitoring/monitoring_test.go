package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/testdb"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

func newLogger(t *testing.T) (*ErrorLogger, *gorm.DB) {
	t.Helper()

	conn := testdb.New(t)
	return NewErrorLogger(conn, db.DefaultRetryPolicy()), conn
}

func TestLogErrorCriticalCreatesOneAlert(t *testing.T) {
	logger, conn := newLogger(t)

	record, err := logger.LogError(ErrorEntry{
		ErrorType: "db_connection_lost",
		Message:   "primary unreachable",
		Severity:  types.SeverityCritical,
		Component: "db",
	})
	if err != nil {
		t.Fatalf("LogError: %v", err)
	}

	var alerts []models.Alert
	if err := conn.Where("system_error_id = ?", record.ID).Find(&alerts).Error; err != nil {
		t.Fatalf("load alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want exactly 1", len(alerts))
	}
	if alerts[0].Status != types.AlertOpen {
		t.Errorf("status = %q, want open", alerts[0].Status)
	}
	if !alerts[0].ExpiresAt.After(time.Now().Add(23 * time.Hour)) {
		t.Errorf("expires_at = %v, want ~24h out", alerts[0].ExpiresAt)
	}
}

func TestLogErrorNonCriticalNoAlert(t *testing.T) {
	logger, conn := newLogger(t)

	record, err := logger.LogError(ErrorEntry{
		ErrorType: "slow_query",
		Message:   "query took 4s",
		Severity:  types.SeverityHigh,
		Component: "db",
	})
	if err != nil {
		t.Fatalf("LogError: %v", err)
	}

	var count int64
	if err := conn.Model(&models.Alert{}).Where("system_error_id = ?", record.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("alerts = %d, want 0 for high severity", count)
	}
}

func TestLogErrorDefaultsSeverityToMedium(t *testing.T) {
	logger, _ := newLogger(t)

	record, err := logger.LogError(ErrorEntry{
		ErrorType: "weird",
		Message:   "unclassified",
		Severity:  "catastrophic",
		Component: "api",
	})
	if err != nil {
		t.Fatalf("LogError: %v", err)
	}
	if record.Severity != string(types.SeverityMedium) {
		t.Errorf("severity = %q, want medium", record.Severity)
	}
}

func TestAlertLifecycle(t *testing.T) {
	logger, conn := newLogger(t)

	_, err := logger.LogError(ErrorEntry{
		ErrorType: "breach",
		Message:   "intrusion detected",
		Severity:  types.SeverityCritical,
		Component: "security",
	})
	if err != nil {
		t.Fatalf("LogError: %v", err)
	}

	alerts := NewAlerts(conn)

	active, err := alerts.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}

	alertID := active[0].ID
	if err := alerts.Acknowledge(alertID, "admin"); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}

	var ack models.Alert
	if err := conn.First(&ack, alertID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if ack.Status != types.AlertInvestigating || ack.AcknowledgedBy != "admin" || ack.AcknowledgedAt == nil {
		t.Errorf("after ack: %+v", ack)
	}

	if err := alerts.Resolve(alertID, "admin", "patched"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var resolved models.Alert
	if err := conn.First(&resolved, alertID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if resolved.Status != types.AlertResolved || resolved.ResolutionNotes != "patched" {
		t.Errorf("after resolve: %+v", resolved)
	}

	// Resolved alerts drop out of the active list.
	active, err = alerts.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active = %d, want 0 after resolve", len(active))
	}
}

func TestActiveOrdersBySeverity(t *testing.T) {
	conn := testdb.New(t)

	now := time.Now()
	seed := []models.Alert{
		{SystemErrorID: 1, AlertType: "a", Severity: string(types.SeverityMedium), Status: types.AlertOpen, ExpiresAt: now.Add(time.Hour)},
		{SystemErrorID: 2, AlertType: "b", Severity: string(types.SeverityCritical), Status: types.AlertOpen, ExpiresAt: now.Add(time.Hour)},
		{SystemErrorID: 3, AlertType: "c", Severity: string(types.SeverityHigh), Status: types.AlertOpen, ExpiresAt: now.Add(time.Hour)},
		// Expired, must be hidden.
		{SystemErrorID: 4, AlertType: "d", Severity: string(types.SeverityCritical), Status: types.AlertOpen, ExpiresAt: now.Add(-time.Hour)},
	}
	for i := range seed {
		if err := conn.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	alerts := NewAlerts(conn)
	active, err := alerts.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}

	if len(active) != 3 {
		t.Fatalf("active = %d, want 3", len(active))
	}
	wantOrder := []string{"critical", "high", "medium"}
	for i, want := range wantOrder {
		if active[i].Severity != want {
			t.Errorf("position %d severity = %q, want %q", i, active[i].Severity, want)
		}
	}
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	conn := testdb.New(t)

	alerts := NewAlerts(conn)
	if err := alerts.Acknowledge(404, "admin"); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("err = %v, want ErrAlertNotFound", err)
	}
}

func TestCleanupOldErrorsKeepsCriticalAndHigh(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	old := now.AddDate(0, 0, -120)
	seed := []models.SystemError{
		{ErrorType: "a", Message: "m", Severity: string(types.SeverityLow), Component: "api", Timestamp: old},
		{ErrorType: "b", Message: "m", Severity: string(types.SeverityMedium), Component: "api", Timestamp: old},
		{ErrorType: "c", Message: "m", Severity: string(types.SeverityCritical), Component: "api", Timestamp: old},
		{ErrorType: "d", Message: "m", Severity: string(types.SeverityHigh), Component: "api", Timestamp: old},
		{ErrorType: "e", Message: "m", Severity: string(types.SeverityLow), Component: "api", Timestamp: now.AddDate(0, 0, -1)},
	}
	for i := range seed {
		if err := conn.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	reports := NewReports(conn)
	reports.now = func() time.Time { return now }

	deleted, err := reports.CleanupOldErrors(90)
	if err != nil {
		t.Fatalf("CleanupOldErrors: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	var remaining int64
	if err := conn.Model(&models.SystemError{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 3 {
		t.Errorf("remaining = %d, want 3", remaining)
	}
}

func TestErrorAnalytics(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := conn.Create(&models.SystemError{
			ErrorType: "timeout", Message: "m", Severity: string(types.SeverityHigh),
			Component: "api", Timestamp: now.AddDate(0, 0, -1),
		}).Error
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	err := conn.Create(&models.SystemError{
		ErrorType: "deadlock", Message: "m", Severity: string(types.SeverityMedium),
		Component: "db", Timestamp: now.AddDate(0, 0, -2),
	}).Error
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	reports := NewReports(conn)
	reports.now = func() time.Time { return now }

	analytics, err := reports.ErrorAnalytics(7)
	if err != nil {
		t.Fatalf("ErrorAnalytics: %v", err)
	}

	if len(analytics.TopErrors) != 2 {
		t.Fatalf("top errors = %d, want 2", len(analytics.TopErrors))
	}
	if analytics.TopErrors[0].ErrorType != "timeout" || analytics.TopErrors[0].Count != 3 {
		t.Errorf("top error = %+v", analytics.TopErrors[0])
	}

	day := now.AddDate(0, 0, -1).Format("2006-01-02")
	if analytics.DailyErrors[day]["high"] != 3 {
		t.Errorf("daily[%s][high] = %d, want 3", day, analytics.DailyErrors[day]["high"])
	}
}

func TestHealthMonitor(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	monitor := NewHealthMonitor(conn)
	monitor.now = func() time.Time { return now }

	health, err := monitor.Overall()
	if err != nil {
		t.Fatalf("Overall: %v", err)
	}
	if health.OverallStatus != "healthy" {
		t.Errorf("status = %q, want healthy on empty system", health.OverallStatus)
	}
	if health.UptimePct != 100.0 {
		t.Errorf("uptime = %v, want 100.0", health.UptimePct)
	}

	// One fresh critical error flips the status and charges downtime.
	err = conn.Create(&models.SystemError{
		ErrorType: "down", Message: "m", Severity: string(types.SeverityCritical),
		Component: "api", Timestamp: now.Add(-30 * time.Minute),
	}).Error
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	health, err = monitor.Overall()
	if err != nil {
		t.Fatalf("Overall: %v", err)
	}
	if health.OverallStatus != "critical" {
		t.Errorf("status = %q, want critical", health.OverallStatus)
	}
	if health.UptimePct != 99.65 {
		t.Errorf("uptime = %v, want 99.65", health.UptimePct)
	}
}
