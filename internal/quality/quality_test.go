package quality

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/testdb"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

func TestSigmaLevelZeroOpportunities(t *testing.T) {
	got := SigmaLevel(0, 0)

	if got.SigmaLevel != 6.0 {
		t.Errorf("sigma = %v, want 6.0", got.SigmaLevel)
	}
	if got.DPM != 0 {
		t.Errorf("dpm = %v, want 0", got.DPM)
	}
	if got.QualityPct != 100.0 {
		t.Errorf("quality = %v, want 100.0", got.QualityPct)
	}
	if got.Grade != "World Class (6σ)" {
		t.Errorf("grade = %q", got.Grade)
	}
}

func TestSigmaLevelTable(t *testing.T) {
	tests := []struct {
		defects       int64
		opportunities int64
		wantSigma     float64
		wantGrade     string
	}{
		{0, 1_000_000, 6.0, "World Class (6σ)"},
		{3, 1_000_000, 6.0, "World Class (6σ)"},
		{233, 1_000_000, 5.0, "Excellent (5σ)"},
		{6210, 1_000_000, 4.0, "Good (4σ)"},
		{66807, 1_000_000, 3.0, "Average (3σ)"},
		{308537, 1_000_000, 2.0, "Below Average (2σ)"},
		{690000, 1_000_000, 1.0, "Poor (1σ)"},
		{900000, 1_000_000, 1.0, "Poor (1σ)"},
		{1, 100, 3.0, "Average (3σ)"}, // 10,000 DPM
	}

	for _, tt := range tests {
		got := SigmaLevel(tt.defects, tt.opportunities)
		if got.SigmaLevel != tt.wantSigma {
			t.Errorf("SigmaLevel(%d, %d) = %v sigma, want %v",
				tt.defects, tt.opportunities, got.SigmaLevel, tt.wantSigma)
		}
		if got.Grade != tt.wantGrade {
			t.Errorf("SigmaLevel(%d, %d) grade = %q, want %q",
				tt.defects, tt.opportunities, got.Grade, tt.wantGrade)
		}
	}
}

func TestSigmaBelt(t *testing.T) {
	tests := []struct {
		level float64
		want  string
	}{
		{6.0, "Master Black Belt"},
		{5.0, "Black Belt"},
		{4.0, "Green Belt"},
		{3.0, "Yellow Belt"},
		{1.0, "White Belt"},
	}

	for _, tt := range tests {
		if got := SigmaBelt(tt.level); got != tt.want {
			t.Errorf("SigmaBelt(%v) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestProcessCapabilityTooFewSamples(t *testing.T) {
	got := ProcessCapability([]float64{5.0}, 0, 10)

	if got.Cp != nil || got.Cpk != nil {
		t.Errorf("cp/cpk = %v/%v, want nil/nil", got.Cp, got.Cpk)
	}
	if got.Capable {
		t.Error("one sample must not be capable")
	}
}

func TestProcessCapabilityZeroSpread(t *testing.T) {
	got := ProcessCapability([]float64{5, 5, 5, 5}, 0, 10)

	if got.Cp == nil || !math.IsInf(*got.Cp, 1) {
		t.Errorf("cp = %v, want +Inf", got.Cp)
	}
	if !got.Capable {
		t.Error("zero spread inside limits must be capable")
	}
}

func TestProcessCapabilityCentered(t *testing.T) {
	// Mean 10, sample stddev 1, limits 0..20: cp = 20/6, cpk = 10/3.
	values := []float64{9, 10, 11, 9, 10, 11, 10, 10}
	got := ProcessCapability(values, 0, 20)

	if got.Cpk == nil || *got.Cpk < 1.33 {
		t.Fatalf("cpk = %v, want >= 1.33", got.Cpk)
	}
	if !got.Capable {
		t.Error("expected capable")
	}
	if got.Grade != "Capable" {
		t.Errorf("grade = %q", got.Grade)
	}
}

func TestCumulateFocusPrefix(t *testing.T) {
	groups := []ParetoGroup{
		{Component: "api", ErrorType: "timeout", Count: 60},
		{Component: "db", ErrorType: "deadlock", Count: 25},
		{Component: "auth", ErrorType: "expired", Count: 15},
	}

	sorted, focus, total := cumulate(groups)

	if total != 100 {
		t.Fatalf("total = %d, want 100", total)
	}
	if sorted[0].CumulativePct != 60.0 || sorted[1].CumulativePct != 85.0 || sorted[2].CumulativePct != 100.0 {
		t.Errorf("cumulative = %v %v %v", sorted[0].CumulativePct, sorted[1].CumulativePct, sorted[2].CumulativePct)
	}
	if len(focus) != 1 || focus[0].Component != "api" {
		t.Errorf("focus = %+v, want single api group", focus)
	}
}

func TestCumulateDominantGroupStillInFocus(t *testing.T) {
	groups := []ParetoGroup{
		{Component: "api", ErrorType: "timeout", Count: 95},
		{Component: "db", ErrorType: "deadlock", Count: 5},
	}

	_, focus, _ := cumulate(groups)
	if len(focus) != 1 || focus[0].Component != "api" {
		t.Errorf("focus = %+v, want the dominant group", focus)
	}
}

func seedError(t *testing.T, conn *gorm.DB, component, errorType, severity string, ts time.Time) {
	t.Helper()

	err := conn.Create(&models.SystemError{
		ErrorType: errorType,
		Message:   errorType + " in " + component,
		Severity:  severity,
		Component: component,
		Timestamp: ts,
	}).Error
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}
}

func seedQualityEvents(t *testing.T, conn *gorm.DB, tenantID uint, n int, ts time.Time) {
	t.Helper()

	for i := 0; i < n; i++ {
		err := conn.Create(&models.Event{
			TenantID:  tenantID,
			IPAddress: "10.0.0.1",
			Timestamp: ts,
		}).Error
		if err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}
}

func TestSystemQuality(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tenant := models.Tenant{Name: "q", AccessCode: "q", Status: types.TenantActive, PricingTier: "starter"}
	if err := conn.Create(&tenant).Error; err != nil {
		t.Fatalf("tenant: %v", err)
	}

	seedQualityEvents(t, conn, tenant.ID, 100, now.AddDate(0, 0, -3))
	seedError(t, conn, "api", "timeout", string(types.SeverityHigh), now.AddDate(0, 0, -2))
	// Low severity is not a defect for sigma purposes.
	seedError(t, conn, "api", "slow_query", string(types.SeverityLow), now.AddDate(0, 0, -2))
	// Outside window.
	seedError(t, conn, "api", "timeout", string(types.SeverityHigh), now.AddDate(0, 0, -60))

	tracker := NewTracker(conn)
	tracker.now = func() time.Time { return now }

	report, err := tracker.SystemQuality(30)
	if err != nil {
		t.Fatalf("SystemQuality: %v", err)
	}

	if report.TotalOperations != 100 {
		t.Errorf("operations = %d, want 100", report.TotalOperations)
	}
	if report.TotalDefects != 1 {
		t.Errorf("defects = %d, want 1", report.TotalDefects)
	}
	// 1 defect / 100 ops = 10,000 DPM = 3 sigma.
	if report.SigmaLevel != 3.0 {
		t.Errorf("sigma = %v, want 3.0", report.SigmaLevel)
	}
	if report.FirstPassYieldPct != 99.0 {
		t.Errorf("fpy = %v, want 99.0", report.FirstPassYieldPct)
	}
}

func TestTenantQualityEngagement(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	tenant := models.Tenant{Name: "e", AccessCode: "e", Status: types.TenantActive, PricingTier: "starter"}
	if err := conn.Create(&tenant).Error; err != nil {
		t.Fatalf("tenant: %v", err)
	}

	// Activity on 3 distinct days.
	seedQualityEvents(t, conn, tenant.ID, 2, now.AddDate(0, 0, -1))
	seedQualityEvents(t, conn, tenant.ID, 2, now.AddDate(0, 0, -2))
	seedQualityEvents(t, conn, tenant.ID, 2, now.AddDate(0, 0, -3))

	tracker := NewTracker(conn)
	tracker.now = func() time.Time { return now }

	report, err := tracker.TenantQuality(tenant.ID, 30)
	if err != nil {
		t.Fatalf("TenantQuality: %v", err)
	}

	if report.ActiveDays != 3 {
		t.Errorf("active days = %d, want 3", report.ActiveDays)
	}
	if report.EngagementScore != 10.0 {
		t.Errorf("engagement = %v, want 10.0", report.EngagementScore)
	}
	if report.SigmaLevel != 6.0 {
		t.Errorf("sigma = %v, want 6.0 with no defects", report.SigmaLevel)
	}
}

func TestParetoOrdering(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		seedError(t, conn, "api", "timeout", string(types.SeverityHigh), now.AddDate(0, 0, -1))
	}
	for i := 0; i < 3; i++ {
		seedError(t, conn, "db", "deadlock", string(types.SeverityMedium), now.AddDate(0, 0, -1))
	}
	seedError(t, conn, "auth", "expired_token", string(types.SeverityLow), now.AddDate(0, 0, -1))

	tracker := NewTracker(conn)
	tracker.now = func() time.Time { return now }

	result, err := tracker.Pareto(30)
	if err != nil {
		t.Fatalf("Pareto: %v", err)
	}

	if result.TotalDefects != 10 {
		t.Errorf("total = %d, want 10", result.TotalDefects)
	}
	if len(result.Groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(result.Groups))
	}
	if result.Groups[0].Component != "api" || result.Groups[0].CumulativePct != 60.0 {
		t.Errorf("first group = %+v", result.Groups[0])
	}
	if len(result.FocusAreas) == 0 {
		t.Error("focus areas must never be empty when defects exist")
	}

	// Cumulative percentages are monotonically non-decreasing.
	for i := 1; i < len(result.Groups); i++ {
		if result.Groups[i].CumulativePct < result.Groups[i-1].CumulativePct {
			t.Errorf("cumulative pct decreased at %d", i)
		}
	}
}

func TestDMAICForwardOnly(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewDMAICManager(conn)

	project, err := mgr.CreateProject("Reduce API timeouts", "timeouts spike at peak", "cut p99 in half", "ops", 90)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.CurrentPhase != string(types.PhaseDefine) {
		t.Fatalf("phase = %q, want define", project.CurrentPhase)
	}

	if err := mgr.AdvancePhase(project.ID, types.PhaseMeasure, "baseline collected"); err != nil {
		t.Fatalf("advance to measure: %v", err)
	}
	if err := mgr.AdvancePhase(project.ID, types.PhaseAnalyze, "root cause found"); err != nil {
		t.Fatalf("advance to analyze: %v", err)
	}

	// Backward and same-phase transitions are rejected.
	if err := mgr.AdvancePhase(project.ID, types.PhaseMeasure, "oops"); !errors.Is(err, ErrPhaseRegression) {
		t.Errorf("backward err = %v, want ErrPhaseRegression", err)
	}
	if err := mgr.AdvancePhase(project.ID, types.PhaseAnalyze, "again"); !errors.Is(err, ErrPhaseRegression) {
		t.Errorf("same-phase err = %v, want ErrPhaseRegression", err)
	}

	var logs []models.DMAICPhaseLog
	if err := conn.Where("project_id = ?", project.ID).Order("id ASC").Find(&logs).Error; err != nil {
		t.Fatalf("load logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("phase logs = %d, want 2", len(logs))
	}
	if logs[0].Phase != "measure" || logs[1].Phase != "analyze" {
		t.Errorf("log phases = %s, %s", logs[0].Phase, logs[1].Phase)
	}
}

func TestDMAICCompleteFromAnyPhase(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewDMAICManager(conn)

	project, err := mgr.CreateProject("Data quality", "bad imports", "zero invalid rows", "data", 30)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := mgr.AdvancePhase(project.ID, types.PhaseMeasure, ""); err != nil {
		t.Fatalf("advance: %v", err)
	}

	err = mgr.CompleteProject(project.ID, "fixed at the source", map[string]any{"invalid_rows": 0})
	if err != nil {
		t.Fatalf("CompleteProject: %v", err)
	}

	var reloaded models.DMAICProject
	if err := conn.First(&reloaded, project.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != "completed" {
		t.Errorf("status = %q, want completed", reloaded.Status)
	}
	if reloaded.CurrentPhase != string(types.PhaseMeasure) {
		t.Errorf("phase = %q, completion must not touch the phase", reloaded.CurrentPhase)
	}
	if reloaded.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	// Completed projects stop advancing.
	if err := mgr.AdvancePhase(project.ID, types.PhaseAnalyze, ""); !errors.Is(err, ErrProjectCompleted) {
		t.Errorf("err = %v, want ErrProjectCompleted", err)
	}
	if err := mgr.CompleteProject(project.ID, "again", nil); !errors.Is(err, ErrProjectCompleted) {
		t.Errorf("double complete err = %v, want ErrProjectCompleted", err)
	}
}

func TestDMAICUnknownProject(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewDMAICManager(conn)

	if err := mgr.AddMeasurement(404, "latency_ms", 12.5, ""); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
}
