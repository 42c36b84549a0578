package incident

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/connexx-dev/connexx/internal/security"
	"github.com/connexx-dev/connexx/internal/testdb"
	"github.com/connexx-dev/connexx/internal/types"
)

// scriptedAction records its invocation order and optionally fails.
type scriptedAction struct {
	kind  types.ActionType
	fail  bool
	calls *[]string
}

func (a scriptedAction) Type() types.ActionType { return a.kind }

func (a scriptedAction) Execute(map[string]any) error {
	*a.calls = append(*a.calls, string(a.kind))
	if a.fail {
		return errors.New("scripted failure")
	}
	return nil
}

func newResponder(t *testing.T, actions ...Action) (*Responder, *gorm.DB) {
	t.Helper()

	conn := testdb.New(t)
	logger := monitoring.NewErrorLogger(conn, db.DefaultRetryPolicy())
	return NewResponder(conn, logger, actions...), conn
}

func loadActions(t *testing.T, record *models.Incident) []ActionRecord {
	t.Helper()

	var results []ActionRecord
	if len(record.ResponseActions) == 0 {
		return results
	}
	if err := json.Unmarshal(record.ResponseActions, &results); err != nil {
		t.Fatalf("decode response actions: %v", err)
	}
	return results
}

func TestCreateIncidentRunsPlaybookInOrder(t *testing.T) {
	var calls []string
	responder, conn := newResponder(t,
		scriptedAction{kind: types.ActionRateLimitStrict, calls: &calls},
		scriptedAction{kind: types.ActionBlockIP, calls: &calls},
		scriptedAction{kind: types.ActionAlertAdmin, calls: &calls},
	)

	record, err := responder.CreateIncident(types.IncidentDDOSAttack,
		"traffic spike from single ASN",
		map[string]any{"ip_address": "203.0.113.9"}, true)
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	if record.Severity != string(types.SeverityP0) {
		t.Errorf("severity = %q, want p0", record.Severity)
	}
	if record.Reference == "" {
		t.Error("reference is empty")
	}

	want := []string{"rate_limit_strict", "block_ip", "alert_admin"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i, action := range want {
		if calls[i] != action {
			t.Errorf("call %d = %q, want %q", i, calls[i], action)
		}
	}

	results := loadActions(t, record)
	if len(results) != 3 {
		t.Fatalf("recorded actions = %d, want 3", len(results))
	}
	for _, result := range results {
		if !result.Success {
			t.Errorf("action %s recorded as failed", result.Action)
		}
	}

	var errCount int64
	if err := conn.Model(&models.SystemError{}).
		Where("error_type = ?", "INCIDENT_DDOS_ATTACK").
		Count(&errCount).Error; err != nil {
		t.Fatalf("count system errors: %v", err)
	}
	if errCount != 1 {
		t.Errorf("INCIDENT_DDOS_ATTACK errors = %d, want 1", errCount)
	}
}

func TestCreateIncidentFailedActionContinues(t *testing.T) {
	var calls []string
	responder, _ := newResponder(t,
		scriptedAction{kind: types.ActionShutdownSystem, calls: &calls},
		scriptedAction{kind: types.ActionBackupDatabase, fail: true, calls: &calls},
		scriptedAction{kind: types.ActionAlertAdmin, calls: &calls},
	)

	record, err := responder.CreateIncident(types.IncidentDataCorruption,
		"checksum mismatch on events table", nil, true)
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	if len(calls) != 3 {
		t.Fatalf("calls = %v, want all 3 actions attempted", calls)
	}
	if calls[2] != "alert_admin" {
		t.Errorf("last call = %q, want alert_admin after failed backup", calls[2])
	}

	results := loadActions(t, record)
	if len(results) != 3 {
		t.Fatalf("recorded actions = %d, want 3", len(results))
	}
	if results[1].Action != "backup_database" || results[1].Success {
		t.Errorf("backup result = %+v, want recorded failure", results[1])
	}
	if !results[0].Success || !results[2].Success {
		t.Errorf("surrounding actions = %+v, want success", results)
	}
}

func TestCreateIncidentUnknownTypeDefaultsToP2(t *testing.T) {
	responder, _ := newResponder(t)

	record, err := responder.CreateIncident(types.IncidentType("solar_flare"),
		"unexplained outage", nil, true)
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	if record.Severity != string(types.SeverityP2) {
		t.Errorf("severity = %q, want p2 for unknown type", record.Severity)
	}
	if len(loadActions(t, record)) != 0 {
		t.Error("unknown incident type should run no playbook actions")
	}
}

func TestResolveIncidentOverwritesPreviousResolution(t *testing.T) {
	responder, _ := newResponder(t)

	record, err := responder.CreateIncident(types.IncidentUnauthorizedAccess,
		"login from blocked region", nil, false)
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	first, err := responder.ResolveIncident(record.ID, "alice", "rotated credentials")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if first.Status != "resolved" || first.ResolvedAt == nil {
		t.Fatalf("first resolve did not close incident: %+v", first)
	}

	second, err := responder.ResolveIncident(record.ID, "bob", "confirmed no data accessed")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if second.ResolvedBy != "bob" || second.ResolutionNotes != "confirmed no data accessed" {
		t.Errorf("re-resolution did not overwrite: %+v", second)
	}

	if _, err := responder.ResolveIncident(99999, "alice", "no such incident"); !errors.Is(err, ErrIncidentNotFound) {
		t.Errorf("err = %v, want ErrIncidentNotFound", err)
	}
}

func TestActiveIncidentsPriorityOrder(t *testing.T) {
	responder, _ := newResponder(t)

	if _, err := responder.CreateIncident(types.IncidentType("minor_glitch"), "p2 noise", nil, false); err != nil {
		t.Fatalf("create p2: %v", err)
	}
	if _, err := responder.CreateIncident(types.IncidentUnauthorizedAccess, "p1 access", nil, false); err != nil {
		t.Fatalf("create p1: %v", err)
	}
	p0, err := responder.CreateIncident(types.IncidentDDOSAttack, "p0 attack", nil, false)
	if err != nil {
		t.Fatalf("create p0: %v", err)
	}
	resolved, err := responder.CreateIncident(types.IncidentDataLeak, "already handled", nil, false)
	if err != nil {
		t.Fatalf("create resolved: %v", err)
	}
	if _, err := responder.ResolveIncident(resolved.ID, "alice", "contained"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	active, err := responder.ActiveIncidents()
	if err != nil {
		t.Fatalf("ActiveIncidents: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("active = %d, want 3", len(active))
	}
	if active[0].ID != p0.ID {
		t.Errorf("first active = %s, want the p0 incident", active[0].Severity)
	}
	if active[1].Severity != string(types.SeverityP1) || active[2].Severity != string(types.SeverityP2) {
		t.Errorf("order = %s, %s, %s; want p0, p1, p2",
			active[0].Severity, active[1].Severity, active[2].Severity)
	}
}

func TestIncidentAnalyticsMTTR(t *testing.T) {
	responder, _ := newResponder(t)

	record, err := responder.CreateIncident(types.IncidentDDOSAttack, "short attack", nil, false)
	if err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}
	if _, err := responder.CreateIncident(types.IncidentDataLeak, "still open", nil, false); err != nil {
		t.Fatalf("CreateIncident: %v", err)
	}

	responder.now = func() time.Time { return record.CreatedAt.Add(2 * time.Hour) }
	if _, err := responder.ResolveIncident(record.ID, "alice", "mitigated"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	analytics, err := responder.IncidentAnalytics(30)
	if err != nil {
		t.Fatalf("IncidentAnalytics: %v", err)
	}
	if analytics.TotalIncidents != 2 {
		t.Errorf("total = %d, want 2", analytics.TotalIncidents)
	}
	if analytics.ActiveCount != 1 {
		t.Errorf("active = %d, want 1", analytics.ActiveCount)
	}
	if analytics.ByType["ddos_attack"] != 1 || analytics.ByType["data_leak"] != 1 {
		t.Errorf("by type = %v", analytics.ByType)
	}
	if analytics.MTTRHours != 2.0 {
		t.Errorf("MTTR = %.2f hours, want 2.00", analytics.MTTRHours)
	}
}

func TestExecuteEmergencyExit(t *testing.T) {
	flags := NewFlagStore(t.TempDir())

	var calls []string
	responder, _ := newResponder(t,
		scriptedAction{kind: types.ActionBackupDatabase, calls: &calls},
		maintenanceModeAction{flags: flags},
		scriptedAction{kind: types.ActionSnapshotState, calls: &calls},
	)

	report, err := responder.ExecuteEmergencyExit("primary db unrecoverable")
	if err != nil {
		t.Fatalf("ExecuteEmergencyExit: %v", err)
	}

	if len(report.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(report.Steps))
	}
	wantOrder := []string{"backup_database", "maintenance_mode", "snapshot_state"}
	for i, step := range report.Steps {
		if step.Action != wantOrder[i] {
			t.Errorf("step %d = %q, want %q", i, step.Action, wantOrder[i])
		}
		if !step.Success {
			t.Errorf("step %s failed", step.Action)
		}
	}

	if !flags.MaintenanceMode() {
		t.Error("maintenance mode not enabled")
	}

	if report.Incident == nil {
		t.Fatal("no incident recorded")
	}
	if report.Incident.IncidentType != string(types.IncidentSystemDown) {
		t.Errorf("incident type = %q, want system_down", report.Incident.IncidentType)
	}
	if len(loadActions(t, report.Incident)) != 0 {
		t.Error("emergency exit incident must not run the system_down playbook")
	}
}

func TestFlagStoreLifecycle(t *testing.T) {
	flags := NewFlagStore(t.TempDir())

	if flags.StrictRateLimit() {
		t.Error("strict rate limit enabled before being set")
	}
	if err := flags.EnableStrictRateLimit("ddos response"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !flags.StrictRateLimit() {
		t.Error("strict rate limit not reported after enable")
	}
	if err := flags.DisableStrictRateLimit(); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if flags.StrictRateLimit() {
		t.Error("strict rate limit still reported after disable")
	}

	// Disabling an already clear flag is a no-op.
	if err := flags.DisableStrictRateLimit(); err != nil {
		t.Fatalf("second disable: %v", err)
	}
}

func TestIsolateTenantActionSuspends(t *testing.T) {
	conn := testdb.New(t)
	tenant := models.Tenant{
		Name:         "Acme Freight",
		AccessCode:   "acme-7f3d",
		ContactEmail: "ops@acme-freight.example",
		PricingTier:  "starter",
		Status:       types.TenantActive,
	}
	if err := conn.Create(&tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	action := isolateTenantAction{conn: conn}

	// JSON metadata delivers numbers as float64.
	if err := action.Execute(map[string]any{"tenant_id": float64(tenant.ID)}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var reloaded models.Tenant
	if err := conn.First(&reloaded, tenant.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != types.TenantSuspended {
		t.Errorf("status = %q, want suspended", reloaded.Status)
	}

	if err := action.Execute(map[string]any{}); err == nil {
		t.Error("missing tenant_id should fail")
	}
	if err := action.Execute(map[string]any{"tenant_id": float64(99999)}); err == nil {
		t.Error("unknown tenant should fail")
	}
}

func TestBlockIPActionBlacklists(t *testing.T) {
	conn := testdb.New(t)
	manager := security.NewManager(conn, 0)

	action := blockIPAction{manager: manager}
	if err := action.Execute(map[string]any{"ip_address": "198.51.100.7"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !manager.IsBlacklisted("198.51.100.7") {
		t.Error("IP not blacklisted after block_ip action")
	}

	if err := action.Execute(map[string]any{}); err == nil {
		t.Error("missing ip_address should fail")
	}
}
