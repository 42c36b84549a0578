package security

import (
	"strings"
	"testing"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/testdb"
	"github.com/connexx-dev/connexx/internal/types"
)

func TestRecordFailedAttemptAutoBlacklistsOnFifth(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewManager(conn, time.Minute)

	for i := 0; i < 4; i++ {
		blocked, err := mgr.RecordFailedAttempt("203.0.113.9", "bad password")
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if blocked {
			t.Fatalf("blocked on attempt %d, want only on 5th", i+1)
		}
	}

	blocked, err := mgr.RecordFailedAttempt("203.0.113.9", "bad password")
	if err != nil {
		t.Fatalf("5th attempt: %v", err)
	}
	if !blocked {
		t.Fatal("5th attempt within 10m must auto-blacklist")
	}

	if !mgr.IsBlacklisted("203.0.113.9") {
		t.Error("address missing from in-memory blacklist")
	}

	var rule models.IPRule
	err = conn.Where("ip_address = ? AND list = ? AND is_active = ?", "203.0.113.9", types.ListBlacklist, true).
		First(&rule).Error
	if err != nil {
		t.Fatalf("blacklist row: %v", err)
	}
	if rule.ExpiresAt == nil {
		t.Error("auto-blacklist must carry an expiry")
	}
}

func TestFailedAttemptsOutsideWindowDoNotCount(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewManager(conn, time.Minute)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	mgr.now = func() time.Time { return current }

	for i := 0; i < 4; i++ {
		if _, err := mgr.RecordFailedAttempt("198.51.100.7", "bad password"); err != nil {
			t.Fatalf("attempt: %v", err)
		}
	}

	// 11 minutes later the old attempts have aged out.
	current = base.Add(11 * time.Minute)
	blocked, err := mgr.RecordFailedAttempt("198.51.100.7", "bad password")
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if blocked {
		t.Error("stale attempts must not trigger the auto-blacklist")
	}
}

func TestClassify(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewManager(conn, time.Minute)

	if err := mgr.AddToWhitelist("192.0.2.1", "office"); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := mgr.AddToBlacklist("192.0.2.2", "abuse", 0); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := mgr.RecordFailedAttempt("192.0.2.3", "bad password"); err != nil {
			t.Fatalf("attempt: %v", err)
		}
	}

	if got := mgr.Classify("192.0.2.1"); got.Status != "trusted" {
		t.Errorf("whitelisted = %+v", got)
	}
	if got := mgr.Classify("192.0.2.2"); got.Status != "blocked" || got.ThreatLevel != "high" {
		t.Errorf("blacklisted = %+v", got)
	}
	if got := mgr.Classify("192.0.2.3"); got.Status != "suspicious" || got.ThreatLevel != "medium" {
		t.Errorf("3 failures = %+v", got)
	}
	if got := mgr.Classify("192.0.2.4"); got.Status != "unknown" || got.ThreatLevel != "low" {
		t.Errorf("fresh ip = %+v", got)
	}
}

func TestBlacklistWinsOverWhitelist(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewManager(conn, time.Minute)

	if err := mgr.AddToWhitelist("192.0.2.10", "partner"); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := mgr.AddToBlacklist("192.0.2.10", "compromised", 0); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	if mgr.IsWhitelisted("192.0.2.10") {
		t.Error("blacklisting must remove whitelist membership")
	}
	if got := mgr.Classify("192.0.2.10"); got.Status != "blocked" {
		t.Errorf("classify = %+v", got)
	}

	// DB row was deactivated too, so a reload agrees.
	if err := mgr.LoadLists(); err != nil {
		t.Fatalf("LoadLists: %v", err)
	}
	if mgr.IsWhitelisted("192.0.2.10") || !mgr.IsBlacklisted("192.0.2.10") {
		t.Error("reload disagrees with in-memory state")
	}
}

func TestCleanupExpiredBlacklists(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewManager(conn, time.Minute)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return now }

	if err := mgr.AddToBlacklist("192.0.2.20", "short block", time.Hour); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if err := mgr.AddToBlacklist("192.0.2.21", "long block", 48*time.Hour); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	// Two hours later the first entry has expired.
	mgr.now = func() time.Time { return now.Add(2 * time.Hour) }

	removed, err := mgr.CleanupExpiredBlacklists()
	if err != nil {
		t.Fatalf("CleanupExpiredBlacklists: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if mgr.IsBlacklisted("192.0.2.20") {
		t.Error("expired entry still blacklisted")
	}
	if !mgr.IsBlacklisted("192.0.2.21") {
		t.Error("unexpired entry dropped")
	}
}

func TestAnalyzePayload(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		isThreat bool
		risk     string
	}{
		{"clean", `{"name": "warehouse-7", "status": "ok"}`, false, "low"},
		{"sql injection with fishing", `id=1 UNION SELECT * FROM users WHERE password = 'x'`, true, "high"},
		{"xss", `<script>alert(1)</script>`, true, "medium"},
		{"traversal plus null byte", `../../etc/passwd%00`, true, "high"},
		{"php upload", `<?php system($_GET["c"]); ?>`, true, "high"},
	}

	for _, tt := range tests {
		got := AnalyzePayload(tt.payload)
		if got.IsThreat != tt.isThreat {
			t.Errorf("%s: is_threat = %v, want %v (score %d)", tt.name, got.IsThreat, tt.isThreat, got.ThreatScore)
		}
		if got.RiskLevel != tt.risk {
			t.Errorf("%s: risk = %q, want %q (score %d)", tt.name, got.RiskLevel, tt.risk, got.ThreatScore)
		}
	}
}

func TestAnalyzePayloadLargeBody(t *testing.T) {
	payload := strings.Repeat("a", 10001)
	got := AnalyzePayload(payload)

	if got.ThreatScore != 20 {
		t.Errorf("score = %d, want 20 for size alone", got.ThreatScore)
	}
	if got.IsThreat {
		t.Error("size alone is not a threat")
	}
	if got.RiskLevel != "low" {
		t.Errorf("risk = %q, want low at score 20", got.RiskLevel)
	}
}

func TestHoneypot(t *testing.T) {
	conn := testdb.New(t)
	mgr := NewManager(conn, time.Minute)
	pot := NewHoneypot(mgr, conn)

	if !pot.IsHoneypot("/wp-admin/login.php") {
		t.Error("/wp-admin prefix must be a honeypot")
	}
	if pot.IsHoneypot("/api/events") {
		t.Error("real endpoint flagged as honeypot")
	}

	// Even a whitelisted address gets trapped.
	if err := mgr.AddToWhitelist("192.0.2.30", "partner"); err != nil {
		t.Fatalf("whitelist: %v", err)
	}
	if err := pot.Trap("192.0.2.30", "/.env"); err != nil {
		t.Fatalf("Trap: %v", err)
	}

	if !mgr.IsBlacklisted("192.0.2.30") {
		t.Error("trapped ip not blacklisted")
	}

	var incidents []models.SecurityIncident
	if err := conn.Where("ip_address = ?", "192.0.2.30").Find(&incidents).Error; err != nil {
		t.Fatalf("incidents: %v", err)
	}
	if len(incidents) != 1 {
		t.Fatalf("incidents = %d, want exactly 1", len(incidents))
	}
	if incidents[0].IncidentType != "honeypot_access" || incidents[0].Severity != "critical" {
		t.Errorf("incident = %+v", incidents[0])
	}

	var rule models.IPRule
	err := conn.Where("ip_address = ? AND list = ? AND is_active = ?", "192.0.2.30", types.ListBlacklist, true).
		First(&rule).Error
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	if rule.ExpiresAt == nil || time.Until(*rule.ExpiresAt) < 167*time.Hour {
		t.Errorf("expiry = %v, want ~7 days out", rule.ExpiresAt)
	}
}
