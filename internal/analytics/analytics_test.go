package analytics

import (
	"testing"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/testdb"
	"gorm.io/gorm"
)

func seedTenant(t *testing.T, conn *gorm.DB) models.Tenant {
	t.Helper()

	tenant := models.Tenant{
		Name:        "Acme Logistics",
		AccessCode:  "test-code-" + t.Name(),
		Status:      "active",
		PricingTier: "starter",
	}
	if err := conn.Create(&tenant).Error; err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}

	return tenant
}

func seedEvent(t *testing.T, conn *gorm.DB, tenantID uint, ip string, ts time.Time) {
	t.Helper()

	event := models.Event{
		TenantID:  tenantID,
		IPAddress: ip,
		Timestamp: ts,
		Data:      []byte(`{"msg":"shipment scanned"}`),
	}
	if err := conn.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}
}

func TestCountInWindow(t *testing.T) {
	conn := testdb.New(t)
	tenant := seedTenant(t, conn)
	agg := NewAggregator(conn)

	now := time.Now()
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now.Add(-2*time.Hour))
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now.Add(-1*time.Hour))
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now.Add(-49*time.Hour))

	count, err := agg.CountInWindow(tenant.ID, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("CountInWindow failed: %v", err)
	}

	if count != 2 {
		t.Errorf("expected 2 events in window, got %d", count)
	}
}

func TestCountInWindowEmptyIsZeroNotError(t *testing.T) {
	conn := testdb.New(t)
	tenant := seedTenant(t, conn)
	agg := NewAggregator(conn)

	count, err := agg.CountInWindow(tenant.ID, time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("expected no error for empty window, got %v", err)
	}

	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}
}

func TestBucketByDayOmitsGaps(t *testing.T) {
	conn := testdb.New(t)
	tenant := seedTenant(t, conn)
	agg := NewAggregator(conn)

	now := time.Now()
	// Two events three days ago, one today, nothing in between.
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now.AddDate(0, 0, -3))
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now.AddDate(0, 0, -3).Add(time.Minute))
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now)

	buckets, err := agg.BucketByDay(tenant.ID, 7)
	if err != nil {
		t.Fatalf("BucketByDay failed: %v", err)
	}

	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets (gap days omitted), got %d: %v", len(buckets), buckets)
	}

	if buckets[0].Count != 2 || buckets[1].Count != 1 {
		t.Errorf("unexpected bucket counts: %v", buckets)
	}

	if buckets[0].Date >= buckets[1].Date {
		t.Errorf("buckets not ordered by date: %v", buckets)
	}
}

func TestTopIPsOrderAndStableTies(t *testing.T) {
	conn := testdb.New(t)
	tenant := seedTenant(t, conn)
	agg := NewAggregator(conn)

	now := time.Now()
	// 10.0.0.2 appears 3 times; 10.0.0.1 and 10.0.0.3 tie with 2, but
	// 10.0.0.1 was seen first.
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now.Add(-50*time.Minute))
	seedEvent(t, conn, tenant.ID, "10.0.0.3", now.Add(-40*time.Minute))
	seedEvent(t, conn, tenant.ID, "10.0.0.2", now.Add(-30*time.Minute))
	seedEvent(t, conn, tenant.ID, "10.0.0.2", now.Add(-20*time.Minute))
	seedEvent(t, conn, tenant.ID, "10.0.0.2", now.Add(-15*time.Minute))
	seedEvent(t, conn, tenant.ID, "10.0.0.1", now.Add(-10*time.Minute))
	seedEvent(t, conn, tenant.ID, "10.0.0.3", now.Add(-5*time.Minute))

	top, err := agg.TopIPs(tenant.ID, 3, time.Hour)
	if err != nil {
		t.Fatalf("TopIPs failed: %v", err)
	}

	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}

	if top[0].IP != "10.0.0.2" || top[0].Count != 3 {
		t.Errorf("expected 10.0.0.2 first with 3, got %+v", top[0])
	}

	if top[1].IP != "10.0.0.1" || top[2].IP != "10.0.0.3" {
		t.Errorf("tie not broken by first-seen order: %+v", top)
	}
}

func TestGrowthRate(t *testing.T) {
	cases := []struct {
		current, previous int64
		want              float64
	}{
		{0, 0, 0.0},
		{5, 0, 100.0},
		{0, 10, -100.0},
		{150, 100, 50.0},
		{50, 100, -50.0},
	}

	for _, tc := range cases {
		if got := GrowthRate(tc.current, tc.previous); got != tc.want {
			t.Errorf("GrowthRate(%d, %d) = %v, want %v", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestPredictActivityTrend(t *testing.T) {
	conn := testdb.New(t)
	tenant := seedTenant(t, conn)
	agg := NewAggregator(conn)

	now := time.Now()
	// Increasing weekly volume: 1, 2, 3 events in consecutive weeks.
	for week := 3; week >= 1; week-- {
		for i := 0; i < 4-week; i++ {
			seedEvent(t, conn, tenant.ID, "10.0.0.1", now.AddDate(0, 0, -7*week).Add(time.Duration(i)*time.Minute))
		}
	}

	prediction, err := agg.PredictActivity(tenant.ID)
	if err != nil {
		t.Fatalf("PredictActivity failed: %v", err)
	}

	if prediction.Trend != "growing" {
		t.Errorf("expected growing trend, got %q (weeks %v)", prediction.Trend, prediction.WeeklyData)
	}
}
