package marketing

import (
	"testing"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/testdb"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

func seedStage(t *testing.T, conn *gorm.DB, stage types.FunnelStage, n int, ts time.Time) {
	t.Helper()

	for i := 0; i < n; i++ {
		err := conn.Create(&models.FunnelEvent{
			Stage:     string(stage),
			Channel:   "organic_search",
			Timestamp: ts,
		}).Error
		if err != nil {
			t.Fatalf("seed stage: %v", err)
		}
	}
}

func TestFunnelMetrics(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := now.AddDate(0, 0, -5)

	seedStage(t, conn, types.StageAwareness, 100, ts)
	seedStage(t, conn, types.StageInterest, 40, ts)
	seedStage(t, conn, types.StageConsideration, 20, ts)
	seedStage(t, conn, types.StageTrial, 10, ts)
	seedStage(t, conn, types.StagePurchase, 5, ts)

	funnel := NewFunnel(conn)
	funnel.now = func() time.Time { return now }

	metrics, err := funnel.Metrics(30)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}

	if metrics.OverallConversion != 5.0 {
		t.Errorf("overall = %v, want 5.0", metrics.OverallConversion)
	}
	if got := metrics.ConversionRates["awareness_to_interest"]; got != 40.0 {
		t.Errorf("awareness_to_interest = %v, want 40.0", got)
	}
	if got := metrics.ConversionRates["trial_to_purchase"]; got != 50.0 {
		t.Errorf("trial_to_purchase = %v, want 50.0", got)
	}
	// avg of 40, 50, 50, 50 = 47.5 -> Good (B).
	if metrics.Efficiency != "Good (B)" {
		t.Errorf("efficiency = %q, want Good (B)", metrics.Efficiency)
	}
}

func TestFunnelMetricsEmptyStagesDoNotDivideByZero(t *testing.T) {
	conn := testdb.New(t)

	funnel := NewFunnel(conn)

	metrics, err := funnel.Metrics(30)
	if err != nil {
		t.Fatalf("Metrics: %v", err)
	}
	if metrics.OverallConversion != 0 {
		t.Errorf("overall = %v, want 0 on empty funnel", metrics.OverallConversion)
	}
	for key, rate := range metrics.ConversionRates {
		if rate != 0 {
			t.Errorf("%s = %v, want 0", key, rate)
		}
	}
}

func TestIdentifyLeaks(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ts := now.AddDate(0, 0, -5)

	// interest converts at 8%, a critical leak; the rest are healthy.
	seedStage(t, conn, types.StageAwareness, 100, ts)
	seedStage(t, conn, types.StageInterest, 50, ts)
	seedStage(t, conn, types.StageConsideration, 4, ts)
	seedStage(t, conn, types.StageTrial, 2, ts)
	seedStage(t, conn, types.StagePurchase, 1, ts)

	funnel := NewFunnel(conn)
	funnel.now = func() time.Time { return now }

	leaks, err := funnel.IdentifyLeaks(30)
	if err != nil {
		t.Fatalf("IdentifyLeaks: %v", err)
	}

	if len(leaks) != 1 {
		t.Fatalf("got %d leaks, want 1: %+v", len(leaks), leaks)
	}
	leak := leaks[0]
	if leak.FromStage != "interest" || leak.ToStage != "consideration" {
		t.Errorf("leak stages = %s -> %s", leak.FromStage, leak.ToStage)
	}
	if leak.ConversionRate != 8.0 {
		t.Errorf("rate = %v, want 8.0", leak.ConversionRate)
	}
	if leak.Severity != "critical" {
		t.Errorf("severity = %q, want critical below 10%%", leak.Severity)
	}
	if leak.Recommendation != leakRecommendations["interest"] {
		t.Errorf("recommendation = %q", leak.Recommendation)
	}
}

func TestRecordStageRejectsUnknown(t *testing.T) {
	conn := testdb.New(t)

	funnel := NewFunnel(conn)
	if err := funnel.RecordStage("advocacy", "referral", nil); err != ErrUnknownStage {
		t.Errorf("err = %v, want ErrUnknownStage", err)
	}
}

func TestChannelPerformance(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	campaigns := []models.Campaign{
		{Name: "search-q2", Channel: "paid_search", Cost: 1000, Leads: 100, Conversions: 12},
		{Name: "social-q2", Channel: "social_media", Cost: 500, Leads: 200, Conversions: 2},
	}
	for i := range campaigns {
		if err := conn.Create(&campaigns[i]).Error; err != nil {
			t.Fatalf("seed campaign: %v", err)
		}
	}

	channels := NewChannels(conn)
	channels.now = func() time.Time { return now.Add(time.Hour) }

	stats, err := channels.Performance(30)
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}

	if len(stats) != 2 {
		t.Fatalf("got %d channels, want 2", len(stats))
	}
	// Ordered by conversions descending.
	if stats[0].Channel != "paid_search" {
		t.Errorf("first channel = %q, want paid_search", stats[0].Channel)
	}
	if stats[0].ConversionRatePct != 12.0 {
		t.Errorf("conversion = %v, want 12.0", stats[0].ConversionRatePct)
	}
	// 12 * 1000 value on 1000 cost = 1100% ROI, with 12% conversion: A+.
	if stats[0].ROIPct != 1100.0 {
		t.Errorf("roi = %v, want 1100.0", stats[0].ROIPct)
	}
	if stats[0].Grade != "A+" {
		t.Errorf("grade = %q, want A+", stats[0].Grade)
	}
}

func TestChannelGradeDeterministic(t *testing.T) {
	tests := []struct {
		conv float64
		roi  float64
		want string
	}{
		{12, 350, "A+"},
		{6, 250, "B"},  // 35 + 40
		{3, 150, "D"},  // 20 + 30
		{1, -50, "D"},  // 10 + 0
		{10, 100, "A"}, // 50 + 30
	}

	for _, tt := range tests {
		for i := 0; i < 3; i++ {
			if got := ChannelGrade(tt.conv, tt.roi); got != tt.want {
				t.Errorf("ChannelGrade(%v, %v) = %q, want %q", tt.conv, tt.roi, got, tt.want)
			}
		}
	}
}

func TestCampaignROI(t *testing.T) {
	conn := testdb.New(t)

	campaign := models.Campaign{Name: "launch", Channel: "email_marketing", Cost: 500, Leads: 50, Conversions: 3}
	if err := conn.Create(&campaign).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	channels := NewChannels(conn)

	report, err := channels.ROI(campaign.ID, 30)
	if err != nil {
		t.Fatalf("ROI: %v", err)
	}
	if len(report.Campaigns) != 1 {
		t.Fatalf("campaigns = %d, want 1", len(report.Campaigns))
	}

	got := report.Campaigns[0]
	if got.Revenue != 3000 {
		t.Errorf("revenue = %v, want 3000", got.Revenue)
	}
	if got.ROIPct != 500.0 {
		t.Errorf("roi = %v, want 500.0", got.ROIPct)
	}
	if got.ROIGrade != "Excellent" {
		t.Errorf("grade = %q, want Excellent", got.ROIGrade)
	}
}

func TestLeadScore(t *testing.T) {
	tests := []struct {
		name string
		lead Lead
		want int
	}{
		{"empty", Lead{}, 0},
		{"enterprise logistics demo", Lead{
			CompanySize:          600,
			Industry:             "Logistics",
			PageViews:            12,
			DownloadedWhitepaper: true,
			RequestedDemo:        true,
		}, 100},
		{"mid fit", Lead{CompanySize: 150, Industry: "transport", PageViews: 6}, 55},
		{"small no fit", Lead{CompanySize: 25, Industry: "retail", PageViews: 3}, 15},
	}

	for _, tt := range tests {
		if got := LeadScore(tt.lead); got != tt.want {
			t.Errorf("%s: LeadScore = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestLeadRecommendationBands(t *testing.T) {
	if got := LeadRecommendation(85); got != "HOT - Contact immediately for demo" {
		t.Errorf("hot = %q", got)
	}
	if got := LeadRecommendation(50); got != "WARM - Nurture with targeted content, schedule call" {
		t.Errorf("warm = %q", got)
	}
	if got := LeadRecommendation(30); got != "COLD - Add to email drip campaign" {
		t.Errorf("cold = %q", got)
	}
	if got := LeadRecommendation(10); got != "NOT QUALIFIED - Revisit in 3 months" {
		t.Errorf("unqualified = %q", got)
	}
}

func TestClassifySegments(t *testing.T) {
	conn := testdb.New(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := models.Tenant{Name: "fresh", AccessCode: "f", Status: types.TenantActive, PricingTier: "demo"}
	fresh.CreatedAt = now.AddDate(0, 0, -5)
	stale := models.Tenant{Name: "stale", AccessCode: "s", Status: types.TenantActive, PricingTier: "starter"}
	stale.CreatedAt = now.AddDate(0, 0, -120)
	for _, tenant := range []*models.Tenant{&fresh, &stale} {
		if err := conn.Create(tenant).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// stale has 3 events, all long ago.
	for i := 0; i < 3; i++ {
		err := conn.Create(&models.Event{
			TenantID:  stale.ID,
			IPAddress: "10.0.0.1",
			Timestamp: now.AddDate(0, 0, -90),
		}).Error
		if err != nil {
			t.Fatalf("seed event: %v", err)
		}
	}

	segmenter := NewSegmenter(conn)
	segmenter.now = func() time.Time { return now }

	segments, err := segmenter.Classify()
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if got := segments.ByEngagement["new_customers"]; got.Count != 1 || got.Tenants[0] != "fresh" {
		t.Errorf("new_customers = %+v", got)
	}
	if got := segments.ByEngagement["at_risk"]; got.Count != 1 || got.Tenants[0] != "stale" {
		t.Errorf("at_risk = %+v", got)
	}
}
