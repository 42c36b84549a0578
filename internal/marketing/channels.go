package marketing

import (
	"errors"
	"fmt"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"gorm.io/gorm"
)

// AssumedCustomerValue is the average lifetime value assumed for ROI
// math until the billing data is rich enough to measure it.
const AssumedCustomerValue = 1000.0

var ErrCampaignNotFound = errors.New("campaign not found")

// Channels reports acquisition channel and campaign economics.
type Channels struct {
	db  *gorm.DB
	now func() time.Time
}

func NewChannels(conn *gorm.DB) *Channels {
	return &Channels{db: conn, now: time.Now}
}

type ChannelStats struct {
	Channel            string  `json:"channel"`
	Leads              int64   `json:"leads"`
	Conversions        int64   `json:"conversions"`
	ConversionRatePct  float64 `json:"conversion_rate_pct"`
	TotalCost          float64 `json:"total_cost"`
	CostPerLead        float64 `json:"cost_per_lead"`
	CostPerAcquisition float64 `json:"cost_per_acquisition"`
	ROIPct             float64 `json:"roi_pct"`
	Grade              string  `json:"grade"`
}

// Performance aggregates campaigns per channel over the window, best
// converting channel first.
func (c *Channels) Performance(days int) ([]ChannelStats, error) {
	if days <= 0 {
		days = 30
	}
	since := c.now().AddDate(0, 0, -days)

	var rows []struct {
		Channel     string
		Leads       int64
		Conversions int64
		TotalCost   float64
	}
	err := c.db.Model(&models.Campaign{}).
		Select("channel, SUM(leads) as leads, SUM(conversions) as conversions, SUM(cost) as total_cost").
		Where("created_at >= ?", since).
		Group("channel").
		Order("conversions DESC, channel ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]ChannelStats, 0, len(rows))
	for _, row := range rows {
		conversionRate := 0.0
		if row.Leads > 0 {
			conversionRate = float64(row.Conversions) / float64(row.Leads) * 100
		}

		costPerLead := 0.0
		if row.Leads > 0 {
			costPerLead = row.TotalCost / float64(row.Leads)
		}

		costPerAcquisition := 0.0
		if row.Conversions > 0 {
			costPerAcquisition = row.TotalCost / float64(row.Conversions)
		}

		roi := 0.0
		if row.TotalCost > 0 {
			roi = (float64(row.Conversions)*AssumedCustomerValue - row.TotalCost) / row.TotalCost * 100
		}

		stats = append(stats, ChannelStats{
			Channel:            row.Channel,
			Leads:              row.Leads,
			Conversions:        row.Conversions,
			ConversionRatePct:  round2(conversionRate),
			TotalCost:          round2(row.TotalCost),
			CostPerLead:        round2(costPerLead),
			CostPerAcquisition: round2(costPerAcquisition),
			ROIPct:             round1(roi),
			Grade:              ChannelGrade(conversionRate, roi),
		})
	}

	return stats, nil
}

// ChannelGrade scores a channel 0-100 from conversion rate and ROI,
// 50 points each, and maps the score to a letter. Same inputs always
// give the same grade.
func ChannelGrade(conversionRatePct, roiPct float64) string {
	score := 0

	switch {
	case conversionRatePct >= 10:
		score += 50
	case conversionRatePct >= 5:
		score += 35
	case conversionRatePct >= 2:
		score += 20
	default:
		score += 10
	}

	switch {
	case roiPct >= 300:
		score += 50
	case roiPct >= 200:
		score += 40
	case roiPct >= 100:
		score += 30
	case roiPct >= 0:
		score += 20
	}

	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

type CampaignROI struct {
	CampaignID  uint    `json:"campaign_id"`
	Name        string  `json:"campaign_name"`
	Channel     string  `json:"channel"`
	Cost        float64 `json:"cost"`
	Conversions int     `json:"conversions"`
	Revenue     float64 `json:"revenue"`
	ROIPct      float64 `json:"roi_pct"`
	ROIGrade    string  `json:"roi_grade"`
}

type ROIReport struct {
	Campaigns    []CampaignROI `json:"campaigns"`
	TotalCost    float64       `json:"total_cost"`
	TotalRevenue float64       `json:"total_revenue"`
	AvgROI       float64       `json:"avg_roi"`
}

// ROI reports campaign returns. A campaignID of 0 covers all campaigns
// in the window.
func (c *Channels) ROI(campaignID uint, days int) (*ROIReport, error) {
	if days <= 0 {
		days = 30
	}

	var campaigns []models.Campaign
	if campaignID != 0 {
		var campaign models.Campaign
		if err := c.db.First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("campaign %d: %w", campaignID, ErrCampaignNotFound)
			}
			return nil, err
		}
		campaigns = []models.Campaign{campaign}
	} else {
		err := c.db.Where("created_at >= ?", c.now().AddDate(0, 0, -days)).
			Order("created_at DESC").Find(&campaigns).Error
		if err != nil {
			return nil, err
		}
	}

	report := &ROIReport{Campaigns: make([]CampaignROI, 0, len(campaigns))}
	roiSum := 0.0

	for _, campaign := range campaigns {
		revenue := float64(campaign.Conversions) * AssumedCustomerValue

		roi := 0.0
		if campaign.Cost > 0 {
			roi = (revenue - campaign.Cost) / campaign.Cost * 100
		}
		roi = round1(roi)
		roiSum += roi

		grade := "Poor"
		switch {
		case roi > 300:
			grade = "Excellent"
		case roi > 100:
			grade = "Good"
		}

		report.Campaigns = append(report.Campaigns, CampaignROI{
			CampaignID:  campaign.ID,
			Name:        campaign.Name,
			Channel:     campaign.Channel,
			Cost:        campaign.Cost,
			Conversions: campaign.Conversions,
			Revenue:     revenue,
			ROIPct:      roi,
			ROIGrade:    grade,
		})

		report.TotalCost += campaign.Cost
		report.TotalRevenue += revenue
	}

	if len(report.Campaigns) > 0 {
		report.AvgROI = round1(roiSum / float64(len(report.Campaigns)))
	}

	return report, nil
}
