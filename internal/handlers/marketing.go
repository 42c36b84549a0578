package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/marketing"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"github.com/gin-gonic/gin"
)

func FunnelMetrics(ctx *gin.Context) {
	days := queryInt(ctx, "days", 30)

	metrics, err := marketing.NewFunnel(db.DB).Metrics(days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute funnel metrics"})
		return
	}

	ctx.JSON(http.StatusOK, metrics)
}

func FunnelLeaks(ctx *gin.Context) {
	days := queryInt(ctx, "days", 30)

	leaks, err := marketing.NewFunnel(db.DB).IdentifyLeaks(days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to identify funnel leaks"})
		return
	}

	ctx.JSON(http.StatusOK, leaks)
}

type RecordStageRequest struct {
	Stage    string `json:"stage" binding:"required"`
	Channel  string `json:"channel"`
	TenantID *uint  `json:"tenant_id"`
}

func RecordFunnelStage(ctx *gin.Context) {
	var body RecordStageRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := marketing.NewFunnel(db.DB).RecordStage(types.FunnelStage(body.Stage), body.Channel, body.TenantID)

	if err != nil {
		if errors.Is(err, marketing.ErrUnknownStage) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown funnel stage"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record funnel stage"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Stage recorded", "stage": body.Stage})
}

func ChannelPerformance(ctx *gin.Context) {
	days := queryInt(ctx, "days", 30)

	stats, err := marketing.NewChannels(db.DB).Performance(days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute channel performance"})
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

// CampaignROI reports return on investment for one campaign, or for all
// campaigns when no campaign_id is given.
func CampaignROI(ctx *gin.Context) {
	days := queryInt(ctx, "days", 30)

	var campaignID uint

	if raw := ctx.Query("campaign_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid campaign ID"})
			return
		}
		campaignID = uint(parsed)
	}

	report, err := marketing.NewChannels(db.DB).ROI(campaignID, days)

	if err != nil {
		if errors.Is(err, marketing.ErrCampaignNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute campaign ROI"})
		return
	}

	ctx.JSON(http.StatusOK, report)
}

type CreateCampaignRequest struct {
	Name        string  `json:"name" binding:"required"`
	Channel     string  `json:"channel" binding:"required"`
	Cost        float64 `json:"cost"`
	Leads       int     `json:"leads"`
	Conversions int     `json:"conversions"`
}

func CreateCampaign(ctx *gin.Context) {
	var body CreateCampaignRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	campaign := models.Campaign{
		Name:        body.Name,
		Channel:     body.Channel,
		Cost:        body.Cost,
		Leads:       body.Leads,
		Conversions: body.Conversions,
	}

	if err := db.DB.Create(&campaign).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign"})
		return
	}

	ctx.JSON(http.StatusCreated, campaign)
}

type ScoreLeadRequest struct {
	CompanySize          int    `json:"company_size"`
	Industry             string `json:"industry"`
	PageViews            int    `json:"page_views"`
	DownloadedWhitepaper bool   `json:"downloaded_whitepaper"`
	RequestedDemo        bool   `json:"requested_demo"`
}

func ScoreLead(ctx *gin.Context) {
	var body ScoreLeadRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	lead := marketing.Lead{
		CompanySize:          body.CompanySize,
		Industry:             body.Industry,
		PageViews:            body.PageViews,
		DownloadedWhitepaper: body.DownloadedWhitepaper,
		RequestedDemo:        body.RequestedDemo,
	}

	score := marketing.LeadScore(lead)

	ctx.JSON(http.StatusOK, gin.H{
		"score":          score,
		"recommendation": marketing.LeadRecommendation(score),
	})
}

func CustomerSegments(ctx *gin.Context) {
	segments, err := marketing.NewSegmenter(db.DB).Classify()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to segment customers"})
		return
	}

	ctx.JSON(http.StatusOK, segments)
}

func MarketingDashboard(ctx *gin.Context) {
	segmenter := marketing.NewSegmenter(db.DB)

	dashboard, err := segmenter.FullDashboard(marketing.NewFunnel(db.DB), marketing.NewChannels(db.DB))

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build marketing dashboard"})
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}
