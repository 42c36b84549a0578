package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/analytics"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type IngestEventRequest struct {
	Data     map[string]interface{} `json:"data" binding:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

// IngestEvent appends one event to the authenticated tenant's log.
// Events are immutable once written.
func IngestEvent(ctx *gin.Context) {
	tenant, err := utils.GetCurrentTenant(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not authenticated"})
		return
	}

	var body IngestEventRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	data, err := json.Marshal(body.Data)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event data"})
		return
	}

	var metadata datatypes.JSON

	if body.Metadata != nil {
		raw, err := json.Marshal(body.Metadata)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event metadata"})
			return
		}
		metadata = raw
	}

	event := models.Event{
		TenantID:  tenant.ID,
		IPAddress: ctx.ClientIP(),
		Timestamp: time.Now().UTC(),
		Data:      data,
		Metadata:  metadata,
	}

	err = db.DefaultRetryPolicy().Do(func() error {
		event.ID = 0
		return db.DB.Create(&event).Error
	})

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store event"})
		return
	}

	BroadcastRefresh("event_ingested")

	ctx.JSON(http.StatusCreated, gin.H{"id": event.ID, "timestamp": event.Timestamp})
}

func ListEvents(ctx *gin.Context) {
	tenant, err := utils.GetCurrentTenant(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not authenticated"})
		return
	}

	days := queryInt(ctx, "days", 7)
	limit := queryInt(ctx, "limit", 100)
	since := time.Now().UTC().AddDate(0, 0, -days)

	var events []models.Event

	if err := db.DB.Where("tenant_id = ? AND timestamp > ?", tenant.ID, since).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// TenantDashboard returns the activity analytics for the authenticated
// tenant.
func TenantDashboard(ctx *gin.Context) {
	tenant, err := utils.GetCurrentTenant(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not authenticated"})
		return
	}

	days := queryInt(ctx, "days", 30)

	report, err := analytics.NewAggregator(db.DB).ForTenant(tenant.ID, days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	ctx.JSON(http.StatusOK, report)
}

func PredictTenantActivity(ctx *gin.Context) {
	tenant, err := utils.GetCurrentTenant(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Tenant not authenticated"})
		return
	}

	prediction, err := analytics.NewAggregator(db.DB).PredictActivity(tenant.ID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to predict activity"})
		return
	}

	ctx.JSON(http.StatusOK, prediction)
}

// GlobalAnalytics is the admin-facing view across all tenants.
func GlobalAnalytics(ctx *gin.Context) {
	report, err := analytics.NewAggregator(db.DB).Global()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	ctx.JSON(http.StatusOK, report)
}

// queryInt reads an integer query parameter, falling back when it is
// missing or malformed.
func queryInt(ctx *gin.Context, name string, fallback int) int {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
