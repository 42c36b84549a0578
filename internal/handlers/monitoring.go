package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/connexx-dev/connexx/internal/types"
	"github.com/connexx-dev/connexx/internal/utils"
	"github.com/gin-gonic/gin"
)

type LogErrorRequest struct {
	ErrorType  string                 `json:"error_type" binding:"required"`
	Message    string                 `json:"message" binding:"required"`
	Severity   string                 `json:"severity"`
	Component  string                 `json:"component" binding:"required"`
	StackTrace string                 `json:"stack_trace"`
	TenantID   *uint                  `json:"tenant_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// LogError records an error reported over the API. Critical errors
// raise an alert as a side effect.
func LogError(ctx *gin.Context) {
	var body LogErrorRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	record, err := errorLogger.LogError(monitoring.ErrorEntry{
		ErrorType:  body.ErrorType,
		Message:    body.Message,
		Severity:   types.Severity(body.Severity),
		Component:  body.Component,
		StackTrace: body.StackTrace,
		TenantID:   body.TenantID,
		Metadata:   body.Metadata,
	})

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": record.ID, "severity": record.Severity})
}

func ErrorAnalytics(ctx *gin.Context) {
	days := queryInt(ctx, "days", 7)

	report, err := monitoring.NewReports(db.DB).ErrorAnalytics(days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute error analytics"})
		return
	}

	ctx.JSON(http.StatusOK, report)
}

func RecentErrors(ctx *gin.Context) {
	limit := queryInt(ctx, "limit", 50)
	severity := ctx.Query("severity")

	records, err := monitoring.NewReports(db.DB).RecentErrors(limit, severity)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve errors"})
		return
	}

	ctx.JSON(http.StatusOK, records)
}

func ActiveAlerts(ctx *gin.Context) {
	alerts, err := monitoring.NewAlerts(db.DB).Active()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve alerts"})
		return
	}

	ctx.JSON(http.StatusOK, alerts)
}

func AcknowledgeAlert(ctx *gin.Context) {
	alertID, err := strconv.ParseUint(ctx.Param("alert_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert ID"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := monitoring.NewAlerts(db.DB).Acknowledge(uint(alertID), currentUser.Email); err != nil {
		alertError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Alert acknowledged"})
}

type ResolveAlertRequest struct {
	Notes string `json:"notes"`
}

func ResolveAlert(ctx *gin.Context) {
	alertID, err := strconv.ParseUint(ctx.Param("alert_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid alert ID"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body ResolveAlertRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := monitoring.NewAlerts(db.DB).Resolve(uint(alertID), currentUser.Email, body.Notes); err != nil {
		alertError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Alert resolved"})
}

// CleanupErrors deletes old low-severity error rows. Critical and high
// severity rows are always retained.
func CleanupErrors(ctx *gin.Context) {
	retentionDays := queryInt(ctx, "retention_days", 90)

	deleted, err := monitoring.NewReports(db.DB).CleanupOldErrors(retentionDays)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up errors"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted, "retention_days": retentionDays})
}

func alertError(ctx *gin.Context, err error) {
	if errors.Is(err, monitoring.ErrAlertNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
