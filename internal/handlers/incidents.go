package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/connexx-dev/connexx/internal/incident"
	"github.com/connexx-dev/connexx/internal/types"
	"github.com/gin-gonic/gin"
)

var incidentTypes = map[types.IncidentType]bool{
	types.IncidentSecurityBreach:     true,
	types.IncidentDDOSAttack:         true,
	types.IncidentDataCorruption:     true,
	types.IncidentSystemDown:         true,
	types.IncidentUnauthorizedAccess: true,
	types.IncidentDataLeak:           true,
}

type CreateIncidentRequest struct {
	IncidentType string                 `json:"incident_type" binding:"required"`
	Description  string                 `json:"description" binding:"required"`
	Metadata     map[string]interface{} `json:"metadata"`
	AutoRespond  *bool                  `json:"auto_respond"`
}

// CreateIncident raises an incident and, unless auto_respond is
// explicitly disabled, runs its playbook before responding.
func CreateIncident(ctx *gin.Context) {
	var body CreateIncidentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	incidentType := types.IncidentType(body.IncidentType)
	if !incidentTypes[incidentType] {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown incident type"})
		return
	}

	autoRespond := true
	if body.AutoRespond != nil {
		autoRespond = *body.AutoRespond
	}

	record, err := responder.CreateIncident(incidentType, body.Description, body.Metadata, autoRespond)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create incident"})
		return
	}

	if notifier != nil {
		go func() {
			if err := notifier.SendIncidentCreatedNotification(*record); err != nil {
				log.Printf("Failed to send incident notification: %v", err)
			}
		}()
	}
	BroadcastRefresh("incident_created")

	ctx.JSON(http.StatusCreated, record)
}

type ResolveIncidentRequest struct {
	ResolvedBy string `json:"resolved_by" binding:"required"`
	Notes      string `json:"notes"`
}

func ResolveIncident(ctx *gin.Context) {
	incidentID, err := strconv.ParseUint(ctx.Param("incident_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident ID"})
		return
	}

	var body ResolveIncidentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	record, err := responder.ResolveIncident(uint(incidentID), body.ResolvedBy, body.Notes)

	if err != nil {
		if errors.Is(err, incident.ErrIncidentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve incident"})
		return
	}

	if notifier != nil {
		go func() {
			if err := notifier.SendIncidentResolvedNotification(*record); err != nil {
				log.Printf("Failed to send incident notification: %v", err)
			}
		}()
	}
	BroadcastRefresh("incident_resolved")

	ctx.JSON(http.StatusOK, record)
}

func ActiveIncidents(ctx *gin.Context) {
	incidents, err := responder.ActiveIncidents()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	ctx.JSON(http.StatusOK, incidents)
}

func IncidentAnalytics(ctx *gin.Context) {
	days := queryInt(ctx, "days", 30)

	analytics, err := responder.IncidentAnalytics(days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute incident analytics"})
		return
	}

	ctx.JSON(http.StatusOK, analytics)
}

type EmergencyExitRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// EmergencyExit backs up data, enables maintenance mode and records a
// system_down incident. The flag file has to be removed manually once
// the emergency is over.
func EmergencyExit(ctx *gin.Context) {
	var body EmergencyExitRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "A reason is required"})
		return
	}

	report, err := responder.ExecuteEmergencyExit(body.Reason)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Emergency exit failed"})
		return
	}

	BroadcastRefresh("emergency_exit")

	ctx.JSON(http.StatusOK, report)
}

// MaintenanceStatus reports the flag-file modes.
func MaintenanceStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"maintenance_mode":  flagStore.MaintenanceMode(),
		"strict_rate_limit": flagStore.StrictRateLimit(),
	})
}

func DisableMaintenance(ctx *gin.Context) {
	if err := flagStore.DisableMaintenanceMode(); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable maintenance mode"})
		return
	}

	if err := flagStore.DisableStrictRateLimit(); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable strict rate limiting"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Maintenance mode disabled"})
}
