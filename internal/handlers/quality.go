package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/quality"
	"github.com/connexx-dev/connexx/internal/types"
	"github.com/gin-gonic/gin"
)

func SystemQuality(ctx *gin.Context) {
	days := queryInt(ctx, "days", 30)

	report, err := quality.NewTracker(db.DB).SystemQuality(days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute quality metrics"})
		return
	}

	ctx.JSON(http.StatusOK, report)
}

func TenantQuality(ctx *gin.Context) {
	tenantID, err := strconv.ParseUint(ctx.Param("tenant_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID"})
		return
	}

	days := queryInt(ctx, "days", 30)

	report, err := quality.NewTracker(db.DB).TenantQuality(uint(tenantID), days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute quality metrics"})
		return
	}

	ctx.JSON(http.StatusOK, report)
}

// DefectPareto returns the defect groups sorted by contribution, with
// the vital few flagged as focus areas.
func DefectPareto(ctx *gin.Context) {
	days := queryInt(ctx, "days", 30)

	result, err := quality.NewTracker(db.DB).Pareto(days)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute pareto analysis"})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func QualityRecommendations(ctx *gin.Context) {
	recommendations, err := quality.NewTracker(db.DB).Recommendations()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute recommendations"})
		return
	}

	ctx.JSON(http.StatusOK, recommendations)
}

type CreateDMAICProjectRequest struct {
	Title            string `json:"title" binding:"required"`
	ProblemStatement string `json:"problem_statement"`
	Goal             string `json:"goal"`
	Owner            string `json:"owner" binding:"required"`
	TargetDays       int    `json:"target_days"`
}

func CreateDMAICProject(ctx *gin.Context) {
	var body CreateDMAICProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, err := quality.NewDMAICManager(db.DB).CreateProject(
		body.Title, body.ProblemStatement, body.Goal, body.Owner, body.TargetDays)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, project)
}

type AdvancePhaseRequest struct {
	Phase string `json:"phase" binding:"required"`
	Notes string `json:"notes"`
}

func AdvanceDMAICPhase(ctx *gin.Context) {
	projectID, err := strconv.ParseUint(ctx.Param("project_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var body AdvancePhaseRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	phase := types.DMAICPhase(body.Phase)
	if _, ok := types.DMAICPhaseOrder[phase]; !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown DMAIC phase"})
		return
	}

	err = quality.NewDMAICManager(db.DB).AdvancePhase(uint(projectID), phase, body.Notes)

	if err != nil {
		dmaicError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Phase advanced", "phase": body.Phase})
}

type AddMeasurementRequest struct {
	MetricName  string  `json:"metric_name" binding:"required"`
	MetricValue float64 `json:"metric_value"`
	Notes       string  `json:"notes"`
}

func AddDMAICMeasurement(ctx *gin.Context) {
	projectID, err := strconv.ParseUint(ctx.Param("project_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var body AddMeasurementRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err = quality.NewDMAICManager(db.DB).AddMeasurement(uint(projectID), body.MetricName, body.MetricValue, body.Notes)

	if err != nil {
		dmaicError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Measurement recorded"})
}

type CompleteProjectRequest struct {
	ResultsSummary string                 `json:"results_summary"`
	Improvements   map[string]interface{} `json:"improvements"`
}

func CompleteDMAICProject(ctx *gin.Context) {
	projectID, err := strconv.ParseUint(ctx.Param("project_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var body CompleteProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err = quality.NewDMAICManager(db.DB).CompleteProject(uint(projectID), body.ResultsSummary, body.Improvements)

	if err != nil {
		dmaicError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project completed"})
}

func DMAICDashboard(ctx *gin.Context) {
	manager := quality.NewDMAICManager(db.DB)

	dashboard, err := manager.Dashboard(quality.NewTracker(db.DB))

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard"})
		return
	}

	ctx.JSON(http.StatusOK, dashboard)
}

func dmaicError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, quality.ErrProjectNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
	case errors.Is(err, quality.ErrPhaseRegression):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Phases only move forward"})
	case errors.Is(err, quality.ErrProjectCompleted):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Project is already completed"})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
