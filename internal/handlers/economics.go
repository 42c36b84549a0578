package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/economics"
	"github.com/connexx-dev/connexx/internal/pricing"
	"github.com/gin-gonic/gin"
)

// TenantEconomics bundles the per-tenant unit economics into one
// response: lifetime value, acquisition cost, operating cost and the
// profitability grade. A sub-metric that cannot be computed comes back
// null; only an unknown tenant fails the whole request.
func TenantEconomics(ctx *gin.Context) {
	tenantID, err := strconv.ParseUint(ctx.Param("tenant_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID"})
		return
	}

	calc := economics.NewCalculator(db.DB)
	response := gin.H{
		"lifetime_value":   nil,
		"acquisition_cost": nil,
		"operating_cost":   nil,
		"profitability":    nil,
	}

	if ltv, err := calc.LifetimeValue(uint(tenantID)); err == nil {
		response["lifetime_value"] = ltv
	} else if errors.Is(err, economics.ErrTenantNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}

	if cac, err := calc.AcquisitionCost(uint(tenantID)); err == nil {
		response["acquisition_cost"] = cac
	}
	if cost, err := calc.MonthlyOperatingCost(uint(tenantID)); err == nil {
		response["operating_cost"] = cost
	}
	if profit, err := calc.Profitability(uint(tenantID)); err == nil {
		response["profitability"] = profit
	}

	ctx.JSON(http.StatusOK, response)
}

func BusinessMetrics(ctx *gin.Context) {
	metrics, err := economics.NewCalculator(db.DB).CompanyMetrics()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute business metrics"})
		return
	}

	ctx.JSON(http.StatusOK, metrics)
}

func CustomerGrades(ctx *gin.Context) {
	grades, err := economics.NewCalculator(db.DB).CustomerGrades()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute customer grades"})
		return
	}

	ctx.JSON(http.StatusOK, grades)
}

func CohortAnalysis(ctx *gin.Context) {
	cohorts, err := economics.NewCalculator(db.DB).CohortAnalysis()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute cohorts"})
		return
	}

	ctx.JSON(http.StatusOK, cohorts)
}

func PricingRecommendations(ctx *gin.Context) {
	recommendations, err := economics.NewCalculator(db.DB).PricingRecommendations()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute pricing recommendations"})
		return
	}

	ctx.JSON(http.StatusOK, recommendations)
}

type ApplyTierChangeRequest struct {
	PricingTier   string  `json:"pricing_tier" binding:"required"`
	MonthlyAmount float64 `json:"monthly_amount"`
}

func ApplyTierChange(ctx *gin.Context) {
	tenantID, err := strconv.ParseUint(ctx.Param("tenant_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID"})
		return
	}

	var body ApplyTierChangeRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, ok := pricing.Tiers[body.PricingTier]; !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pricing tier"})
		return
	}

	if err := economics.NewCalculator(db.DB).ApplyTierChange(uint(tenantID), body.PricingTier, body.MonthlyAmount); err != nil {
		economicsError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Pricing tier updated", "pricing_tier": body.PricingTier})
}

func economicsError(ctx *gin.Context, err error) {
	if errors.Is(err, economics.ErrTenantNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		return
	}
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute economics"})
}
