package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/pricing"
	"github.com/connexx-dev/connexx/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateTenantRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	CompanyInfo  string `json:"company_info"`
	PricingTier  string `json:"pricing_tier"`
}

type UpdateTenantRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	CompanyInfo  string `json:"company_info"`
	PricingTier  string `json:"pricing_tier"`
}

type SuspendTenantRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type TenantResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	AccessCode   string `json:"access_code"`
	ContactEmail string `json:"contact_email"`
	CompanyInfo  string `json:"company_info"`
	Status       string `json:"status"`
	PricingTier  string `json:"pricing_tier"`
}

func tenantResponse(tenant models.Tenant) TenantResponse {
	return TenantResponse{
		ID:           tenant.ID,
		Name:         tenant.Name,
		AccessCode:   tenant.AccessCode,
		ContactEmail: tenant.ContactEmail,
		CompanyInfo:  tenant.CompanyInfo,
		Status:       tenant.Status,
		PricingTier:  tenant.PricingTier,
	}
}

func CreateTenant(ctx *gin.Context) {
	var body CreateTenantRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	tier := body.PricingTier
	if tier == "" {
		tier = "demo"
	}
	if _, ok := pricing.Tiers[tier]; !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pricing tier"})
		return
	}

	tenant := models.Tenant{
		Name:         body.Name,
		AccessCode:   uuid.NewString(),
		ContactEmail: body.ContactEmail,
		CompanyInfo:  body.CompanyInfo,
		Status:       types.TenantActive,
		PricingTier:  tier,
	}

	if err := db.DB.Create(&tenant).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tenant"})
		return
	}

	ctx.JSON(http.StatusCreated, tenantResponse(tenant))
}

func ListTenants(ctx *gin.Context) {
	query := db.DB.Model(&models.Tenant{})

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tenants []models.Tenant

	if err := query.Order("created_at").Find(&tenants).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tenants"})
		return
	}

	response := make([]TenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		response = append(response, tenantResponse(tenant))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetTenant(ctx *gin.Context) {
	tenant, ok := findTenant(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, tenantResponse(*tenant))
}

func UpdateTenant(ctx *gin.Context) {
	tenant, ok := findTenant(ctx)
	if !ok {
		return
	}

	var body UpdateTenantRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if body.Name != "" {
		updates["name"] = body.Name
	}
	if body.ContactEmail != "" {
		updates["contact_email"] = body.ContactEmail
	}
	if body.CompanyInfo != "" {
		updates["company_info"] = body.CompanyInfo
	}
	if body.PricingTier != "" {
		if _, ok := pricing.Tiers[body.PricingTier]; !ok {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown pricing tier"})
			return
		}
		updates["pricing_tier"] = body.PricingTier
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(tenant).Updates(updates).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tenant"})
		return
	}

	ctx.JSON(http.StatusOK, tenantResponse(*tenant))
}

// SuspendTenant blocks a tenant from ingesting without deleting its
// data. Suspension never auto-reverses.
func SuspendTenant(ctx *gin.Context) {
	tenant, ok := findTenant(ctx)
	if !ok {
		return
	}

	var body SuspendTenantRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Suspension reason is required"})
		return
	}

	updates := map[string]interface{}{
		"status":           types.TenantSuspended,
		"suspended_reason": body.Reason,
	}

	if err := db.DB.Model(tenant).Updates(updates).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to suspend tenant"})
		return
	}

	ctx.JSON(http.StatusOK, tenantResponse(*tenant))
}

func ReactivateTenant(ctx *gin.Context) {
	tenant, ok := findTenant(ctx)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"status":           types.TenantActive,
		"suspended_reason": "",
	}

	if err := db.DB.Model(tenant).Updates(updates).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reactivate tenant"})
		return
	}

	ctx.JSON(http.StatusOK, tenantResponse(*tenant))
}

func DeleteTenant(ctx *gin.Context) {
	tenant, ok := findTenant(ctx)
	if !ok {
		return
	}

	if err := db.DB.Select("Events").Delete(tenant).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tenant"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Tenant deleted"})
}

// findTenant loads the tenant from the :tenant_id path parameter and
// writes the error response itself when it cannot.
func findTenant(ctx *gin.Context) (*models.Tenant, bool) {
	tenantID, err := strconv.ParseUint(ctx.Param("tenant_id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant ID"})
		return nil, false
	}

	var tenant models.Tenant

	if err := db.DB.First(&tenant, uint(tenantID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tenant"})
		}
		return nil, false
	}

	return &tenant, true
}
