package handlers

import (
	"net"
	"net/http"
	"time"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/gin-gonic/gin"
)

func SecurityStatus(ctx *gin.Context) {
	status, err := securityManager.SecurityStatus()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute security status"})
		return
	}

	ctx.JSON(http.StatusOK, status)
}

type IPRuleRequest struct {
	IPAddress     string `json:"ip_address" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
	DurationHours int    `json:"duration_hours"`
}

func AddToWhitelist(ctx *gin.Context) {
	var body IPRuleRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if net.ParseIP(body.IPAddress) == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid IP address"})
		return
	}

	if err := securityManager.AddToWhitelist(body.IPAddress, body.Reason); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to whitelist IP"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "IP whitelisted", "ip_address": body.IPAddress})
}

func AddToBlacklist(ctx *gin.Context) {
	var body IPRuleRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if net.ParseIP(body.IPAddress) == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid IP address"})
		return
	}

	duration := time.Duration(body.DurationHours) * time.Hour

	if err := securityManager.AddToBlacklist(body.IPAddress, body.Reason, duration); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to blacklist IP"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "IP blacklisted", "ip_address": body.IPAddress})
}

// ClassifyIP reports the reputation of one address.
func ClassifyIP(ctx *gin.Context) {
	ip := ctx.Param("ip")

	if net.ParseIP(ip) == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid IP address"})
		return
	}

	ctx.JSON(http.StatusOK, securityManager.Classify(ip))
}

func ListIPRules(ctx *gin.Context) {
	query := db.DB.Model(&models.IPRule{}).Where("is_active = ?", true)

	if list := ctx.Query("list"); list != "" {
		query = query.Where("list = ?", list)
	}

	var rules []models.IPRule

	if err := query.Order("created_at DESC").Find(&rules).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve IP rules"})
		return
	}

	ctx.JSON(http.StatusOK, rules)
}

func CleanupBlacklists(ctx *gin.Context) {
	removed, err := securityManager.CleanupExpiredBlacklists()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up blacklists"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"removed": removed})
}

func SecurityIncidents(ctx *gin.Context) {
	days := queryInt(ctx, "days", 7)
	since := time.Now().AddDate(0, 0, -days)

	var incidents []models.SecurityIncident

	if err := db.DB.Where("created_at > ?", since).
		Order("created_at DESC").
		Limit(queryInt(ctx, "limit", 100)).
		Find(&incidents).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve security incidents"})
		return
	}

	ctx.JSON(http.StatusOK, incidents)
}
