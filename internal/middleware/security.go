package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/security"
	"github.com/gin-gonic/gin"
)

// threatBlockDuration applies to IPs caught sending attack payloads.
const threatBlockDuration = 48 * time.Hour

// maxInspectBytes bounds how much of a request body the threat scanner
// reads. Anything larger is already flagged as oversized by the
// payload analyzer.
const maxInspectBytes = 64 * 1024

// IPSecurityMiddleware gates every request on the IP reputation lists,
// traps honeypot paths and scans payloads for attack patterns.
// Honeypot hits are trapped even for whitelisted IPs; the payload scan
// is skipped for them.
func IPSecurityMiddleware(manager *security.Manager, honeypot *security.Honeypot, threatDetection bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ip := ctx.ClientIP()

		if manager.IsBlacklisted(ip) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		if honeypot != nil && honeypot.IsHoneypot(ctx.Request.URL.Path) {
			if err := honeypot.Trap(ip, ctx.Request.URL.Path); err != nil {
				log.Printf("Failed to trap honeypot access from %s: %v", ip, err)
			}
			// Respond like a normal missing page so the scanner learns nothing.
			ctx.String(http.StatusNotFound, "Not Found")
			ctx.Abort()
			return
		}

		if threatDetection && !manager.IsWhitelisted(ip) {
			payload := ctx.Request.URL.RawQuery

			if ctx.Request.Body != nil {
				body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxInspectBytes))
				if err == nil {
					payload += string(body)
					ctx.Request.Body = io.NopCloser(bytes.NewReader(body))
				}
			}

			analysis := security.AnalyzePayload(payload)
			if analysis.IsThreat {
				if err := manager.AddToBlacklist(ip, "attack payload detected", threatBlockDuration); err != nil {
					log.Printf("Failed to blacklist %s after threat detection: %v", ip, err)
				}
				if _, err := security.RecordThreat(db.DB, ip, analysis.Details(), analysis.RiskLevel); err != nil {
					log.Printf("Failed to record threat from %s: %v", ip, err)
				}
				ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Request blocked"})
				return
			}
		}

		ctx.Next()
	}
}
