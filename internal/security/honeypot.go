package security

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

// honeypotBlockDuration is intentionally long: nobody hits these paths
// by accident.
const honeypotBlockDuration = 168 * time.Hour

// honeypotPaths are fake endpoints that only scanners request.
var honeypotPaths = []string{
	"/admin/phpMyAdmin",
	"/wp-admin",
	"/.env",
	"/config.php",
	"/backup.sql",
	"/admin/config.json",
}

// Honeypot traps scanners probing for well known admin panels and
// config files.
type Honeypot struct {
	manager *Manager
	conn    *gorm.DB
	now     func() time.Time
}

func NewHoneypot(manager *Manager, conn *gorm.DB) *Honeypot {
	return &Honeypot{manager: manager, conn: conn, now: time.Now}
}

// IsHoneypot reports whether the request path starts with a trap path.
func (h *Honeypot) IsHoneypot(path string) bool {
	for _, hp := range honeypotPaths {
		if strings.HasPrefix(path, hp) {
			return true
		}
	}
	return false
}

// Trap blacklists the address for 7 days and records a critical
// incident. Whitelist status does not protect against a honeypot hit.
func (h *Honeypot) Trap(ip, path string) error {
	err := h.manager.AddToBlacklist(ip, fmt.Sprintf("Honeypot accessed: %s", path), honeypotBlockDuration)
	if err != nil {
		return err
	}

	err = h.conn.Create(&models.SecurityIncident{
		IPAddress:    ip,
		IncidentType: "honeypot_access",
		Details:      fmt.Sprintf("Accessed %s", path),
		Severity:     string(types.SeverityCritical),
		Timestamp:    h.now(),
	}).Error
	if err != nil {
		return err
	}

	log.Printf("Honeypot trap: %s accessed %s", ip, path)
	return nil
}

// RecordThreat stores an incident row for a detected request threat.
func RecordThreat(conn *gorm.DB, ip, details, riskLevel string) (*models.SecurityIncident, error) {
	severity := riskLevel
	if severity != "high" && severity != "medium" && severity != "low" {
		severity = "medium"
	}

	incident := &models.SecurityIncident{
		IPAddress:    ip,
		IncidentType: "threat_detected",
		Details:      details,
		Severity:     severity,
		Timestamp:    time.Now(),
	}
	if err := conn.Create(incident).Error; err != nil {
		return nil, err
	}
	return incident, nil
}
