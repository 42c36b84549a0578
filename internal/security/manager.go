package security

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

const (
	autoBlacklistThreshold = 5
	autoBlacklistWindow    = 10 * time.Minute
	suspiciousWindow       = 30 * time.Minute
	defaultBlockDuration   = 24 * time.Hour
)

// Manager keeps the IP reputation lists in memory for fast middleware
// checks and persists changes through gorm. The in-memory copy is
// refreshed on an interval; writes from another process are invisible
// until the next refresh, which is an accepted staleness window.
type Manager struct {
	conn            *gorm.DB
	refreshInterval time.Duration
	threshold       int
	blockDuration   time.Duration
	now             func() time.Time

	mu             sync.RWMutex
	whitelist      map[string]struct{}
	blacklist      map[string]struct{}
	failedAttempts map[string][]time.Time
}

func NewManager(conn *gorm.DB, refreshInterval time.Duration) *Manager {
	if refreshInterval <= 0 {
		refreshInterval = time.Minute
	}
	return &Manager{
		conn:            conn,
		refreshInterval: refreshInterval,
		threshold:       autoBlacklistThreshold,
		blockDuration:   defaultBlockDuration,
		now:             time.Now,
		whitelist:       map[string]struct{}{},
		blacklist:       map[string]struct{}{},
		failedAttempts:  map[string][]time.Time{},
	}
}

// SetAutoBlacklistPolicy overrides how many failed attempts trigger an
// automatic block and how long that block lasts. Zero values keep the
// defaults.
func (m *Manager) SetAutoBlacklistPolicy(threshold int, blockDuration time.Duration) {
	if threshold > 0 {
		m.threshold = threshold
	}
	if blockDuration > 0 {
		m.blockDuration = blockDuration
	}
}

// RefreshInterval is how often the scheduler should call LoadLists.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

// LoadLists replaces the in-memory sets with the active DB rows.
func (m *Manager) LoadLists() error {
	load := func(list string) (map[string]struct{}, error) {
		var ips []string
		err := m.conn.Model(&models.IPRule{}).
			Where("list = ? AND is_active = ?", list, true).
			Pluck("ip_address", &ips).Error
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(ips))
		for _, ip := range ips {
			set[ip] = struct{}{}
		}
		return set, nil
	}

	whitelist, err := load(types.ListWhitelist)
	if err != nil {
		return err
	}
	blacklist, err := load(types.ListBlacklist)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.whitelist = whitelist
	m.blacklist = blacklist
	m.mu.Unlock()

	return nil
}

func (m *Manager) IsWhitelisted(ip string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.whitelist[ip]
	return ok
}

func (m *Manager) IsBlacklisted(ip string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blacklist[ip]
	return ok
}

// AddToWhitelist activates the address on the whitelist and deactivates
// any blacklist rows for it. Last write wins between the two lists.
func (m *Manager) AddToWhitelist(ip, reason string) error {
	err := m.conn.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.IPRule{}).
			Where("ip_address = ? AND list = ?", ip, types.ListBlacklist).
			Update("is_active", false).Error
		if err != nil {
			return err
		}
		return tx.Create(&models.IPRule{
			IPAddress: ip,
			List:      types.ListWhitelist,
			Reason:    reason,
			IsActive:  true,
		}).Error
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.whitelist[ip] = struct{}{}
	delete(m.blacklist, ip)
	m.mu.Unlock()

	return nil
}

// AddToBlacklist blocks the address for the given duration (24h when
// zero) and deactivates any whitelist rows for it.
func (m *Manager) AddToBlacklist(ip, reason string, duration time.Duration) error {
	if duration <= 0 {
		duration = defaultBlockDuration
	}
	expiresAt := m.now().Add(duration)

	err := m.conn.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.IPRule{}).
			Where("ip_address = ? AND list = ?", ip, types.ListWhitelist).
			Update("is_active", false).Error
		if err != nil {
			return err
		}
		return tx.Create(&models.IPRule{
			IPAddress: ip,
			List:      types.ListBlacklist,
			Reason:    reason,
			IsActive:  true,
			ExpiresAt: &expiresAt,
		}).Error
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.blacklist[ip] = struct{}{}
	delete(m.whitelist, ip)
	m.mu.Unlock()

	log.Printf("Blacklisted %s until %s: %s", ip, expiresAt.Format(time.RFC3339), reason)
	return nil
}

// RecordFailedAttempt logs a failed auth attempt and auto-blacklists
// the address once it reaches the threshold (5 by default) within 10
// minutes. Returns true when the address was just blocked.
func (m *Manager) RecordFailedAttempt(ip, reason string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	attempts := append(m.failedAttempts[ip], now)

	recent := attempts[:0:0]
	for _, at := range attempts {
		if now.Sub(at) < autoBlacklistWindow {
			recent = append(recent, at)
		}
	}
	m.failedAttempts[ip] = recent
	count := len(recent)
	m.mu.Unlock()

	if count >= m.threshold {
		err := m.AddToBlacklist(ip, fmt.Sprintf("Auto-blocked: %d failed attempts", count), m.blockDuration)
		if err != nil {
			return false, err
		}
		return true, nil
	}

	return false, nil
}

type Reputation struct {
	Status      string `json:"status"` // "blocked", "trusted", "suspicious", "unknown"
	Reason      string `json:"reason,omitempty"`
	ThreatLevel string `json:"threat_level"`
}

// Classify rates an address: blacklisted beats whitelisted, then more
// than 2 failures in 30 minutes is suspicious.
func (m *Manager) Classify(ip string) Reputation {
	if m.IsBlacklisted(ip) {
		return Reputation{Status: "blocked", Reason: "IP is blacklisted", ThreatLevel: "high"}
	}
	if m.IsWhitelisted(ip) {
		return Reputation{Status: "trusted", ThreatLevel: "none"}
	}

	now := m.now()
	m.mu.RLock()
	recentFailures := 0
	for _, at := range m.failedAttempts[ip] {
		if now.Sub(at) < suspiciousWindow {
			recentFailures++
		}
	}
	m.mu.RUnlock()

	if recentFailures > 2 {
		return Reputation{
			Status:      "suspicious",
			Reason:      fmt.Sprintf("%d recent failed attempts", recentFailures),
			ThreatLevel: "medium",
		}
	}

	return Reputation{Status: "unknown", ThreatLevel: "low"}
}

// CleanupExpiredBlacklists deactivates expired blacklist rows and
// reloads the in-memory sets. Scheduler job.
func (m *Manager) CleanupExpiredBlacklists() (int64, error) {
	result := m.conn.Model(&models.IPRule{}).
		Where("list = ? AND is_active = ? AND expires_at IS NOT NULL AND expires_at < ?",
			types.ListBlacklist, true, m.now()).
		Update("is_active", false)
	if result.Error != nil {
		return 0, result.Error
	}

	if err := m.LoadLists(); err != nil {
		return result.RowsAffected, err
	}
	return result.RowsAffected, nil
}

type Status struct {
	Status         string                    `json:"status"`
	Incidents24h   map[string]int64          `json:"incidents_24h"`
	BlacklistedIPs int64                     `json:"blacklisted_ips"`
	WhitelistedIPs int64                     `json:"whitelisted_ips"`
	RecentThreats  []models.SecurityIncident `json:"recent_threats"`
	ThreatLevel    string                    `json:"threat_level"`
}

// SecurityStatus summarizes the last day of incidents and list sizes.
func (m *Manager) SecurityStatus() (*Status, error) {
	var rows []struct {
		Severity string
		Count    int64
	}
	err := m.conn.Model(&models.SecurityIncident{}).
		Select("severity, COUNT(*) as count").
		Where("timestamp >= ?", m.now().Add(-24*time.Hour)).
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	incidents := map[string]int64{}
	for _, row := range rows {
		incidents[row.Severity] = row.Count
	}

	count := func(list string) (int64, error) {
		var n int64
		err := m.conn.Model(&models.IPRule{}).
			Where("list = ? AND is_active = ?", list, true).Count(&n).Error
		return n, err
	}

	blacklisted, err := count(types.ListBlacklist)
	if err != nil {
		return nil, err
	}
	whitelisted, err := count(types.ListWhitelist)
	if err != nil {
		return nil, err
	}

	var recent []models.SecurityIncident
	err = m.conn.Where("timestamp >= ?", m.now().Add(-time.Hour)).
		Order("timestamp DESC").Limit(10).Find(&recent).Error
	if err != nil {
		return nil, err
	}

	status := "secure"
	threatLevel := "low"
	if incidents[string(types.SeverityCritical)] > 0 {
		status = "alert"
		threatLevel = "high"
	}

	return &Status{
		Status:         status,
		Incidents24h:   incidents,
		BlacklistedIPs: blacklisted,
		WhitelistedIPs: whitelisted,
		RecentThreats:  recent,
		ThreatLevel:    threatLevel,
	}, nil
}
