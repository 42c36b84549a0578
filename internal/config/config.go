package config

import (
	"os"
	"strconv"
)

// Config holds deployment-time settings read from the environment.
// Pricing tiers and operational costs live in internal/pricing and are
// fixed at build time, not here.
type Config struct {
	Port        string
	DatabaseDSN string

	BackupDir           string
	BackupRetentionDays int
	StateDir            string

	EnableThreatDetection  bool
	EnableHoneypot         bool
	AutoBlacklistThreshold int
	BlacklistDurationHours int

	ErrorRetentionDays      int
	SecurityRefreshSeconds  int
	SnapshotIntervalMinutes int
	CleanupIntervalMinutes  int
}

func Load() Config {
	return Config{
		Port:        envString("PORT", "3000"),
		DatabaseDSN: os.Getenv("DATABASE_URL"),

		BackupDir:           envString("BACKUP_DIR", "backups"),
		BackupRetentionDays: envInt("BACKUP_RETENTION_DAYS", 30),
		StateDir:            envString("STATE_DIR", "/tmp"),

		EnableThreatDetection:  envBool("ENABLE_THREAT_DETECTION", true),
		EnableHoneypot:         envBool("ENABLE_HONEYPOT", true),
		AutoBlacklistThreshold: envInt("AUTO_BLACKLIST_THRESHOLD", 5),
		BlacklistDurationHours: envInt("BLACKLIST_DURATION_HOURS", 24),

		ErrorRetentionDays:      envInt("ERROR_RETENTION_DAYS", 90),
		SecurityRefreshSeconds:  envInt("SECURITY_REFRESH_SECONDS", 60),
		SnapshotIntervalMinutes: envInt("SNAPSHOT_INTERVAL_MINUTES", 360),
		CleanupIntervalMinutes:  envInt("CLEANUP_INTERVAL_MINUTES", 60),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
