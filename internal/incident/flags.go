package incident

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	flagMaintenance = "connexx_maintenance_mode.json"
	flagRateLimit   = "connexx_strict_rate_limit.json"
	flagShutdown    = "connexx_shutdown_requested.json"
)

// FlagStore toggles system-wide modes through JSON flag files so every
// process on the host sees the same state. Reads fail safe: a missing
// or unreadable flag means the mode is off.
type FlagStore struct {
	dir string
}

func NewFlagStore(dir string) *FlagStore {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FlagStore{dir: dir}
}

type flagPayload struct {
	Enabled   bool      `json:"enabled"`
	Reason    string    `json:"reason,omitempty"`
	EnabledAt time.Time `json:"enabled_at"`
}

func (f *FlagStore) set(name, reason string) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}

	payload, err := json.Marshal(flagPayload{
		Enabled:   true,
		Reason:    reason,
		EnabledAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.dir, name), payload, 0o644)
}

func (f *FlagStore) clear(name string) error {
	err := os.Remove(filepath.Join(f.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FlagStore) check(name string) bool {
	raw, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		return false
	}

	var payload flagPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false
	}
	return payload.Enabled
}

func (f *FlagStore) EnableMaintenanceMode(reason string) error { return f.set(flagMaintenance, reason) }
func (f *FlagStore) DisableMaintenanceMode() error             { return f.clear(flagMaintenance) }
func (f *FlagStore) MaintenanceMode() bool                     { return f.check(flagMaintenance) }

func (f *FlagStore) EnableStrictRateLimit(reason string) error { return f.set(flagRateLimit, reason) }
func (f *FlagStore) DisableStrictRateLimit() error             { return f.clear(flagRateLimit) }
func (f *FlagStore) StrictRateLimit() bool                     { return f.check(flagRateLimit) }

func (f *FlagStore) RequestShutdown(reason string) error { return f.set(flagShutdown, reason) }
func (f *FlagStore) ClearShutdown() error                { return f.clear(flagShutdown) }
func (f *FlagStore) ShutdownRequested() bool             { return f.check(flagShutdown) }
