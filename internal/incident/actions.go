package incident

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/connexx-dev/connexx/internal/security"
	"github.com/connexx-dev/connexx/internal/types"
)

// blockDuration applies to IPs blocked by automated response.
const blockDuration = 168 * time.Hour

// Action is a single automated response step. Execute receives the
// incident metadata so actions can pull targets (IP, tenant) from it.
type Action interface {
	Type() types.ActionType
	Execute(metadata map[string]any) error
}

type blockIPAction struct {
	manager *security.Manager
}

func (a blockIPAction) Type() types.ActionType { return types.ActionBlockIP }

func (a blockIPAction) Execute(metadata map[string]any) error {
	ip, _ := metadata["ip_address"].(string)
	if ip == "" {
		return fmt.Errorf("block_ip: metadata has no ip_address")
	}
	return a.manager.AddToBlacklist(ip, "automated incident response", blockDuration)
}

type maintenanceModeAction struct {
	flags *FlagStore
}

func (a maintenanceModeAction) Type() types.ActionType { return types.ActionMaintenanceMode }

func (a maintenanceModeAction) Execute(metadata map[string]any) error {
	reason, _ := metadata["reason"].(string)
	if reason == "" {
		reason = "automated incident response"
	}
	return a.flags.EnableMaintenanceMode(reason)
}

type backupDatabaseAction struct {
	snapshotter interface {
		Snapshot() (string, error)
	}
}

func (a backupDatabaseAction) Type() types.ActionType { return types.ActionBackupDatabase }

func (a backupDatabaseAction) Execute(map[string]any) error {
	_, err := a.snapshotter.Snapshot()
	return err
}

type shutdownSystemAction struct {
	flags *FlagStore
}

func (a shutdownSystemAction) Type() types.ActionType { return types.ActionShutdownSystem }

func (a shutdownSystemAction) Execute(metadata map[string]any) error {
	reason, _ := metadata["reason"].(string)
	if reason == "" {
		reason = "automated incident response"
	}
	return a.flags.RequestShutdown(reason)
}

type isolateTenantAction struct {
	conn *gorm.DB
}

func (a isolateTenantAction) Type() types.ActionType { return types.ActionIsolateTenant }

func (a isolateTenantAction) Execute(metadata map[string]any) error {
	id := numericID(metadata["tenant_id"])
	if id == 0 {
		return fmt.Errorf("isolate_tenant: metadata has no tenant_id")
	}

	result := a.conn.Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("status", types.TenantSuspended)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("isolate_tenant: tenant %d not found", id)
	}
	return nil
}

type rateLimitStrictAction struct {
	flags *FlagStore
}

func (a rateLimitStrictAction) Type() types.ActionType { return types.ActionRateLimitStrict }

func (a rateLimitStrictAction) Execute(metadata map[string]any) error {
	reason, _ := metadata["reason"].(string)
	if reason == "" {
		reason = "automated incident response"
	}
	return a.flags.EnableStrictRateLimit(reason)
}

type alertAdminAction struct {
	logger *monitoring.ErrorLogger
}

func (a alertAdminAction) Type() types.ActionType { return types.ActionAlertAdmin }

func (a alertAdminAction) Execute(metadata map[string]any) error {
	message, _ := metadata["description"].(string)
	if message == "" {
		message = "Incident requires admin attention"
	}
	_, err := a.logger.LogError(monitoring.ErrorEntry{
		ErrorType: "ADMIN_ALERT",
		Message:   message,
		Severity:  types.SeverityCritical,
		Component: "incident_response",
		Metadata:  metadata,
	})
	return err
}

type snapshotStateAction struct {
	conn  *gorm.DB
	flags *FlagStore
}

func (a snapshotStateAction) Type() types.ActionType { return types.ActionSnapshotState }

// Execute writes a point-in-time summary of system state next to the
// flag files, so post-incident review has the counts from the moment
// the incident fired.
func (a snapshotStateAction) Execute(map[string]any) error {
	state := map[string]any{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"maintenance_mode": a.flags.MaintenanceMode(),
	}

	// Counts are best effort: a partially degraded store should not stop
	// the snapshot from recording whatever is still reachable.
	var tenants, events, errs, alerts int64
	a.conn.Model(&models.Tenant{}).Count(&tenants)
	a.conn.Model(&models.Event{}).Count(&events)
	a.conn.Model(&models.SystemError{}).Count(&errs)
	a.conn.Model(&models.Alert{}).Where("status IN ?", []string{types.AlertOpen, types.AlertInvestigating}).Count(&alerts)

	state["tenants"] = tenants
	state["events"] = events
	state["system_errors"] = errs
	state["active_alerts"] = alerts

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.flags.dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("connexx_state_%s.json", time.Now().UTC().Format("20060102_150405"))
	return os.WriteFile(filepath.Join(a.flags.dir, name), raw, 0o644)
}

// numericID coerces a metadata value into a tenant ID. JSON round-trips
// turn numbers into float64, so both forms have to be accepted.
func numericID(v any) uint {
	switch n := v.(type) {
	case uint:
		return n
	case int:
		if n > 0 {
			return uint(n)
		}
	case float64:
		if n > 0 {
			return uint(n)
		}
	}
	return 0
}
