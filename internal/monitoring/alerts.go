package monitoring

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/gorm"
)

var ErrAlertNotFound = errors.New("alert not found")

// Alerts manages the alert lifecycle: open, investigating, resolved.
type Alerts struct {
	conn *gorm.DB
	now  func() time.Time
}

func NewAlerts(conn *gorm.DB) *Alerts {
	return &Alerts{conn: conn, now: time.Now}
}

var severityRank = map[string]int{
	string(types.SeverityCritical): 1,
	string(types.SeverityHigh):     2,
	string(types.SeverityMedium):   3,
}

// Active returns unexpired alerts still being worked, most severe
// first, newest first within a severity.
func (a *Alerts) Active() ([]models.Alert, error) {
	var alerts []models.Alert
	err := a.conn.Preload("SystemError").
		Where("status IN ? AND expires_at > ?",
			[]string{types.AlertOpen, types.AlertInvestigating, types.AlertMitigating}, a.now()).
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, ok := severityRank[alerts[i].Severity]
		if !ok {
			ri = 4
		}
		rj, ok := severityRank[alerts[j].Severity]
		if !ok {
			rj = 4
		}
		if ri != rj {
			return ri < rj
		}
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})

	return alerts, nil
}

// Acknowledge moves an alert to investigating and records who took it.
func (a *Alerts) Acknowledge(alertID uint, admin string) error {
	alert, err := a.alert(alertID)
	if err != nil {
		return err
	}

	acknowledgedAt := a.now()
	return a.conn.Model(alert).Updates(map[string]any{
		"status":          types.AlertInvestigating,
		"acknowledged_by": admin,
		"acknowledged_at": acknowledgedAt,
	}).Error
}

// Resolve closes out an alert with notes. Resolving an already resolved
// alert just overwrites the resolution fields.
func (a *Alerts) Resolve(alertID uint, admin, notes string) error {
	alert, err := a.alert(alertID)
	if err != nil {
		return err
	}

	resolvedAt := a.now()
	return a.conn.Model(alert).Updates(map[string]any{
		"status":           types.AlertResolved,
		"resolved_by":      admin,
		"resolved_at":      resolvedAt,
		"resolution_notes": notes,
	}).Error
}

func (a *Alerts) alert(alertID uint) (*models.Alert, error) {
	var alert models.Alert
	if err := a.conn.First(&alert, alertID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("alert %d: %w", alertID, ErrAlertNotFound)
		}
		return nil, err
	}
	return &alert, nil
}
