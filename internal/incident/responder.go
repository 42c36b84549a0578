package incident

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/backup"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/connexx-dev/connexx/internal/security"
	"github.com/connexx-dev/connexx/internal/types"
)

var ErrIncidentNotFound = errors.New("incident not found")

// severityRank orders incident priorities, p0 first.
var severityRank = map[string]int{
	string(types.SeverityP0): 0,
	string(types.SeverityP1): 1,
	string(types.SeverityP2): 2,
	string(types.SeverityP3): 3,
}

// ActionRecord is one entry in an incident's response action log.
type ActionRecord struct {
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// Responder creates incidents and runs their playbooks. Playbook
// execution is synchronous and best effort: every action outcome is
// recorded on the incident, and action failures never fail the
// incident itself.
type Responder struct {
	conn    *gorm.DB
	logger  *monitoring.ErrorLogger
	actions map[types.ActionType]Action
	retry   *db.RetryPolicy
	now     func() time.Time
}

func NewResponder(conn *gorm.DB, logger *monitoring.ErrorLogger, actions ...Action) *Responder {
	registry := make(map[types.ActionType]Action, len(actions))
	for _, action := range actions {
		registry[action.Type()] = action
	}
	return &Responder{conn: conn, logger: logger, actions: registry, retry: db.DefaultRetryPolicy(), now: time.Now}
}

// DefaultActions wires the full action set used in production.
func DefaultActions(conn *gorm.DB, manager *security.Manager, snapshotter *backup.Snapshotter, logger *monitoring.ErrorLogger, flags *FlagStore) []Action {
	return []Action{
		blockIPAction{manager: manager},
		maintenanceModeAction{flags: flags},
		backupDatabaseAction{snapshotter: snapshotter},
		shutdownSystemAction{flags: flags},
		isolateTenantAction{conn: conn},
		rateLimitStrictAction{flags: flags},
		alertAdminAction{logger: logger},
		snapshotStateAction{conn: conn, flags: flags},
	}
}

// CreateIncident records the incident, logs a critical system error for
// it and, when autoRespond is set, runs the matching playbook.
func (r *Responder) CreateIncident(incidentType types.IncidentType, description string, metadata map[string]any, autoRespond bool) (*models.Incident, error) {
	playbook, hasPlaybook := Playbooks[incidentType]
	severity := types.SeverityP2
	if hasPlaybook {
		severity = playbook.Severity
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, ok := metadata["description"]; !ok {
		metadata["description"] = description
	}
	rawMeta, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}

	record := &models.Incident{
		Reference:    uuid.NewString(),
		IncidentType: string(incidentType),
		Severity:     string(severity),
		Description:  description,
		Metadata:     rawMeta,
		Status:       "open",
	}
	err = r.retry.Do(func() error {
		record.ID = 0
		return r.conn.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("INCIDENT %s created: %s (%s)", record.Reference, incidentType, severity)

	if _, err := r.logger.LogError(monitoring.ErrorEntry{
		ErrorType: fmt.Sprintf("INCIDENT_%s", strings.ToUpper(string(incidentType))),
		Message:   description,
		Severity:  types.SeverityCritical,
		Component: "incident_response",
		Metadata:  metadata,
	}); err != nil {
		log.Printf("Failed to log incident %s as system error: %v", record.Reference, err)
	}

	if autoRespond && hasPlaybook {
		r.executePlaybook(record, playbook, metadata)
	}

	return record, nil
}

// executePlaybook runs every action in order and saves the per-action
// outcomes on the incident. Missing or failing actions are recorded as
// unsuccessful and the remaining actions still run.
func (r *Responder) executePlaybook(record *models.Incident, playbook Playbook, metadata map[string]any) {
	results := make([]ActionRecord, 0, len(playbook.Actions))
	for _, actionType := range playbook.Actions {
		entry := ActionRecord{Action: string(actionType), Timestamp: r.now()}

		action, ok := r.actions[actionType]
		if !ok {
			log.Printf("Incident %s: no handler registered for action %s", record.Reference, actionType)
		} else if err := action.Execute(metadata); err != nil {
			log.Printf("Incident %s: action %s failed: %v", record.Reference, actionType, err)
		} else {
			entry.Success = true
		}

		results = append(results, entry)
	}

	raw, err := json.Marshal(results)
	if err != nil {
		log.Printf("Incident %s: failed to encode response actions: %v", record.Reference, err)
		return
	}
	record.ResponseActions = raw
	if err := r.conn.Model(record).Update("response_actions", record.ResponseActions).Error; err != nil {
		log.Printf("Incident %s: failed to save response actions: %v", record.Reference, err)
	}
}

// ResolveIncident closes an incident. Resolving an already resolved
// incident overwrites the previous resolution.
func (r *Responder) ResolveIncident(id uint, resolvedBy, notes string) (*models.Incident, error) {
	var record models.Incident
	if err := r.conn.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}

	resolvedAt := r.now()
	record.Status = "resolved"
	record.ResolvedAt = &resolvedAt
	record.ResolvedBy = resolvedBy
	record.ResolutionNotes = notes
	if err := r.conn.Save(&record).Error; err != nil {
		return nil, err
	}

	log.Printf("INCIDENT %s resolved by %s", record.Reference, resolvedBy)
	return &record, nil
}

// ActiveIncidents returns open incidents, highest priority first and
// newest first within a priority.
func (r *Responder) ActiveIncidents() ([]models.Incident, error) {
	var incidents []models.Incident
	if err := r.conn.Where("status = ?", "open").Find(&incidents).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(incidents, func(i, j int) bool {
		ri, ok := severityRank[incidents[i].Severity]
		if !ok {
			ri = len(severityRank)
		}
		rj, ok := severityRank[incidents[j].Severity]
		if !ok {
			rj = len(severityRank)
		}
		if ri != rj {
			return ri < rj
		}
		return incidents[i].CreatedAt.After(incidents[j].CreatedAt)
	})
	return incidents, nil
}

// Analytics summarizes incident volume and resolution speed over the
// trailing window.
type Analytics struct {
	PeriodDays     int            `json:"period_days"`
	TotalIncidents int64          `json:"total_incidents"`
	ActiveCount    int            `json:"active_count"`
	ByType         map[string]int `json:"by_type"`
	BySeverity     map[string]int `json:"by_severity"`
	MTTRHours      float64        `json:"mttr_hours"`
}

func (r *Responder) IncidentAnalytics(days int) (*Analytics, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := r.now().AddDate(0, 0, -days)

	var incidents []models.Incident
	if err := r.conn.Where("created_at > ?", cutoff).Find(&incidents).Error; err != nil {
		return nil, err
	}

	result := &Analytics{
		PeriodDays:     days,
		TotalIncidents: int64(len(incidents)),
		ByType:         map[string]int{},
		BySeverity:     map[string]int{},
	}

	var resolutionSeconds float64
	var resolvedCount int
	for _, inc := range incidents {
		result.ByType[inc.IncidentType]++
		result.BySeverity[inc.Severity]++
		if inc.Status == "open" {
			result.ActiveCount++
		}
		if inc.ResolvedAt != nil {
			resolutionSeconds += inc.ResolvedAt.Sub(inc.CreatedAt).Seconds()
			resolvedCount++
		}
	}
	if resolvedCount > 0 {
		result.MTTRHours = round2(resolutionSeconds / float64(resolvedCount) / 3600)
	}
	return result, nil
}

// ExitReport describes what the emergency exit did.
type ExitReport struct {
	Reason   string           `json:"reason"`
	Steps    []ActionRecord   `json:"steps"`
	Incident *models.Incident `json:"incident"`
}

// emergencyExitSteps run in this order before the system-down incident
// is recorded: preserve data first, then stop accepting traffic.
var emergencyExitSteps = []types.ActionType{
	types.ActionBackupDatabase,
	types.ActionMaintenanceMode,
	types.ActionSnapshotState,
}

// ExecuteEmergencyExit backs up, enables maintenance mode, snapshots
// state and records a system_down incident without running its
// playbook. Step failures are recorded and never abort later steps.
func (r *Responder) ExecuteEmergencyExit(reason string) (*ExitReport, error) {
	log.Printf("EMERGENCY EXIT initiated: %s", reason)

	metadata := map[string]any{"reason": reason, "emergency_exit": true}
	report := &ExitReport{Reason: reason}
	for _, actionType := range emergencyExitSteps {
		entry := ActionRecord{Action: string(actionType), Timestamp: r.now()}
		action, ok := r.actions[actionType]
		if !ok {
			log.Printf("Emergency exit: no handler registered for %s", actionType)
		} else if err := action.Execute(metadata); err != nil {
			log.Printf("Emergency exit: %s failed: %v", actionType, err)
		} else {
			entry.Success = true
		}
		report.Steps = append(report.Steps, entry)
	}

	record, err := r.CreateIncident(types.IncidentSystemDown,
		fmt.Sprintf("Emergency exit strategy executed: %s", reason),
		metadata, false)
	if err != nil {
		return report, err
	}
	report.Incident = record
	return report, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
