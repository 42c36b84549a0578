package types

// Error severity classification for system errors.
type Severity string

const (
	SeverityCritical Severity = "critical" // System down, data loss, security breach
	SeverityHigh     Severity = "high"     // Major functionality broken, system still up
	SeverityMedium   Severity = "medium"   // Degraded performance, workarounds available
	SeverityLow      Severity = "low"      // Minor issues, no impact on core functionality
	SeverityInfo     Severity = "info"     // Informational, no action required
)

// Alert lifecycle states.
const (
	AlertOpen          = "open"
	AlertInvestigating = "investigating"
	AlertMitigating    = "mitigating"
	AlertResolved      = "resolved"
	AlertClosed        = "closed"
)

// Tenant account states. Transitions are one-directional triggers from
// admin action or incident response; active -> suspended never auto-reverses.
const (
	TenantActive    = "active"
	TenantInactive  = "inactive"
	TenantSuspended = "suspended"
)

// IncidentType categorizes incidents handled by the response orchestrator.
type IncidentType string

const (
	IncidentSecurityBreach     IncidentType = "security_breach"
	IncidentDDOSAttack         IncidentType = "ddos_attack"
	IncidentDataCorruption     IncidentType = "data_corruption"
	IncidentSystemDown         IncidentType = "system_down"
	IncidentUnauthorizedAccess IncidentType = "unauthorized_access"
	IncidentDataLeak           IncidentType = "data_leak"
)

// IncidentSeverity priority levels.
type IncidentSeverity string

const (
	SeverityP0 IncidentSeverity = "p0" // Critical - system down, active attack
	SeverityP1 IncidentSeverity = "p1" // High - major functionality broken
	SeverityP2 IncidentSeverity = "p2" // Medium - degraded service
	SeverityP3 IncidentSeverity = "p3" // Low - minor issue
)

// ActionType identifies an automated response action.
type ActionType string

const (
	ActionBlockIP         ActionType = "block_ip"
	ActionMaintenanceMode ActionType = "maintenance_mode"
	ActionBackupDatabase  ActionType = "backup_database"
	ActionShutdownSystem  ActionType = "shutdown_system"
	ActionIsolateTenant   ActionType = "isolate_tenant"
	ActionRateLimitStrict ActionType = "rate_limit_strict"
	ActionAlertAdmin      ActionType = "alert_admin"
	ActionSnapshotState   ActionType = "snapshot_state"
)

// DMAICPhase values form the fixed improvement cycle. Phases only move forward.
type DMAICPhase string

const (
	PhaseDefine  DMAICPhase = "define"
	PhaseMeasure DMAICPhase = "measure"
	PhaseAnalyze DMAICPhase = "analyze"
	PhaseImprove DMAICPhase = "improve"
	PhaseControl DMAICPhase = "control"
)

// DMAICPhaseOrder maps each phase to its position in the cycle.
var DMAICPhaseOrder = map[DMAICPhase]int{
	PhaseDefine:  0,
	PhaseMeasure: 1,
	PhaseAnalyze: 2,
	PhaseImprove: 3,
	PhaseControl: 4,
}

// FunnelStage values for the fixed 5-stage marketing funnel.
type FunnelStage string

const (
	StageAwareness     FunnelStage = "awareness"
	StageInterest      FunnelStage = "interest"
	StageConsideration FunnelStage = "consideration"
	StageTrial         FunnelStage = "trial"
	StagePurchase      FunnelStage = "purchase"
)

// FunnelStages in conversion order.
var FunnelStages = []FunnelStage{
	StageAwareness,
	StageInterest,
	StageConsideration,
	StageTrial,
	StagePurchase,
}

// IP reputation list membership.
const (
	ListWhitelist = "whitelist"
	ListBlacklist = "blacklist"
)
