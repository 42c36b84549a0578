package incident

import "github.com/connexx-dev/connexx/internal/types"

// Playbook is the predefined automated response for one incident type.
// Actions run synchronously in order; a failing action is recorded and
// the rest of the playbook still runs.
type Playbook struct {
	Severity          types.IncidentSeverity
	Actions           []types.ActionType
	EscalationMinutes int
	Description       string
}

// Playbooks maps each incident type to its response plan. Types without
// a playbook get severity p2 and no automated actions.
var Playbooks = map[types.IncidentType]Playbook{
	types.IncidentSecurityBreach: {
		Severity: types.SeverityP0,
		Actions: []types.ActionType{
			types.ActionSnapshotState,
			types.ActionBlockIP,
			types.ActionBackupDatabase,
			types.ActionAlertAdmin,
			types.ActionMaintenanceMode,
		},
		EscalationMinutes: 5,
		Description:       "Active security breach, contain and preserve evidence",
	},
	types.IncidentDDOSAttack: {
		Severity: types.SeverityP0,
		Actions: []types.ActionType{
			types.ActionRateLimitStrict,
			types.ActionBlockIP,
			types.ActionAlertAdmin,
		},
		EscalationMinutes: 10,
		Description:       "Distributed denial of service attack in progress",
	},
	types.IncidentDataCorruption: {
		Severity: types.SeverityP0,
		Actions: []types.ActionType{
			types.ActionShutdownSystem,
			types.ActionBackupDatabase,
			types.ActionAlertAdmin,
		},
		EscalationMinutes: 0,
		Description:       "Data corruption detected, stop writes immediately",
	},
	types.IncidentSystemDown: {
		Severity: types.SeverityP0,
		Actions: []types.ActionType{
			types.ActionAlertAdmin,
			types.ActionSnapshotState,
		},
		EscalationMinutes: 2,
		Description:       "System unavailable or unresponsive",
	},
	types.IncidentUnauthorizedAccess: {
		Severity: types.SeverityP1,
		Actions: []types.ActionType{
			types.ActionBlockIP,
			types.ActionIsolateTenant,
			types.ActionAlertAdmin,
		},
		EscalationMinutes: 15,
		Description:       "Unauthorized access to a tenant account",
	},
	types.IncidentDataLeak: {
		Severity: types.SeverityP0,
		Actions: []types.ActionType{
			types.ActionBlockIP,
			types.ActionMaintenanceMode,
			types.ActionSnapshotState,
			types.ActionAlertAdmin,
		},
		EscalationMinutes: 5,
		Description:       "Data exposure or exfiltration detected",
	},
}
