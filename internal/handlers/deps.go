package handlers

import (
	"github.com/connexx-dev/connexx/internal/backup"
	"github.com/connexx-dev/connexx/internal/incident"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/connexx-dev/connexx/internal/security"
	"github.com/connexx-dev/connexx/internal/services"
)

// Shared service instances wired once at startup. Handlers that only
// need the database go straight to db.DB like the rest of the codebase.
var (
	securityManager *security.Manager
	honeypotTrap    *security.Honeypot
	responder       *incident.Responder
	flagStore       *incident.FlagStore
	snapshotter     *backup.Snapshotter
	errorLogger     *monitoring.ErrorLogger
	notifier        *services.Notifier
)

type Deps struct {
	SecurityManager *security.Manager
	Honeypot        *security.Honeypot
	Responder       *incident.Responder
	Flags           *incident.FlagStore
	Snapshotter     *backup.Snapshotter
	ErrorLogger     *monitoring.ErrorLogger
	Notifier        *services.Notifier
}

func Init(deps Deps) {
	securityManager = deps.SecurityManager
	honeypotTrap = deps.Honeypot
	responder = deps.Responder
	flagStore = deps.Flags
	snapshotter = deps.Snapshotter
	errorLogger = deps.ErrorLogger
	notifier = deps.Notifier
}
