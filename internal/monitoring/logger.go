package monitoring

import (
	"encoding/json"
	"log"
	"time"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/models"
	"github.com/connexx-dev/connexx/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// alertTTL is how long an unhandled alert stays active before expiring.
const alertTTL = 24 * time.Hour

// ErrorEntry is the input for logging a system error.
type ErrorEntry struct {
	ErrorType  string
	Message    string
	Severity   types.Severity
	Component  string
	StackTrace string
	TenantID   *uint
	Metadata   map[string]any
}

// ErrorLogger persists system errors and raises alerts for critical
// ones. Writes go through the retry policy so a transient store hiccup
// does not lose the error that was being reported.
type ErrorLogger struct {
	conn  *gorm.DB
	retry *db.RetryPolicy
	now   func() time.Time
}

func NewErrorLogger(conn *gorm.DB, retry *db.RetryPolicy) *ErrorLogger {
	return &ErrorLogger{conn: conn, retry: retry, now: time.Now}
}

// LogError writes the error row and, for critical severity, exactly one
// alert in the same transaction. Unknown severity defaults to medium.
func (l *ErrorLogger) LogError(entry ErrorEntry) (*models.SystemError, error) {
	severity := entry.Severity
	switch severity {
	case types.SeverityCritical, types.SeverityHigh, types.SeverityMedium, types.SeverityLow, types.SeverityInfo:
	default:
		severity = types.SeverityMedium
	}

	var metadata datatypes.JSON
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = raw
	}

	record := &models.SystemError{
		ErrorType:  entry.ErrorType,
		Message:    entry.Message,
		Severity:   string(severity),
		Component:  entry.Component,
		StackTrace: entry.StackTrace,
		TenantID:   entry.TenantID,
		Metadata:   metadata,
		Timestamp:  l.now(),
	}

	err := l.retry.Do(func() error {
		return l.conn.Transaction(func(tx *gorm.DB) error {
			record.ID = 0
			if err := tx.Create(record).Error; err != nil {
				return err
			}
			if severity != types.SeverityCritical {
				return nil
			}
			return tx.Create(&models.Alert{
				SystemErrorID: record.ID,
				AlertType:     entry.ErrorType,
				Message:       entry.Message,
				Severity:      string(severity),
				Status:        types.AlertOpen,
				ExpiresAt:     l.now().Add(alertTTL),
			}).Error
		})
	})
	if err != nil {
		log.Printf("Failed to persist %s error from %s: %v", severity, entry.Component, err)
		return nil, err
	}

	if severity == types.SeverityCritical {
		log.Printf("CRITICAL error in %s: %s", entry.Component, entry.Message)
	}

	return record, nil
}
