package db

import (
	"github.com/connexx-dev/connexx/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase(dsn string) error {
	var err error

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		return err
	}

	return nil
}

func MigrateDatabase() error {
	return Migrate(DB)
}

// Migrate runs the schema migrations on the given connection. Exposed
// separately so tests can migrate an isolated database.
func Migrate(conn *gorm.DB) error {
	modelList := []interface{}{
		&models.User{},
		&models.Tenant{},
		&models.Event{},
		&models.SystemError{},
		&models.Alert{},
		&models.Incident{},
		&models.DMAICProject{},
		&models.DMAICPhaseLog{},
		&models.DMAICMeasurement{},
		&models.FunnelEvent{},
		&models.Campaign{},
		&models.IPRule{},
		&models.SecurityIncident{},
	}

	migrator := conn.Migrator()

	for _, model := range modelList {
		if !migrator.HasTable(model) {
			if err := conn.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
