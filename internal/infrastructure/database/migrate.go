package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dashride/referral-service/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Rider{},
		&model.Attribution{},
		&model.VisitEvent{},
		&model.ChangeRequest{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

func createExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// createCustomIndexes creates indexes GORM doesn't handle automatically. The
// partial unique indexes are what make the conditional inserts
// first-writer-wins races: at most one active, non-deleted attribution per
// customer, and at most one non-denied change request per customer.
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_attribution_one_active_per_customer
			ON customer_rider_attribution (customer_id)
			WHERE status = 'active' AND deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_visit_log_rider_code_created
			ON referral_visit_log (rider_code, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_change_request_customer_status
			ON rider_change_request (customer_id, status)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_change_request_one_live_per_customer
			ON rider_change_request (customer_id)
			WHERE status <> 'denied'`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
