package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds critical database constraints for concurrency control
func MigrateConstraints(db *gorm.DB) error {
	// Duplicate gateway references must abort settlement
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_transaction_txn_id
		ON transactions (txn_id);
	`).Error
	if err != nil {
		return err
	}

	// A (user, promocode, ticket) combination applies at most once
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_promocode_usage
		ON promocode_usages (user_id, promocode_id, ticket_id);
	`).Error
	if err != nil {
		return err
	}

	// Settlement idempotency checks and availability sums hit these constantly
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_common_order
		ON bookings (common_order);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_ticket_start_date
		ON bookings (ticket_id, event_start_date);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
