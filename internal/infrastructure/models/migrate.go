package models

import (
	"fmt"

	"gorm.io/gorm"
)

const openPerCurrencyIndex = "ux_transactions_open_per_user_currency"

// Migrate creates or updates the schema. The partial unique index backing
// the one-open-transaction-per-currency policy exists only while the policy
// is enabled.
func Migrate(db *gorm.DB, oneOpenPerCurrency bool) error {
	if err := db.AutoMigrate(&User{}, &Trader{}, &Card{}, &Transaction{}, &Setting{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmt := "DROP INDEX IF EXISTS " + openPerCurrencyIndex
	if oneOpenPerCurrency {
		stmt = "CREATE UNIQUE INDEX IF NOT EXISTS " + openPerCurrencyIndex +
			" ON transactions (user_id, currency) WHERE status IN ('pending', 'user_confirmed')"
	}
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("open transaction index: %w", err)
	}
	return nil
}
