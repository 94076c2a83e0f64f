package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		is_blocked BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createTraderTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE traders (
		id TEXT PRIMARY KEY,
		user_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		nickname TEXT NOT NULL,
		usdt_address TEXT NOT NULL,
		phone TEXT,
		balance TEXT NOT NULL,
		is_blocked BOOLEAN NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	);`)
}

func createCardTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE cards (
		id TEXT PRIMARY KEY,
		trader_id TEXT NOT NULL,
		card_number TEXT NOT NULL,
		bank_name TEXT NOT NULL,
		holder_name TEXT NOT NULL,
		card_limit TEXT NOT NULL,
		current_usage TEXT NOT NULL,
		status TEXT NOT NULL,
		currency TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createTransactionTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		trader_id TEXT NOT NULL,
		card_id TEXT NOT NULL,
		crypto_amount TEXT NOT NULL,
		fiat_amount TEXT NOT NULL,
		commission_amount TEXT NOT NULL,
		exchange_rate TEXT NOT NULL,
		commission_rate TEXT NOT NULL,
		settings_version INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		cancel_reason TEXT,
		expires_at DATETIME NOT NULL,
		user_confirmed_at DATETIME,
		completed_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX ux_transactions_open_per_user_currency
		ON transactions (user_id, currency) WHERE status IN ('pending', 'user_confirmed');`)
}

func createSettingsTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE settings (
		version INTEGER PRIMARY KEY,
		commission_rate TEXT NOT NULL,
		exchange_rate TEXT NOT NULL,
		deposit_wallet_address TEXT NOT NULL,
		updated_at DATETIME
	);`)
}

func createAllTables(t *testing.T, db *gorm.DB) {
	createUserTable(t, db)
	createTraderTable(t, db)
	createCardTable(t, db)
	createTransactionTable(t, db)
	createSettingsTable(t, db)
}
