package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Trader struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Nickname    string          `gorm:"type:varchar(100);not null"`
	USDTAddress string          `gorm:"column:usdt_address;type:varchar(64);not null"`
	Phone       string          `gorm:"type:varchar(32)"`
	Balance     decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0;check:chk_traders_balance_non_negative,balance >= 0"`
	IsBlocked   bool            `gorm:"not null;default:false;index"`
	Version     int64           `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
