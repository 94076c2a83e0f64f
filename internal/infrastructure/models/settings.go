package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Setting is one row of the settings history.
type Setting struct {
	Version              int64           `gorm:"primaryKey;autoIncrement:false"`
	CommissionRate       decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	ExchangeRate         decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	DepositWalletAddress string          `gorm:"type:varchar(255);not null"`
	UpdatedAt            time.Time
}

func (Setting) TableName() string {
	return "settings"
}
