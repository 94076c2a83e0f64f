package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Card struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TraderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CardNumber   string          `gorm:"type:varchar(19);not null"`
	BankName     string          `gorm:"type:varchar(100);not null"`
	HolderName   string          `gorm:"type:varchar(255);not null"`
	Limit        decimal.Decimal `gorm:"column:card_limit;type:decimal(20,2);not null"`
	CurrentUsage decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0;check:chk_cards_usage_within_limit,current_usage >= 0 AND current_usage <= card_limit"`
	Status       string          `gorm:"type:varchar(20);not null;index:idx_cards_status_currency"`
	Currency     string          `gorm:"type:varchar(3);not null;index:idx_cards_status_currency"`
	Version      int64           `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}
