package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

type Transaction struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	TraderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	CardID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	CryptoAmount     decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	FiatAmount       decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	ExchangeRate     decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(36,18);not null"`
	SettingsVersion  int64           `gorm:"not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	CancelReason     string          `gorm:"type:varchar(20)"`
	ExpiresAt        time.Time       `gorm:"not null;index"`
	UserConfirmedAt  null.Time
	CompletedAt      null.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
