package entities

import (
	"time"

	"github.com/shopspring/decimal"
	"p2p-ramp.backend/pkg/money"
)

// Settings is one immutable, versioned configuration snapshot.
type Settings struct {
	Version              int64           `json:"version"`
	CommissionRate       decimal.Decimal `json:"commission_rate"`
	ExchangeRate         decimal.Decimal `json:"exchange_rate"`
	DepositWalletAddress string          `json:"deposit_wallet_address"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// PublicSettings is the subset exposed without authentication.
type PublicSettings struct {
	CommissionRate       decimal.Decimal `json:"commission_rate"`
	ExchangeRate         decimal.Decimal `json:"exchange_rate"`
	DepositWalletAddress string          `json:"deposit_wallet_address"`
}

func (s *Settings) Public() PublicSettings {
	return PublicSettings{
		CommissionRate:       s.CommissionRate,
		ExchangeRate:         s.ExchangeRate,
		DepositWalletAddress: s.DepositWalletAddress,
	}
}

// UpdateSettingsInput replaces the snapshot; omitted fields keep their value.
type UpdateSettingsInput struct {
	CommissionRate       *money.Amount `json:"commission_rate"`
	ExchangeRate         *money.Amount `json:"exchange_rate"`
	DepositWalletAddress *string       `json:"deposit_wallet_address"`
}
