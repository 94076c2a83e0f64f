package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trader is the profile backing a user that provides cards and settles
// deposits out of its crypto balance.
type Trader struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	Nickname    string          `json:"nickname"`
	USDTAddress string          `json:"usdt_address"`
	Phone       string          `json:"phone"`
	Balance     decimal.Decimal `json:"balance"`
	IsBlocked   bool            `json:"is_blocked"`
	Version     int64           `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RegisterTraderInput is the trader onboarding request.
type RegisterTraderInput struct {
	Name        string `json:"name" binding:"required"`
	Nickname    string `json:"nickname" binding:"required"`
	USDTAddress string `json:"usdt_address" binding:"required"`
	Phone       string `json:"phone"`
}

// TraderWithEmail is the admin listing row.
type TraderWithEmail struct {
	Trader
	Email string `json:"email"`
}
