package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p2p-ramp.backend/pkg/money"
)

// CardStatus represents whether a card takes new allocations
type CardStatus string

const (
	CardStatusActive CardStatus = "active"
	CardStatusPaused CardStatus = "paused"
)

func (s CardStatus) Valid() bool {
	return s == CardStatusActive || s == CardStatusPaused
}

// Card is a trader-owned bank card with a fiat capacity limit.
// 0 <= CurrentUsage <= Limit always holds.
type Card struct {
	ID           uuid.UUID       `json:"id"`
	TraderID     uuid.UUID       `json:"trader_id"`
	CardNumber   string          `json:"card_number"`
	BankName     string          `json:"bank_name"`
	HolderName   string          `json:"holder_name"`
	Limit        decimal.Decimal `json:"limit"`
	CurrentUsage decimal.Decimal `json:"current_usage"`
	Status       CardStatus      `json:"status"`
	Currency     string          `json:"currency"`
	Version      int64           `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// MarshalJSON renders the fiat limit and usage with two decimals.
func (c Card) MarshalJSON() ([]byte, error) {
	type plain Card
	return json.Marshal(struct {
		plain
		Limit        string `json:"limit"`
		CurrentUsage string `json:"current_usage"`
	}{plain(c), money.FormatFiat(c.Limit), money.FormatFiat(c.CurrentUsage)})
}

// Headroom is the unreserved part of the limit.
func (c *Card) Headroom() decimal.Decimal {
	return c.Limit.Sub(c.CurrentUsage)
}

// Fits reports whether amount can be reserved without exceeding the limit.
func (c *Card) Fits(amount decimal.Decimal) bool {
	return c.Headroom().GreaterThanOrEqual(amount)
}

// Snapshot returns the fields shown to the paying user.
func (c *Card) Snapshot() CardSnapshot {
	return CardSnapshot{
		CardID:     c.ID,
		CardNumber: c.CardNumber,
		BankName:   c.BankName,
		HolderName: c.HolderName,
		Currency:   c.Currency,
	}
}

// CardSnapshot is the displayable part of a card frozen at allocation time.
type CardSnapshot struct {
	CardID     uuid.UUID `json:"card_id"`
	CardNumber string    `json:"card_number"`
	BankName   string    `json:"bank_name"`
	HolderName string    `json:"holder_name"`
	Currency   string    `json:"currency"`
}

// AddCardInput is the trader request to register a card.
type AddCardInput struct {
	CardNumber string       `json:"card_number" binding:"required"`
	BankName   string       `json:"bank_name" binding:"required"`
	HolderName string       `json:"holder_name" binding:"required"`
	Limit      money.Amount `json:"limit" binding:"required"`
	Currency   string       `json:"currency" binding:"required"`
}

// UpdateCardInput changes status and/or limit; nil fields are left alone.
type UpdateCardInput struct {
	Status *CardStatus   `json:"status"`
	Limit  *money.Amount `json:"limit"`
}
