package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"p2p-ramp.backend/pkg/money"
)

// TransactionStatus represents the status of a deposit
type TransactionStatus string

const (
	TransactionStatusPending       TransactionStatus = "pending"
	TransactionStatusUserConfirmed TransactionStatus = "user_confirmed"
	TransactionStatusCompleted     TransactionStatus = "completed"
	TransactionStatusCancelled     TransactionStatus = "cancelled"
)

// OpenTransactionStatuses hold a card reservation.
var OpenTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusUserConfirmed,
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusUserConfirmed,
		TransactionStatusCompleted, TransactionStatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether the status still reserves card capacity.
func (s TransactionStatus) IsOpen() bool {
	return s == TransactionStatusPending || s == TransactionStatusUserConfirmed
}

// CanTransitionTo encodes the lifecycle graph.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusUserConfirmed || next == TransactionStatusCancelled
	case TransactionStatusUserConfirmed:
		return next == TransactionStatusCompleted || next == TransactionStatusCancelled
	}
	return false
}

// CancelReason records who or what cancelled a transaction.
type CancelReason string

const (
	CancelReasonAdmin   CancelReason = "admin"
	CancelReasonExpired CancelReason = "expired"
)

// Transaction is one deposit from request to settlement. Amounts and the
// rate snapshot are fixed at creation.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"user_id"`
	TraderID         uuid.UUID         `json:"trader_id"`
	CardID           uuid.UUID         `json:"card_id"`
	CryptoAmount     decimal.Decimal   `json:"crypto_amount"`
	FiatAmount       decimal.Decimal   `json:"fiat_amount"`
	CommissionAmount decimal.Decimal   `json:"commission_amount"`
	ExchangeRate     decimal.Decimal   `json:"exchange_rate"`
	CommissionRate   decimal.Decimal   `json:"commission_rate"`
	SettingsVersion  int64             `json:"settings_version"`
	Currency         string            `json:"currency"`
	Status           TransactionStatus `json:"status"`
	CancelReason     CancelReason      `json:"cancel_reason,omitempty"`
	ExpiresAt        time.Time         `json:"expires_at"`
	UserConfirmedAt  null.Time         `json:"user_confirmed_at"`
	CompletedAt      null.Time         `json:"completed_at"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type plainTransaction Transaction

type transactionJSON struct {
	plainTransaction
	FiatAmount       string `json:"fiat_amount"`
	CommissionAmount string `json:"commission_amount"`
}

func newTransactionJSON(t Transaction) transactionJSON {
	return transactionJSON{
		plainTransaction: plainTransaction(t),
		FiatAmount:       money.FormatFiat(t.FiatAmount),
		CommissionAmount: money.FormatFiat(t.CommissionAmount),
	}
}

// MarshalJSON renders the fiat amounts with two decimals.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(newTransactionJSON(t))
}

// RequestCardInput is the user's deposit request.
type RequestCardInput struct {
	Amount   money.Amount `json:"amount" binding:"required"`
	Currency string       `json:"currency"`
}

// Allocation is the result of a successful card request.
type Allocation struct {
	Transaction *Transaction `json:"transaction"`
	Card        CardSnapshot `json:"card"`
}

// TransactionWithCard is a trader-facing row with the card it reserved.
type TransactionWithCard struct {
	Transaction
	Card *CardSnapshot `json:"card,omitempty"`
}

func (t TransactionWithCard) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		transactionJSON
		Card *CardSnapshot `json:"card,omitempty"`
	}{newTransactionJSON(t.Transaction), t.Card})
}

// TransactionFilter narrows list queries; zero values match everything.
type TransactionFilter struct {
	UserID   *uuid.UUID
	TraderID *uuid.UUID
	Status   TransactionStatus
}
