package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/pkg/money"
)

// TransactionEvent is emitted after a lifecycle transition commits.
type TransactionEvent struct {
	TransactionID uuid.UUID                  `json:"transaction_id"`
	UserID        uuid.UUID                  `json:"user_id"`
	TraderID      uuid.UUID                  `json:"trader_id"`
	CardID        uuid.UUID                  `json:"card_id"`
	Status        entities.TransactionStatus `json:"status"`
	CancelReason  entities.CancelReason      `json:"cancel_reason,omitempty"`
	CryptoAmount  decimal.Decimal            `json:"crypto_amount"`
	FiatAmount    decimal.Decimal            `json:"fiat_amount"`
	Currency      string                     `json:"currency"`
	OccurredAt    time.Time                  `json:"occurred_at"`
}

// NewTransactionEvent snapshots tx at time at.
func NewTransactionEvent(tx *entities.Transaction, at time.Time) TransactionEvent {
	return TransactionEvent{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		TraderID:      tx.TraderID,
		CardID:        tx.CardID,
		Status:        tx.Status,
		CancelReason:  tx.CancelReason,
		CryptoAmount:  tx.CryptoAmount,
		FiatAmount:    tx.FiatAmount,
		Currency:      tx.Currency,
		OccurredAt:    at,
	}
}

// MarshalJSON renders the fiat amount with two decimals.
func (e TransactionEvent) MarshalJSON() ([]byte, error) {
	type plain TransactionEvent
	return json.Marshal(struct {
		plain
		FiatAmount string `json:"fiat_amount"`
	}{plain(e), money.FormatFiat(e.FiatAmount)})
}

// EventPublisher ships lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event TransactionEvent) error
}
