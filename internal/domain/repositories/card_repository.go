package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p2p-ramp.backend/internal/domain/entities"
)

// CardRepository defines card storage and capacity bookkeeping
type CardRepository interface {
	Create(ctx context.Context, card *entities.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Card, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Card, error)
	ListByTrader(ctx context.Context, traderID uuid.UUID) ([]*entities.Card, error)
	CountByTrader(ctx context.Context, traderID uuid.UUID) (int64, error)
	// ListActiveByCurrency returns active cards in currency whose trader is
	// not blocked, oldest first.
	ListActiveByCurrency(ctx context.Context, currency string) ([]*entities.Card, error)
	// UpdateUsage is a compare-and-set on version.
	UpdateUsage(ctx context.Context, id uuid.UUID, usage decimal.Decimal, expectedVersion int64) error
	// UpdateSettings writes status and limit as a compare-and-set on version.
	UpdateSettings(ctx context.Context, id uuid.UUID, status entities.CardStatus, limit decimal.Decimal, expectedVersion int64) error
	// Delete soft-deletes the card; it stops appearing in every read except
	// ListByIDs.
	Delete(ctx context.Context, id uuid.UUID) error
}
