package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/pkg/utils"
)

// TraderRepository defines trader profile and balance operations
type TraderRepository interface {
	Create(ctx context.Context, trader *entities.Trader) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Trader, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Trader, error)
	// UpdateBalance writes balance when the stored version still equals
	// expectedVersion and bumps it; ErrConflict otherwise.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	List(ctx context.Context, p utils.PaginationParams) ([]*entities.TraderWithEmail, int64, error)
	Count(ctx context.Context) (int64, error)
}
