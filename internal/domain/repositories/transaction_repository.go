package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/pkg/utils"
)

// TransactionRepository defines deposit storage. Rows are never deleted.
type TransactionRepository interface {
	Create(ctx context.Context, tx *entities.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	// Transition persists tx's status, cancel reason and timestamps only if
	// the stored status still equals from; ErrConflict otherwise.
	Transition(ctx context.Context, tx *entities.Transaction, from entities.TransactionStatus) error
	HasOpenForUser(ctx context.Context, userID uuid.UUID, currency string) (bool, error)
	CountOpenByCard(ctx context.Context, cardID uuid.UUID) (int64, error)
	List(ctx context.Context, filter entities.TransactionFilter, p utils.PaginationParams) ([]*entities.Transaction, int64, error)
	Count(ctx context.Context, filter entities.TransactionFilter, statuses ...entities.TransactionStatus) (int64, error)
	// FindExpired returns pending transactions whose expires_at is before now.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*entities.Transaction, error)
}
