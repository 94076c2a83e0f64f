package repositories

import (
	"context"

	"github.com/google/uuid"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/pkg/utils"
)

// UserRepository defines user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role entities.UserRole) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	List(ctx context.Context, p utils.PaginationParams) ([]*entities.User, int64, error)
	Count(ctx context.Context) (int64, error)
}
