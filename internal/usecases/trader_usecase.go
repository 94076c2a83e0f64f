package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/utils"
)

// TraderUsecase handles trader onboarding and profile reads.
type TraderUsecase struct {
	userRepo   repositories.UserRepository
	traderRepo repositories.TraderRepository
	guard      *AccountGuard
	uow        repositories.UnitOfWork
	now        func() time.Time
}

func NewTraderUsecase(
	userRepo repositories.UserRepository,
	traderRepo repositories.TraderRepository,
	guard *AccountGuard,
	uow repositories.UnitOfWork,
) *TraderUsecase {
	return &TraderUsecase{
		userRepo:   userRepo,
		traderRepo: traderRepo,
		guard:      guard,
		uow:        uow,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates the caller's trader profile with a zero balance and
// promotes a plain user to the trader role. Admins keep their role.
func (u *TraderUsecase) Register(ctx context.Context, actor entities.Actor, input *entities.RegisterTraderInput) (*entities.Trader, error) {
	if err := authorize(actor, entities.CapRegisterTrader); err != nil {
		return nil, err
	}
	user, err := u.guard.ActiveUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	name, err := requireText(input.Name, "name")
	if err != nil {
		return nil, err
	}
	nickname, err := requireText(input.Nickname, "nickname")
	if err != nil {
		return nil, err
	}
	if err := ValidateWalletAddress(input.USDTAddress); err != nil {
		return nil, err
	}

	now := u.now()
	trader := &entities.Trader{
		ID:          utils.GenerateUUIDv7(),
		UserID:      user.ID,
		Name:        name,
		Nickname:    nickname,
		USDTAddress: input.USDTAddress,
		Phone:       input.Phone,
		Balance:     decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.traderRepo.Create(txCtx, trader); err != nil {
			if errors.Is(err, domainerrors.ErrAlreadyExists) {
				return domainerrors.AlreadyExists("trader profile already exists")
			}
			return err
		}
		if user.Role == entities.UserRoleUser {
			return u.userRepo.UpdateRole(txCtx, user.ID, entities.UserRoleTrader)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Trader registered", zap.String("trader_id", trader.ID.String()))
	return trader, nil
}

// Profile returns the caller's trader profile, blocked or not.
func (u *TraderUsecase) Profile(ctx context.Context, actor entities.Actor) (*entities.Trader, error) {
	if err := authorize(actor, entities.CapViewTraderData); err != nil {
		return nil, err
	}
	return u.guard.TraderOf(ctx, actor)
}

// GetTrader loads one trader by id. Admin only.
func (u *TraderUsecase) GetTrader(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Trader, error) {
	if err := authorize(actor, entities.CapViewAll); err != nil {
		return nil, err
	}
	trader, err := u.traderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("trader not found")
		}
		return nil, err
	}
	return trader, nil
}

// ListTraders pages through traders with their account email. Admin only.
func (u *TraderUsecase) ListTraders(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.TraderWithEmail], error) {
	if err := authorize(actor, entities.CapViewAll); err != nil {
		return utils.Page[*entities.TraderWithEmail]{}, err
	}
	traders, total, err := u.traderRepo.List(ctx, p)
	if err != nil {
		return utils.Page[*entities.TraderWithEmail]{}, err
	}
	return utils.NewPage(traders, total, p), nil
}
