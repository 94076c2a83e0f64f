package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/logger"
)

// AccountGuard owns the blocked flags and is consulted before every
// mutating call.
type AccountGuard struct {
	userRepo   repositories.UserRepository
	traderRepo repositories.TraderRepository
}

func NewAccountGuard(userRepo repositories.UserRepository, traderRepo repositories.TraderRepository) *AccountGuard {
	return &AccountGuard{userRepo: userRepo, traderRepo: traderRepo}
}

// ActiveUser loads the user and fails Blocked when it is blocked.
func (g *AccountGuard) ActiveUser(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}
	if user.IsBlocked {
		return nil, domainerrors.Blocked("user is blocked")
	}
	return user, nil
}

// ActiveTrader resolves the caller's trader profile; both the user and the
// trader must be unblocked.
func (g *AccountGuard) ActiveTrader(ctx context.Context, actor entities.Actor) (*entities.Trader, error) {
	if _, err := g.ActiveUser(ctx, actor.UserID); err != nil {
		return nil, err
	}
	trader, err := g.TraderOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	if trader.IsBlocked {
		return nil, domainerrors.Blocked("trader is blocked")
	}
	return trader, nil
}

// TraderOf returns the caller's trader profile regardless of block state.
func (g *AccountGuard) TraderOf(ctx context.Context, actor entities.Actor) (*entities.Trader, error) {
	trader, err := g.traderRepo.GetByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("trader profile not found, register as a trader first")
		}
		return nil, err
	}
	return trader, nil
}

// BlockUser sets the user's flag, or toggles it when blocked is nil.
func (g *AccountGuard) BlockUser(ctx context.Context, actor entities.Actor, userID uuid.UUID, blocked *bool) (*entities.User, error) {
	if err := authorize(actor, entities.CapManageAccounts); err != nil {
		return nil, err
	}
	if userID == actor.UserID {
		return nil, domainerrors.Validation("admins cannot block their own account")
	}

	user, err := g.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, err
	}

	next := !user.IsBlocked
	if blocked != nil {
		next = *blocked
	}
	if err := g.userRepo.SetBlocked(ctx, userID, next); err != nil {
		return nil, err
	}
	user.IsBlocked = next

	logger.Info(ctx, "User block flag changed", zap.String("target_user_id", userID.String()), zap.Bool("blocked", next))
	return user, nil
}

// BlockTrader sets the trader's flag, or toggles it when blocked is nil.
// Open transactions are left alone; the trader's cards drop out of
// allocation immediately because eligibility is read at request time.
func (g *AccountGuard) BlockTrader(ctx context.Context, actor entities.Actor, traderID uuid.UUID, blocked *bool) (*entities.Trader, error) {
	if err := authorize(actor, entities.CapManageAccounts); err != nil {
		return nil, err
	}

	trader, err := g.traderRepo.GetByID(ctx, traderID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("trader not found")
		}
		return nil, err
	}

	next := !trader.IsBlocked
	if blocked != nil {
		next = *blocked
	}
	if err := g.traderRepo.SetBlocked(ctx, traderID, next); err != nil {
		return nil, err
	}
	trader.IsBlocked = next

	logger.Info(ctx, "Trader block flag changed", zap.String("trader_id", traderID.String()), zap.Bool("blocked", next))
	return trader, nil
}
