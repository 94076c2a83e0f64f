package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/keylock"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/metrics"
)

// LedgerService is the only writer of trader balances.
type LedgerService struct {
	traderRepo repositories.TraderRepository
	uow        repositories.UnitOfWork
	locks      *keylock.Locker
	metrics    *metrics.Metrics
}

func NewLedgerService(
	traderRepo repositories.TraderRepository,
	uow repositories.UnitOfWork,
	locks *keylock.Locker,
	m *metrics.Metrics,
) *LedgerService {
	return &LedgerService{traderRepo: traderRepo, uow: uow, locks: locks, metrics: m}
}

// CreditTrader tops up a trader's balance. Admin only.
func (l *LedgerService) CreditTrader(ctx context.Context, actor entities.Actor, traderID uuid.UUID, rawAmount string) (*entities.Trader, error) {
	if err := authorize(actor, entities.CapManageLedger); err != nil {
		return nil, err
	}
	amount, err := parseCrypto(rawAmount, "amount")
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(traderKey(traderID))
	defer unlock()

	var updated *entities.Trader
	err = l.uow.Do(ctx, func(txCtx context.Context) error {
		trader, err := l.loadTrader(l.uow.WithLock(txCtx), traderID)
		if err != nil {
			return err
		}
		if trader.IsBlocked {
			return domainerrors.Blocked("trader is blocked")
		}

		next := trader.Balance.Add(amount)
		if err := l.traderRepo.UpdateBalance(txCtx, trader.ID, next, trader.Version); err != nil {
			return mapConflict(err, "trader balance changed concurrently, retry")
		}
		trader.Balance = next
		trader.Version++
		updated = trader
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.RecordLedger("credit")
	logger.Info(ctx, "Trader balance credited",
		zap.String("trader_id", traderID.String()),
		zap.String("amount", amount.String()),
		zap.String("balance", updated.Balance.String()),
	)
	return updated, nil
}

// DebitTrader removes amount from the balance inside the caller's unit of
// work. The caller holds the trader lock. Fails InsufficientBalance rather
// than going below zero.
func (l *LedgerService) DebitTrader(ctx context.Context, traderID uuid.UUID, amount decimal.Decimal) (*entities.Trader, error) {
	if !amount.IsPositive() {
		return nil, domainerrors.Validation("debit amount must be greater than zero")
	}

	trader, err := l.loadTrader(l.uow.WithLock(ctx), traderID)
	if err != nil {
		return nil, err
	}
	if trader.IsBlocked {
		return nil, domainerrors.Blocked("trader is blocked")
	}

	next := trader.Balance.Sub(amount)
	if next.IsNegative() {
		return nil, domainerrors.InsufficientBalance(
			"trader balance " + trader.Balance.String() + " does not cover " + amount.String())
	}
	if err := l.traderRepo.UpdateBalance(ctx, trader.ID, next, trader.Version); err != nil {
		return nil, mapConflict(err, "trader balance changed concurrently, retry")
	}
	trader.Balance = next
	trader.Version++
	return trader, nil
}

// Balance reads the stored balance.
func (l *LedgerService) Balance(ctx context.Context, traderID uuid.UUID) (decimal.Decimal, error) {
	trader, err := l.loadTrader(ctx, traderID)
	if err != nil {
		return decimal.Zero, err
	}
	return trader.Balance, nil
}

func (l *LedgerService) loadTrader(ctx context.Context, id uuid.UUID) (*entities.Trader, error) {
	trader, err := l.traderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("trader not found")
		}
		return nil, err
	}
	return trader, nil
}

// mapConflict turns a lost compare-and-set into a retryable Conflict.
func mapConflict(err error, msg string) error {
	if errors.Is(err, domainerrors.ErrConflict) {
		return domainerrors.Conflict(msg)
	}
	return err
}
