package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/keylock"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/metrics"
)

// TransactionStateMachine drives deposits from pending to a terminal state.
type TransactionStateMachine struct {
	txRepo   repositories.TransactionRepository
	cardRepo repositories.CardRepository
	guard    *AccountGuard
	ledger   *LedgerService
	uow      repositories.UnitOfWork
	locks    *keylock.Locker
	events   eventEmitter
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewTransactionStateMachine(
	txRepo repositories.TransactionRepository,
	cardRepo repositories.CardRepository,
	guard *AccountGuard,
	ledger *LedgerService,
	uow repositories.UnitOfWork,
	locks *keylock.Locker,
	publisher repositories.EventPublisher,
	m *metrics.Metrics,
) *TransactionStateMachine {
	return &TransactionStateMachine{
		txRepo:   txRepo,
		cardRepo: cardRepo,
		guard:    guard,
		ledger:   ledger,
		uow:      uow,
		locks:    locks,
		events:   eventEmitter{publisher: publisher, metrics: m},
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ConfirmByUser records that the user sent the fiat. Only the owning user,
// only from pending and only before the reservation expires.
func (sm *TransactionStateMachine) ConfirmByUser(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Transaction, error) {
	if err := authorize(actor, entities.CapConfirmAsUser); err != nil {
		return nil, err
	}
	if _, err := sm.guard.ActiveUser(ctx, actor.UserID); err != nil {
		return nil, err
	}

	tx, err := sm.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.UserID != actor.UserID {
		return nil, domainerrors.InvalidTransition("transaction belongs to another user")
	}
	if tx.Status != entities.TransactionStatusPending {
		return nil, invalidTransition(tx.Status, entities.TransactionStatusUserConfirmed)
	}
	now := sm.now()
	if !now.Before(tx.ExpiresAt) {
		return nil, domainerrors.InvalidTransition("reservation expired")
	}

	tx.Status = entities.TransactionStatusUserConfirmed
	tx.UserConfirmedAt = null.TimeFrom(now)
	tx.UpdatedAt = now
	if err := sm.txRepo.Transition(ctx, tx, entities.TransactionStatusPending); err != nil {
		return nil, transitionLost(err)
	}

	sm.events.emit(ctx, tx, now)
	logger.Info(ctx, "Payment confirmed by user", zap.String("transaction_id", tx.ID.String()))
	return tx, nil
}

// ConfirmByTrader settles the deposit: the status flip to completed and the
// balance debit commit together or not at all.
func (sm *TransactionStateMachine) ConfirmByTrader(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Transaction, error) {
	if err := authorize(actor, entities.CapConfirmAsTrader); err != nil {
		return nil, err
	}
	trader, err := sm.guard.ActiveTrader(ctx, actor)
	if err != nil {
		return nil, err
	}

	settled, err := sm.settle(ctx, trader, id)
	if err != nil {
		return nil, err
	}

	sm.metrics.RecordLedger("debit")
	sm.events.emit(ctx, settled, settled.UpdatedAt)
	logger.Info(ctx, "Transaction settled",
		zap.String("transaction_id", settled.ID.String()),
		zap.String("trader_id", trader.ID.String()),
		zap.String("crypto_amount", settled.CryptoAmount.String()),
	)
	return settled, nil
}

// settle runs the completed flip and the debit under the trader lock.
func (sm *TransactionStateMachine) settle(ctx context.Context, trader *entities.Trader, id uuid.UUID) (*entities.Transaction, error) {
	unlock := sm.locks.Lock(traderKey(trader.ID))
	defer unlock()

	var settled *entities.Transaction
	err := sm.uow.Do(ctx, func(txCtx context.Context) error {
		tx, err := sm.load(sm.uow.WithLock(txCtx), id)
		if err != nil {
			return err
		}
		if tx.TraderID != trader.ID {
			return domainerrors.InvalidTransition("transaction belongs to another trader")
		}
		if tx.Status != entities.TransactionStatusUserConfirmed {
			return invalidTransition(tx.Status, entities.TransactionStatusCompleted)
		}

		now := sm.now()
		tx.Status = entities.TransactionStatusCompleted
		tx.CompletedAt = null.TimeFrom(now)
		tx.UpdatedAt = now
		if err := sm.txRepo.Transition(txCtx, tx, entities.TransactionStatusUserConfirmed); err != nil {
			return transitionLost(err)
		}
		if _, err := sm.ledger.DebitTrader(txCtx, trader.ID, tx.CryptoAmount); err != nil {
			return err
		}
		settled = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// Cancel moves an open transaction to cancelled and gives back exactly the
// fiat amount it reserved. Admins cancel with reason admin, the system
// actor with reason expired.
func (sm *TransactionStateMachine) Cancel(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Transaction, error) {
	if err := authorize(actor, entities.CapCancelTransaction); err != nil {
		return nil, err
	}
	reason := entities.CancelReasonAdmin
	if actor.IsSystem() {
		reason = entities.CancelReasonExpired
	}

	tx, err := sm.load(ctx, id)
	if err != nil {
		return nil, err
	}

	cancelled, err := sm.release(ctx, tx.CardID, id, reason)
	if err != nil {
		return nil, err
	}

	sm.events.emit(ctx, cancelled, cancelled.UpdatedAt)
	logger.Info(ctx, "Transaction cancelled",
		zap.String("transaction_id", cancelled.ID.String()),
		zap.String("reason", string(reason)),
		zap.String("released", cancelled.FiatAmount.String()),
	)
	return cancelled, nil
}

// release cancels the transaction and returns its reservation to the card
// under the card lock.
func (sm *TransactionStateMachine) release(ctx context.Context, cardID, id uuid.UUID, reason entities.CancelReason) (*entities.Transaction, error) {
	unlock := sm.locks.Lock(cardKey(cardID))
	defer unlock()

	var cancelled *entities.Transaction
	err := sm.uow.Do(ctx, func(txCtx context.Context) error {
		lockCtx := sm.uow.WithLock(txCtx)
		current, err := sm.load(lockCtx, id)
		if err != nil {
			return err
		}
		if !current.Status.IsOpen() {
			return invalidTransition(current.Status, entities.TransactionStatusCancelled)
		}
		if reason == entities.CancelReasonExpired && current.Status != entities.TransactionStatusPending {
			return invalidTransition(current.Status, entities.TransactionStatusCancelled)
		}

		card, err := sm.cardRepo.GetByID(lockCtx, current.CardID)
		if err != nil {
			return err
		}
		released := card.CurrentUsage.Sub(current.FiatAmount)
		if released.IsNegative() {
			return domainerrors.InternalError(errors.New("card usage below reserved amount for transaction " + current.ID.String()))
		}
		if err := sm.cardRepo.UpdateUsage(txCtx, card.ID, released, card.Version); err != nil {
			return mapConflict(err, "card changed concurrently, retry")
		}

		from := current.Status
		now := sm.now()
		current.Status = entities.TransactionStatusCancelled
		current.CancelReason = reason
		current.UpdatedAt = now
		if err := sm.txRepo.Transition(txCtx, current, from); err != nil {
			return transitionLost(err)
		}
		cancelled = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ExpireStale cancels up to limit pending transactions whose reservation
// ran out before now. Each outcome is logged; the count of expired
// transactions is returned.
func (sm *TransactionStateMachine) ExpireStale(ctx context.Context, now time.Time, limit int) (int, error) {
	stale, err := sm.txRepo.FindExpired(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	system := entities.SystemActor()
	for _, tx := range stale {
		if _, err := sm.Cancel(ctx, system, tx.ID); err != nil {
			logger.Warn(ctx, "Failed to expire transaction",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(err),
			)
			continue
		}
		expired++
		sm.metrics.RecordExpired()
	}
	if expired > 0 {
		logger.Info(ctx, "Expired stale transactions", zap.Int("count", expired))
	}
	return expired, nil
}

func (sm *TransactionStateMachine) load(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	tx, err := sm.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("transaction not found")
		}
		return nil, err
	}
	return tx, nil
}

func invalidTransition(from, to entities.TransactionStatus) error {
	return domainerrors.InvalidTransition("cannot move transaction from " + string(from) + " to " + string(to))
}

// transitionLost reports a status compare-and-set that another writer won.
func transitionLost(err error) error {
	if errors.Is(err, domainerrors.ErrConflict) {
		return domainerrors.InvalidTransition("transaction status changed concurrently")
	}
	return err
}
