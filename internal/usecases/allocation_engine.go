package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/keylock"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/metrics"
	"p2p-ramp.backend/pkg/money"
	"p2p-ramp.backend/pkg/utils"
)

// AllocationPolicy tunes how reservations are made.
type AllocationPolicy struct {
	ReservationTTL     time.Duration
	OneOpenPerCurrency bool
	// DefaultCurrency is used when a request names none.
	DefaultCurrency string
}

// errCandidateGone means a candidate card stopped qualifying between the
// lock-free scan and the locked re-read.
var errCandidateGone = errors.New("candidate no longer eligible")

// AllocationEngine matches deposit requests to card capacity.
type AllocationEngine struct {
	settings   *SettingsStore
	cards      *CardRegistry
	guard      *AccountGuard
	cardRepo   repositories.CardRepository
	traderRepo repositories.TraderRepository
	txRepo     repositories.TransactionRepository
	uow        repositories.UnitOfWork
	locks      *keylock.Locker
	events     eventEmitter
	metrics    *metrics.Metrics
	policy     AllocationPolicy
	now        func() time.Time
}

func NewAllocationEngine(
	settings *SettingsStore,
	cards *CardRegistry,
	guard *AccountGuard,
	cardRepo repositories.CardRepository,
	traderRepo repositories.TraderRepository,
	txRepo repositories.TransactionRepository,
	uow repositories.UnitOfWork,
	locks *keylock.Locker,
	publisher repositories.EventPublisher,
	m *metrics.Metrics,
	policy AllocationPolicy,
) *AllocationEngine {
	if policy.ReservationTTL <= 0 {
		policy.ReservationTTL = 30 * time.Minute
	}
	return &AllocationEngine{
		settings:   settings,
		cards:      cards,
		guard:      guard,
		cardRepo:   cardRepo,
		traderRepo: traderRepo,
		txRepo:     txRepo,
		uow:        uow,
		locks:      locks,
		events:     eventEmitter{publisher: publisher, metrics: m},
		metrics:    m,
		policy:     policy,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RequestCard prices cryptoAmount with one settings snapshot, reserves the
// fiat amount on the best-fit card and opens a pending transaction, all in
// one unit of work.
func (e *AllocationEngine) RequestCard(ctx context.Context, actor entities.Actor, input *entities.RequestCardInput) (*entities.Allocation, error) {
	if err := authorize(actor, entities.CapRequestCard); err != nil {
		return nil, err
	}
	crypto, err := parseCrypto(input.Amount.String(), "amount")
	if err != nil {
		return nil, err
	}
	rawCurrency := input.Currency
	if strings.TrimSpace(rawCurrency) == "" {
		rawCurrency = e.policy.DefaultCurrency
	}
	currency, err := normalizeCurrency(rawCurrency)
	if err != nil {
		return nil, err
	}
	if _, err := e.guard.ActiveUser(ctx, actor.UserID); err != nil {
		return nil, err
	}

	alloc, err := e.allocate(ctx, actor, crypto, currency)
	if err != nil {
		return nil, err
	}
	e.events.emit(ctx, alloc.Transaction, alloc.Transaction.CreatedAt)
	return alloc, nil
}

// allocate holds the user+currency lock while it checks the open-transaction
// policy and walks the candidates.
func (e *AllocationEngine) allocate(ctx context.Context, actor entities.Actor, crypto decimal.Decimal, currency string) (*entities.Allocation, error) {
	unlockUser := e.locks.Lock(userCurrencyKey(actor.UserID, currency))
	defer unlockUser()

	if e.policy.OneOpenPerCurrency {
		open, err := e.txRepo.HasOpenForUser(ctx, actor.UserID, currency)
		if err != nil {
			return nil, err
		}
		if open {
			e.metrics.RecordAllocation("rejected")
			return nil, domainerrors.ActiveTransactionExists("finish or wait out your open " + currency + " transaction first")
		}
	}

	snap := e.settings.Get()
	if snap.Version == 0 {
		return nil, domainerrors.InternalError(errors.New("settings not loaded"))
	}
	quote := money.PriceFiat(crypto, snap.ExchangeRate, snap.CommissionRate)

	candidates, err := e.cards.EligibleCards(ctx, currency, quote.FiatAmount)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		alloc, err := e.reserve(ctx, actor, candidate, crypto, currency, quote, snap)
		if errors.Is(err, errCandidateGone) {
			continue
		}
		if err != nil {
			if errors.Is(err, domainerrors.ErrActiveTransactionExists) {
				e.metrics.RecordAllocation("rejected")
				return nil, domainerrors.ActiveTransactionExists("finish or wait out your open " + currency + " transaction first")
			}
			return nil, err
		}

		e.metrics.RecordAllocation("allocated")
		logger.Info(ctx, "Card allocated",
			zap.String("transaction_id", alloc.Transaction.ID.String()),
			zap.String("card_id", candidate.ID.String()),
			zap.String("fiat_amount", money.FormatFiat(quote.FiatAmount)),
			zap.Int64("settings_version", snap.Version),
		)
		return alloc, nil
	}

	e.metrics.RecordAllocation("no_capacity")
	return nil, domainerrors.NoCapacityAvailable("no card can take " + money.FormatFiat(quote.FiatAmount) + " " + currency)
}

// reserve re-checks one candidate under its lock and, if it still fits,
// books the usage and opens the transaction atomically.
func (e *AllocationEngine) reserve(
	ctx context.Context,
	actor entities.Actor,
	candidate *entities.Card,
	crypto decimal.Decimal,
	currency string,
	quote money.Quote,
	snap entities.Settings,
) (*entities.Allocation, error) {
	unlockCard := e.locks.Lock(cardKey(candidate.ID))
	defer unlockCard()

	var alloc *entities.Allocation
	err := e.uow.Do(ctx, func(txCtx context.Context) error {
		lockCtx := e.uow.WithLock(txCtx)

		card, err := e.cardRepo.GetByID(lockCtx, candidate.ID)
		if errors.Is(err, domainerrors.ErrNotFound) {
			return errCandidateGone
		}
		if err != nil {
			return err
		}
		if card.Status != entities.CardStatusActive || card.Currency != currency || !card.Fits(quote.FiatAmount) {
			return errCandidateGone
		}

		trader, err := e.traderRepo.GetByID(lockCtx, card.TraderID)
		if err != nil {
			return err
		}
		if trader.IsBlocked {
			return errCandidateGone
		}

		if err := e.cardRepo.UpdateUsage(txCtx, card.ID, card.CurrentUsage.Add(quote.FiatAmount), card.Version); err != nil {
			if errors.Is(err, domainerrors.ErrConflict) || errors.Is(err, domainerrors.ErrNotFound) {
				return errCandidateGone
			}
			return err
		}

		now := e.now()
		tx := &entities.Transaction{
			ID:               utils.GenerateUUIDv7(),
			UserID:           actor.UserID,
			TraderID:         trader.ID,
			CardID:           card.ID,
			CryptoAmount:     crypto,
			FiatAmount:       quote.FiatAmount,
			CommissionAmount: quote.CommissionAmount,
			ExchangeRate:     snap.ExchangeRate,
			CommissionRate:   snap.CommissionRate,
			SettingsVersion:  snap.Version,
			Currency:         currency,
			Status:           entities.TransactionStatusPending,
			ExpiresAt:        now.Add(e.policy.ReservationTTL),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := e.txRepo.Create(txCtx, tx); err != nil {
			return err
		}

		alloc = &entities.Allocation{Transaction: tx, Card: card.Snapshot()}
		return nil
	})
	return alloc, err
}
