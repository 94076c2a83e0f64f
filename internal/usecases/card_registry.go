package usecases

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/keylock"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/utils"
)

// CardRegistry owns trader cards and answers capacity queries.
type CardRegistry struct {
	cardRepo repositories.CardRepository
	txRepo   repositories.TransactionRepository
	guard    *AccountGuard
	uow      repositories.UnitOfWork
	locks    *keylock.Locker
	now      func() time.Time
}

func NewCardRegistry(
	cardRepo repositories.CardRepository,
	txRepo repositories.TransactionRepository,
	guard *AccountGuard,
	uow repositories.UnitOfWork,
	locks *keylock.Locker,
) *CardRegistry {
	return &CardRegistry{
		cardRepo: cardRepo,
		txRepo:   txRepo,
		guard:    guard,
		uow:      uow,
		locks:    locks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddCard registers a new active card for the calling trader.
func (r *CardRegistry) AddCard(ctx context.Context, actor entities.Actor, input *entities.AddCardInput) (*entities.Card, error) {
	if err := authorize(actor, entities.CapManageCards); err != nil {
		return nil, err
	}
	trader, err := r.guard.ActiveTrader(ctx, actor)
	if err != nil {
		return nil, err
	}

	number, err := normalizeCardNumber(input.CardNumber)
	if err != nil {
		return nil, err
	}
	bank, err := requireText(input.BankName, "bank_name")
	if err != nil {
		return nil, err
	}
	holder, err := requireText(input.HolderName, "holder_name")
	if err != nil {
		return nil, err
	}
	limit, err := parseFiat(input.Limit.String(), "limit")
	if err != nil {
		return nil, err
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	now := r.now()
	card := &entities.Card{
		ID:           utils.GenerateUUIDv7(),
		TraderID:     trader.ID,
		CardNumber:   number,
		BankName:     bank,
		HolderName:   holder,
		Limit:        limit,
		CurrentUsage: decimal.Zero,
		Status:       entities.CardStatusActive,
		Currency:     currency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Card added",
		zap.String("card_id", card.ID.String()),
		zap.String("trader_id", trader.ID.String()),
		zap.String("currency", currency),
	)
	return card, nil
}

// ListCards returns the calling trader's cards.
func (r *CardRegistry) ListCards(ctx context.Context, actor entities.Actor) ([]*entities.Card, error) {
	if err := authorize(actor, entities.CapViewTraderData); err != nil {
		return nil, err
	}
	trader, err := r.guard.TraderOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	return r.cardRepo.ListByTrader(ctx, trader.ID)
}

// SetStatus pauses or resumes a card. Pausing keeps existing reservations
// and only stops new allocations.
func (r *CardRegistry) SetStatus(ctx context.Context, actor entities.Actor, cardID uuid.UUID, status entities.CardStatus) (*entities.Card, error) {
	return r.UpdateCard(ctx, actor, cardID, &entities.UpdateCardInput{Status: &status})
}

// UpdateCard changes status and/or limit. A new limit may not drop below
// what is already reserved.
func (r *CardRegistry) UpdateCard(ctx context.Context, actor entities.Actor, cardID uuid.UUID, input *entities.UpdateCardInput) (*entities.Card, error) {
	if err := authorize(actor, entities.CapManageCards); err != nil {
		return nil, err
	}
	if input.Status == nil && input.Limit == nil {
		return nil, domainerrors.Validation("status or limit is required")
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, domainerrors.Validation("status must be active or paused")
	}
	var newLimit *decimal.Decimal
	if input.Limit != nil {
		l, err := parseFiat(input.Limit.String(), "limit")
		if err != nil {
			return nil, err
		}
		newLimit = &l
	}

	trader, err := r.guard.ActiveTrader(ctx, actor)
	if err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(cardKey(cardID))
	defer unlock()

	var updated *entities.Card
	err = r.uow.Do(ctx, func(txCtx context.Context) error {
		card, err := r.ownedCard(r.uow.WithLock(txCtx), trader, cardID)
		if err != nil {
			return err
		}

		status := card.Status
		if input.Status != nil {
			status = *input.Status
		}
		limit := card.Limit
		if newLimit != nil {
			if newLimit.LessThan(card.CurrentUsage) {
				return domainerrors.Validation("limit cannot be lower than current usage " + card.CurrentUsage.StringFixed(2))
			}
			limit = *newLimit
		}

		if err := r.cardRepo.UpdateSettings(txCtx, card.ID, status, limit, card.Version); err != nil {
			return mapConflict(err, "card changed concurrently, retry")
		}
		card.Status = status
		card.Limit = limit
		card.Version++
		card.UpdatedAt = r.now()
		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCard removes a card that backs no open transaction.
func (r *CardRegistry) DeleteCard(ctx context.Context, actor entities.Actor, cardID uuid.UUID) error {
	if err := authorize(actor, entities.CapManageCards); err != nil {
		return err
	}
	trader, err := r.guard.ActiveTrader(ctx, actor)
	if err != nil {
		return err
	}

	unlock := r.locks.Lock(cardKey(cardID))
	defer unlock()

	err = r.uow.Do(ctx, func(txCtx context.Context) error {
		card, err := r.ownedCard(r.uow.WithLock(txCtx), trader, cardID)
		if err != nil {
			return err
		}
		open, err := r.txRepo.CountOpenByCard(txCtx, card.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return domainerrors.CardInUse("card backs an open transaction")
		}
		return r.cardRepo.Delete(txCtx, card.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "Card deleted", zap.String("card_id", cardID.String()))
	return nil
}

// EligibleCards lists the cards that can take amount right now, best fit
// first: least remaining headroom, then oldest.
func (r *CardRegistry) EligibleCards(ctx context.Context, currency string, amount decimal.Decimal) ([]*entities.Card, error) {
	candidates, err := r.cardRepo.ListActiveByCurrency(ctx, currency)
	if err != nil {
		return nil, err
	}

	eligible := candidates[:0]
	for _, c := range candidates {
		if c.Fits(amount) {
			eligible = append(eligible, c)
		}
	}
	sortBestFit(eligible)
	return eligible, nil
}

// FindEligibleCard returns the best-fit card or NoCapacityAvailable.
func (r *CardRegistry) FindEligibleCard(ctx context.Context, currency string, amount decimal.Decimal) (*entities.Card, error) {
	cards, err := r.EligibleCards(ctx, currency, amount)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, domainerrors.NoCapacityAvailable("no card can take " + amount.StringFixed(2) + " " + currency)
	}
	return cards[0], nil
}

func (r *CardRegistry) ownedCard(ctx context.Context, trader *entities.Trader, cardID uuid.UUID) (*entities.Card, error) {
	card, err := r.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("card not found")
		}
		return nil, err
	}
	if card.TraderID != trader.ID {
		return nil, domainerrors.NotFound("card not found")
	}
	return card, nil
}

func sortBestFit(cards []*entities.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		hi, hj := cards[i].Headroom(), cards[j].Headroom()
		if c := hi.Cmp(hj); c != 0 {
			return c < 0
		}
		if !cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].CreatedAt.Before(cards[j].CreatedAt)
		}
		return cards[i].ID.String() < cards[j].ID.String()
	})
}
