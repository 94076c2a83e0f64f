package usecases

import (
	"context"

	"github.com/google/uuid"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/domain/repositories"
	"p2p-ramp.backend/pkg/utils"
)

// ReportingUsecase serves role-scoped transaction lists and counters.
type ReportingUsecase struct {
	userRepo   repositories.UserRepository
	traderRepo repositories.TraderRepository
	cardRepo   repositories.CardRepository
	txRepo     repositories.TransactionRepository
	guard      *AccountGuard
}

func NewReportingUsecase(
	userRepo repositories.UserRepository,
	traderRepo repositories.TraderRepository,
	cardRepo repositories.CardRepository,
	txRepo repositories.TransactionRepository,
	guard *AccountGuard,
) *ReportingUsecase {
	return &ReportingUsecase{
		userRepo:   userRepo,
		traderRepo: traderRepo,
		cardRepo:   cardRepo,
		txRepo:     txRepo,
		guard:      guard,
	}
}

// ListForUser returns the caller's own deposits, newest first.
func (u *ReportingUsecase) ListForUser(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.Transaction], error) {
	if err := authorize(actor, entities.CapRequestCard); err != nil {
		return utils.Page[*entities.Transaction]{}, err
	}
	userID := actor.UserID
	items, total, err := u.txRepo.List(ctx, entities.TransactionFilter{UserID: &userID}, p)
	if err != nil {
		return utils.Page[*entities.Transaction]{}, err
	}
	return utils.NewPage(items, total, p), nil
}

// ListForTrader returns deposits routed to the caller's cards, each with
// the card it reserved.
func (u *ReportingUsecase) ListForTrader(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.TransactionWithCard], error) {
	empty := utils.Page[*entities.TransactionWithCard]{}
	if err := authorize(actor, entities.CapViewTraderData); err != nil {
		return empty, err
	}
	trader, err := u.guard.TraderOf(ctx, actor)
	if err != nil {
		return empty, err
	}

	items, total, err := u.txRepo.List(ctx, entities.TransactionFilter{TraderID: &trader.ID}, p)
	if err != nil {
		return empty, err
	}
	enriched, err := u.withCards(ctx, items)
	if err != nil {
		return empty, err
	}
	return utils.NewPage(enriched, total, p), nil
}

// ListAll returns every deposit, optionally narrowed by status. Admin only.
func (u *ReportingUsecase) ListAll(ctx context.Context, actor entities.Actor, status entities.TransactionStatus, p utils.PaginationParams) (utils.Page[*entities.Transaction], error) {
	if err := authorize(actor, entities.CapViewAll); err != nil {
		return utils.Page[*entities.Transaction]{}, err
	}
	if status != "" && !status.Valid() {
		return utils.Page[*entities.Transaction]{}, domainerrors.Validation("unknown status " + string(status))
	}
	items, total, err := u.txRepo.List(ctx, entities.TransactionFilter{Status: status}, p)
	if err != nil {
		return utils.Page[*entities.Transaction]{}, err
	}
	return utils.NewPage(items, total, p), nil
}

// Stats returns the counters for the caller's role: *entities.UserStats,
// *entities.TraderStats or *entities.AdminStats.
func (u *ReportingUsecase) Stats(ctx context.Context, actor entities.Actor) (interface{}, error) {
	switch actor.Role {
	case entities.UserRoleAdmin:
		return u.adminStats(ctx)
	case entities.UserRoleTrader:
		return u.traderStats(ctx, actor)
	case entities.UserRoleUser:
		return u.userStats(ctx, actor.UserID)
	}
	return nil, domainerrors.Forbidden("unknown role")
}

func (u *ReportingUsecase) userStats(ctx context.Context, userID uuid.UUID) (*entities.UserStats, error) {
	filter := entities.TransactionFilter{UserID: &userID}
	completed, err := u.txRepo.Count(ctx, filter, entities.TransactionStatusCompleted)
	if err != nil {
		return nil, err
	}
	pending, err := u.txRepo.Count(ctx, filter, entities.OpenTransactionStatuses...)
	if err != nil {
		return nil, err
	}
	return &entities.UserStats{Completed: completed, Pending: pending}, nil
}

func (u *ReportingUsecase) traderStats(ctx context.Context, actor entities.Actor) (*entities.TraderStats, error) {
	trader, err := u.guard.TraderOf(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter := entities.TransactionFilter{TraderID: &trader.ID}
	completed, err := u.txRepo.Count(ctx, filter, entities.TransactionStatusCompleted)
	if err != nil {
		return nil, err
	}
	pending, err := u.txRepo.Count(ctx, filter, entities.TransactionStatusUserConfirmed)
	if err != nil {
		return nil, err
	}
	cards, err := u.cardRepo.CountByTrader(ctx, trader.ID)
	if err != nil {
		return nil, err
	}
	return &entities.TraderStats{
		Balance:    trader.Balance,
		Completed:  completed,
		Pending:    pending,
		CardsCount: cards,
	}, nil
}

func (u *ReportingUsecase) adminStats(ctx context.Context) (*entities.AdminStats, error) {
	traders, err := u.traderRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := u.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	total, err := u.txRepo.Count(ctx, entities.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	completed, err := u.txRepo.Count(ctx, entities.TransactionFilter{}, entities.TransactionStatusCompleted)
	if err != nil {
		return nil, err
	}
	return &entities.AdminStats{
		TotalTraders:          traders,
		TotalUsers:            users,
		TotalTransactions:     total,
		CompletedTransactions: completed,
	}, nil
}

func (u *ReportingUsecase) withCards(ctx context.Context, items []*entities.Transaction) ([]*entities.TransactionWithCard, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, tx := range items {
		if !seen[tx.CardID] {
			seen[tx.CardID] = true
			ids = append(ids, tx.CardID)
		}
	}

	byID := make(map[uuid.UUID]entities.CardSnapshot, len(ids))
	if len(ids) > 0 {
		cards, err := u.cardRepo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			byID[c.ID] = c.Snapshot()
		}
	}

	out := make([]*entities.TransactionWithCard, 0, len(items))
	for _, tx := range items {
		row := &entities.TransactionWithCard{Transaction: *tx}
		if snap, ok := byID[tx.CardID]; ok {
			row.Card = &snap
		}
		out = append(out, row)
	}
	return out, nil
}
