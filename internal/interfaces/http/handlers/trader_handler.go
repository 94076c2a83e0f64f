package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/internal/interfaces/http/response"
	"p2p-ramp.backend/pkg/utils"
)

type traderProfiles interface {
	Register(ctx context.Context, actor entities.Actor, input *entities.RegisterTraderInput) (*entities.Trader, error)
	Profile(ctx context.Context, actor entities.Actor) (*entities.Trader, error)
}

type cardManager interface {
	AddCard(ctx context.Context, actor entities.Actor, input *entities.AddCardInput) (*entities.Card, error)
	ListCards(ctx context.Context, actor entities.Actor) ([]*entities.Card, error)
	UpdateCard(ctx context.Context, actor entities.Actor, cardID uuid.UUID, input *entities.UpdateCardInput) (*entities.Card, error)
	DeleteCard(ctx context.Context, actor entities.Actor, cardID uuid.UUID) error
}

type traderConfirmer interface {
	ConfirmByTrader(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Transaction, error)
}

type traderTransactions interface {
	ListForTrader(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.TransactionWithCard], error)
}

// TraderHandler serves trader onboarding, card management and settlement.
type TraderHandler struct {
	traders   traderProfiles
	cards     cardManager
	confirmer traderConfirmer
	reports   traderTransactions
}

func NewTraderHandler(traders traderProfiles, cards cardManager, confirmer traderConfirmer, reports traderTransactions) *TraderHandler {
	return &TraderHandler{traders: traders, cards: cards, confirmer: confirmer, reports: reports}
}

// Register creates the caller's trader profile.
// POST /api/trader/register
func (h *TraderHandler) Register(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var input entities.RegisterTraderInput
	if !bindJSON(c, &input) {
		return
	}

	trader, err := h.traders.Register(c.Request.Context(), actor, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, trader)
}

// GET /api/trader/profile
func (h *TraderHandler) Profile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	trader, err := h.traders.Profile(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, trader)
}

// AddCard
// POST /api/trader/cards
func (h *TraderHandler) AddCard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var input entities.AddCardInput
	if !bindJSON(c, &input) {
		return
	}

	card, err := h.cards.AddCard(c.Request.Context(), actor, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, card)
}

// ListCards
// GET /api/trader/cards
func (h *TraderHandler) ListCards(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	cards, err := h.cards.ListCards(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	if cards == nil {
		cards = []*entities.Card{}
	}

	response.Success(c, http.StatusOK, gin.H{"items": cards})
}

// UpdateCard changes a card's status and/or limit.
// PUT /api/trader/cards/:id
func (h *TraderHandler) UpdateCard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input entities.UpdateCardInput
	if !bindJSON(c, &input) {
		return
	}

	card, err := h.cards.UpdateCard(c.Request.Context(), actor, id, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, card)
}

// DeleteCard
// DELETE /api/trader/cards/:id
func (h *TraderHandler) DeleteCard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.cards.DeleteCard(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id, "message": "Card deleted"})
}

// ListTransactions returns the trader's transactions with their card details.
// GET /api/trader/transactions
func (h *TraderHandler) ListTransactions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page, err := h.reports.ListForTrader(c.Request.Context(), actor, pagination(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page)
}

// ConfirmPayment settles a user-confirmed transaction against the balance.
// POST /api/trader/confirm-payment/:id
func (h *TraderHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tx, err := h.confirmer.ConfirmByTrader(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, tx)
}
