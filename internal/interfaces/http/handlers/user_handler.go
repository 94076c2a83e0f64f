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

type cardAllocator interface {
	RequestCard(ctx context.Context, actor entities.Actor, input *entities.RequestCardInput) (*entities.Allocation, error)
}

type userConfirmer interface {
	ConfirmByUser(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Transaction, error)
}

type userTransactions interface {
	ListForUser(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.Transaction], error)
}

// UserHandler serves the buyer side of a transaction.
type UserHandler struct {
	allocator cardAllocator
	confirmer userConfirmer
	reports   userTransactions
}

func NewUserHandler(allocator cardAllocator, confirmer userConfirmer, reports userTransactions) *UserHandler {
	return &UserHandler{allocator: allocator, confirmer: confirmer, reports: reports}
}

// RequestCard reserves a card for the requested crypto amount.
// POST /api/user/request-card
func (h *UserHandler) RequestCard(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var input entities.RequestCardInput
	if !bindJSON(c, &input) {
		return
	}

	allocation, err := h.allocator.RequestCard(c.Request.Context(), actor, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, allocation)
}

// ConfirmPayment records that the user sent the fiat transfer.
// POST /api/user/confirm-payment/:id
func (h *UserHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tx, err := h.confirmer.ConfirmByUser(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, tx)
}

// ListTransactions
// GET /api/user/transactions
func (h *UserHandler) ListTransactions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page, err := h.reports.ListForUser(c.Request.Context(), actor, pagination(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page)
}
