package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"p2p-ramp.backend/internal/domain/entities"
	domainerrors "p2p-ramp.backend/internal/domain/errors"
	"p2p-ramp.backend/internal/interfaces/http/response"
	"p2p-ramp.backend/pkg/money"
	"p2p-ramp.backend/pkg/utils"
)

type settingsAdmin interface {
	Get() entities.Settings
	Update(ctx context.Context, actor entities.Actor, input *entities.UpdateSettingsInput) (entities.Settings, error)
}

type traderDirectory interface {
	GetTrader(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Trader, error)
	ListTraders(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.TraderWithEmail], error)
}

type userDirectory interface {
	CreateUser(ctx context.Context, actor entities.Actor, input *entities.CreateUserInput) (*entities.User, error)
	ListUsers(ctx context.Context, actor entities.Actor, p utils.PaginationParams) (utils.Page[*entities.User], error)
}

type balanceCrediter interface {
	CreditTrader(ctx context.Context, actor entities.Actor, traderID uuid.UUID, rawAmount string) (*entities.Trader, error)
}

type accountBlocker interface {
	BlockUser(ctx context.Context, actor entities.Actor, userID uuid.UUID, blocked *bool) (*entities.User, error)
	BlockTrader(ctx context.Context, actor entities.Actor, traderID uuid.UUID, blocked *bool) (*entities.Trader, error)
}

type transactionAdmin interface {
	ListAll(ctx context.Context, actor entities.Actor, status entities.TransactionStatus, p utils.PaginationParams) (utils.Page[*entities.Transaction], error)
}

type transactionCanceller interface {
	Cancel(ctx context.Context, actor entities.Actor, id uuid.UUID) (*entities.Transaction, error)
}

// AdminDeps groups the services behind the admin endpoints.
type AdminDeps struct {
	Settings     settingsAdmin
	Traders      traderDirectory
	Users        userDirectory
	Ledger       balanceCrediter
	Guard        accountBlocker
	Transactions transactionAdmin
	Canceller    transactionCanceller
}

// AdminHandler handles admin endpoints
type AdminHandler struct {
	deps AdminDeps
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	return &AdminHandler{deps: deps}
}

type addBalanceRequest struct {
	Amount money.Amount `json:"amount" binding:"required"`
}

type blockRequest struct {
	Blocked *bool `json:"blocked"`
}

// GetSettings returns the full settings snapshot including its version.
// GET /api/admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	response.Success(c, http.StatusOK, h.deps.Settings.Get())
}

// UpdateSettings
// PUT /api/admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var input entities.UpdateSettingsInput
	if !bindJSON(c, &input) {
		return
	}

	settings, err := h.deps.Settings.Update(c.Request.Context(), actor, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, settings)
}

// ListTraders
// GET /api/admin/traders
func (h *AdminHandler) ListTraders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page, err := h.deps.Traders.ListTraders(c.Request.Context(), actor, pagination(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page)
}

// GetTrader
// GET /api/admin/traders/:id
func (h *AdminHandler) GetTrader(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	trader, err := h.deps.Traders.GetTrader(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, trader)
}

// ListUsers
// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page, err := h.deps.Users.ListUsers(c.Request.Context(), actor, pagination(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page)
}

// CreateUser provisions an account with any role.
// POST /api/admin/users/create
func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var input entities.CreateUserInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.deps.Users.CreateUser(c.Request.Context(), actor, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// ListTransactions lists every transaction, optionally filtered by ?status=.
// GET /api/admin/transactions
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	status := entities.TransactionStatus(c.Query("status"))
	page, err := h.deps.Transactions.ListAll(c.Request.Context(), actor, status, pagination(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, page)
}

// CancelTransaction releases the card reservation of an open transaction.
// POST /api/admin/transactions/:id/cancel
func (h *AdminHandler) CancelTransaction(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	tx, err := h.deps.Canceller.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, tx)
}

// AddBalance credits a trader's crypto balance.
// POST /api/admin/traders/:id/add-balance
func (h *AdminHandler) AddBalance(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req addBalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	trader, err := h.deps.Ledger.CreditTrader(c.Request.Context(), actor, id, req.Amount.String())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, trader)
}

// BlockTrader sets or toggles the trader's blocked flag.
// PUT /api/admin/traders/:id/block
func (h *AdminHandler) BlockTrader(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	blocked, ok := optionalBlocked(c)
	if !ok {
		return
	}

	trader, err := h.deps.Guard.BlockTrader(c.Request.Context(), actor, id, blocked)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, trader)
}

// BlockUser sets or toggles the user's blocked flag.
// PUT /api/admin/users/:id/block
func (h *AdminHandler) BlockUser(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	blocked, ok := optionalBlocked(c)
	if !ok {
		return
	}

	user, err := h.deps.Guard.BlockUser(c.Request.Context(), actor, id, blocked)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}

// optionalBlocked reads {"blocked": bool}; an empty body means toggle.
func optionalBlocked(c *gin.Context) (*bool, bool) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, true
	}
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		response.Error(c, domainerrors.Validation(err.Error()))
		return nil, false
	}
	return req.Blocked, true
}
