package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"accounts.backend/internal/domain/entities"
	domainerrors "accounts.backend/internal/domain/errors"
	"accounts.backend/internal/interfaces/http/middleware"
	"accounts.backend/internal/interfaces/http/response"
	"accounts.backend/pkg/utils"
)

type accountService interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	List(ctx context.Context, filter entities.ListFilter) ([]*entities.Account, utils.PaginationMeta, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input *entities.UpdateProfileInput) (*entities.Account, error)
	UpdateSubscription(ctx context.Context, id uuid.UUID, input *entities.UpdateSubscriptionInput) (*entities.Account, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	GetProfileCompleteness(ctx context.Context, id uuid.UUID) (entities.ProfileCompleteness, error)
}

// AccountHandler handles account and profile endpoints
type AccountHandler struct {
	accountUsecase accountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountUsecase accountService) *AccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase}
}

// ListAccounts lists accounts
// GET /api/v1/users
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(utils.DefaultPageLimit)))
	includeDeleted, _ := strconv.ParseBool(c.DefaultQuery("includeDeleted", "false"))

	accounts, meta, err := h.accountUsecase.List(c.Request.Context(), entities.ListFilter{
		Search:         c.Query("search"),
		IncludeDeleted: includeDeleted,
		Page:           page,
		Limit:          limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"users":      accounts,
		"pagination": meta,
	})
}

// GetProfile returns the session account's profile
// GET /api/v1/users/profile
func (h *AccountHandler) GetProfile(c *gin.Context) {
	id, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.ErrUnauthorized)
		return
	}
	h.respondAccount(c, id)
}

// GetProfileCompleteness scores the session account's profile
// GET /api/v1/users/profile/completeness
func (h *AccountHandler) GetProfileCompleteness(c *gin.Context) {
	id, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.ErrUnauthorized)
		return
	}

	score, err := h.accountUsecase.GetProfileCompleteness(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, score)
}

// UpdateProfile applies a partial update to the session account
// PATCH /api/v1/users/profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	h.updateSelf(c, &req)
}

// UpdatePersonalInfo updates contact and identity fields
// PATCH /api/v1/users/profile/personal
func (h *AccountHandler) UpdatePersonalInfo(c *gin.Context) {
	var req personalInfoRequest
	h.updateSelf(c, &req)
}

// UpdateAddress updates the billing address document
// PATCH /api/v1/users/profile/address
func (h *AccountHandler) UpdateAddress(c *gin.Context) {
	var req addressRequest
	h.updateSelf(c, &req)
}

// UpdatePreferences updates the preference documents
// PATCH /api/v1/users/profile/preferences
func (h *AccountHandler) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	h.updateSelf(c, &req)
}

// UpdatePaymentMethod updates the payment method document
// PATCH /api/v1/users/profile/payment
func (h *AccountHandler) UpdatePaymentMethod(c *gin.Context) {
	var req paymentRequest
	h.updateSelf(c, &req)
}

// GetAccount returns an account by id
// GET /api/v1/users/:id
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.respondAccount(c, id)
}

// UpdateAccount applies a partial profile update to an account by id
// PATCH /api/v1/users/:id
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}
	h.applyUpdate(c, id, &req)
}

// UpdateSubscription changes plan, subscription status and trial end date
// PATCH /api/v1/users/:id/subscription
func (h *AccountHandler) UpdateSubscription(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}

	account, err := h.accountUsecase.UpdateSubscription(c.Request.Context(), id, req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": account})
}

// RemoveAccount soft-deletes an account
// DELETE /api/v1/users/:id
func (h *AccountHandler) RemoveAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.accountUsecase.Remove(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Account removed"})
}

// RestoreAccount reactivates a soft-deleted account
// POST /api/v1/users/:id/restore
func (h *AccountHandler) RestoreAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	account, err := h.accountUsecase.Restore(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": account})
}

func (h *AccountHandler) respondAccount(c *gin.Context, id uuid.UUID) {
	account, err := h.accountUsecase.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": account})
}

func (h *AccountHandler) updateSelf(c *gin.Context, req profileUpdate) {
	id, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.ErrUnauthorized)
		return
	}
	if err := c.ShouldBindJSON(req); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}
	h.applyUpdate(c, id, req)
}

func (h *AccountHandler) applyUpdate(c *gin.Context, id uuid.UUID, req profileUpdate) {
	input, err := req.toInput()
	if err != nil {
		response.ValidationError(c, map[string]string{"payload": "invalid document"})
		return
	}

	account, err := h.accountUsecase.UpdateProfile(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": account})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		response.Error(c, domainerrors.BadRequest("Invalid account ID"))
		return uuid.Nil, false
	}
	return id, true
}

// toDocument encodes a typed document for the opaque JSON column.
// A nil document leaves the field untouched.
func toDocument[T any](doc *T) (*null.JSON, error) {
	if doc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	v := null.JSONFrom(raw)
	return &v, nil
}
