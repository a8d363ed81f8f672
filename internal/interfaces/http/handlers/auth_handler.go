package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accounts.backend/internal/domain/entities"
	domainerrors "accounts.backend/internal/domain/errors"
	"accounts.backend/internal/interfaces/http/middleware"
	"accounts.backend/internal/interfaces/http/response"
)

type authService interface {
	Register(ctx context.Context, input *entities.RegisterInput) (*entities.AuthResult, error)
	Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResult, error)
	Logout()
}

// SessionCookie describes the httpOnly cookie carrying the session token
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUsecase authService
	cookie      SessionCookie
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUsecase authService, cookie SessionCookie) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "access_token"
	}
	return &AuthHandler{
		authUsecase: authUsecase,
		cookie:      cookie,
	}
}

// Register handles account registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input entities.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}

	result, err := h.authUsecase.Register(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	response.Success(c, http.StatusCreated, gin.H{
		"user":      result.Account,
		"expiresAt": result.ExpiresAt,
	})
}

// Login handles credential login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ValidationError(c, bindingDetails(err))
		return
	}
	input.IP = c.ClientIP()
	input.Device = c.Request.UserAgent()

	result, err := h.authUsecase.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	response.Success(c, http.StatusOK, gin.H{
		"user":      result.Account,
		"expiresAt": result.ExpiresAt,
	})
}

// Logout clears the session cookie
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.authUsecase.Logout()

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the session account
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	account, ok := middleware.GetAccount(c)
	if !ok {
		response.Error(c, domainerrors.ErrUnauthorized)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": account})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(h.cookie.MaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Until(expiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
}
