package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"accounts.backend/internal/domain/entities"
	domainerrors "accounts.backend/internal/domain/errors"
	"accounts.backend/internal/interfaces/http/response"
	"accounts.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// AccountKey is the gin context key holding the session account
	AccountKey = "account"
)

// SessionValidator resolves a session token to a live account
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*entities.Account, error)
}

// SessionMiddleware authenticates every request against the account store.
// The token comes from cookieName first. When the cookie is absent or its token
// is rejected, an Authorization bearer header is tried instead.
func SessionMiddleware(sessions SessionValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := cookieToken(c, cookieName)
		bearer := bearerToken(c)
		if cookie == "" && bearer == "" {
			logger.Debug(c.Request.Context(), "Session token missing", zap.String("path", c.Request.URL.Path))
			response.Abort(c, domainerrors.ErrUnauthorized)
			return
		}

		var (
			account *entities.Account
			err     error
		)
		if cookie != "" {
			account, err = sessions.ValidateSession(c.Request.Context(), cookie)
		}
		if (cookie == "" || err != nil) && bearer != "" && bearer != cookie {
			if err != nil {
				logger.Debug(c.Request.Context(), "Session cookie rejected, trying bearer token", zap.Error(err))
			}
			account, err = sessions.ValidateSession(c.Request.Context(), bearer)
		}
		if err != nil {
			logger.Debug(c.Request.Context(), "Session rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Abort(c, err)
			return
		}

		c.Set(AccountKey, account)
		ctx := context.WithValue(c.Request.Context(), logger.AccountIDKey, account.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func cookieToken(c *gin.Context, cookieName string) string {
	if cookieName == "" {
		return ""
	}
	v, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return v
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthorizationHeader)
	if strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	return ""
}

// GetAccount gets the session account from context
func GetAccount(c *gin.Context) (*entities.Account, bool) {
	v, exists := c.Get(AccountKey)
	if !exists {
		return nil, false
	}
	account, ok := v.(*entities.Account)
	return account, ok && account != nil
}

// GetAccountID gets the session account id from context
func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	account, ok := GetAccount(c)
	if !ok {
		return uuid.Nil, false
	}
	return account.ID, true
}

// RequireRole creates a middleware that requires one of roles
func RequireRole(roles ...entities.AccountRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := GetAccount(c)
		if !ok {
			response.Abort(c, domainerrors.ErrUnauthorized)
			return
		}
		if hasRole(account, roles) {
			c.Next()
			return
		}
		response.Abort(c, domainerrors.ErrForbidden)
	}
}

// RequireSelfOrRole lets the request through when the :param path id is the
// session account itself or the session account holds one of roles
func RequireSelfOrRole(param string, roles ...entities.AccountRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := GetAccount(c)
		if !ok {
			response.Abort(c, domainerrors.ErrUnauthorized)
			return
		}
		if c.Param(param) == account.ID.String() || hasRole(account, roles) {
			c.Next()
			return
		}
		response.Abort(c, domainerrors.ErrForbidden)
	}
}

func hasRole(account *entities.Account, roles []entities.AccountRole) bool {
	for _, role := range roles {
		if account.Role == role {
			return true
		}
	}
	return false
}
