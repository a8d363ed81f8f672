package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounts.backend/internal/domain/entities"
	"accounts.backend/internal/interfaces/http/handlers"
	"accounts.backend/internal/interfaces/http/middleware"
	"accounts.backend/pkg/utils"
)

type routeAccountService struct {
	removed []uuid.UUID
}

func (s *routeAccountService) GetProfile(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	return &entities.Account{ID: id}, nil
}
func (s *routeAccountService) List(context.Context, entities.ListFilter) ([]*entities.Account, utils.PaginationMeta, error) {
	return nil, utils.PaginationMeta{}, nil
}
func (s *routeAccountService) UpdateProfile(_ context.Context, id uuid.UUID, _ *entities.UpdateProfileInput) (*entities.Account, error) {
	return &entities.Account{ID: id}, nil
}
func (s *routeAccountService) UpdateSubscription(_ context.Context, id uuid.UUID, _ *entities.UpdateSubscriptionInput) (*entities.Account, error) {
	return &entities.Account{ID: id}, nil
}
func (s *routeAccountService) Remove(_ context.Context, id uuid.UUID) error {
	s.removed = append(s.removed, id)
	return nil
}
func (s *routeAccountService) Restore(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	return &entities.Account{ID: id}, nil
}
func (s *routeAccountService) GetProfileCompleteness(context.Context, uuid.UUID) (entities.ProfileCompleteness, error) {
	return entities.ProfileCompleteness{}, nil
}

func sessionAs(account *entities.Account) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AccountKey, account)
		c.Next()
	}
}

func newRoutesUnderTest(session *entities.Account, svc *routeAccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerAPIV1Routes(r, routeDeps{
		authHandler:       &handlers.AuthHandler{},
		accountHandler:    handlers.NewAccountHandler(svc),
		sessionMiddleware: sessionAs(session),
		loginRateLimit: func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTooManyRequests)
		},
	})
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAPIV1Routes_RegistersKeyRoutes(t *testing.T) {
	r := newRoutesUnderTest(&entities.Account{ID: uuid.New()}, &routeAccountService{})

	expects := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/auth/register"},
		{"POST", "/api/v1/auth/login"},
		{"POST", "/api/v1/auth/logout"},
		{"GET", "/api/v1/auth/me"},
		{"GET", "/api/v1/users"},
		{"GET", "/api/v1/users/profile"},
		{"GET", "/api/v1/users/profile/completeness"},
		{"PATCH", "/api/v1/users/profile"},
		{"PATCH", "/api/v1/users/profile/personal"},
		{"PATCH", "/api/v1/users/profile/address"},
		{"PATCH", "/api/v1/users/profile/preferences"},
		{"PATCH", "/api/v1/users/profile/payment"},
		{"GET", "/api/v1/users/:id"},
		{"PATCH", "/api/v1/users/:id"},
		{"PATCH", "/api/v1/users/:id/subscription"},
		{"DELETE", "/api/v1/users/:id"},
		{"POST", "/api/v1/users/:id/restore"},
	}

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, exp := range expects {
		assert.True(t, registered[exp.method+" "+exp.path], "route %s %s not registered", exp.method, exp.path)
	}
}

func TestRegisterAPIV1Routes_LoginIsRateLimited(t *testing.T) {
	r := newRoutesUnderTest(&entities.Account{ID: uuid.New()}, &routeAccountService{})

	rec := serve(r, http.MethodPost, "/api/v1/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRegisterAPIV1Routes_AdministrationNeedsPrivilegedRole(t *testing.T) {
	member := &entities.Account{ID: uuid.New(), Role: entities.RoleMember}
	other := uuid.New()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodPatch, "/api/v1/users/" + other.String() + "/subscription"},
		{http.MethodDelete, "/api/v1/users/" + other.String()},
		{http.MethodPost, "/api/v1/users/" + other.String() + "/restore"},
		{http.MethodGet, "/api/v1/users/" + other.String()},
		{http.MethodPatch, "/api/v1/users/" + other.String()},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			svc := &routeAccountService{}
			rec := serve(newRoutesUnderTest(member, svc), tc.method, tc.path)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Empty(t, svc.removed)
		})
	}
}

func TestRegisterAPIV1Routes_SelfAndAdminAccess(t *testing.T) {
	member := &entities.Account{ID: uuid.New(), Role: entities.RoleMember}
	rec := serve(newRoutesUnderTest(member, &routeAccountService{}), http.MethodGet, "/api/v1/users/"+member.ID.String())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newRoutesUnderTest(member, &routeAccountService{}), http.MethodGet, "/api/v1/users/profile")
	assert.Equal(t, http.StatusOK, rec.Code)

	admin := &entities.Account{ID: uuid.New(), Role: entities.RoleAdmin}
	target := uuid.New()
	svc := &routeAccountService{}
	rec = serve(newRoutesUnderTest(admin, svc), http.MethodDelete, "/api/v1/users/"+target.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{target}, svc.removed)
}
