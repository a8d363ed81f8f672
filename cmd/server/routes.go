package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accounts.backend/internal/domain/entities"
	"accounts.backend/internal/interfaces/http/handlers"
	"accounts.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "accounts-backend"
	serviceVersion = "1.0.0"
)

type routeDeps struct {
	authHandler       *handlers.AuthHandler
	accountHandler    *handlers.AccountHandler
	sessionMiddleware gin.HandlerFunc
	loginRateLimit    gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine, origins []string) {
	r.Use(middleware.CORSMiddleware(origins))
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, h http.Handler) {
	r.GET("/metrics", gin.WrapH(h))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	privileged := []entities.AccountRole{entities.RoleOwner, entities.RoleAdmin}

	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", d.authHandler.Register)
			auth.POST("/login", d.loginRateLimit, d.authHandler.Login)
			auth.POST("/logout", d.authHandler.Logout)
			auth.GET("/me", d.sessionMiddleware, d.authHandler.Me)
		}

		// Account routes (protected)
		users := v1.Group("/users")
		users.Use(d.sessionMiddleware)
		{
			users.GET("/profile", d.accountHandler.GetProfile)
			users.GET("/profile/completeness", d.accountHandler.GetProfileCompleteness)
			users.PATCH("/profile", d.accountHandler.UpdateProfile)
			users.PATCH("/profile/personal", d.accountHandler.UpdatePersonalInfo)
			users.PATCH("/profile/address", d.accountHandler.UpdateAddress)
			users.PATCH("/profile/preferences", d.accountHandler.UpdatePreferences)
			users.PATCH("/profile/payment", d.accountHandler.UpdatePaymentMethod)

			users.GET("/:id", middleware.RequireSelfOrRole("id", privileged...), d.accountHandler.GetAccount)
			users.PATCH("/:id", middleware.RequireSelfOrRole("id", privileged...), d.accountHandler.UpdateAccount)
		}

		// Account administration (owner or admin)
		admin := v1.Group("/users")
		admin.Use(d.sessionMiddleware, middleware.RequireRole(privileged...))
		{
			admin.GET("", d.accountHandler.ListAccounts)
			admin.PATCH("/:id/subscription", d.accountHandler.UpdateSubscription)
			admin.DELETE("/:id", d.accountHandler.RemoveAccount)
			admin.POST("/:id/restore", d.accountHandler.RestoreAccount)
		}
	}
}
