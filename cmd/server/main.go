package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"accounts.backend/internal/config"
	"accounts.backend/internal/infrastructure/datasources/postgres"
	"accounts.backend/internal/infrastructure/jobs"
	"accounts.backend/internal/infrastructure/repositories"
	"accounts.backend/internal/interfaces/http/handlers"
	"accounts.backend/internal/interfaces/http/middleware"
	"accounts.backend/internal/usecases"
	"accounts.backend/pkg/crypto"
	"accounts.backend/pkg/jwt"
	"accounts.backend/pkg/logger"
	"accounts.backend/pkg/metrics"
	"accounts.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = postgres.NewConnection
	migrateDB  = postgres.Migrate
	runServer  = func(ctx context.Context, srv *http.Server) error {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	dotenvErr := loadDotenv()

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if dotenvErr != nil {
		logger.Info(ctx, "No .env file found, using environment variables")
	}
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	secret, usedFallback, err := cfg.ResolveJWTSecret()
	if err != nil {
		return fmt.Errorf("failed to resolve jwt secret: %w", err)
	}
	if usedFallback {
		logger.Warn(ctx, "JWT_SECRET not set, signing sessions with the development secret")
	}
	tokens, err := jwt.NewJWTService(secret, cfg.JWT.Expiry)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt service: %w", err)
	}

	// Login throttling is optional; without Redis the route stays open.
	var loginLimiter middleware.RateLimiter
	if cfg.Redis.Enabled {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			logger.Warn(ctx, "Redis unavailable, login rate limiting disabled", zap.Error(err))
		} else {
			defer func() { _ = redis.Close() }()
			loginLimiter = redis.NewFixedWindowLimiter(nil, "ratelimit:", cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow)
			logger.Info(ctx, "Redis initialized")
		}
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.Database.AutoMigrate {
		if err := migrateDB(db); err != nil {
			return err
		}
	}
	logger.Info(ctx, "Connected to PostgreSQL via GORM")

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	handlers.RegisterValidators()

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	uow := repositories.NewUnitOfWork(db)
	hasher := crypto.NewBcryptHasher(crypto.DefaultCost)

	// Initialize usecases
	accountUsecase := usecases.NewAccountUsecase(accountRepo, uow, hasher)
	authUsecase := usecases.NewAuthUsecase(accountUsecase, accountRepo, hasher, tokens)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authUsecase, handlers.SessionCookie{
		Name:   cfg.Cookie.Name,
		Domain: cfg.Cookie.Domain,
		Secure: cfg.Cookie.Secure,
		MaxAge: tokens.Expiry(),
	})
	accountHandler := handlers.NewAccountHandler(accountUsecase)

	trialJob := jobs.NewTrialExpiryJob(accountUsecase, cfg.Trial.SweepInterval, cfg.Trial.BatchSize)
	go trialJob.Start(ctx)
	defer trialJob.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r, cfg.CORS.AllowedOrigins)
	registerHealthRoute(r)
	registerMetricsRoute(r, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	registerAPIV1Routes(r, routeDeps{
		authHandler:       authHandler,
		accountHandler:    accountHandler,
		sessionMiddleware: middleware.SessionMiddleware(authUsecase, cfg.Cookie.Name),
		loginRateLimit:    middleware.RateLimitMiddleware(loginLimiter, metrics.OpLogin),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(ctx, "Accounts backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Int("routes", len(r.Routes())),
	)

	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info(ctx, "Server stopped")
	return nil
}
