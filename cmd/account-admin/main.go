package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"accounts.backend/internal/config"
	"accounts.backend/internal/domain/entities"
	"accounts.backend/internal/infrastructure/datasources/postgres"
	"accounts.backend/internal/infrastructure/repositories"
	"accounts.backend/internal/usecases"
	"accounts.backend/pkg/crypto"
)

var openAdminDB = postgres.NewConnection

type moderationRuntime interface {
	SetModerationStatus(ctx context.Context, id uuid.UUID, status entities.AccountStatus) (*entities.Account, error)
}

type accountAdminDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(cfg *config.Config) (moderationRuntime, io.Closer, error)
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func defaultAccountAdminDeps() accountAdminDeps {
	return accountAdminDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(cfg *config.Config) (moderationRuntime, io.Closer, error) {
			db, err := openAdminDB(cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to init sql db: %w", err)
			}

			accountUsecase := usecases.NewAccountUsecase(
				repositories.NewAccountRepository(db),
				repositories.NewUnitOfWork(db),
				crypto.NewBcryptHasher(crypto.DefaultCost),
			)
			return accountUsecase, sqlDB, nil
		},
		out: os.Stdout,
	}
}

func parseAccountID(id string) (uuid.UUID, error) {
	if id == "" {
		return uuid.Nil, fmt.Errorf("--id is required")
	}
	return uuid.Parse(id)
}

func parseStatus(status string) (entities.AccountStatus, error) {
	s := entities.AccountStatus(status)
	if !s.Valid() {
		return "", fmt.Errorf("--status must be one of active, suspended, blocked (got %q)", status)
	}
	return s, nil
}

func runAccountAdmin(args []string, deps accountAdminDeps) error {
	def := defaultAccountAdminDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("account-admin", flag.ContinueOnError)
	idFlag := fs.String("id", "", "target account UUID (required)")
	statusFlag := fs.String("status", "", "moderation status: active, suspended or blocked (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := parseAccountID(*idFlag)
	if err != nil {
		return err
	}
	status, err := parseStatus(*statusFlag)
	if err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := deps.loadCfg()
	runtime, closer, err := deps.prepare(cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	account, err := runtime.SetModerationStatus(context.Background(), id, status)
	if err != nil {
		return fmt.Errorf("failed to set status of account %s: %w", id, err)
	}

	_, _ = fmt.Fprintln(deps.out, "Account moderation status updated")
	_, _ = fmt.Fprintf(deps.out, "id=%s\n", account.ID.String())
	_, _ = fmt.Fprintf(deps.out, "email=%s\n", account.Email)
	_, _ = fmt.Fprintf(deps.out, "status=%s\n", account.Status)
	return nil
}

func main() {
	if err := runAccountAdmin(os.Args[1:], defaultAccountAdminDeps()); err != nil {
		log.Fatal(err)
	}
}
