package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"accounts.backend/internal/domain/entities"
	domainerrors "accounts.backend/internal/domain/errors"
	"accounts.backend/internal/domain/repositories"
	"accounts.backend/pkg/jwt"
	"accounts.backend/pkg/logger"
	"accounts.backend/pkg/metrics"
)

// dummyCredentialHash is verified against when no account matches, so unknown
// emails cost the same bcrypt work as wrong passwords.
const dummyCredentialHash = "$2a$10$" + "AAAAAAAAAAAAAAAAAAAAAA" + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// AuthUsecase orchestrates credential checks, token issuance and session validation
type AuthUsecase struct {
	accounts    *AccountUsecase
	accountRepo repositories.AccountRepository
	hasher      PasswordHasher
	tokens      TokenCodec
	now         func() time.Time
}

// NewAuthUsecase creates a new auth usecase
func NewAuthUsecase(
	accounts *AccountUsecase,
	accountRepo repositories.AccountRepository,
	hasher PasswordHasher,
	tokens TokenCodec,
) *AuthUsecase {
	return &AuthUsecase{
		accounts:    accounts,
		accountRepo: accountRepo,
		hasher:      hasher,
		tokens:      tokens,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and a session for it. Conflicts pass through;
// every other failure becomes ErrRegistrationFailed.
func (u *AuthUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.AuthResult, error) {
	account, err := u.accounts.Register(ctx, input)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			metrics.RecordAuth(metrics.OpRegister, metrics.OutcomeConflict)
			return nil, err
		}
		if errors.Is(err, domainerrors.ErrInvalidInput) {
			return nil, err
		}
		metrics.RecordAuth(metrics.OpRegister, metrics.OutcomeError)
		logger.Error(ctx, "Registration failed", zap.Error(err))
		return nil, domainerrors.ErrRegistrationFailed
	}

	token, expiresAt, err := u.tokens.Issue(account.ID, account.Email)
	if err != nil {
		metrics.RecordAuth(metrics.OpRegister, metrics.OutcomeError)
		logger.Error(ctx, "Registration failed: token issue", zap.String("account_id", account.ID.String()), zap.Error(err))
		return nil, domainerrors.ErrRegistrationFailed
	}

	metrics.RecordAuth(metrics.OpRegister, metrics.OutcomeSuccess)
	return &entities.AuthResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password return the same ErrInvalidCredentials.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResult, error) {
	if input == nil {
		return nil, domainerrors.ErrInvalidCredentials
	}

	account, err := u.accounts.FindAuthenticatable(ctx, input.Email)
	if err != nil {
		metrics.RecordAuth(metrics.OpLogin, metrics.OutcomeError)
		logger.Error(ctx, "Login lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInternal, err)
	}
	if account == nil {
		u.hasher.Verify(input.Password, dummyCredentialHash)
		metrics.RecordAuth(metrics.OpLogin, metrics.OutcomeInvalidCredentials)
		return nil, domainerrors.ErrInvalidCredentials
	}
	if !u.hasher.Verify(input.Password, account.CredentialHash) {
		metrics.RecordAuth(metrics.OpLogin, metrics.OutcomeInvalidCredentials)
		return nil, domainerrors.ErrInvalidCredentials
	}

	token, expiresAt, err := u.tokens.Issue(account.ID, account.Email)
	if err != nil {
		metrics.RecordAuth(metrics.OpLogin, metrics.OutcomeError)
		logger.Error(ctx, "Token issue failed", zap.String("account_id", account.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInternal, err)
	}

	u.stampLogin(ctx, account, input)

	metrics.RecordAuth(metrics.OpLogin, metrics.OutcomeSuccess)
	return &entities.AuthResult{Account: account.WithoutCredentials(), Token: token, ExpiresAt: expiresAt}, nil
}

// stampLogin records last_login and the client fingerprint. Failures are logged only.
func (u *AuthUsecase) stampLogin(ctx context.Context, account *entities.Account, input *entities.LoginInput) {
	now := u.now()
	lastLogin := null.TimeFrom(now)
	patch := &entities.AccountPatch{LastLogin: &lastLogin}
	if input.IP != "" {
		ip := null.StringFrom(input.IP)
		patch.LastIP = &ip
	}
	if input.Device != "" {
		d := null.StringFrom(truncateRunes(input.Device, maxDeviceLength))
		patch.LastDevice = &d
	}

	if err := u.accountRepo.Update(ctx, account.ID, patch); err != nil {
		logger.Warn(ctx, "Failed to stamp last login", zap.String("account_id", account.ID.String()), zap.Error(err))
		return
	}
	account.LastLogin = lastLogin
	if patch.LastIP != nil {
		account.LastIP = *patch.LastIP
	}
	if patch.LastDevice != nil {
		account.LastDevice = *patch.LastDevice
	}
}

// ValidateSession resolves a token to a live account. The account is re-read
// on every call so suspension or removal ends existing sessions.
func (u *AuthUsecase) ValidateSession(ctx context.Context, token string) (*entities.Account, error) {
	claims, err := u.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			logger.Debug(ctx, "Session token expired")
		}
		metrics.RecordAuth(metrics.OpValidateSession, metrics.OutcomeInvalidToken)
		return nil, domainerrors.ErrInvalidToken
	}

	subject, err := claims.SubjectID()
	if err != nil {
		metrics.RecordAuth(metrics.OpValidateSession, metrics.OutcomeInvalidToken)
		return nil, domainerrors.ErrInvalidToken
	}

	account, err := u.accountRepo.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			metrics.RecordAuth(metrics.OpValidateSession, metrics.OutcomeUnauthenticated)
			return nil, domainerrors.ErrUnauthorized
		}
		metrics.RecordAuth(metrics.OpValidateSession, metrics.OutcomeError)
		logger.Error(ctx, "Session lookup failed", zap.String("account_id", subject.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrInternal, err)
	}
	if !account.IsAuthenticatable() {
		metrics.RecordAuth(metrics.OpValidateSession, metrics.OutcomeUnauthenticated)
		return nil, domainerrors.ErrUnauthorized
	}

	metrics.RecordAuth(metrics.OpValidateSession, metrics.OutcomeSuccess)
	return account.WithoutCredentials(), nil
}

// Logout has nothing to persist; sessions are stateless and the transport drops the token
func (u *AuthUsecase) Logout() {}

// maxDeviceLength matches the last_device column, varchar(100)
const maxDeviceLength = 100

// truncateRunes cuts s to at most n runes without splitting a multibyte character
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
