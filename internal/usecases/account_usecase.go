package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"accounts.backend/internal/domain/entities"
	domainerrors "accounts.backend/internal/domain/errors"
	"accounts.backend/internal/domain/repositories"
	"accounts.backend/pkg/crypto"
	"accounts.backend/pkg/logger"
	"accounts.backend/pkg/metrics"
	"accounts.backend/pkg/utils"
)

// AccountUsecase owns the account lifecycle and its invariants
type AccountUsecase struct {
	accountRepo repositories.AccountRepository
	uow         repositories.UnitOfWork
	hasher      PasswordHasher
	now         func() time.Time
	newID       func() uuid.UUID
}

// NewAccountUsecase creates a new account usecase
func NewAccountUsecase(
	accountRepo repositories.AccountRepository,
	uow repositories.UnitOfWork,
	hasher PasswordHasher,
) *AccountUsecase {
	return &AccountUsecase{
		accountRepo: accountRepo,
		uow:         uow,
		hasher:      hasher,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       utils.GenerateUUIDv7,
	}
}

// Register creates an account with trial defaults. The email must not
// belong to any account, soft-deleted ones included.
func (u *AccountUsecase) Register(ctx context.Context, input *entities.RegisterInput) (*entities.Account, error) {
	if input == nil || strings.TrimSpace(input.Name) == "" || input.Email == "" || input.Password == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if len(input.Password) > crypto.MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password exceeds %d bytes", domainerrors.ErrInvalidInput, crypto.MaxPasswordBytes)
	}

	if err := u.ensureUnique(ctx, repositories.UniqueFieldEmail, input.Email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := u.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	account := entities.NewAccount(u.newID(), strings.TrimSpace(input.Name), input.Email, hash, u.now())
	if err := u.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	metrics.RecordTransition("create")
	logger.Info(ctx, "Account registered", zap.String("account_id", account.ID.String()))
	return account.WithoutCredentials(), nil
}

// FindAuthenticatable returns the account for email only when it may log in.
// The result carries the credential hash and must not leave the core.
func (u *AccountUsecase) FindAuthenticatable(ctx context.Context, email string) (*entities.Account, error) {
	account, err := u.accountRepo.GetByUniqueField(ctx, repositories.UniqueFieldEmail, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !account.IsAuthenticatable() {
		return nil, nil
	}
	return account, nil
}

// GetProfile returns an account by id, soft-deleted included
func (u *AccountUsecase) GetProfile(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	account, err := u.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return account.WithoutCredentials(), nil
}

// List returns a page of accounts
func (u *AccountUsecase) List(ctx context.Context, filter entities.ListFilter) ([]*entities.Account, utils.PaginationMeta, error) {
	page := utils.GetPaginationParams(filter.Page, filter.Limit)
	filter.Page, filter.Limit = page.Page, page.Limit

	accounts, total, err := u.accountRepo.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	for i, a := range accounts {
		accounts[i] = a.WithoutCredentials()
	}
	return accounts, utils.CalculateMeta(total, page), nil
}

// UpdateProfile merges a partial profile update. The uniqueness checks run
// in the same transaction as the write and the unique indexes back them.
func (u *AccountUsecase) UpdateProfile(ctx context.Context, id uuid.UUID, input *entities.UpdateProfileInput) (*entities.Account, error) {
	if input == nil {
		input = &entities.UpdateProfileInput{}
	}

	var updated *entities.Account
	err := u.uow.Do(u.uow.WithLock(ctx), func(txCtx context.Context) error {
		current, err := u.accountRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		patch, err := u.buildProfilePatch(txCtx, current, input)
		if err != nil {
			return err
		}
		if err := u.accountRepo.Update(txCtx, id, patch); err != nil {
			return err
		}

		updated, err = u.accountRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated.WithoutCredentials(), nil
}

func (u *AccountUsecase) buildProfilePatch(ctx context.Context, current *entities.Account, in *entities.UpdateProfileInput) (*entities.AccountPatch, error) {
	now := u.now()
	patch := &entities.AccountPatch{UpdatedAt: &now}

	if in.TenantID != nil {
		tenant := strings.TrimSpace(*in.TenantID)
		switch {
		case current.TenantID.Valid && tenant != current.TenantID.String:
			return nil, fmt.Errorf("%w: tenant_id is immutable once set", domainerrors.ErrInvalidInput)
		case !current.TenantID.Valid && tenant != "":
			v := null.StringFrom(tenant)
			patch.TenantID = &v
		}
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domainerrors.ErrInvalidInput)
		}
		patch.Name = &name
	}

	if in.Email != nil && *in.Email != current.Email {
		if *in.Email == "" {
			return nil, fmt.Errorf("%w: email must not be empty", domainerrors.ErrInvalidInput)
		}
		if err := u.ensureUnique(ctx, repositories.UniqueFieldEmail, *in.Email, current.ID); err != nil {
			return nil, err
		}
		patch.Email = in.Email
	}

	if in.CPFCNPJ != nil {
		doc := optionalText(*in.CPFCNPJ)
		if doc.Valid && doc.String != current.CPFCNPJ.String {
			if err := u.ensureUnique(ctx, repositories.UniqueFieldCPFCNPJ, doc.String, current.ID); err != nil {
				return nil, err
			}
		}
		patch.CPFCNPJ = &doc
	}

	patch.Phone = optionalTextPtr(in.Phone)
	patch.Profession = optionalTextPtr(in.Profession)
	patch.CompanyName = optionalTextPtr(in.CompanyName)
	patch.ProfilePictureURL = optionalTextPtr(in.ProfilePictureURL)
	patch.BillingAddress = in.BillingAddress
	patch.PaymentMethod = in.PaymentMethod
	patch.Preferences = in.Preferences
	patch.SystemPreferences = in.SystemPreferences
	patch.TwoFactorEnabled = in.TwoFactorEnabled

	return patch, nil
}

// UpdateSubscription changes plan, status and trial end date
func (u *AccountUsecase) UpdateSubscription(ctx context.Context, id uuid.UUID, input *entities.UpdateSubscriptionInput) (*entities.Account, error) {
	if input == nil || !input.Plan.Valid() {
		return nil, fmt.Errorf("%w: unknown subscription plan", domainerrors.ErrInvalidInput)
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown subscription status", domainerrors.ErrInvalidInput)
	}

	var updated *entities.Account
	err := u.uow.Do(u.uow.WithLock(ctx), func(txCtx context.Context) error {
		if _, err := u.accountRepo.GetByID(txCtx, id); err != nil {
			return err
		}

		now := u.now()
		plan := input.Plan
		patch := &entities.AccountPatch{
			SubscriptionPlan:   &plan,
			SubscriptionStatus: input.Status,
			TrialEndDate:       input.TrialEndDate,
			UpdatedAt:          &now,
		}
		if err := u.accountRepo.Update(txCtx, id, patch); err != nil {
			return err
		}

		var err error
		updated, err = u.accountRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated.WithoutCredentials(), nil
}

// Remove soft-deletes an account. Removing a soft-deleted account is a no-op.
func (u *AccountUsecase) Remove(ctx context.Context, id uuid.UUID) error {
	return u.uow.Do(u.uow.WithLock(ctx), func(txCtx context.Context) error {
		current, err := u.accountRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		switch current.State() {
		case entities.StateSoftDeleted:
			return nil
		case entities.StateActive, entities.StateSuspended, entities.StateBlocked:
		}

		now := u.now()
		blocked := entities.StatusBlocked
		deletedAt := null.TimeFrom(now)
		if err := u.accountRepo.Update(txCtx, id, &entities.AccountPatch{
			Status:    &blocked,
			DeletedAt: &deletedAt,
			UpdatedAt: &now,
		}); err != nil {
			return err
		}

		metrics.RecordTransition("remove")
		logger.Info(txCtx, "Account soft-deleted",
			zap.String("account_id", id.String()),
			zap.String("from_state", current.State().String()),
		)
		return nil
	})
}

// Restore reactivates a soft-deleted account. Any other state is ErrNotFound.
func (u *AccountUsecase) Restore(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	var restored *entities.Account
	err := u.uow.Do(u.uow.WithLock(ctx), func(txCtx context.Context) error {
		current, err := u.accountRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		switch current.State() {
		case entities.StateSoftDeleted:
		case entities.StateActive, entities.StateSuspended, entities.StateBlocked:
			return domainerrors.ErrNotFound
		}

		now := u.now()
		active := entities.StatusActive
		cleared := null.Time{}
		if err := u.accountRepo.Update(txCtx, id, &entities.AccountPatch{
			Status:    &active,
			DeletedAt: &cleared,
			UpdatedAt: &now,
		}); err != nil {
			return err
		}

		restored, err = u.accountRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("restore")
	logger.Info(ctx, "Account restored", zap.String("account_id", id.String()))
	return restored.WithoutCredentials(), nil
}

// SetModerationStatus moves a live account between active, suspended and blocked.
// Soft-deleted accounts only come back through Restore.
func (u *AccountUsecase) SetModerationStatus(ctx context.Context, id uuid.UUID, status entities.AccountStatus) (*entities.Account, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown account status %q", domainerrors.ErrInvalidInput, status)
	}

	var updated *entities.Account
	err := u.uow.Do(u.uow.WithLock(ctx), func(txCtx context.Context) error {
		current, err := u.accountRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if current.State() == entities.StateSoftDeleted {
			return fmt.Errorf("%w: account is soft-deleted, restore it first", domainerrors.ErrInvalidInput)
		}

		now := u.now()
		if err := u.accountRepo.Update(txCtx, id, &entities.AccountPatch{Status: &status, UpdatedAt: &now}); err != nil {
			return err
		}
		updated, err = u.accountRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("moderate_" + string(status))
	logger.Warn(ctx, "Account status changed by moderation",
		zap.String("account_id", id.String()),
		zap.String("status", string(status)),
	)
	return updated.WithoutCredentials(), nil
}

// IsActiveAccount reports whether id resolves to an authenticatable account
func (u *AccountUsecase) IsActiveAccount(ctx context.Context, id uuid.UUID) (bool, error) {
	account, err := u.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.IsAuthenticatable(), nil
}

// GetProfileCompleteness scores the profile of id
func (u *AccountUsecase) GetProfileCompleteness(ctx context.Context, id uuid.UUID) (entities.ProfileCompleteness, error) {
	account, err := u.accountRepo.GetByID(ctx, id)
	if err != nil {
		return entities.ProfileCompleteness{}, err
	}
	return ScoreProfile(account), nil
}

// ExpireTrials moves accounts whose trial ended to a suspended subscription.
// Account status is left alone, so expired trials can still log in.
func (u *AccountUsecase) ExpireTrials(ctx context.Context, limit int) (int, error) {
	now := u.now()
	expired, err := u.accountRepo.ListExpiredTrials(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, a := range expired {
		changed, err := u.expireTrial(ctx, a.ID, now)
		if err != nil {
			logger.Error(ctx, "Failed to expire trial", zap.String("account_id", a.ID.String()), zap.Error(err))
			continue
		}
		if changed {
			done++
		}
	}
	return done, nil
}

// expireTrial re-reads id under a row lock so a subscription changed since the
// sweep listed it is left untouched
func (u *AccountUsecase) expireTrial(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	changed := false
	err := u.uow.Do(u.uow.WithLock(ctx), func(txCtx context.Context) error {
		current, err := u.accountRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if current.SubscriptionStatus != entities.SubscriptionTrial ||
			!current.TrialEndDate.Valid || !current.TrialEndDate.Time.Before(now) {
			return nil
		}

		suspended := entities.SubscriptionSuspended
		if err := u.accountRepo.Update(txCtx, id, &entities.AccountPatch{
			SubscriptionStatus: &suspended,
			UpdatedAt:          &now,
		}); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// ensureUnique fails with a field conflict when value belongs to an account other than self
func (u *AccountUsecase) ensureUnique(ctx context.Context, field repositories.UniqueField, value string, self uuid.UUID) error {
	owner, err := u.accountRepo.GetByUniqueField(ctx, field, value)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("check %s uniqueness: %w", field, err)
	}
	if owner.ID != self {
		return domainerrors.NewFieldConflict(string(field))
	}
	return nil
}

func optionalText(s string) null.String {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

func optionalTextPtr(s *string) *null.String {
	if s == nil {
		return nil
	}
	v := optionalText(*s)
	return &v
}
