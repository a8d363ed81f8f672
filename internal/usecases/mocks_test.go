package usecases_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"accounts.backend/internal/domain/entities"
	domainerrors "accounts.backend/internal/domain/errors"
	"accounts.backend/internal/domain/repositories"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	m.Called(ctx)
	return ctx
}

// Mock AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *entities.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByUniqueField(ctx context.Context, field repositories.UniqueField, value string) (*entities.Account, error) {
	args := m.Called(ctx, field, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, id uuid.UUID, patch *entities.AccountPatch) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *MockAccountRepository) List(ctx context.Context, filter entities.ListFilter) ([]*entities.Account, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.Account), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*entities.Account, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

// plainHasher is a fast reversible stand-in for bcrypt
type plainHasher struct {
	hashErr error
	calls   int
}

func (h *plainHasher) Hash(plaintext string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + plaintext, nil
}

func (h *plainHasher) Verify(plaintext, hash string) bool {
	h.calls++
	return hash == "hashed:"+plaintext
}

// inlineUOW runs fn directly
type inlineUOW struct{}

func (inlineUOW) Do(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
func (inlineUOW) WithLock(ctx context.Context) context.Context { return ctx }

// memAccountRepo is an in-memory store that enforces the unique fields
type memAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]entities.Account
	failNext error
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{accounts: map[uuid.UUID]entities.Account{}}
}

func (r *memAccountRepo) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *memAccountRepo) conflicts(self uuid.UUID, email string, doc string) error {
	for id, a := range r.accounts {
		if id == self {
			continue
		}
		if a.Email == email {
			return domainerrors.NewFieldConflict("email")
		}
		if doc != "" && a.CPFCNPJ.Valid && a.CPFCNPJ.String == doc {
			return domainerrors.NewFieldConflict("cpf_cnpj")
		}
	}
	return nil
}

func (r *memAccountRepo) Create(_ context.Context, account *entities.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if err := r.conflicts(account.ID, account.Email, account.CPFCNPJ.String); err != nil {
		return err
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *memAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	a, ok := r.accounts[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return &a, nil
}

func (r *memAccountRepo) GetByUniqueField(_ context.Context, field repositories.UniqueField, value string) (*entities.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	for _, a := range r.accounts {
		a := a
		switch field {
		case repositories.UniqueFieldEmail:
			if a.Email == value {
				return &a, nil
			}
		case repositories.UniqueFieldCPFCNPJ:
			if a.CPFCNPJ.Valid && a.CPFCNPJ.String == value {
				return &a, nil
			}
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *memAccountRepo) Update(_ context.Context, id uuid.UUID, p *entities.AccountPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	a, ok := r.accounts[id]
	if !ok {
		return domainerrors.ErrNotFound
	}

	email := a.Email
	if p.Email != nil {
		email = *p.Email
	}
	doc := a.CPFCNPJ.String
	if p.CPFCNPJ != nil {
		doc = p.CPFCNPJ.String
	}
	if err := r.conflicts(id, email, doc); err != nil {
		return err
	}

	if p.TenantID != nil {
		a.TenantID = *p.TenantID
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	a.Email = email
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.CPFCNPJ != nil {
		a.CPFCNPJ = *p.CPFCNPJ
	}
	if p.Profession != nil {
		a.Profession = *p.Profession
	}
	if p.CompanyName != nil {
		a.CompanyName = *p.CompanyName
	}
	if p.ProfilePictureURL != nil {
		a.ProfilePictureURL = *p.ProfilePictureURL
	}
	if p.SubscriptionPlan != nil {
		a.SubscriptionPlan = *p.SubscriptionPlan
	}
	if p.SubscriptionStatus != nil {
		a.SubscriptionStatus = *p.SubscriptionStatus
	}
	if p.TrialEndDate != nil {
		a.TrialEndDate = *p.TrialEndDate
	}
	if p.BillingAddress != nil {
		a.BillingAddress = *p.BillingAddress
	}
	if p.PaymentMethod != nil {
		a.PaymentMethod = *p.PaymentMethod
	}
	if p.Preferences != nil {
		a.Preferences = *p.Preferences
	}
	if p.SystemPreferences != nil {
		a.SystemPreferences = *p.SystemPreferences
	}
	if p.TwoFactorEnabled != nil {
		a.TwoFactorEnabled = *p.TwoFactorEnabled
	}
	if p.LastIP != nil {
		a.LastIP = *p.LastIP
	}
	if p.LastDevice != nil {
		a.LastDevice = *p.LastDevice
	}
	if p.LastLogin != nil {
		a.LastLogin = *p.LastLogin
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.DeletedAt != nil {
		a.DeletedAt = *p.DeletedAt
	}
	if p.UpdatedAt != nil {
		a.UpdatedAt = *p.UpdatedAt
	}
	r.accounts[id] = a
	return nil
}

func (r *memAccountRepo) List(_ context.Context, filter entities.ListFilter) ([]*entities.Account, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Account
	for _, a := range r.accounts {
		a := a
		if !filter.IncludeDeleted && a.DeletedAt.Valid {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(a.Name+" "+a.Email), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, int64(len(out)), nil
}

func (r *memAccountRepo) ListExpiredTrials(_ context.Context, now time.Time, limit int) ([]*entities.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Account
	for _, a := range r.accounts {
		a := a
		if a.SubscriptionStatus == entities.SubscriptionTrial && a.TrialEndDate.Valid &&
			a.TrialEndDate.Time.Before(now) && !a.DeletedAt.Valid {
			out = append(out, &a)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memAccountRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

func (r *memAccountRepo) raw(id uuid.UUID) entities.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[id]
}
