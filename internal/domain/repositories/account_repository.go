package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"accounts.backend/internal/domain/entities"
)

// UniqueField names a column with a unique index
type UniqueField string

const (
	UniqueFieldEmail   UniqueField = "email"
	UniqueFieldCPFCNPJ UniqueField = "cpf_cnpj"
)

// AccountRepository is the account store. Lookups include soft-deleted accounts.
type AccountRepository interface {
	// Create persists a new account. Unique violations return ErrAlreadyExists.
	Create(ctx context.Context, account *entities.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	GetByUniqueField(ctx context.Context, field UniqueField, value string) (*entities.Account, error)
	// Update applies patch. ErrNotFound if id is absent, ErrAlreadyExists on unique violations.
	Update(ctx context.Context, id uuid.UUID, patch *entities.AccountPatch) error
	List(ctx context.Context, filter entities.ListFilter) ([]*entities.Account, int64, error)
	ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*entities.Account, error)
}
