package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"accounts.backend/internal/domain/entities"
	domainerrors "accounts.backend/internal/domain/errors"
	domainrepos "accounts.backend/internal/domain/repositories"
	"accounts.backend/internal/infrastructure/models"
	"accounts.backend/pkg/utils"
)

// AccountRepository implements the account store on gorm
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	m := toModel(account)
	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err)
	}
	return nil
}

// GetByID gets an account by id, soft-deleted included
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	var m models.Account
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m), nil
}

// GetByUniqueField gets an account by an exact match on a unique column
func (r *AccountRepository) GetByUniqueField(ctx context.Context, field domainrepos.UniqueField, value string) (*entities.Account, error) {
	switch field {
	case domainrepos.UniqueFieldEmail, domainrepos.UniqueFieldCPFCNPJ:
	default:
		return nil, domainerrors.ErrInvalidInput
	}

	var m models.Account
	if err := GetDB(ctx, r.db).WithContext(ctx).Where(string(field)+" = ?", value).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m), nil
}

// Update applies a partial update
func (r *AccountRepository) Update(ctx context.Context, id uuid.UUID, patch *entities.AccountPatch) error {
	updates := patchToMap(patch)
	if len(updates) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	result := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List lists accounts newest first with an optional name/email search
func (r *AccountRepository) List(ctx context.Context, filter entities.ListFilter) ([]*entities.Account, int64, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Account{})

	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		searchTerm := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := utils.GetPaginationParams(filter.Page, filter.Limit)
	var rows []models.Account
	if err := query.Order("created_at DESC").Offset(page.CalculateOffset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	accounts := make([]*entities.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, toEntity(&rows[i]))
	}
	return accounts, total, nil
}

// ListExpiredTrials returns live accounts whose trial ended before now
func (r *AccountRepository) ListExpiredTrials(ctx context.Context, now time.Time, limit int) ([]*entities.Account, error) {
	var rows []models.Account
	err := GetDB(ctx, r.db).WithContext(ctx).
		Where("subscription_status = ? AND trial_end_date IS NOT NULL AND trial_end_date < ? AND deleted_at IS NULL",
			string(entities.SubscriptionTrial), now).
		Order("trial_end_date ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	accounts := make([]*entities.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, toEntity(&rows[i]))
	}
	return accounts, nil
}

// translateWriteError maps unique violations to a field conflict.
// Drivers differ in how they report them, so both the translated gorm
// error and the raw driver messages are recognised.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	unique := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
	if !unique {
		return err
	}

	switch {
	case strings.Contains(msg, "cpf_cnpj"):
		return domainerrors.NewFieldConflict("cpf_cnpj")
	case strings.Contains(msg, "email"):
		return domainerrors.NewFieldConflict("email")
	default:
		return domainerrors.ErrAlreadyExists
	}
}

func patchToMap(p *entities.AccountPatch) map[string]interface{} {
	updates := map[string]interface{}{}
	if p == nil {
		return updates
	}
	if p.TenantID != nil {
		updates["tenant_id"] = *p.TenantID
	}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Email != nil {
		updates["email"] = *p.Email
	}
	if p.Phone != nil {
		updates["phone"] = *p.Phone
	}
	if p.CPFCNPJ != nil {
		updates["cpf_cnpj"] = *p.CPFCNPJ
	}
	if p.Profession != nil {
		updates["profession"] = *p.Profession
	}
	if p.CompanyName != nil {
		updates["company_name"] = *p.CompanyName
	}
	if p.ProfilePictureURL != nil {
		updates["profile_picture_url"] = *p.ProfilePictureURL
	}
	if p.SubscriptionPlan != nil {
		updates["subscription_plan"] = string(*p.SubscriptionPlan)
	}
	if p.SubscriptionStatus != nil {
		updates["subscription_status"] = string(*p.SubscriptionStatus)
	}
	if p.TrialEndDate != nil {
		updates["trial_end_date"] = *p.TrialEndDate
	}
	if p.BillingAddress != nil {
		updates["billing_address"] = jsonColumn(*p.BillingAddress)
	}
	if p.PaymentMethod != nil {
		updates["payment_method"] = jsonColumn(*p.PaymentMethod)
	}
	if p.Preferences != nil {
		updates["preferences"] = jsonColumn(*p.Preferences)
	}
	if p.SystemPreferences != nil {
		updates["system_preferences"] = jsonColumn(*p.SystemPreferences)
	}
	if p.TwoFactorEnabled != nil {
		updates["two_factor_enabled"] = *p.TwoFactorEnabled
	}
	if p.LastIP != nil {
		updates["last_ip"] = *p.LastIP
	}
	if p.LastDevice != nil {
		updates["last_device"] = *p.LastDevice
	}
	if p.LastLogin != nil {
		updates["last_login"] = *p.LastLogin
	}
	if p.Status != nil {
		updates["status"] = string(*p.Status)
	}
	if p.DeletedAt != nil {
		updates["deleted_at"] = *p.DeletedAt
	}
	if p.UpdatedAt != nil {
		updates["updated_at"] = *p.UpdatedAt
	}
	return updates
}

func jsonColumn(j null.JSON) *string {
	if !j.Valid || len(j.JSON) == 0 {
		return nil
	}
	s := string(j.JSON)
	return &s
}

func jsonField(s *string) null.JSON {
	if s == nil || *s == "" {
		return null.JSON{}
	}
	return null.JSONFrom([]byte(*s))
}

func toModel(a *entities.Account) *models.Account {
	return &models.Account{
		ID:                 a.ID,
		TenantID:           a.TenantID,
		Name:               a.Name,
		Email:              a.Email,
		CredentialHash:     a.CredentialHash,
		CPFCNPJ:            a.CPFCNPJ,
		Phone:              a.Phone,
		Profession:         a.Profession,
		CompanyName:        a.CompanyName,
		ProfilePictureURL:  a.ProfilePictureURL,
		SubscriptionPlan:   string(a.SubscriptionPlan),
		SubscriptionStatus: string(a.SubscriptionStatus),
		TrialEndDate:       a.TrialEndDate,
		BillingAddress:     jsonColumn(a.BillingAddress),
		PaymentMethod:      jsonColumn(a.PaymentMethod),
		Preferences:        jsonColumn(a.Preferences),
		SystemPreferences:  jsonColumn(a.SystemPreferences),
		Role:               string(a.Role),
		IsVerified:         a.IsVerified,
		TwoFactorEnabled:   a.TwoFactorEnabled,
		LastIP:             a.LastIP,
		LastDevice:         a.LastDevice,
		Status:             string(a.Status),
		DeletedAt:          a.DeletedAt,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
		LastLogin:          a.LastLogin,
	}
}

func toEntity(m *models.Account) *entities.Account {
	return &entities.Account{
		ID:                 m.ID,
		TenantID:           m.TenantID,
		Name:               m.Name,
		Email:              m.Email,
		CredentialHash:     m.CredentialHash,
		CPFCNPJ:            m.CPFCNPJ,
		Phone:              m.Phone,
		Profession:         m.Profession,
		CompanyName:        m.CompanyName,
		ProfilePictureURL:  m.ProfilePictureURL,
		SubscriptionPlan:   entities.SubscriptionPlan(m.SubscriptionPlan),
		SubscriptionStatus: entities.SubscriptionStatus(m.SubscriptionStatus),
		TrialEndDate:       m.TrialEndDate,
		BillingAddress:     jsonField(m.BillingAddress),
		PaymentMethod:      jsonField(m.PaymentMethod),
		Preferences:        jsonField(m.Preferences),
		SystemPreferences:  jsonField(m.SystemPreferences),
		Role:               entities.AccountRole(m.Role),
		IsVerified:         m.IsVerified,
		TwoFactorEnabled:   m.TwoFactorEnabled,
		LastIP:             m.LastIP,
		LastDevice:         m.LastDevice,
		Status:             entities.AccountStatus(m.Status),
		DeletedAt:          m.DeletedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		LastLogin:          m.LastLogin,
	}
}
