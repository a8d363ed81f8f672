package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// Account is the accounts table. DeletedAt is a plain column rather than
// gorm.DeletedAt so lookups by id still see soft-deleted rows.
type Account struct {
	ID                 uuid.UUID   `gorm:"type:uuid;primaryKey"`
	TenantID           null.String `gorm:"type:uuid;index"`
	Name               string      `gorm:"type:varchar(150);not null"`
	Email              string      `gorm:"type:varchar(150);uniqueIndex:idx_accounts_email;not null"`
	CredentialHash     string      `gorm:"column:password;type:varchar(255);not null"`
	CPFCNPJ            null.String `gorm:"column:cpf_cnpj;type:varchar(20);uniqueIndex:idx_accounts_cpf_cnpj"`
	Phone              null.String `gorm:"type:varchar(20)"`
	Profession         null.String `gorm:"type:varchar(100)"`
	CompanyName        null.String `gorm:"type:varchar(150)"`
	ProfilePictureURL  null.String `gorm:"column:profile_picture_url;type:text"`
	SubscriptionPlan   string      `gorm:"type:varchar(20);not null;default:'free'"`
	SubscriptionStatus string      `gorm:"type:varchar(20);not null;default:'trial';index"`
	TrialEndDate       null.Time
	BillingAddress     *string     `gorm:"type:jsonb"`
	PaymentMethod      *string     `gorm:"type:jsonb"`
	Preferences        *string     `gorm:"type:jsonb"`
	SystemPreferences  *string     `gorm:"type:jsonb"`
	Role               string      `gorm:"type:varchar(20);not null;default:'member'"`
	IsVerified         bool        `gorm:"not null;default:false"`
	TwoFactorEnabled   bool        `gorm:"not null;default:false"`
	LastIP             null.String `gorm:"column:last_ip;type:varchar(45)"`
	LastDevice         null.String `gorm:"type:varchar(100)"`
	Status             string      `gorm:"type:varchar(20);not null;default:'active'"`
	DeletedAt          null.Time   `gorm:"index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	LastLogin          null.Time
}

func (Account) TableName() string {
	return "accounts"
}
