package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// RegisterInput represents input for creating an account
type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=150"`
	Email    string `json:"email" binding:"required,email,max=150"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginInput represents input for login. IP and Device are filled by the transport.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
	Device   string `json:"-"`
}

// AuthResult is what register and login hand back to the transport
type AuthResult struct {
	Account   *Account  `json:"user"`
	Token     string    `json:"accessToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UpdateProfileInput is a partial profile update. Nil fields are left untouched.
// Documents are opaque; their shape is validated by the transport.
type UpdateProfileInput struct {
	TenantID          *string
	Name              *string
	Email             *string
	Phone             *string
	CPFCNPJ           *string
	Profession        *string
	CompanyName       *string
	ProfilePictureURL *string
	BillingAddress    *null.JSON
	PaymentMethod     *null.JSON
	Preferences       *null.JSON
	SystemPreferences *null.JSON
	TwoFactorEnabled  *bool
}

// IsEmpty reports whether the input changes nothing
func (in UpdateProfileInput) IsEmpty() bool {
	return in.TenantID == nil && in.Name == nil && in.Email == nil && in.Phone == nil &&
		in.CPFCNPJ == nil && in.Profession == nil && in.CompanyName == nil &&
		in.ProfilePictureURL == nil && in.BillingAddress == nil && in.PaymentMethod == nil &&
		in.Preferences == nil && in.SystemPreferences == nil && in.TwoFactorEnabled == nil
}

// UpdateSubscriptionInput changes the billing tier
type UpdateSubscriptionInput struct {
	Plan         SubscriptionPlan
	Status       *SubscriptionStatus
	TrialEndDate *null.Time
}

// AccountPatch is the store-level partial update. It has no credential field,
// so a password hash can never be written through it.
type AccountPatch struct {
	TenantID           *null.String
	Name               *string
	Email              *string
	Phone              *null.String
	CPFCNPJ            *null.String
	Profession         *null.String
	CompanyName        *null.String
	ProfilePictureURL  *null.String
	SubscriptionPlan   *SubscriptionPlan
	SubscriptionStatus *SubscriptionStatus
	TrialEndDate       *null.Time
	BillingAddress     *null.JSON
	PaymentMethod      *null.JSON
	Preferences        *null.JSON
	SystemPreferences  *null.JSON
	TwoFactorEnabled   *bool
	LastIP             *null.String
	LastDevice         *null.String
	LastLogin          *null.Time
	Status             *AccountStatus
	DeletedAt          *null.Time
	UpdatedAt          *time.Time
}

// ListFilter narrows an account listing
type ListFilter struct {
	Search         string
	IncludeDeleted bool
	Page           int
	Limit          int
}

// ProfileCompleteness is the completeness score of an account profile
type ProfileCompleteness struct {
	Percentage        int      `json:"percentage"`
	CompletedRequired int      `json:"completedRequired"`
	TotalRequired     int      `json:"totalRequired"`
	CompletedOptional int      `json:"completedOptional"`
	TotalOptional     int      `json:"totalOptional"`
	MissingRequired   []string `json:"missingRequired"`
	MissingOptional   []string `json:"missingOptional"`
}
