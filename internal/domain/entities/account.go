package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SubscriptionPlan is the billing tier of an account
type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanBasic      SubscriptionPlan = "basic"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

// Valid reports whether p is a known plan
func (p SubscriptionPlan) Valid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

// SubscriptionStatus is the billing state of an account
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionCanceled  SubscriptionStatus = "canceled"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// Valid reports whether s is a known subscription status
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionTrial, SubscriptionCanceled, SubscriptionSuspended:
		return true
	}
	return false
}

// AccountRole is the role of an account inside its tenant
type AccountRole string

const (
	RoleOwner  AccountRole = "owner"
	RoleAdmin  AccountRole = "admin"
	RoleMember AccountRole = "member"
)

// AccountStatus gates authentication together with DeletedAt
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
	StatusBlocked   AccountStatus = "blocked"
)

// Valid reports whether s is a known account status
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusBlocked:
		return true
	}
	return false
}

// LifecycleState is the combined state of status and deleted_at
type LifecycleState int

const (
	StateActive LifecycleState = iota
	StateSuspended
	StateBlocked
	StateSoftDeleted
)

func (s LifecycleState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateBlocked:
		return "blocked"
	case StateSoftDeleted:
		return "soft_deleted"
	}
	return "unknown"
}

// TrialPeriod is the trial length granted at registration
const TrialPeriod = 30 * 24 * time.Hour

// DefaultPreferences is the preferences document stamped at registration
var DefaultPreferences = []byte(`{"language":"pt-BR","theme":"light","timezone":"America/Sao_Paulo","notifications":{"email":true,"sms":false,"whatsapp":false,"marketing":false}}`)

// Account represents a user account
type Account struct {
	ID                 uuid.UUID          `json:"id"`
	TenantID           null.String        `json:"tenantId"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	CredentialHash     string             `json:"-"`
	CPFCNPJ            null.String        `json:"cpfCnpj"`
	Phone              null.String        `json:"phone"`
	Profession         null.String        `json:"profession"`
	CompanyName        null.String        `json:"companyName"`
	ProfilePictureURL  null.String        `json:"profilePictureUrl"`
	SubscriptionPlan   SubscriptionPlan   `json:"subscriptionPlan"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndDate       null.Time          `json:"trialEndDate"`
	BillingAddress     null.JSON          `json:"billingAddress"`
	PaymentMethod      null.JSON          `json:"paymentMethod"`
	Preferences        null.JSON          `json:"preferences"`
	SystemPreferences  null.JSON          `json:"systemPreferences"`
	Role               AccountRole        `json:"role"`
	IsVerified         bool               `json:"isVerified"`
	TwoFactorEnabled   bool               `json:"twoFactorEnabled"`
	LastIP             null.String        `json:"lastIp"`
	LastDevice         null.String        `json:"lastDevice"`
	Status             AccountStatus      `json:"status"`
	DeletedAt          null.Time          `json:"deletedAt"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	LastLogin          null.Time          `json:"lastLogin"`
}

// State derives the lifecycle state. A set deleted_at wins over status.
func (a *Account) State() LifecycleState {
	if a.DeletedAt.Valid {
		return StateSoftDeleted
	}
	switch a.Status {
	case StatusActive:
		return StateActive
	case StatusSuspended:
		return StateSuspended
	default:
		return StateBlocked
	}
}

// IsAuthenticatable reports whether the account may log in or hold a session
func (a *Account) IsAuthenticatable() bool {
	return a != nil && a.State() == StateActive
}

// WithoutCredentials returns a copy safe to hand to callers
func (a *Account) WithoutCredentials() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.CredentialHash = ""
	return &out
}

// NewAccount builds an account with registration defaults
func NewAccount(id uuid.UUID, name, email, credentialHash string, now time.Time) *Account {
	return &Account{
		ID:                 id,
		Name:               name,
		Email:              email,
		CredentialHash:     credentialHash,
		SubscriptionPlan:   PlanFree,
		SubscriptionStatus: SubscriptionTrial,
		TrialEndDate:       null.TimeFrom(now.Add(TrialPeriod)),
		Preferences:        null.JSONFrom(append([]byte(nil), DefaultPreferences...)),
		Role:               RoleMember,
		Status:             StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
