package handlers

import (
	"time"

	"github.com/volatiletech/null/v8"

	"accounts.backend/internal/domain/entities"
)

// profileUpdate is a bound request body that converts into a profile update
type profileUpdate interface {
	toInput() (*entities.UpdateProfileInput, error)
}

type billingAddress struct {
	Street       string `json:"street" binding:"required,max=200"`
	Number       string `json:"number" binding:"required,max=20"`
	Complement   string `json:"complement,omitempty" binding:"max=100"`
	Neighborhood string `json:"neighborhood" binding:"required,max=100"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"required,max=50"`
	ZipCode      string `json:"zip_code" binding:"required,zipcode"`
	Country      string `json:"country" binding:"required,max=60"`
}

type paymentMethod struct {
	Type         string `json:"type" binding:"required,oneof=credit_card pix boleto"`
	CardLastFour string `json:"card_last_four,omitempty" binding:"omitempty,len=4,numeric"`
	CardBrand    string `json:"card_brand,omitempty" binding:"max=30"`
	PixKey       string `json:"pix_key,omitempty" binding:"max=140"`
	BankAccount  string `json:"bank_account,omitempty" binding:"max=60"`
}

type notificationPreferences struct {
	Email     bool `json:"email"`
	SMS       bool `json:"sms"`
	WhatsApp  bool `json:"whatsapp"`
	Marketing bool `json:"marketing"`
}

type preferences struct {
	Language      string                  `json:"language" binding:"required,max=10"`
	Theme         string                  `json:"theme" binding:"required,oneof=light dark auto"`
	Timezone      string                  `json:"timezone" binding:"required,max=64"`
	Notifications notificationPreferences `json:"notifications"`
}

type systemPreferences struct {
	Contracts struct {
		AutoGenerate      bool   `json:"auto_generate"`
		DefaultTemplate   string `json:"default_template"`
		SignatureRequired bool   `json:"signature_required"`
	} `json:"contracts"`
	Fiscal struct {
		AutoCalculateTax bool    `json:"auto_calculate_tax"`
		DefaultTaxRate   float64 `json:"default_tax_rate" binding:"gte=0,lte=100"`
		InvoiceNumbering string  `json:"invoice_numbering"`
	} `json:"fiscal"`
	Integrations struct {
		AccountingSoftware string `json:"accounting_software,omitempty"`
		CRMSystem          string `json:"crm_system,omitempty"`
		EmailProvider      string `json:"email_provider,omitempty"`
	} `json:"integrations"`
}

// updateProfileRequest is the full profile update. Status, role and
// verification are not accepted here.
type updateProfileRequest struct {
	TenantID          *string            `json:"tenantId" binding:"omitempty,uuid"`
	Name              *string            `json:"name" binding:"omitempty,max=150"`
	Email             *string            `json:"email" binding:"omitempty,email,max=150"`
	Phone             *string            `json:"phone" binding:"omitempty,max=20,phone"`
	CPFCNPJ           *string            `json:"cpfCnpj" binding:"omitempty,max=20,cpfcnpj"`
	Profession        *string            `json:"profession" binding:"omitempty,max=100"`
	CompanyName       *string            `json:"companyName" binding:"omitempty,max=150"`
	ProfilePictureURL *string            `json:"profilePictureUrl" binding:"omitempty,max=500"`
	BillingAddress    *billingAddress    `json:"billingAddress"`
	PaymentMethod     *paymentMethod     `json:"paymentMethod"`
	Preferences       *preferences       `json:"preferences"`
	SystemPreferences *systemPreferences `json:"systemPreferences"`
	TwoFactorEnabled  *bool              `json:"twoFactorEnabled"`
}

func (r *updateProfileRequest) toInput() (*entities.UpdateProfileInput, error) {
	in := &entities.UpdateProfileInput{
		TenantID:          r.TenantID,
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		CPFCNPJ:           r.CPFCNPJ,
		Profession:        r.Profession,
		CompanyName:       r.CompanyName,
		ProfilePictureURL: r.ProfilePictureURL,
		TwoFactorEnabled:  r.TwoFactorEnabled,
	}

	var err error
	if in.BillingAddress, err = toDocument(r.BillingAddress); err != nil {
		return nil, err
	}
	if in.PaymentMethod, err = toDocument(r.PaymentMethod); err != nil {
		return nil, err
	}
	if in.Preferences, err = toDocument(r.Preferences); err != nil {
		return nil, err
	}
	if in.SystemPreferences, err = toDocument(r.SystemPreferences); err != nil {
		return nil, err
	}
	return in, nil
}

type personalInfoRequest struct {
	Phone             *string `json:"phone" binding:"omitempty,max=20,phone"`
	CPFCNPJ           *string `json:"cpfCnpj" binding:"omitempty,max=20,cpfcnpj"`
	Profession        *string `json:"profession" binding:"omitempty,max=100"`
	CompanyName       *string `json:"companyName" binding:"omitempty,max=150"`
	ProfilePictureURL *string `json:"profilePictureUrl" binding:"omitempty,max=500"`
}

func (r *personalInfoRequest) toInput() (*entities.UpdateProfileInput, error) {
	return &entities.UpdateProfileInput{
		Phone:             r.Phone,
		CPFCNPJ:           r.CPFCNPJ,
		Profession:        r.Profession,
		CompanyName:       r.CompanyName,
		ProfilePictureURL: r.ProfilePictureURL,
	}, nil
}

type addressRequest struct {
	BillingAddress *billingAddress `json:"billingAddress"`
}

func (r *addressRequest) toInput() (*entities.UpdateProfileInput, error) {
	doc, err := toDocument(r.BillingAddress)
	if err != nil {
		return nil, err
	}
	return &entities.UpdateProfileInput{BillingAddress: doc}, nil
}

type preferencesRequest struct {
	Preferences       *preferences       `json:"preferences"`
	SystemPreferences *systemPreferences `json:"systemPreferences"`
}

func (r *preferencesRequest) toInput() (*entities.UpdateProfileInput, error) {
	prefs, err := toDocument(r.Preferences)
	if err != nil {
		return nil, err
	}
	system, err := toDocument(r.SystemPreferences)
	if err != nil {
		return nil, err
	}
	return &entities.UpdateProfileInput{Preferences: prefs, SystemPreferences: system}, nil
}

type paymentRequest struct {
	PaymentMethod *paymentMethod `json:"paymentMethod"`
}

func (r *paymentRequest) toInput() (*entities.UpdateProfileInput, error) {
	doc, err := toDocument(r.PaymentMethod)
	if err != nil {
		return nil, err
	}
	return &entities.UpdateProfileInput{PaymentMethod: doc}, nil
}

type updateSubscriptionRequest struct {
	Plan         string     `json:"subscriptionPlan" binding:"required,oneof=free basic pro enterprise"`
	Status       *string    `json:"subscriptionStatus" binding:"omitempty,oneof=active trial canceled suspended"`
	TrialEndDate *time.Time `json:"trialEndDate"`
	ClearTrial   bool       `json:"clearTrialEndDate"`
}

func (r *updateSubscriptionRequest) toInput() *entities.UpdateSubscriptionInput {
	in := &entities.UpdateSubscriptionInput{Plan: entities.SubscriptionPlan(r.Plan)}
	if r.Status != nil {
		s := entities.SubscriptionStatus(*r.Status)
		in.Status = &s
	}
	switch {
	case r.ClearTrial:
		cleared := null.Time{}
		in.TrialEndDate = &cleared
	case r.TrialEndDate != nil:
		v := null.TimeFrom(r.TrialEndDate.UTC())
		in.TrialEndDate = &v
	}
	return in
}
