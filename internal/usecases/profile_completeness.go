package usecases

import (
	"bytes"

	"github.com/volatiletech/null/v8"

	"accounts.backend/internal/domain/entities"
)

var (
	requiredProfileFields = []string{"name", "email", "phone", "cpf_cnpj", "profession"}
	optionalProfileFields = []string{"company_name", "profile_picture_url", "billing_address", "payment_method", "preferences", "system_preferences"}
)

// ScoreProfile scores how complete an account profile is.
// The percentage is rounded half-up on the exact ratio.
func ScoreProfile(a *entities.Account) entities.ProfileCompleteness {
	present := profileFieldPresence(a)

	score := entities.ProfileCompleteness{
		TotalRequired:   len(requiredProfileFields),
		TotalOptional:   len(optionalProfileFields),
		MissingRequired: []string{},
		MissingOptional: []string{},
	}
	for _, f := range requiredProfileFields {
		if present[f] {
			score.CompletedRequired++
		} else {
			score.MissingRequired = append(score.MissingRequired, f)
		}
	}
	for _, f := range optionalProfileFields {
		if present[f] {
			score.CompletedOptional++
		} else {
			score.MissingOptional = append(score.MissingOptional, f)
		}
	}

	done := score.CompletedRequired + score.CompletedOptional
	total := score.TotalRequired + score.TotalOptional
	score.Percentage = roundHalfUpPercent(done, total)
	return score
}

// roundHalfUpPercent computes round(100*done/total) in integers
func roundHalfUpPercent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}

func profileFieldPresence(a *entities.Account) map[string]bool {
	if a == nil {
		return map[string]bool{}
	}
	return map[string]bool{
		"name":                a.Name != "",
		"email":               a.Email != "",
		"phone":               hasText(a.Phone),
		"cpf_cnpj":            hasText(a.CPFCNPJ),
		"profession":          hasText(a.Profession),
		"company_name":        hasText(a.CompanyName),
		"profile_picture_url": hasText(a.ProfilePictureURL),
		"billing_address":     hasDocument(a.BillingAddress),
		"payment_method":      hasDocument(a.PaymentMethod),
		"preferences":         hasDocument(a.Preferences),
		"system_preferences":  hasDocument(a.SystemPreferences),
	}
}

func hasText(s null.String) bool {
	return s.Valid && s.String != ""
}

func hasDocument(j null.JSON) bool {
	if !j.Valid {
		return false
	}
	doc := bytes.TrimSpace(j.JSON)
	switch string(doc) {
	case "", "null", "{}", "[]", `""`:
		return false
	}
	// "{ }" and similar whitespace-only containers
	if len(doc) >= 2 && (doc[0] == '{' || doc[0] == '[') {
		inner := bytes.TrimSpace(doc[1 : len(doc)-1])
		if len(inner) == 0 {
			return false
		}
	}
	return true
}
