package handlers

import (
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^\+?[\d\s\-\(\)]+$`)
	cpfCNPJPattern = regexp.MustCompile(`^\d{11}$|^\d{14}$`)
	zipCodePattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

	registerValidatorsOnce sync.Once
)

// RegisterValidators configures gin's binding validator: JSON names in
// errors and the account-specific tags. Safe to call more than once.
func RegisterValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("phone", matchOrEmpty(phonePattern))
		_ = v.RegisterValidation("cpfcnpj", matchOrEmpty(cpfCNPJPattern))
		_ = v.RegisterValidation("zipcode", matchOrEmpty(zipCodePattern))
	})
}

// matchOrEmpty accepts the empty string, which clears an optional field
func matchOrEmpty(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || re.MatchString(s)
	}
}

// bindingDetails converts binding errors into a map[field]message for the response
func bindingDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = fieldMessage(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func fieldMessage(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + param + " characters long"
	case "max":
		return "must be at most " + param + " characters long"
	case "len":
		return "must be exactly " + param + " characters long"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "phone":
		return "must be a valid phone number"
	case "cpfcnpj":
		return "must have 11 (CPF) or 14 (CNPJ) digits"
	case "zipcode":
		return "must be a valid CEP"
	default:
		return "failed on " + fe.Tag()
	}
}
