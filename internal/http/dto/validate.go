package dto

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var (
	rawAddressRe = regexp.MustCompile(`^-?\d+:[0-9a-fA-F]{64}$`)
	amountRe     = regexp.MustCompile(`^-?\d{1,39}$`)
)

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("ton_address", validateTonAddress)
	_ = validate.RegisterValidation("amount", validateAmount)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateTonAddress accepts the raw form "workchain:hash", e.g. "0:abc...".
func validateTonAddress(fl validator.FieldLevel) bool {
	return rawAddressRe.MatchString(fl.Field().String())
}

// validateAmount accepts a decimal integer string. Sign checks stay in the
// services, which own the invalid-amount rule.
func validateAmount(fl validator.FieldLevel) bool {
	return amountRe.MatchString(fl.Field().String())
}

// ValidationMessage renders the first failed field into an error string for
// the response body.
func ValidationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "invalid request"
	}

	e := errs[0]
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param() + " characters"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "ton_address":
		return field + " must be a raw TON address (workchain:hash)"
	case "amount":
		return field + " must be a decimal integer string"
	case "hexadecimal":
		return field + " must be hex-encoded"
	case "len":
		return field + " must be exactly " + e.Param() + " characters"
	default:
		return field + " is invalid"
	}
}
