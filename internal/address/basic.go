package address

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DefaultCountry is applied when the shopper leaves country blank.
const DefaultCountry = "USA"

// BasicValidator performs format validation without external API calls.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() *BasicValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := []rune(fld.Name)
		name[0] = unicode.ToLower(name[0])
		return string(name)
	})
	return &BasicValidator{validate: v}
}

// Validate trims every field, applies the default country and checks required fields.
func (v *BasicValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	normalized := Normalize(addr)

	err := v.validate.StructCtx(ctx, normalized)
	if err == nil {
		return &ValidationResult{IsValid: true, NormalizedAddress: &normalized}, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	result := &ValidationResult{NormalizedAddress: &normalized}
	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return result, nil
}

// Normalize trims whitespace and defaults the country.
func Normalize(addr Address) Address {
	out := Address{
		FirstName: strings.TrimSpace(addr.FirstName),
		LastName:  strings.TrimSpace(addr.LastName),
		Street:    strings.TrimSpace(addr.Street),
		City:      strings.TrimSpace(addr.City),
		State:     strings.TrimSpace(addr.State),
		ZipCode:   strings.TrimSpace(addr.ZipCode),
		Country:   strings.TrimSpace(addr.Country),
		Phone:     strings.TrimSpace(addr.Phone),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}
