package address

import "context"

// Validator defines the interface for address validation.
// Implementations can use external APIs; the storefront uses BasicValidator.
type Validator interface {
	// Validate checks if an address is complete and well formed.
	// Returns normalized address if validation succeeds.
	Validate(ctx context.Context, addr Address) (*ValidationResult, error)
}

// Address represents a shipping address as submitted at checkout.
type Address struct {
	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
	Street    string `validate:"required,max=200"`
	City      string `validate:"required,max=100"`
	State     string `validate:"required,max=100"`
	ZipCode   string `validate:"required,max=20"`
	Country   string `validate:"omitempty,max=100"`
	Phone     string `validate:"omitempty,max=40"`
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *Address
	Errors            []ValidationError
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}
