package address_test

import (
	"context"
	"testing"

	"github.com/dukerupert/larder/internal/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() address.Address {
	return address.Address{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Street:    "12 Analytical Way",
		City:      "Portland",
		State:     "ME",
		ZipCode:   "04101",
	}
}

func TestBasicValidator_Valid(t *testing.T) {
	v := address.NewBasicValidator()

	addr := validAddress()
	addr.City = "  Portland "

	result, err := v.Validate(context.Background(), addr)

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.NormalizedAddress)
	assert.Equal(t, "Portland", result.NormalizedAddress.City)
	assert.Equal(t, "USA", result.NormalizedAddress.Country, "blank country defaults to USA")
}

func TestBasicValidator_KeepsExplicitCountry(t *testing.T) {
	addr := validAddress()
	addr.Country = "Canada"

	result, err := address.NewBasicValidator().Validate(context.Background(), addr)

	require.NoError(t, err)
	assert.Equal(t, "Canada", result.NormalizedAddress.Country)
}

func TestBasicValidator_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *address.Address)
		field  string
	}{
		{name: "first name", mutate: func(a *address.Address) { a.FirstName = "" }, field: "firstName"},
		{name: "last name", mutate: func(a *address.Address) { a.LastName = " " }, field: "lastName"},
		{name: "street", mutate: func(a *address.Address) { a.Street = "" }, field: "street"},
		{name: "city", mutate: func(a *address.Address) { a.City = "" }, field: "city"},
		{name: "state", mutate: func(a *address.Address) { a.State = "" }, field: "state"},
		{name: "zip code", mutate: func(a *address.Address) { a.ZipCode = "" }, field: "zipCode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := validAddress()
			tt.mutate(&addr)

			result, err := address.NewBasicValidator().Validate(context.Background(), addr)

			require.NoError(t, err)
			assert.False(t, result.IsValid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, tt.field, result.Errors[0].Field)
			assert.Equal(t, tt.field+" is required", result.Errors[0].Message)
		})
	}
}

func TestBasicValidator_MultipleErrors(t *testing.T) {
	result, err := address.NewBasicValidator().Validate(context.Background(), address.Address{})

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 6)
}

func TestMockValidator_Default(t *testing.T) {
	var _ address.Validator = address.NewMockValidator()

	result, err := address.NewMockValidator().Validate(context.Background(), validAddress())

	require.NoError(t, err)
	assert.True(t, result.IsValid)
}
