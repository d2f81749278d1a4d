package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order and payment status values.
const (
	OrderStatusPending   = "PENDING"
	PaymentStatusPending = "PENDING"

	DefaultPaymentMethod = "credit_card"
	DefaultCountry       = "USA"
)

var ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}

// Order is created once per successful checkout. Money fields are a snapshot
// taken inside the checkout transaction and never recomputed.
type Order struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	GuestEmail    string
	AddressID     uuid.UUID
	Address       Address
	Status        string
	PaymentStatus string
	PaymentMethod string
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
	CreatedAt     time.Time
	Items         []OrderItem
}

// OrderItem records the price paid at purchase time.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Quantity   int32
	PriceCents int64
}

// Address is a shipping address snapshot. Guest addresses have no UserID.
type Address struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	FirstName string
	LastName  string
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
	Phone     string
	CreatedAt time.Time
}
