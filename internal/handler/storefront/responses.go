package storefront

import (
	"strconv"
	"time"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/pricing"
	"github.com/dukerupert/larder/internal/service"
	"github.com/google/uuid"
)

// Money renders integer cents as a fixed two-decimal JSON string, e.g. "21.55".
type Money int64

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(pricing.FormatCents(int64(m)))), nil
}

// ============================================================================
// Cart
// ============================================================================

type cartResponse struct {
	ID        uuid.UUID          `json:"id"`
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"itemCount"`
	Subtotal  Money              `json:"subtotal"`
	Tax       Money              `json:"tax"`
	Shipping  Money              `json:"shipping"`
	Total     Money              `json:"total"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type cartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int32           `json:"quantity"`
	LineTotal Money           `json:"lineTotal"`
	Product   productSnapshot `json:"product"`
}

type productSnapshot struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"imageUrl,omitempty"`
	Price    Money  `json:"price"`
	Stock    int32  `json:"stock"`
	InStock  bool   `json:"inStock"`
}

func newCartResponse(s *service.CartSummary) cartResponse {
	resp := cartResponse{
		ID:        s.Cart.ID,
		Items:     make([]cartItemResponse, len(s.Cart.Items)),
		ItemCount: s.Totals.ItemCount,
		Subtotal:  Money(s.Totals.SubtotalCents),
		Tax:       Money(s.Totals.TaxCents),
		Shipping:  Money(s.Totals.ShippingCents),
		Total:     Money(s.Totals.TotalCents),
		UpdatedAt: s.Cart.UpdatedAt,
	}
	for i, it := range s.Cart.Items {
		resp.Items[i] = newCartItemResponse(it)
	}
	return resp
}

func newCartItemResponse(it domain.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:        it.ID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		LineTotal: Money(it.LineTotalCents()),
		Product: productSnapshot{
			Name:     it.Product.Name,
			Slug:     it.Product.Slug,
			ImageURL: it.Product.ImageURL,
			Price:    Money(it.Product.PriceCents),
			Stock:    it.Product.Stock,
			InStock:  it.Product.Stock >= it.Quantity,
		},
	}
}

// ============================================================================
// Orders
// ============================================================================

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	PaymentMethod   string              `json:"paymentMethod"`
	GuestEmail      string              `json:"guestEmail,omitempty"`
	Subtotal        Money               `json:"subtotal"`
	Tax             Money               `json:"tax"`
	ShippingCost    Money               `json:"shippingCost"`
	Total           Money               `json:"total"`
	ShippingAddress addressResponse     `json:"shippingAddress"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
}

type orderItemResponse struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int32     `json:"quantity"`
	Price     Money     `json:"price"`
}

type addressResponse struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		GuestEmail:    o.GuestEmail,
		Subtotal:      Money(o.SubtotalCents),
		Tax:           Money(o.TaxCents),
		ShippingCost:  Money(o.ShippingCents),
		Total:         Money(o.TotalCents),
		ShippingAddress: addressResponse{
			FirstName: o.Address.FirstName,
			LastName:  o.Address.LastName,
			Street:    o.Address.Street,
			City:      o.Address.City,
			State:     o.Address.State,
			ZipCode:   o.Address.ZipCode,
			Country:   o.Address.Country,
			Phone:     o.Address.Phone,
		},
		Items:     make([]orderItemResponse, len(o.Items)),
		CreatedAt: o.CreatedAt,
	}
	for i, it := range o.Items {
		resp.Items[i] = orderItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     Money(it.PriceCents),
		}
	}
	return resp
}

// ============================================================================
// Products
// ============================================================================

type productResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	CategoryID  *uuid.UUID `json:"categoryId,omitempty"`
	Price       Money      `json:"price"`
	Stock       int32      `json:"stock"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func newProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CategoryID:  p.CategoryID,
		Price:       Money(p.PriceCents),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}
