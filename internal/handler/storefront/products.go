package storefront

import (
	"net/http"

	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/service"
	"github.com/google/uuid"
)

// ProductHandler serves the published catalog.
type ProductHandler struct {
	products service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles GET /api/products?categoryId=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter domain.ProductFilter
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			handler.ErrorResponse(w, r, domain.NewValidationError("product.list", "categoryId", "must be a valid id"))
			return
		}
		filter.CategoryID = &id
	}

	products, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = newProductResponse(p)
	}
	handler.WriteJSON(w, r, http.StatusOK, map[string]any{"products": resp})
}

// Detail handles GET /api/products/{slug}
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProductDetail(r.Context(), r.PathValue("slug"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.WriteJSON(w, r, http.StatusOK, newProductResponse(*product))
}
