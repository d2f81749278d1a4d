package service_test

import (
	"testing"

	"github.com/dukerupert/larder/internal/address"
	"github.com/dukerupert/larder/internal/domain"
	"github.com/dukerupert/larder/internal/events"
	"github.com/dukerupert/larder/internal/memstore"
	"github.com/dukerupert/larder/internal/pricing"
	"github.com/dukerupert/larder/internal/service"
	"github.com/dukerupert/larder/internal/telemetry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
// Fixture
// ============================================================================

type fixture struct {
	store    *memstore.Store
	events   *events.Recorder
	metrics  *telemetry.BusinessMetrics
	carts    service.CartService
	checkout service.CheckoutService
	orders   service.OrderService
	products service.ProductService

	sourdough domain.Product // 4.50, stock 20
	baguette  domain.Product // 1.50, stock 20
	hidden    domain.Product // unpublished
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, service.CheckoutConfig{})
}

func newFixtureWithConfig(t *testing.T, cfg service.CheckoutConfig) *fixture {
	t.Helper()

	store := memstore.New()
	recorder := events.NewRecorder()
	metrics := telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())
	engine := pricing.Default()

	f := &fixture{
		store:    store,
		events:   recorder,
		metrics:  metrics,
		carts:    service.NewCartService(store, engine, recorder, metrics),
		checkout: service.NewCheckoutService(store, engine, address.NewBasicValidator(), recorder, metrics, cfg),
		orders:   service.NewOrderService(store),
		products: service.NewProductService(store),
	}

	f.sourdough = store.AddProduct(domain.Product{Name: "Sourdough Loaf", Slug: "sourdough-loaf", PriceCents: 450, Stock: 20, Published: true})
	f.baguette = store.AddProduct(domain.Product{Name: "Baguette", Slug: "baguette", PriceCents: 150, Stock: 20, Published: true})
	f.hidden = store.AddProduct(domain.Product{Name: "Test Bake", Slug: "test-bake", PriceCents: 999, Stock: 1, Published: false})
	return f
}

func guest() domain.Identity { return domain.GuestIdentity(uuid.New()) }
func user() domain.Identity  { return domain.UserIdentity(uuid.New()) }

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
