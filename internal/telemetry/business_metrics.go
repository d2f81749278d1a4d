package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for cart and checkout observability.
// Cart metrics carry an identity_kind label ("user" or "guest").
// All Record methods are safe to call on a nil receiver.
type BusinessMetrics struct {
	// Cart
	CartsCreated        *prometheus.CounterVec
	CartCreateConflicts prometheus.Counter
	CartItemsAdded      *prometheus.CounterVec
	CartItemsRemoved    *prometheus.CounterVec
	CartsCleared        *prometheus.CounterVec
	CartMerges          *prometheus.CounterVec

	// Checkout funnel
	CheckoutStarted   *prometheus.CounterVec
	CheckoutCompleted *prometheus.CounterVec
	CheckoutFailed    *prometheus.CounterVec

	// Orders
	OrderValue     *prometheus.HistogramVec
	OrderItemCount *prometheus.HistogramVec

	// Background jobs
	JobsProcessed   *prometheus.CounterVec
	JobsFailed      *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	GuestCartsSwept prometheus.Counter
}

// NewBusinessMetrics creates the metrics and registers them with reg.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "larder"
	}

	subsystem := "business"
	factory := promauto.With(reg)

	m := &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carts_created_total",
				Help:      "Total carts created",
			},
			[]string{"identity_kind"},
		),
		CartCreateConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_create_conflicts_total",
				Help:      "Concurrent cart creations resolved by re-fetching the existing cart",
			},
		),
		CartItemsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total units added to carts",
			},
			[]string{"identity_kind"},
		),
		CartItemsRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_removed_total",
				Help:      "Total cart lines removed",
			},
			[]string{"identity_kind"},
		),
		CartsCleared: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carts_cleared_total",
				Help:      "Total cart clear operations",
			},
			[]string{"identity_kind"},
		),
		CartMerges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_merges_total",
				Help:      "Guest cart merges at sign-in",
			},
			[]string{"outcome"}, // merged, noop
		),

		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkout attempts",
			},
			[]string{"identity_kind"},
		),
		CheckoutCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_completed_total",
				Help:      "Total successful checkouts",
			},
			[]string{"identity_kind"},
		),
		CheckoutFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_failed_total",
				Help:      "Total rejected or failed checkouts",
			},
			[]string{"reason"}, // empty_cart, validation, stock, error
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_dollars",
				Help:      "Order total in dollars",
				Buckets:   []float64{5, 10, 25, 50, 75, 100, 150, 250, 500},
			},
			[]string{"identity_kind"},
		),
		OrderItemCount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
			[]string{"identity_kind"},
		),

		// =======================================================================
		// Background Jobs
		// =======================================================================
		JobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_processed_total",
				Help:      "Total background job runs",
			},
			[]string{"job"},
		),
		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_failed_total",
				Help:      "Total failed background job runs",
			},
			[]string{"job"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_duration_seconds",
				Help:      "Background job duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
		GuestCartsSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "guest_carts_swept_total",
				Help:      "Abandoned guest carts deleted by the sweeper",
			},
		),
	}

	return m
}

// Global instance for easy access from main
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance on the default registry.
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, prometheus.DefaultRegisterer)
	return Business
}

// =============================================================================
// Recording helpers
// =============================================================================

func (m *BusinessMetrics) CartCreated(kind string) {
	if m == nil {
		return
	}
	m.CartsCreated.WithLabelValues(kind).Inc()
}

func (m *BusinessMetrics) CartCreateConflict() {
	if m == nil {
		return
	}
	m.CartCreateConflicts.Inc()
}

func (m *BusinessMetrics) ItemsAdded(kind string, quantity int) {
	if m == nil {
		return
	}
	m.CartItemsAdded.WithLabelValues(kind).Add(float64(quantity))
}

func (m *BusinessMetrics) ItemRemoved(kind string) {
	if m == nil {
		return
	}
	m.CartItemsRemoved.WithLabelValues(kind).Inc()
}

func (m *BusinessMetrics) CartCleared(kind string) {
	if m == nil {
		return
	}
	m.CartsCleared.WithLabelValues(kind).Inc()
}

func (m *BusinessMetrics) CartMerged(merged bool) {
	if m == nil {
		return
	}
	outcome := "noop"
	if merged {
		outcome = "merged"
	}
	m.CartMerges.WithLabelValues(outcome).Inc()
}

func (m *BusinessMetrics) CheckoutStart(kind string) {
	if m == nil {
		return
	}
	m.CheckoutStarted.WithLabelValues(kind).Inc()
}

// CheckoutComplete records a placed order.
func (m *BusinessMetrics) CheckoutComplete(kind string, totalCents int64, itemCount int) {
	if m == nil {
		return
	}
	m.CheckoutCompleted.WithLabelValues(kind).Inc()
	m.OrderValue.WithLabelValues(kind).Observe(float64(totalCents) / 100)
	m.OrderItemCount.WithLabelValues(kind).Observe(float64(itemCount))
}

func (m *BusinessMetrics) CheckoutFail(reason string) {
	if m == nil {
		return
	}
	m.CheckoutFailed.WithLabelValues(reason).Inc()
}

// JobRun records one background job execution.
func (m *BusinessMetrics) JobRun(job string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(job).Inc()
	m.JobDuration.WithLabelValues(job).Observe(seconds)
	if err != nil {
		m.JobsFailed.WithLabelValues(job).Inc()
	}
}

func (m *BusinessMetrics) CartsSwept(n int64) {
	if m == nil {
		return
	}
	m.GuestCartsSwept.Add(float64(n))
}
