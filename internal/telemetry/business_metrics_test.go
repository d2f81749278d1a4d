package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBusinessMetrics_Record(t *testing.T) {
	m := NewBusinessMetrics("test", prometheus.NewRegistry())

	m.CartCreated("guest")
	m.CartCreated("guest")
	m.CartCreateConflict()
	m.ItemsAdded("user", 3)
	m.CartMerged(true)
	m.CartMerged(false)
	m.CheckoutComplete("user", 2155, 3)
	m.CheckoutFail("empty_cart")
	m.JobRun("sweep_guest_carts", 0.01, errors.New("boom"))
	m.CartsSwept(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CartsCreated.WithLabelValues("guest")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartCreateConflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CartItemsAdded.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartMerges.WithLabelValues("merged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartMerges.WithLabelValues("noop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutCompleted.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutFailed.WithLabelValues("empty_cart")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsFailed.WithLabelValues("sweep_guest_carts")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.GuestCartsSwept))
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics

	assert.NotPanics(t, func() {
		m.CartCreated("guest")
		m.CartCreateConflict()
		m.ItemsAdded("guest", 1)
		m.ItemRemoved("guest")
		m.CartCleared("guest")
		m.CartMerged(true)
		m.CheckoutStart("guest")
		m.CheckoutComplete("guest", 100, 1)
		m.CheckoutFail("error")
		m.JobRun("job", 1, nil)
		m.CartsSwept(1)
	})
}
