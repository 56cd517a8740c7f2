package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	number := NewOrderNumber(now)

	require.Regexp(t, regexp.MustCompile(`^GTS-2503-\d{4}$`), number)
}

func TestShippingCostFor(t *testing.T) {
	assert.Equal(t, 50.0, ShippingCostFor(DeliveryExpress))
	assert.Equal(t, 0.0, ShippingCostFor(DeliveryPickup))
	assert.Equal(t, 20.0, ShippingCostFor(DeliveryStandard))
	assert.Equal(t, 20.0, ShippingCostFor("unknown"))
}

func TestEstimatedDeliveryFor(t *testing.T) {
	from := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, from.Add(2*24*time.Hour), EstimatedDeliveryFor(DeliveryExpress, from))
	assert.Equal(t, from.Add(5*24*time.Hour), EstimatedDeliveryFor(DeliveryStandard, from))
	assert.Equal(t, from.Add(5*24*time.Hour), EstimatedDeliveryFor(DeliveryPickup, from))
}

func TestCanCancel(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{OrderPending, true},
		{OrderConfirmed, true},
		{OrderProcessing, false},
		{OrderShipped, false},
		{OrderDelivered, false},
		{OrderCancelled, false},
	}

	for _, tc := range cases {
		order := Order{Status: tc.status}
		assert.Equal(t, tc.want, order.CanCancel(), "status %s", tc.status)
	}
}

func TestValidOrderStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderShipped))
	assert.False(t, ValidOrderStatus("returned"))
	assert.False(t, ValidOrderStatus(""))
}

func TestValidDeliveryMethod(t *testing.T) {
	assert.True(t, ValidDeliveryMethod(DeliveryPickup))
	assert.False(t, ValidDeliveryMethod("drone"))
}
