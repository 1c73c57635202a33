package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		allowed  bool
	}{
		{PaymentCreated, PaymentAwaiting, true},
		{PaymentCreated, PaymentPaid, false},
		{PaymentAwaiting, PaymentPaid, true},
		{PaymentAwaiting, PaymentFailed, true},
		{PaymentAwaiting, PaymentCreated, false},
		{PaymentPaid, PaymentFailed, false},
		{PaymentPaid, PaymentAwaiting, false},
		{PaymentFailed, PaymentPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, PaymentPaid.IsTerminal())
	assert.True(t, PaymentFailed.IsTerminal())
	assert.False(t, PaymentCreated.IsTerminal())
	assert.False(t, PaymentAwaiting.IsTerminal())
	assert.False(t, PaymentStatus("REFUNDED").IsValid())
}

func TestPaymentStatusFromGateway(t *testing.T) {
	tests := map[string]PaymentStatus{
		"Paid":                  PaymentPaid,
		" PAID ":                PaymentPaid,
		"captured":              PaymentPaid,
		"CANCELED":              PaymentFailed,
		"TIMEOUTED":             PaymentFailed,
		"failed":                PaymentFailed,
		"PAYMENT_METHOD_CHOSEN": PaymentAwaiting,
		"created":               PaymentAwaiting,
	}
	for raw, want := range tests {
		got, ok := PaymentStatusFromGateway(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := PaymentStatusFromGateway("refunded-ish")
	assert.False(t, ok)
	_, ok = PaymentStatusFromGateway("")
	assert.False(t, ok)
}

func TestCart_IncrementDecrement(t *testing.T) {
	cart := NewCart("user-1")
	cart.Increment("p1")
	cart.Increment("p1")
	cart.Increment("p2")

	assert.Equal(t, 3, cart.TotalItems())
	assert.True(t, cart.Decrement("p1"))
	assert.Equal(t, 1, cart.Quantity("p1"))
	assert.True(t, cart.Decrement("p1"))
	_, present := cart.Items["p1"]
	assert.False(t, present)
	assert.False(t, cart.Decrement("p1"))

	assert.Equal(t, []CartItem{{ProductID: "p2", Quantity: 1}}, cart.Lines())
}

func TestCart_CloneIsDeep(t *testing.T) {
	cart := NewCart("user-1")
	cart.Increment("p1")

	clone := cart.Clone()
	clone.Increment("p1")

	assert.Equal(t, 1, cart.Quantity("p1"))
	assert.Equal(t, 2, clone.Quantity("p1"))
}

func TestOrder_CloneCopiesItems(t *testing.T) {
	order := &Order{ID: "o1", OrderedItems: []OrderItem{{ProductID: "p1", Quantity: 1}}}

	clone := order.Clone()
	clone.OrderedItems[0].Quantity = 5

	assert.Equal(t, 1, order.OrderedItems[0].Quantity)
}
