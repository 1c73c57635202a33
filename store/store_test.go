package store

import (
	"context"
	"testing"

	"go-eshop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(userID string) *models.Order {
	return &models.Order{
		UserID:        userID,
		Email:         "buyer@example.com",
		Amount:        1000,
		Currency:      "CZK",
		PaymentStatus: models.PaymentCreated,
		OrderStatus:   models.DefaultFulfillmentStatus,
		OrderedItems: []models.OrderItem{
			{ProductID: "p1", Quantity: 2, Price: 500, Name: "Lamp"},
		},
	}
}

func testCartStore(t *testing.T, s CartStore) {
	ctx := context.Background()

	t.Run("get missing cart", func(t *testing.T) {
		_, err := s.Get(ctx, "nobody")
		assert.ErrorIs(t, err, ErrCartNotFound)
	})

	t.Run("create then update with version", func(t *testing.T) {
		cart := models.NewCart("user-1")
		cart.Increment("p1")
		require.NoError(t, s.Save(ctx, cart))
		assert.Equal(t, int64(1), cart.Version)

		loaded, err := s.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.Quantity("p1"))

		loaded.Increment("p1")
		require.NoError(t, s.Save(ctx, loaded))
		assert.Equal(t, int64(2), loaded.Version)

		again, err := s.Get(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 2, again.Quantity("p1"))
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale, err := s.Get(ctx, "user-1")
		require.NoError(t, err)
		fresh, err := s.Get(ctx, "user-1")
		require.NoError(t, err)

		fresh.Increment("p2")
		require.NoError(t, s.Save(ctx, fresh))

		stale.Increment("p3")
		assert.ErrorIs(t, s.Save(ctx, stale), ErrVersionConflict)
	})

	t.Run("second create is rejected", func(t *testing.T) {
		dup := models.NewCart("user-1")
		dup.Increment("p9")
		assert.ErrorIs(t, s.Save(ctx, dup), ErrVersionConflict)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "user-1"))
		require.NoError(t, s.Delete(ctx, "user-1"))
		_, err := s.Get(ctx, "user-1")
		assert.ErrorIs(t, err, ErrCartNotFound)
	})
}

func testOrderStore(t *testing.T, s OrderStore) {
	ctx := context.Background()

	order := newTestOrder("user-1")
	require.NoError(t, s.Create(ctx, order))
	require.NotEmpty(t, order.ID)

	t.Run("lookup by id", func(t *testing.T) {
		got, err := s.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCreated, got.PaymentStatus)
		assert.Empty(t, got.GatewaySessionID)
		assert.Equal(t, int64(1000), got.Amount)
		assert.Equal(t, "Lamp", got.OrderedItems[0].Name)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := s.Get(ctx, "000000000000000000000000")
		assert.ErrorIs(t, err, ErrOrderNotFound)
		_, err = s.GetBySessionID(ctx, "sess-unknown")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("attach session once", func(t *testing.T) {
		require.NoError(t, s.AttachSession(ctx, order.ID, "sess-1", "user-1"))
		assert.ErrorIs(t, s.AttachSession(ctx, order.ID, "sess-2", "user-1"), ErrStatusConflict)

		got, err := s.GetBySessionID(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
		assert.Equal(t, models.PaymentAwaiting, got.PaymentStatus)
	})

	t.Run("session ids are unique", func(t *testing.T) {
		other := newTestOrder("user-2")
		require.NoError(t, s.Create(ctx, other))
		assert.ErrorIs(t, s.AttachSession(ctx, other.ID, "sess-1", "user-2"), ErrDuplicateSession)
	})

	t.Run("transition is compare and set", func(t *testing.T) {
		require.NoError(t, s.RecordGatewayStatus(ctx, order.ID, "AUTHORIZED"))
		require.NoError(t, s.TransitionPayment(ctx, order.ID, models.PaymentAwaiting, models.PaymentPaid, "PAID", "txn-1"))
		err := s.TransitionPayment(ctx, order.ID, models.PaymentAwaiting, models.PaymentFailed, "CANCELED", "txn-2")
		assert.ErrorIs(t, err, ErrStatusConflict)
		assert.ErrorIs(t, s.RecordGatewayStatus(ctx, order.ID, "CREATED"), ErrStatusConflict)

		got, err := s.Get(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
		assert.Equal(t, "txn-1", got.GatewayTransactionID)
	})

	t.Run("idempotency key", func(t *testing.T) {
		keyed := newTestOrder("user-3")
		keyed.IdempotencyKey = "key-1"
		require.NoError(t, s.Create(ctx, keyed))

		dup := newTestOrder("user-3")
		dup.IdempotencyKey = "key-1"
		assert.ErrorIs(t, s.Create(ctx, dup), ErrDuplicateKey)

		got, err := s.GetByIdempotencyKey(ctx, "user-3", "key-1")
		require.NoError(t, err)
		assert.Equal(t, keyed.ID, got.ID)
	})

	t.Run("fulfillment status and listing", func(t *testing.T) {
		require.NoError(t, s.UpdateOrderStatus(ctx, order.ID, "shipped"))
		assert.ErrorIs(t, s.UpdateOrderStatus(ctx, "000000000000000000000000", "shipped"), ErrOrderNotFound)

		mine, err := s.ListByUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, "shipped", mine[0].OrderStatus)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, order.ID))
		assert.ErrorIs(t, s.Delete(ctx, order.ID), ErrOrderNotFound)
	})
}

func TestMemoryCartStore(t *testing.T) {
	testCartStore(t, NewMemoryCartStore())
}

func TestMemoryOrderStore(t *testing.T) {
	testOrderStore(t, NewMemoryOrderStore())
}

func TestMemoryCartStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryCartStore()
	ctx := context.Background()

	cart := models.NewCart("user-1")
	cart.Increment("p1")
	require.NoError(t, s.Save(ctx, cart))

	loaded, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	loaded.Items["p1"] = 99

	again, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Quantity("p1"))
}
