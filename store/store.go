// Package store persists carts and orders.
package store

import (
	"context"
	"errors"

	"go-eshop/models"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrVersionConflict  = errors.New("cart was modified concurrently")
	ErrStatusConflict   = errors.New("order payment status changed concurrently")
	ErrDuplicateSession = errors.New("gateway session id already assigned")
	ErrDuplicateKey     = errors.New("idempotency key already used")
)

// CartStore keeps one cart per user.
// Save is a compare-and-set on Cart.Version: a cart with Version 0 must not exist yet,
// otherwise the stored version must equal cart.Version. On success the stored and
// the passed cart carry the incremented version.
type CartStore interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID string) error
}

// OrderStore keeps orders keyed by id and by gateway session id.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, orderID string) (*models.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error)

	// AttachSession moves a CREATED order without a session to AWAITING_PAYMENT.
	// It returns ErrStatusConflict when the order is no longer in that state.
	AttachSession(ctx context.Context, orderID, sessionID, userID string) error

	// TransitionPayment sets the payment status to `to` only if it is currently `from`.
	TransitionPayment(ctx context.Context, orderID string, from, to models.PaymentStatus, gatewayStatus, transactionID string) error

	// RecordGatewayStatus stores the raw provider status on a non-terminal order.
	RecordGatewayStatus(ctx context.Context, orderID, gatewayStatus string) error

	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Delete(ctx context.Context, orderID string) error
}
