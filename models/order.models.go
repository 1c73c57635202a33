package models

import (
	"time"
)

// DefaultFulfillmentStatus is the fulfillment status of a freshly created order.
const DefaultFulfillmentStatus = "processing"

// OrderItem is a line item copied into the order at creation time.
// It never references the live catalog.
type OrderItem struct {
	ProductID   string `bson:"product_id" json:"productId"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	Price       int64  `bson:"price" json:"price"` // unit price, minor units
	Name        string `bson:"name" json:"name"`
	Category    string `bson:"category" json:"category"`
	ImageURL    string `bson:"image_url" json:"imageUrl"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Order represents a user's order
type Order struct {
	ID                   string        `bson:"_id" json:"id"`
	UserID               string        `bson:"user_id" json:"userId"`
	UserAddress          string        `bson:"user_address" json:"userAddress"`
	PhoneNumber          string        `bson:"phone_number" json:"phoneNumber"`
	Email                string        `bson:"email" json:"email"`
	OrderedItems         []OrderItem   `bson:"ordered_items" json:"orderedItems"`
	Amount               int64         `bson:"amount" json:"amount"` // minor units
	Currency             string        `bson:"currency" json:"currency"`
	PaymentStatus        PaymentStatus `bson:"payment_status" json:"paymentStatus"`
	GatewayStatus        string        `bson:"gateway_status,omitempty" json:"gatewayStatus,omitempty"`
	GatewaySessionID     string        `bson:"gateway_session_id,omitempty" json:"paymentOrderId,omitempty"`
	GatewayTransactionID string        `bson:"gateway_transaction_id,omitempty" json:"-"`
	OrderStatus          string        `bson:"order_status" json:"orderStatus"` // e.g. "processing", "shipped"
	IdempotencyKey       string        `bson:"idempotency_key,omitempty" json:"-"`
	CreatedAt            time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time     `bson:"updated_at" json:"updatedAt"`
}

// OrderRequest is what a client submits to place an order.
type OrderRequest struct {
	OrderedItems   []OrderItem `json:"orderedItems"`
	UserAddress    string      `json:"userAddress"`
	Amount         int64       `json:"amount"`
	PhoneNumber    string      `json:"phoneNumber"`
	Email          string      `json:"email"`
	IdempotencyKey string      `json:"-"`
}

// Clone returns a copy of the order that shares no slices with o.
func (o *Order) Clone() *Order {
	out := *o
	out.OrderedItems = append([]OrderItem(nil), o.OrderedItems...)
	return &out
}
