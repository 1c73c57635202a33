package models

import (
	"sort"
	"time"
)

// CartItem is one line of a cart as it is returned to clients.
type CartItem struct {
	ProductID string `bson:"product_id" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// Cart represents a user's shopping cart.
// Items maps product id to a quantity that is always at least 1.
type Cart struct {
	UserID    string         `json:"userId"`
	Items     map[string]int `json:"items"`
	Version   int64          `json:"-"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// NewCart returns an empty, unpersisted cart for userID.
func NewCart(userID string) *Cart {
	return &Cart{
		UserID: userID,
		Items:  map[string]int{},
	}
}

// Increment adds one unit of productID.
func (c *Cart) Increment(productID string) {
	if c.Items == nil {
		c.Items = map[string]int{}
	}
	c.Items[productID]++
}

// Decrement removes one unit of productID, dropping the key when it reaches zero.
// It reports whether the cart changed.
func (c *Cart) Decrement(productID string) bool {
	qty, ok := c.Items[productID]
	if !ok {
		return false
	}
	if qty <= 1 {
		delete(c.Items, productID)
	} else {
		c.Items[productID] = qty - 1
	}
	return true
}

// Quantity returns the quantity of productID, 0 when absent.
func (c *Cart) Quantity(productID string) int {
	return c.Items[productID]
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalItems sums all quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, qty := range c.Items {
		total += qty
	}
	return total
}

// Lines returns the items sorted by product id.
func (c *Cart) Lines() []CartItem {
	lines := make([]CartItem, 0, len(c.Items))
	for id, qty := range c.Items {
		lines = append(lines, CartItem{ProductID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

// Clone returns a deep copy so callers never share the items map.
func (c *Cart) Clone() *Cart {
	out := *c
	out.Items = make(map[string]int, len(c.Items))
	for id, qty := range c.Items {
		out.Items[id] = qty
	}
	return &out
}
