// Package gateway opens payment sessions with the external payment provider.
package gateway

import (
	"context"
	"fmt"
)

// SessionRequest describes the payment the provider should collect.
// Amount is in minor currency units.
type SessionRequest struct {
	OrderID     string
	Amount      int64
	Currency    string
	Description string
}

// Client opens a remote payment session and returns the provider's session id.
type Client interface {
	OpenPaymentSession(ctx context.Context, req SessionRequest) (string, error)
}

// Error is a failure reported by the provider itself.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment gateway returned %d: %s", e.StatusCode, e.Message)
}
