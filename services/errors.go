package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")

	ErrCartNotFound  = fmt.Errorf("cart %w", ErrNotFound)
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)

	ErrPaymentGateway    = errors.New("payment gateway error")
	ErrCartContention    = errors.New("cart is being modified concurrently, try again")
	ErrIllegalTransition = errors.New("illegal transition of payment status")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
