package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker stops calling the provider after repeated failures and fails fast
// with gobreaker.ErrOpenState until the cool-down elapses.
type Breaker struct {
	next Client
	cb   *gobreaker.CircuitBreaker[string]
}

type BreakerConfig struct {
	MaxFailures uint32
	CoolDown    time.Duration
	Logger      *slog.Logger
}

func NewBreaker(next Client, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.CoolDown == 0 {
		cfg.CoolDown = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     cfg.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			}
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *Breaker) OpenPaymentSession(ctx context.Context, req SessionRequest) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.OpenPaymentSession(ctx, req)
	})
}
