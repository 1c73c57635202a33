package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-eshop/cache"
	"go-eshop/models"
	"go-eshop/store"
	"go-eshop/utils"

	"golang.org/x/sync/singleflight"
)

const (
	defaultCartRetries = 5
	sharedLoadTimeout  = 5 * time.Second
)

type CartMetrics interface {
	ObserveCartItems(n int)
}

// CartServiceDeps configures a CartService. Cache and Metrics are optional.
type CartServiceDeps struct {
	Carts      store.CartStore
	Cache      cache.CartCache
	Metrics    CartMetrics
	Logger     *slog.Logger
	MaxRetries int
}

// CartService owns every mutation of a user's cart.
// Mutations for one user are serialized in process by a keyed mutex and across
// processes by the version compare-and-set of the CartStore.
type CartService struct {
	carts      store.CartStore
	cache      cache.CartCache
	metrics    CartMetrics
	logger     *slog.Logger
	locks      *utils.KeyedMutex
	sfg        singleflight.Group
	maxRetries int
}

func NewCartService(deps CartServiceDeps) *CartService {
	s := &CartService{
		carts:      deps.Carts,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		locks:      utils.NewKeyedMutex(),
		maxRetries: deps.MaxRetries,
	}
	if s.logger == nil {
		s.logger = utils.DiscardLogger()
	}
	if s.maxRetries <= 0 {
		s.maxRetries = defaultCartRetries
	}
	return s
}

// AddItem increments productID by one, creating the cart when needed.
func (s *CartService) AddItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	if err := validateCartArgs(userID, productID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, true, func(cart *models.Cart) bool {
		cart.Increment(productID)
		return true
	})
}

// RemoveItem decrements productID by one. Removing a product that is not in
// the cart returns the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	if err := validateCartArgs(userID, productID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, false, func(cart *models.Cart) bool {
		return cart.Decrement(productID)
	})
}

// GetCart returns the user's cart or an empty cart that is not persisted.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalid("user id is required")
	}

	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		// Callers joining this flight must not fail because the first one went away.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		if s.cache != nil {
			cart, err := s.cache.Get(ctx, userID)
			if err == nil {
				return cart, nil
			}
			if !errors.Is(err, cache.ErrCacheMiss) {
				s.logger.WarnContext(ctx, "cart cache read failed", "user_id", userID, "error", err)
			}
		}

		// Populating under the user lock keeps a stale read from landing in
		// the cache after a concurrent mutation invalidated it.
		unlock := s.locks.Lock(userID)
		defer unlock()

		cart, err := s.carts.Get(ctx, userID)
		if errors.Is(err, store.ErrCartNotFound) {
			now := time.Now().UTC()
			empty := models.NewCart(userID)
			empty.CreatedAt = now
			empty.UpdatedAt = now
			return empty, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, cart); err != nil {
				s.logger.WarnContext(ctx, "cart cache write failed", "user_id", userID, "error", err)
			}
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Cart).Clone(), nil
}

// ClearCart deletes the cart. Clearing a missing cart succeeds.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalid("user id is required")
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.carts.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// mutate runs a load-modify-save cycle, retrying when another writer saved
// the cart in between. apply reports whether it changed the cart.
func (s *CartService) mutate(ctx context.Context, userID string, create bool, apply func(*models.Cart) bool) (*models.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		cart, err := s.carts.Get(ctx, userID)
		switch {
		case errors.Is(err, store.ErrCartNotFound):
			if !create {
				return nil, ErrCartNotFound
			}
			cart = models.NewCart(userID)
		case err != nil:
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}

		if !apply(cart) {
			return cart, nil
		}

		err = s.carts.Save(ctx, cart)
		if err == nil {
			s.invalidate(ctx, userID)
			if s.metrics != nil {
				s.metrics.ObserveCartItems(cart.TotalItems())
			}
			return cart, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to save cart: %w", err)
		}
		s.logger.DebugContext(ctx, "cart version conflict, retrying", "user_id", userID, "attempt", attempt)
	}

	s.logger.WarnContext(ctx, "giving up on contended cart", "user_id", userID, "attempts", s.maxRetries)
	return nil, ErrCartContention
}

func (s *CartService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "cart cache invalidate failed", "user_id", userID, "error", err)
	}
}

func validateCartArgs(userID, productID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalid("user id is required")
	}
	if strings.TrimSpace(productID) == "" {
		return invalid("product id is required")
	}
	return nil
}
