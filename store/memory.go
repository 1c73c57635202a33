package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-eshop/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCartStore is a CartStore held in process memory.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: map[string]*models.Cart{}}
}

func (s *MemoryCartStore) Get(_ context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart.Clone(), nil
}

func (s *MemoryCartStore) Save(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.carts[cart.UserID]
	switch {
	case cart.Version == 0 && ok:
		return ErrVersionConflict
	case cart.Version != 0 && (!ok || existing.Version != cart.Version):
		return ErrVersionConflict
	}
	if cart.Version == 0 {
		cart.CreatedAt = now
	}
	cart.Version++
	cart.UpdatedAt = now
	s.carts[cart.UserID] = cart.Clone()
	return nil
}

func (s *MemoryCartStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}

// MemoryOrderStore is an OrderStore held in process memory.
type MemoryOrderStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: map[string]*models.Order{}}
}

func (s *MemoryOrderStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.IdempotencyKey != "" {
		for _, o := range s.orders {
			if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
				return ErrDuplicateKey
			}
		}
	}
	if order.ID == "" {
		order.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *MemoryOrderStore) Get(_ context.Context, orderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *MemoryOrderStore) GetBySessionID(_ context.Context, sessionID string) (*models.Order, error) {
	return s.findFirst(func(o *models.Order) bool { return sessionID != "" && o.GatewaySessionID == sessionID })
}

func (s *MemoryOrderStore) GetByIdempotencyKey(_ context.Context, userID, key string) (*models.Order, error) {
	return s.findFirst(func(o *models.Order) bool { return o.UserID == userID && o.IdempotencyKey == key })
}

func (s *MemoryOrderStore) findFirst(match func(*models.Order) bool) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if match(o) {
			return o.Clone(), nil
		}
	}
	return nil, ErrOrderNotFound
}

func (s *MemoryOrderStore) AttachSession(_ context.Context, orderID, sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.PaymentStatus != models.PaymentCreated || o.GatewaySessionID != "" {
		return ErrStatusConflict
	}
	for _, other := range s.orders {
		if other.GatewaySessionID == sessionID {
			return ErrDuplicateSession
		}
	}
	o.GatewaySessionID = sessionID
	o.PaymentStatus = models.PaymentAwaiting
	o.UserID = userID
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryOrderStore) TransitionPayment(_ context.Context, orderID string, from, to models.PaymentStatus, gatewayStatus, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.PaymentStatus != from {
		return ErrStatusConflict
	}
	o.PaymentStatus = to
	o.GatewayStatus = gatewayStatus
	o.GatewayTransactionID = transactionID
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryOrderStore) RecordGatewayStatus(_ context.Context, orderID, gatewayStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if o.PaymentStatus.IsTerminal() {
		return ErrStatusConflict
	}
	o.GatewayStatus = gatewayStatus
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryOrderStore) UpdateOrderStatus(_ context.Context, orderID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.OrderStatus = status
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryOrderStore) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.UserID == userID }), nil
}

func (s *MemoryOrderStore) ListAll(_ context.Context) ([]models.Order, error) {
	return s.list(func(*models.Order) bool { return true }), nil
}

func (s *MemoryOrderStore) list(match func(*models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []models.Order{}
	for _, o := range s.orders {
		if match(o) {
			orders = append(orders, *o.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (s *MemoryOrderStore) Delete(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return ErrOrderNotFound
	}
	delete(s.orders, orderID)
	return nil
}

// Len returns the number of stored orders.
func (s *MemoryOrderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
