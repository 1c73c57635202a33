package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-eshop/events"
	"go-eshop/gateway"
	"go-eshop/metrics"
	"go-eshop/models"
	"go-eshop/store"
	"go-eshop/utils"
)

const (
	defaultGatewayTimeout    = 10 * time.Second
	defaultSideEffectTimeout = 5 * time.Second
)

// Notifier delivers a plain text message to an email address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Metrics interface {
	OrderCreated()
	PaymentFailed()
	DuplicateCallback()
	EmailSent()
	SideEffectFailed(effect string)
	ObserveOrderProcessing(d time.Duration)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.OrderEvent) error
}

// CartClearer is the part of the cart manager used at settlement.
type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

// Catalog resolves products for line-item snapshots.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// OrderServiceDeps wires an OrderService. Catalog and Events are optional;
// a nil Metrics or Logger is replaced by a no-op.
type OrderServiceDeps struct {
	Orders         store.OrderStore
	Carts          CartClearer
	Gateway        gateway.Client
	Notifier       Notifier
	Metrics        Metrics
	Events         EventPublisher
	Catalog        Catalog
	Currency       string
	GatewayTimeout time.Duration

	// SideEffectTimeout bounds each post-settlement effect (cart clear, email, event).
	SideEffectTimeout time.Duration
	Logger            *slog.Logger
}

// OrderService drives the payment lifecycle of orders.
type OrderService struct {
	orders         store.OrderStore
	carts          CartClearer
	gateway        gateway.Client
	notifier       Notifier
	metrics        Metrics
	events         EventPublisher
	catalog        Catalog
	currency       string
	gatewayTimeout time.Duration
	effectTimeout  time.Duration
	logger         *slog.Logger
	locks          *utils.KeyedMutex
}

func NewOrderService(deps OrderServiceDeps) *OrderService {
	s := &OrderService{
		orders:         deps.Orders,
		carts:          deps.Carts,
		gateway:        deps.Gateway,
		notifier:       deps.Notifier,
		metrics:        deps.Metrics,
		events:         deps.Events,
		catalog:        deps.Catalog,
		currency:       deps.Currency,
		gatewayTimeout: deps.GatewayTimeout,
		effectTimeout:  deps.SideEffectTimeout,
		logger:         deps.Logger,
		locks:          utils.NewKeyedMutex(),
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.logger == nil {
		s.logger = utils.DiscardLogger()
	}
	if s.gatewayTimeout <= 0 {
		s.gatewayTimeout = defaultGatewayTimeout
	}
	if s.effectTimeout <= 0 {
		s.effectTimeout = defaultSideEffectTimeout
	}
	if s.currency == "" {
		s.currency = "CZK"
	}
	return s
}

// CreateOrderAndPayment persists a CREATED order for userID and opens a payment
// session for it. When the gateway call fails the order stays CREATED without
// a session and ErrPaymentGateway is returned. A request carrying an
// idempotency key resumes the order previously created with that key.
func (s *OrderService) CreateOrderAndPayment(ctx context.Context, userID string, req models.OrderRequest) (*models.Order, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOrderProcessing(time.Since(start)) }()

	if err := validateOrderRequest(userID, req); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.orders.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		switch {
		case err == nil:
			return s.resume(ctx, existing)
		case !errors.Is(err, store.ErrOrderNotFound):
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	items, err := s.snapshotItems(ctx, req.OrderedItems)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         userID,
		UserAddress:    req.UserAddress,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		OrderedItems:   items,
		Amount:         req.Amount,
		Currency:       s.currency,
		PaymentStatus:  models.PaymentCreated,
		OrderStatus:    models.DefaultFulfillmentStatus,
		IdempotencyKey: req.IdempotencyKey,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// A concurrent request with the same key won the insert.
			existing, getErr := s.orders.GetByIdempotencyKey(ctx, userID, req.IdempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("failed to look up idempotency key: %w", getErr)
			}
			return s.resume(ctx, existing)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", userID, "amount", order.Amount)

	return s.openSession(ctx, order)
}

// resume continues an order found by idempotency key.
func (s *OrderService) resume(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.GatewaySessionID != "" || order.PaymentStatus != models.PaymentCreated {
		s.logger.InfoContext(ctx, "returning existing order for idempotency key", "order_id", order.ID)
		return order, nil
	}
	s.logger.InfoContext(ctx, "resuming order without payment session", "order_id", order.ID)
	return s.openSession(ctx, order)
}

func (s *OrderService) openSession(ctx context.Context, order *models.Order) (*models.Order, error) {
	unlock := s.locks.Lock(order.ID)
	defer unlock()

	// Another request may have attached a session while we waited for the lock.
	current, err := s.orders.Get(ctx, order.ID)
	if err != nil {
		return nil, s.orderError(err, "failed to reload order")
	}
	if current.GatewaySessionID != "" {
		return current, nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	sessionID, err := s.gateway.OpenPaymentSession(gctx, gateway.SessionRequest{
		OrderID:     current.ID,
		Amount:      current.Amount,
		Currency:    current.Currency,
		Description: "Payment for an order: " + current.ID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "payment gateway call failed", "order_id", current.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPaymentGateway, err)
	}

	err = s.orders.AttachSession(ctx, current.ID, sessionID, current.UserID)
	switch {
	case errors.Is(err, store.ErrDuplicateSession):
		s.logger.ErrorContext(ctx, "gateway returned a session id already in use", "order_id", current.ID, "session_id", sessionID)
		return nil, fmt.Errorf("%w: session id %s already assigned", ErrPaymentGateway, sessionID)
	case errors.Is(err, store.ErrStatusConflict):
		latest, getErr := s.orders.Get(ctx, current.ID)
		if getErr != nil {
			return nil, s.orderError(getErr, "failed to reload order")
		}
		return latest, nil
	case err != nil:
		return nil, s.orderError(err, "failed to attach payment session")
	}

	updated, err := s.orders.Get(ctx, current.ID)
	if err != nil {
		return nil, s.orderError(err, "failed to reload order")
	}
	s.metrics.OrderCreated()
	s.logger.InfoContext(ctx, "payment session opened", "order_id", updated.ID, "session_id", sessionID)
	return updated, nil
}

// VerifyPayment reconciles a gateway callback onto its order. Callbacks for an
// order whose payment is already settled succeed without side effects, whatever
// status they report.
func (s *OrderService) VerifyPayment(ctx context.Context, callback map[string]string, reportedStatus string) error {
	sessionID := firstNonEmpty(callback["paymentId"], callback["id"], callback["sessionId"])
	if sessionID == "" {
		return invalid("callback carries no payment id")
	}
	rawStatus := firstNonEmpty(reportedStatus, callback["status"], callback["state"])

	// Once accepted a callback runs to completion.
	ctx = context.WithoutCancel(ctx)

	found, err := s.orders.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			s.logger.WarnContext(ctx, "payment callback for unknown session", "session_id", sessionID, "status", rawStatus)
		}
		return s.orderError(err, "failed to look up order")
	}

	settled, err := s.applyCallback(ctx, found.ID, sessionID, rawStatus, callback["transactionId"])
	if err != nil || settled == nil {
		return err
	}

	// The status write above happens once per order, so the effects below
	// run once without holding the order lock.
	if settled.PaymentStatus == models.PaymentPaid {
		s.settlePaid(ctx, settled)
	} else {
		s.settleFailed(ctx, settled)
	}
	return nil
}

// applyCallback moves the order to the reported status under the order lock.
// It returns the settled order only when this call committed a terminal
// transition.
func (s *OrderService) applyCallback(ctx context.Context, orderID, sessionID, rawStatus, transactionID string) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, s.orderError(err, "failed to reload order")
	}

	if order.PaymentStatus.IsTerminal() {
		s.duplicate(ctx, order, rawStatus)
		return nil, nil
	}

	target, ok := models.PaymentStatusFromGateway(rawStatus)
	if !ok {
		return nil, invalid("unknown payment status %q", rawStatus)
	}

	if target == models.PaymentAwaiting {
		err := s.orders.RecordGatewayStatus(ctx, order.ID, rawStatus)
		if errors.Is(err, store.ErrStatusConflict) {
			s.duplicate(ctx, order, rawStatus)
			return nil, nil
		}
		if err != nil {
			return nil, s.orderError(err, "failed to record gateway status")
		}
		s.logger.InfoContext(ctx, "intermediate payment status recorded", "order_id", order.ID, "status", rawStatus)
		return nil, nil
	}

	if !order.PaymentStatus.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s to %s on order %s", ErrIllegalTransition, order.PaymentStatus, target, order.ID)
	}

	transactionID = firstNonEmpty(transactionID, sessionID)
	err = s.orders.TransitionPayment(ctx, order.ID, order.PaymentStatus, target, rawStatus, transactionID)
	if errors.Is(err, store.ErrStatusConflict) {
		latest, getErr := s.orders.Get(ctx, order.ID)
		if getErr != nil {
			return nil, s.orderError(getErr, "failed to reload order")
		}
		if latest.PaymentStatus.IsTerminal() {
			s.duplicate(ctx, latest, rawStatus)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	if err != nil {
		return nil, s.orderError(err, "failed to update payment status")
	}

	order.PaymentStatus = target
	order.GatewayStatus = rawStatus
	order.GatewayTransactionID = transactionID
	s.logger.InfoContext(ctx, "payment settled", "order_id", order.ID, "session_id", sessionID, "payment_status", target)
	return order, nil
}

// effectContext bounds one side effect. It is detached from ctx's cancellation
// so a settled payment still gets its effects after the caller goes away.
func (s *OrderService) effectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.effectTimeout)
}

// settlePaid runs the one-time side effects of a paid order. Failures are
// logged and counted, the payment status is already committed.
func (s *OrderService) settlePaid(ctx context.Context, order *models.Order) {
	if order.UserID != "" {
		effectCtx, cancel := s.effectContext(ctx)
		if err := s.carts.ClearCart(effectCtx, order.UserID); err != nil {
			s.sideEffectFailed(ctx, "cart_clear", order, err)
		}
		cancel()
	}

	if order.Email == "" {
		s.logger.WarnContext(ctx, "paid order has no contact email", "order_id", order.ID)
	} else {
		subject, body := utils.PaymentConfirmation(order)
		effectCtx, cancel := s.effectContext(ctx)
		if err := s.notifier.Send(effectCtx, order.Email, subject, body); err != nil {
			s.sideEffectFailed(ctx, "email", order, err)
		} else {
			s.metrics.EmailSent()
		}
		cancel()
	}

	s.publish(ctx, events.TypeOrderPaid, order)
}

func (s *OrderService) settleFailed(ctx context.Context, order *models.Order) {
	s.metrics.PaymentFailed()
	s.publish(ctx, events.TypeOrderPaymentFailed, order)
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	effectCtx, cancel := s.effectContext(ctx)
	defer cancel()
	if err := s.events.Publish(effectCtx, events.NewOrderEvent(eventType, order)); err != nil {
		s.sideEffectFailed(ctx, "event", order, err)
	}
}

func (s *OrderService) sideEffectFailed(ctx context.Context, effect string, order *models.Order, err error) {
	s.metrics.SideEffectFailed(effect)
	s.logger.ErrorContext(ctx, "payment side effect failed", "effect", effect, "order_id", order.ID, "error", err)
}

func (s *OrderService) duplicate(ctx context.Context, order *models.Order, rawStatus string) {
	s.metrics.DuplicateCallback()
	s.logger.InfoContext(ctx, "ignoring callback for settled order",
		"order_id", order.ID, "payment_status", order.PaymentStatus, "reported_status", rawStatus)
}

// UpdateOrderStatus overwrites the fulfillment status of an order.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return invalid("status is required")
	}
	if err := s.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return s.orderError(err, "failed to update order status")
	}
	s.logger.InfoContext(ctx, "order status updated", "order_id", orderID, "status", status)
	return nil
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrdersOfAllUsers(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// RemoveOrder hard deletes an order regardless of its payment status.
func (s *OrderService) RemoveOrder(ctx context.Context, orderID string) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return s.orderError(err, "failed to remove order")
	}
	s.logger.InfoContext(ctx, "order removed", "order_id", orderID)
	return nil
}

// snapshotItems copies the requested lines, filling product details from the
// catalog when one is configured.
func (s *OrderService) snapshotItems(ctx context.Context, requested []models.OrderItem) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, len(requested))
	copy(items, requested)
	if s.catalog == nil {
		return items, nil
	}

	for i := range items {
		item := &items[i]
		if item.Name != "" && item.Price > 0 {
			continue
		}
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrProductNotFound) {
				return nil, invalid("unknown product %s", item.ProductID)
			}
			return nil, fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
		}
		if item.Name == "" {
			item.Name = product.Name
		}
		if item.Category == "" {
			item.Category = product.Category
		}
		if item.ImageURL == "" {
			item.ImageURL = product.ImageURL
		}
		if item.Description == "" {
			item.Description = product.Description
		}
		if item.Price <= 0 {
			item.Price = product.Price
		}
	}
	return items, nil
}

func (s *OrderService) orderError(err error, msg string) error {
	if errors.Is(err, store.ErrOrderNotFound) {
		return ErrOrderNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func validateOrderRequest(userID string, req models.OrderRequest) error {
	if strings.TrimSpace(userID) == "" {
		return invalid("user id is required")
	}
	if len(req.OrderedItems) == 0 {
		return invalid("order has no items")
	}
	for _, item := range req.OrderedItems {
		if strings.TrimSpace(item.ProductID) == "" {
			return invalid("order item without product id")
		}
		if item.Quantity < 1 {
			return invalid("quantity of %s must be at least 1", item.ProductID)
		}
	}
	if req.Amount <= 0 {
		return invalid("amount must be positive")
	}
	if strings.TrimSpace(req.Email) == "" {
		return invalid("email is required")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
