// controllers/order.go
package controllers

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"go-eshop/middleware"
	"go-eshop/models"
	"go-eshop/services"

	"github.com/gorilla/mux"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	CallbackSecretHeader = "X-Callback-Secret"
)

// OrderController handles order-related requests
type OrderController struct {
	Orders *services.OrderService
	Logger *slog.Logger
	// CallbackSecret, when set, must be sent by the gateway in CallbackSecretHeader.
	CallbackSecret string
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, callbackSecret string, logger *slog.Logger) *OrderController {
	return &OrderController{Orders: orders, CallbackSecret: callbackSecret, Logger: logger}
}

// CreateOrder places an order and opens its payment session
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.IdempotencyKey = r.Header.Get(IdempotencyKeyHeader)
	if req.Email == "" {
		req.Email = claims.Email
	}

	order, err := oc.Orders.CreateOrderAndPayment(r.Context(), claims.UserID, req)
	if err != nil {
		writeServiceError(w, r, oc.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// VerifyPayment receives the gateway's payment notification. The data comes
// from the JSON body on POST and from the query string on GET.
func (oc *OrderController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if oc.CallbackSecret != "" {
		got := r.Header.Get(CallbackSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(oc.CallbackSecret)) != 1 {
			writeError(w, r, http.StatusUnauthorized, "Invalid callback secret")
			return
		}
	}

	data := map[string]string{}
	if r.Method == http.MethodPost {
		var body map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		// Gateways send ids as numbers or strings.
		for key, value := range body {
			if value != nil {
				data[key] = fmt.Sprint(value)
			}
		}
	}
	for key, values := range r.URL.Query() {
		if _, ok := data[key]; !ok && len(values) > 0 {
			data[key] = values[0]
		}
	}

	if err := oc.Orders.VerifyPayment(r.Context(), data, data["status"]); err != nil {
		writeServiceError(w, r, oc.Logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetUserOrders lists the caller's orders
func (oc *OrderController) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	orders, err := oc.Orders.GetUserOrders(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, oc.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetAllOrders lists every order (Admin only)
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oc.Orders.GetOrdersOfAllUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, oc.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus sets the fulfillment status (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]
	status := r.URL.Query().Get("status")

	if err := oc.Orders.UpdateOrderStatus(r.Context(), orderID, status); err != nil {
		writeServiceError(w, r, oc.Logger, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// RemoveOrder deletes an order (Admin only)
func (oc *OrderController) RemoveOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]

	if err := oc.Orders.RemoveOrder(r.Context(), orderID); err != nil {
		writeServiceError(w, r, oc.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
