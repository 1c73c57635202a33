package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go-eshop/middleware"
	"go-eshop/models"
	"go-eshop/services"
)

// CartController handles cart-related requests
type CartController struct {
	Carts  *services.CartService
	Logger *slog.Logger
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, logger *slog.Logger) *CartController {
	return &CartController{Carts: carts, Logger: logger}
}

// CartView is the cart as returned to clients.
type CartView struct {
	UserID     string            `json:"userId"`
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
}

func viewCart(cart *models.Cart) CartView {
	return CartView{UserID: cart.UserID, Items: cart.Lines(), TotalItems: cart.TotalItems()}
}

type cartRequest struct {
	ProductID string `json:"productId"`
}

// AddToCart adds one unit of a product to the user's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input")
		return
	}

	cart, err := cc.Carts.AddItem(r.Context(), claims.UserID, req.ProductID)
	if err != nil {
		writeServiceError(w, r, cc.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewCart(cart))
}

// RemoveFromCart removes one unit of a product from the user's cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid input")
		return
	}

	cart, err := cc.Carts.RemoveItem(r.Context(), claims.UserID, req.ProductID)
	if err != nil {
		writeServiceError(w, r, cc.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCart(cart))
}

// GetCart retrieves the user's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cart, err := cc.Carts.GetCart(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, r, cc.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCart(cart))
}

// ClearCart empties the user's cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := cc.Carts.ClearCart(r.Context(), claims.UserID); err != nil {
		writeServiceError(w, r, cc.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
