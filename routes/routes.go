// routes/routes.go
package routes

import (
	"net/http"

	"go-eshop/controllers"
	"go-eshop/middleware"

	"github.com/gorilla/mux"
)

// Controllers groups the handlers mounted by RegisterRoutes.
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Carts    *controllers.CartController
	Orders   *controllers.OrderController
	Metrics  http.Handler
}

func protected(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(h)
}

func adminOnly(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers) {
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if c.Metrics != nil {
		router.Handle("/metrics", c.Metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/register", c.Users.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", c.Users.Login).Methods(http.MethodPost)
	api.Handle("/profile", protected(c.Users.GetProfile)).Methods(http.MethodGet)

	// Product routes
	api.HandleFunc("/products", c.Products.GetProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods(http.MethodGet)
	api.Handle("/products", adminOnly(c.Products.CreateProduct)).Methods(http.MethodPost)
	api.Handle("/products/{id}", adminOnly(c.Products.UpdateProduct)).Methods(http.MethodPut)
	api.Handle("/products/{id}", adminOnly(c.Products.DeleteProduct)).Methods(http.MethodDelete)

	// Cart routes
	api.Handle("/cart", protected(c.Carts.AddToCart)).Methods(http.MethodPost)
	api.Handle("/cart", protected(c.Carts.GetCart)).Methods(http.MethodGet)
	api.Handle("/cart", protected(c.Carts.RemoveFromCart)).Methods(http.MethodPatch)
	api.Handle("/cart", protected(c.Carts.ClearCart)).Methods(http.MethodDelete)

	// Order routes. The gateway callback authenticates with a shared secret, not a JWT.
	api.HandleFunc("/orders/verify", c.Orders.VerifyPayment).Methods(http.MethodPost, http.MethodGet)
	api.Handle("/orders/create", protected(c.Orders.CreateOrder)).Methods(http.MethodPost)
	api.Handle("/orders", protected(c.Orders.GetUserOrders)).Methods(http.MethodGet)
	api.Handle("/orders/all", adminOnly(c.Orders.GetAllOrders)).Methods(http.MethodGet)
	api.Handle("/orders/status/{orderId}", adminOnly(c.Orders.UpdateOrderStatus)).Methods(http.MethodPatch)
	api.Handle("/orders/{orderId}", adminOnly(c.Orders.RemoveOrder)).Methods(http.MethodDelete)
}
