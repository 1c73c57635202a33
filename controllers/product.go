package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-eshop/models"
	"go-eshop/store"

	"github.com/gorilla/mux"
)

// ProductController handles product-related requests
type ProductController struct {
	Products store.ProductStore
	Logger   *slog.Logger
}

// NewProductController creates a new ProductController
func NewProductController(products store.ProductStore, logger *slog.Logger) *ProductController {
	return &ProductController{Products: products, Logger: logger}
}

func decodeProduct(r *http.Request) (*models.Product, string) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		return nil, "Invalid input"
	}
	if strings.TrimSpace(product.Name) == "" {
		return nil, "Product name is required"
	}
	if product.Price <= 0 {
		return nil, "Product price must be positive"
	}
	return &product, ""
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, msg := decodeProduct(r)
	if product == nil {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	if err := pc.Products.Create(r.Context(), product); err != nil {
		pc.Logger.ErrorContext(r.Context(), "failed to create product", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Error creating product")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// GetProducts retrieves all products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := pc.Products.List(r.Context())
	if err != nil {
		pc.Logger.ErrorContext(r.Context(), "failed to list products", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Error fetching products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product by ID
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	product, err := pc.Products.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		pc.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	product, msg := decodeProduct(r)
	if product == nil {
		writeError(w, r, http.StatusBadRequest, msg)
		return
	}

	if err := pc.Products.Update(r.Context(), mux.Vars(r)["id"], product); err != nil {
		pc.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := pc.Products.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		pc.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (pc *ProductController) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrProductNotFound) {
		writeError(w, r, http.StatusNotFound, "Product not found")
		return
	}
	pc.Logger.ErrorContext(r.Context(), "product store failed", "error", err)
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
