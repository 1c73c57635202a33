package store

import (
	"context"
	"errors"

	"go-eshop/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
)

// ProductStore is the catalog. Ids are ObjectID hex strings.
type ProductStore interface {
	List(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, productID string, product *models.Product) error
	Delete(ctx context.Context, productID string) error
}

// UserStore keeps accounts, unique by email.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
