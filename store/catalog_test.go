package store

import (
	"context"
	"testing"

	"go-eshop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testProductStore(t *testing.T, s ProductStore) {
	ctx := context.Background()

	shirt := &models.Product{Name: "Shirt", Category: "tops", Price: 2500, ImageURL: "shirt.png"}
	require.NoError(t, s.Create(ctx, shirt))
	require.False(t, shirt.ID.IsZero())
	require.NoError(t, s.Create(ctx, &models.Product{Name: "Hat", Category: "accessories", Price: 900}))

	got, err := s.GetProduct(ctx, shirt.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Name)
	assert.Equal(t, int64(2500), got.Price)

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Hat", products[0].Name)

	require.NoError(t, s.Update(ctx, shirt.ID.Hex(), &models.Product{Name: "Shirt", Category: "tops", Price: 3000}))
	got, err = s.GetProduct(ctx, shirt.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.Price)

	missing := primitive.NewObjectID().Hex()
	assert.ErrorIs(t, s.Update(ctx, missing, &models.Product{Name: "x"}), ErrProductNotFound)
	_, err = s.GetProduct(ctx, missing)
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, s.Delete(ctx, shirt.ID.Hex()))
	assert.ErrorIs(t, s.Delete(ctx, shirt.ID.Hex()), ErrProductNotFound)
}

func testUserStore(t *testing.T, s UserStore) {
	ctx := context.Background()

	user := &models.User{FullName: "Jane Doe", Email: "jane@example.com", Password: "hash", Role: models.RoleUser}
	require.NoError(t, s.Create(ctx, user))
	assert.False(t, user.ID.IsZero())

	assert.ErrorIs(t, s.Create(ctx, &models.User{Email: "jane@example.com"}), ErrUserExists)

	got, err := s.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Jane Doe", got.FullName)

	_, err = s.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryProductStore(t *testing.T) {
	testProductStore(t, NewMemoryProductStore())
}

func TestMemoryUserStore(t *testing.T) {
	testUserStore(t, NewMemoryUserStore())
}
