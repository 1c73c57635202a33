package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-eshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartDocument is the stored shape of a cart. Product ids are kept in an array
// rather than as map keys so arbitrary ids never collide with BSON field syntax.
type cartDocument struct {
	UserID    string            `bson:"user_id"`
	Items     []models.CartItem `bson:"items"`
	Version   int64             `bson:"version"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func (d cartDocument) toModel() *models.Cart {
	cart := models.NewCart(d.UserID)
	for _, item := range d.Items {
		if item.Quantity > 0 {
			cart.Items[item.ProductID] = item.Quantity
		}
	}
	cart.Version = d.Version
	cart.CreatedAt = d.CreatedAt
	cart.UpdatedAt = d.UpdatedAt
	return cart
}

// MongoCartStore stores carts in the "carts" collection.
type MongoCartStore struct {
	collection *mongo.Collection
}

// NewMongoCartStore creates a MongoCartStore
func NewMongoCartStore(db *mongo.Database) *MongoCartStore {
	return &MongoCartStore{collection: db.Collection("carts")}
}

func (s *MongoCartStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var doc cartDocument
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoCartStore) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	if cart.Version == 0 {
		doc := cartDocument{
			UserID:    cart.UserID,
			Items:     cart.Lines(),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrVersionConflict
			}
			return fmt.Errorf("failed to create cart: %w", err)
		}
		cart.Version = 1
		cart.CreatedAt = now
		cart.UpdatedAt = now
		return nil
	}

	filter := bson.M{"user_id": cart.UserID, "version": cart.Version}
	update := bson.M{
		"$set": bson.M{"items": cart.Lines(), "updated_at": now},
		"$inc": bson.M{"version": 1},
	}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVersionConflict
	}
	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (s *MongoCartStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// CreateIndexes enforces one cart per user.
func (s *MongoCartStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
