package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-eshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOrderStore stores orders in the "orders" collection.
type MongoOrderStore struct {
	collection *mongo.Collection
}

// NewMongoOrderStore creates a MongoOrderStore
func NewMongoOrderStore(db *mongo.Database) *MongoOrderStore {
	return &MongoOrderStore{collection: db.Collection("orders")}
}

func (s *MongoOrderStore) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) && order.IdempotencyKey != "" {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *MongoOrderStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": orderID})
}

func (s *MongoOrderStore) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"gateway_session_id": sessionID})
}

func (s *MongoOrderStore) GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"user_id": userID, "idempotency_key": key})
}

func (s *MongoOrderStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var order models.Order
	if err := s.collection.FindOne(ctx, filter).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

func (s *MongoOrderStore) AttachSession(ctx context.Context, orderID, sessionID, userID string) error {
	filter := bson.M{
		"_id":                orderID,
		"payment_status":     models.PaymentCreated,
		"gateway_session_id": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"gateway_session_id": sessionID,
		"payment_status":     models.PaymentAwaiting,
		"user_id":            userID,
		"updated_at":         time.Now().UTC(),
	}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateSession
		}
		return fmt.Errorf("failed to attach payment session: %w", err)
	}
	if result.MatchedCount == 0 {
		return s.conflictOrMissing(ctx, orderID)
	}
	return nil
}

func (s *MongoOrderStore) TransitionPayment(ctx context.Context, orderID string, from, to models.PaymentStatus, gatewayStatus, transactionID string) error {
	filter := bson.M{"_id": orderID, "payment_status": from}
	update := bson.M{"$set": bson.M{
		"payment_status":         to,
		"gateway_status":         gatewayStatus,
		"gateway_transaction_id": transactionID,
		"updated_at":             time.Now().UTC(),
	}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return s.conflictOrMissing(ctx, orderID)
	}
	return nil
}

func (s *MongoOrderStore) RecordGatewayStatus(ctx context.Context, orderID, gatewayStatus string) error {
	filter := bson.M{
		"_id":            orderID,
		"payment_status": bson.M{"$nin": bson.A{models.PaymentPaid, models.PaymentFailed}},
	}
	update := bson.M{"$set": bson.M{"gateway_status": gatewayStatus, "updated_at": time.Now().UTC()}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to record gateway status: %w", err)
	}
	if result.MatchedCount == 0 {
		return s.conflictOrMissing(ctx, orderID)
	}
	return nil
}

// conflictOrMissing explains why a conditional update matched nothing.
func (s *MongoOrderStore) conflictOrMissing(ctx context.Context, orderID string) error {
	count, err := s.collection.CountDocuments(ctx, bson.M{"_id": orderID})
	if err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return ErrStatusConflict
}

func (s *MongoOrderStore) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	update := bson.M{"$set": bson.M{"order_status": status, "updated_at": time.Now().UTC()}}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": orderID}, update)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *MongoOrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

func (s *MongoOrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoOrderStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (s *MongoOrderStore) Delete(ctx context.Context, orderID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": orderID})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CreateIndexes makes session ids and per-user idempotency keys unique.
func (s *MongoOrderStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "gateway_session_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"gateway_session_id": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}
