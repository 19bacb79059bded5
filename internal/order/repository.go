package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var ErrDuplicateOrder = errors.New("order already recorded for this checkout")

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("orders")}
}

func (m *mongoRepository) Insert(ctx context.Context, o *Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	if _, err := m.collection.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *mongoRepository) FindByID(ctx context.Context, id string) (*Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *mongoRepository) FindByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	return m.findOne(ctx, bson.M{"idempotencyKey": key})
}

func (m *mongoRepository) FindByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	return m.findOne(ctx, bson.M{"paymentInfo.id": paymentID})
}

func (m *mongoRepository) findOne(ctx context.Context, filter bson.M) (*Order, error) {
	var o Order
	err := m.collection.FindOne(ctx, filter).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func (m *mongoRepository) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByUser"),
	)
	start := time.Now()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.collection.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		log.Error("decode failed", zap.Error(err))
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	log.Debug("query success",
		zap.Int("rows", len(orders)),
		zap.Duration("duration", time.Since(start)),
	)
	return orders, nil
}

func (m *mongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CreateIndexes backs per-user listing and makes one checkout attempt
// produce at most one order.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{
			Keys: bson.D{{Key: "idempotencyKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"idempotencyKey": bson.M{"$type": "string"}},
			),
		},
		{Keys: bson.D{{Key: "paymentInfo.id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

// PaymentLookup lets the payment reconciler check for a persisted order.
type PaymentLookup struct {
	Repo Repository
}

func (p PaymentLookup) OrderIDForPayment(ctx context.Context, paymentID string) (string, bool, error) {
	o, err := p.Repo.FindByPaymentID(ctx, paymentID)
	if errors.Is(err, ErrOrderNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return o.ID.Hex(), true, nil
}
