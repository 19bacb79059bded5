package catalog

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

type Repository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*Product, error)
	List(ctx context.Context, opts ListOptions) ([]*Product, error)
	IncrementSales(ctx context.Context, id primitive.ObjectID, orderID string, qty int) error
}

type repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &repository{collection: db.Collection("products")}
}

func (r *repository) FindByID(ctx context.Context, id string) (*Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	var p Product
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// FindByIDs resolves a batch of references. Unknown ids are simply absent
// from the result.
func (r *repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*Product, error) {
	out := make(map[primitive.ObjectID]*Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p Product
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		out[p.ID] = &p
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("product cursor: %w", err)
	}
	return out, nil
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
		zap.String("sort", string(opts.Sort)),
		zap.Int64("limit", opts.Limit),
	)
	start := time.Now()

	findOpts := options.Find()
	if opts.Sort != "" {
		findOpts.SetSort(bson.D{{Key: string(opts.Sort), Value: -1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cur, err := r.collection.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		log.Error("decode failed", zap.Error(err))
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	log.Debug("query success",
		zap.Int("rows", len(products)),
		zap.Duration("duration", time.Since(start)),
	)
	return products, nil
}

// salesOrderWindow bounds the order ids remembered per product for
// de-duplicating redelivered sales events.
const salesOrderWindow = 500

// IncrementSales adds qty to the product's sales count once per orderID.
// A repeat for an order already counted is a no-op.
func (r *repository) IncrementSales(ctx context.Context, id primitive.ObjectID, orderID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "salesOrders": bson.M{"$ne": orderID}},
		bson.M{
			"$inc": bson.M{"salesCount": qty},
			"$set": bson.M{"updatedAt": time.Now()},
			"$push": bson.M{"salesOrders": bson.M{
				"$each":  bson.A{orderID},
				"$slice": -salesOrderWindow,
			}},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment sales: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to increment sales: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// CreateIndexes backs the latest and best-selling listings.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("products").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "salesCount", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}
