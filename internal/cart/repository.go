package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	FindByUser(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	DeleteByUser(ctx context.Context, userID string) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("carts")}
}

func (m *mongoRepository) FindByUser(ctx context.Context, userID string) (*Cart, error) {
	var cart Cart

	err := m.collection.FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// Save overwrites the user's cart lines and total with the given state,
// creating the document on first use. Concurrent saves are last-writer-wins.
// On return cart holds the stored document, including its id.
func (m *mongoRepository) Save(ctx context.Context, cart *Cart) error {
	now := time.Now()

	if cart.Products == nil {
		cart.Products = []LineItem{}
	}

	update := bson.M{
		"$set": bson.M{
			"products":   cart.Products,
			"totalPrice": cart.TotalPrice,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := m.collection.FindOneAndUpdate(ctx, bson.M{"user": cart.UserID}, update, opts).Decode(cart)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

// DeleteByUser removes the cart document. Deleting an absent cart is not an error.
func (m *mongoRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"user": userID}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// CreateIndexes enforces one cart per user.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("carts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
