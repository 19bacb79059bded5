package order

import (
	"context"
	"testing"
	"time"

	"storefront-be/internal/db/mongotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoRepository(t *testing.T) {
	db := mongotest.Setup(t)
	ctx := context.Background()
	require.NoError(t, CreateIndexes(ctx, db))

	repo := NewRepository(db)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newOrder := func(user, key, paymentID string, at time.Time) *Order {
		return &Order{
			UserID:         user,
			Products:       []Line{{ProductID: primitive.NewObjectID(), Quantity: 2, Price: 20, Size: "M", Color: "red"}},
			TotalPrice:     20,
			PaymentInfo:    PaymentInfo{ID: paymentID, Status: "succeeded", Method: "card"},
			IdempotencyKey: key,
			CreatedAt:      at,
		}
	}

	t.Run("InsertAndFind", func(t *testing.T) {
		o := newOrder("u-find", "key-find", "pi_find", base)
		require.NoError(t, repo.Insert(ctx, o))
		require.False(t, o.ID.IsZero())

		got, err := repo.FindByID(ctx, o.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, "u-find", got.UserID)
		assert.Equal(t, o.Products, got.Products)

		byKey, err := repo.FindByIdempotencyKey(ctx, "key-find")
		require.NoError(t, err)
		assert.Equal(t, o.ID, byKey.ID)

		byPayment, err := repo.FindByPaymentID(ctx, "pi_find")
		require.NoError(t, err)
		assert.Equal(t, o.ID, byPayment.ID)
	})

	t.Run("DuplicateKeyRejected", func(t *testing.T) {
		require.NoError(t, repo.Insert(ctx, newOrder("u-dup", "key-dup", "pi_dup_1", base)))

		err := repo.Insert(ctx, newOrder("u-dup", "key-dup", "pi_dup_2", base))
		assert.ErrorIs(t, err, ErrDuplicateOrder)
	})

	t.Run("FindByID_NotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrOrderNotFound)

		_, err = repo.FindByID(ctx, "zzz")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("ListByUser_NewestFirst", func(t *testing.T) {
		older := newOrder("u-list", "key-list-1", "pi_list_1", base)
		newer := newOrder("u-list", "key-list-2", "pi_list_2", base.Add(time.Hour))
		require.NoError(t, repo.Insert(ctx, older))
		require.NoError(t, repo.Insert(ctx, newer))
		require.NoError(t, repo.Insert(ctx, newOrder("u-other", "key-list-3", "pi_list_3", base)))

		orders, err := repo.ListByUser(ctx, "u-list")
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, newer.ID, orders[0].ID)
		assert.Equal(t, older.ID, orders[1].ID)

		none, err := repo.ListByUser(ctx, "u-nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		o := newOrder("u-del", "key-del", "pi_del", base)
		require.NoError(t, repo.Insert(ctx, o))

		require.NoError(t, repo.Delete(ctx, o.ID))
		assert.ErrorIs(t, repo.Delete(ctx, o.ID), ErrOrderNotFound)

		_, err := repo.FindByID(ctx, o.ID.Hex())
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("PaymentLookup", func(t *testing.T) {
		o := newOrder("u-lookup", "key-lookup", "pi_lookup", base)
		require.NoError(t, repo.Insert(ctx, o))
		lookup := PaymentLookup{Repo: repo}

		id, ok, err := lookup.OrderIDForPayment(ctx, "pi_lookup")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, o.ID.Hex(), id)

		_, ok, err = lookup.OrderIDForPayment(ctx, "pi_missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
