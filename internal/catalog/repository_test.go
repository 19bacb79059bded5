package catalog

import (
	"context"
	"testing"
	"time"

	"storefront-be/internal/db/mongotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func seedProducts(t *testing.T, db *mongo.Database, n int) []Product {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	docs := make([]interface{}, 0, n)
	products := make([]Product, 0, n)
	for i := 0; i < n; i++ {
		p := Product{
			ID:         primitive.NewObjectID(),
			Title:      "product",
			Price:      float64(10 + i),
			Stock:      100,
			SalesCount: i * 3 % 7,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		docs = append(docs, p)
		products = append(products, p)
	}
	_, err := db.Collection("products").InsertMany(context.Background(), docs)
	require.NoError(t, err)
	return products
}

func TestRepository_Mongo(t *testing.T) {
	db := mongotest.Setup(t)
	ctx := context.Background()
	require.NoError(t, CreateIndexes(ctx, db))

	repo := NewRepository(db)
	seeded := seedProducts(t, db, 20)

	t.Run("FindByID", func(t *testing.T) {
		p, err := repo.FindByID(ctx, seeded[3].ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, seeded[3].Price, p.Price)
	})

	t.Run("FindByID_Malformed", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("FindByID_Missing", func(t *testing.T) {
		_, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("FindByIDs_SkipsUnknown", func(t *testing.T) {
		unknown := primitive.NewObjectID()
		got, err := repo.FindByIDs(ctx, []primitive.ObjectID{seeded[0].ID, seeded[1].ID, unknown})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.NotContains(t, got, unknown)
	})

	t.Run("Latest", func(t *testing.T) {
		got, err := repo.List(ctx, ListOptions{Sort: SortNewest, Limit: 15})
		require.NoError(t, err)
		require.Len(t, got, 15)
		assert.Equal(t, seeded[19].ID, got[0].ID)
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt))
		}
	})

	t.Run("BestSelling", func(t *testing.T) {
		got, err := repo.List(ctx, ListOptions{Sort: SortBestSeller, Limit: 4})
		require.NoError(t, err)
		require.Len(t, got, 4)
		for i := 1; i < len(got); i++ {
			assert.LessOrEqual(t, got[i].SalesCount, got[i-1].SalesCount)
		}
	})

	t.Run("IncrementSales", func(t *testing.T) {
		id := seeded[5].ID
		require.NoError(t, repo.IncrementSales(ctx, id, "ord-1", 3))

		p, err := repo.FindByID(ctx, id.Hex())
		require.NoError(t, err)
		assert.Equal(t, seeded[5].SalesCount+3, p.SalesCount)

		assert.ErrorIs(t, repo.IncrementSales(ctx, primitive.NewObjectID(), "ord-1", 1), ErrProductNotFound)
		assert.ErrorIs(t, repo.IncrementSales(ctx, id, "ord-1", 0), ErrInvalidQuantity)
	})

	t.Run("IncrementSales_RedeliveredOrderCountedOnce", func(t *testing.T) {
		id := seeded[6].ID
		require.NoError(t, repo.IncrementSales(ctx, id, "ord-2", 2))
		require.NoError(t, repo.IncrementSales(ctx, id, "ord-2", 2))
		require.NoError(t, repo.IncrementSales(ctx, id, "ord-3", 1))

		p, err := repo.FindByID(ctx, id.Hex())
		require.NoError(t, err)
		assert.Equal(t, seeded[6].SalesCount+3, p.SalesCount)
	})
}
