package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Images      []string           `bson:"images" json:"images"`
	Videos      []string           `bson:"videos" json:"videos"`
	SalesCount  int                `bson:"salesCount" json:"salesCount"`
	SalesOrders []string           `bson:"salesOrders,omitempty" json:"-"`
	Reviews     []Review           `bson:"reviews" json:"reviews"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Review struct {
	UserID    string    `bson:"user" json:"user"`
	Comment   string    `bson:"comment" json:"comment"`
	Rating    int       `bson:"rating" json:"rating"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type SortField string

const (
	SortNewest     SortField = "createdAt"
	SortBestSeller SortField = "salesCount"
)

type ListOptions struct {
	// Sort is always descending; empty keeps natural order.
	Sort  SortField
	Limit int64
}
