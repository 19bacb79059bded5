package cart

import (
	"time"

	"storefront-be/internal/catalog"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LineItem is one stored cart line. (ProductID, Size, Color) identifies it.
type LineItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      string             `bson:"size" json:"size"`
	Color     string             `bson:"color" json:"color"`
	LineTotal float64            `bson:"lineTotal" json:"lineTotal"`
}

func (l LineItem) matches(productID primitive.ObjectID, size, color string) bool {
	return l.ProductID == productID && l.Size == size && l.Color == color
}

type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user" json:"user"`
	Products   []LineItem         `bson:"products" json:"products"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c *Cart) find(productID primitive.ObjectID, size, color string) int {
	for i, l := range c.Products {
		if l.matches(productID, size, color) {
			return i
		}
	}
	return -1
}

func (c *Cart) recomputeTotal() {
	totals := make([]float64, 0, len(c.Products))
	for _, l := range c.Products {
		totals = append(totals, l.LineTotal)
	}
	c.TotalPrice = Sum(totals...)
}

// ResolvedLine is a cart line with its product populated from the catalog.
// Product is nil when the referenced product no longer exists.
type ResolvedLine struct {
	Product   *catalog.Product `json:"product"`
	Quantity  int              `json:"quantity"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	LineTotal float64          `json:"lineTotal"`
}

// View is the cart as returned to clients, priced at current catalog prices.
type View struct {
	ID         primitive.ObjectID `json:"id"`
	UserID     string             `json:"user"`
	Products   []ResolvedLine     `json:"products"`
	TotalPrice float64            `json:"totalPrice"`
	CreatedAt  time.Time          `json:"createdAt"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

type LineInput struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

func (in LineInput) validate() error {
	if err := (LineKey{ProductID: in.ProductID, Size: in.Size, Color: in.Color}).validate(); err != nil {
		return err
	}
	if in.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

func (k LineKey) validate() error {
	switch {
	case k.ProductID == "":
		return ErrProductRequired
	case k.Size == "":
		return ErrSizeRequired
	case k.Color == "":
		return ErrColorRequired
	}
	return nil
}

// SnapshotLine freezes one cart line at checkout time.
type SnapshotLine struct {
	Product   *catalog.Product
	Quantity  int
	Size      string
	Color     string
	UnitPrice float64
	LineTotal float64
}

// Snapshot is the priced cart content the order engine charges for.
type Snapshot struct {
	CartID     primitive.ObjectID
	UserID     string
	Lines      []SnapshotLine
	TotalPrice float64
}
