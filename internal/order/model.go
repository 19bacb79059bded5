package order

import (
	"strings"
	"time"

	"storefront-be/internal/catalog"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentInfo struct {
	ID     string `bson:"id" json:"id"`
	Status string `bson:"status" json:"status"`
	Method string `bson:"method" json:"method"`
}

type ShippingAddress struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

func (a ShippingAddress) validate() error {
	for _, v := range []string{a.Street, a.City, a.PostalCode, a.Country} {
		if strings.TrimSpace(v) == "" {
			return ErrInvalidAddress
		}
	}
	return nil
}

// Line is a frozen purchase line. Price is the line total at purchase time.
type Line struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
	Size      string             `bson:"size" json:"size"`
	Color     string             `bson:"color" json:"color"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"user" json:"user"`
	Products        []Line             `bson:"products" json:"products"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	PaymentInfo     PaymentInfo        `bson:"paymentInfo" json:"paymentInfo"`
	ShippingAddress ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	IdempotencyKey  string             `bson:"idempotencyKey" json:"-"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

type ResolvedLine struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
	Price    float64          `json:"price"`
	Size     string           `json:"size"`
	Color    string           `json:"color"`
}

// View is an order with product references populated. Prices stay frozen.
type View struct {
	ID              primitive.ObjectID `json:"id"`
	UserID          string             `json:"user"`
	Products        []ResolvedLine     `json:"products"`
	TotalPrice      float64            `json:"totalPrice"`
	PaymentInfo     PaymentInfo        `json:"paymentInfo"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	CreatedAt       time.Time          `json:"createdAt"`
}

type PlaceOrderInput struct {
	PaymentMethod   string
	ShippingAddress ShippingAddress
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CheckoutStatus string

const (
	CheckoutSucceeded CheckoutStatus = "succeeded"
	CheckoutFailed    CheckoutStatus = "failed"
)
