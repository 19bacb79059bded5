// Package events carries order lifecycle events over Kafka.
package events

import "time"

const Topic = "order-events"

type Type string

const (
	OrderPlaced    Type = "order.placed"
	OrderCancelled Type = "order.cancelled"
)

const headerEventType = "event_type"

type OrderLine struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderEvent struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Lines      []OrderLine `json:"lines"`
	TotalPrice float64     `json:"total_price"`
	PaymentID  string      `json:"payment_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
