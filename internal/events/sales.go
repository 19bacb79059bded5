package events

import (
	"context"
	"errors"
	"fmt"

	"storefront-be/internal/catalog"
	"storefront-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type SalesIncrementer interface {
	IncrementSales(ctx context.Context, productID primitive.ObjectID, orderID string, qty int) error
}

// NewSalesHandler bumps each purchased product's sales count on order.placed.
// Increments are keyed by order id, so a redelivered event is not counted twice.
func NewSalesHandler(products SalesIncrementer) Handler {
	return func(ctx context.Context, eventType Type, event OrderEvent) error {
		if eventType != OrderPlaced {
			return nil
		}
		log := logger.FromCtx(ctx).With(zap.String("order_id", event.OrderID))

		// Lines of one product in different sizes or colors count together.
		var order []primitive.ObjectID
		qty := make(map[primitive.ObjectID]int)
		for _, l := range event.Lines {
			id, err := primitive.ObjectIDFromHex(l.ProductID)
			if err != nil {
				log.Warn("skipping line with invalid product id", zap.String("product_id", l.ProductID))
				continue
			}
			if _, seen := qty[id]; !seen {
				order = append(order, id)
			}
			qty[id] += l.Quantity
		}

		var errs []error
		for _, id := range order {
			err := products.IncrementSales(ctx, id, event.OrderID, qty[id])
			if errors.Is(err, catalog.ErrProductNotFound) {
				log.Warn("product gone, sales not counted", zap.String("product_id", id.Hex()))
				continue
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("product %s: %w", id.Hex(), err))
			}
		}
		return errors.Join(errs...)
	}
}
