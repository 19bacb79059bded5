package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/events"
	"storefront-be/internal/logger"
	"storefront-be/internal/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CartEngine is the part of the cart service checkout depends on.
type CartEngine interface {
	Snapshot(ctx context.Context, userID string) (*cart.Snapshot, error)
	DeleteCart(ctx context.Context, userID string) error
}

type ProductReader interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*catalog.Product, error)
}

// Ledger records each checkout attempt across the payment boundary.
type Ledger interface {
	BeginAttempt(ctx context.Context, e payment.LedgerEntry) (*payment.LedgerEntry, error)
	RetryAttempt(ctx context.Context, key string) (*payment.LedgerEntry, error)
	MarkCharged(ctx context.Context, key, paymentID string) error
	MarkRecorded(ctx context.Context, key, orderID string) error
	MarkFailed(ctx context.Context, key string) error
	MarkRefundedByPayment(ctx context.Context, paymentID string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType events.Type, event events.OrderEvent) error
}

const (
	// settleTimeout bounds the bookkeeping that follows a provider call.
	settleTimeout  = 15 * time.Second
	publishTimeout = 3 * time.Second
)

type Config struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type Service interface {
	PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*Order, error)
	ListOrders(ctx context.Context, userID string) ([]*View, error)
	GetOrder(ctx context.Context, caller auth.Identity, orderID string) (*View, error)
	CancelOrder(ctx context.Context, caller auth.Identity, orderID string) error
	CreateCheckoutSession(ctx context.Context, userID string) (*CheckoutSession, error)
	CheckoutStatus(ctx context.Context, userID, sessionID string) (CheckoutStatus, error)
}

type service struct {
	repo      Repository
	carts     CartEngine
	products  ProductReader
	gateway   payment.Gateway
	ledger    Ledger
	publisher EventPublisher
	cfg       Config
	now       func() time.Time
}

func NewService(
	repo Repository,
	carts CartEngine,
	products ProductReader,
	gateway payment.Gateway,
	ledger Ledger,
	publisher EventPublisher,
	cfg Config,
) Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &service{
		repo:      repo,
		carts:     carts,
		products:  products,
		gateway:   gateway,
		ledger:    ledger,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// PlaceOrder charges the caller for the current cart and records the order.
// The charge is the single decision point: on any payment failure neither
// an order nor a cart change is made.
func (s *service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
	)

	if strings.TrimSpace(in.PaymentMethod) == "" {
		return nil, ErrPaymentMethodRequired
	}
	if err := in.ShippingAddress.validate(); err != nil {
		return nil, err
	}

	snap, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, Line{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			Price:     l.LineTotal,
			Size:      l.Size,
			Color:     l.Color,
		})
	}

	key := idempotencyKey(userID, in.PaymentMethod, snap)
	amount := payment.MinorUnits(snap.TotalPrice)
	log = log.With(zap.String("idempotency_key", key), zap.Int64("amount", amount))

	attempt, err := s.ledger.BeginAttempt(ctx, payment.LedgerEntry{
		IdempotencyKey: key,
		UserID:         userID,
		AmountMinor:    amount,
		Currency:       s.cfg.Currency,
	})
	if err != nil {
		log.Error("failed to open ledger entry", zap.Error(err))
		return nil, apperror.Wrap(apperror.ServerError, "failed to start checkout", err)
	}

	switch attempt.Status {
	case payment.LedgerRecorded:
		existing, err := s.repo.FindByIdempotencyKey(ctx, key)
		if err == nil {
			log.Info("checkout replayed, returning recorded order", zap.String("order_id", existing.ID.Hex()))
			s.clearCart(ctx, log, userID)
			return existing, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	case payment.LedgerRefunded:
		return nil, ErrAttemptRefunded
	case payment.LedgerFailed:
		attempt, err = s.ledger.RetryAttempt(ctx, key)
		if err != nil {
			log.Error("failed to reopen ledger entry", zap.Error(err))
			return nil, apperror.Wrap(apperror.ServerError, "failed to start checkout", err)
		}
	}
	providerKey := attempt.ProviderKey()
	log = log.With(zap.Int("attempt", attempt.Attempt))

	charge, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		AmountMinor:    amount,
		Currency:       s.cfg.Currency,
		PaymentMethod:  in.PaymentMethod,
		IdempotencyKey: providerKey,
		UserID:         userID,
	})

	// The provider may have moved money; the caller going away must not
	// strand the ledger, the order or the cart.
	ctx, cancel := settleContext(ctx)
	defer cancel()

	if err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			log.Warn("charge declined", zap.Error(err))
			if markErr := s.ledger.MarkFailed(ctx, key); markErr != nil {
				log.Error("failed to mark ledger failed", zap.Error(markErr))
			}
			return nil, err
		}
		// Outcome unknown: the entry stays pending until a retry or the
		// reconciler settles it.
		log.Warn("charge failed", zap.Error(err))
		return nil, apperror.Wrap(apperror.PaymentFailed, ErrPaymentFailed.Message, err)
	}
	log = log.With(zap.String("payment_id", charge.ID))

	if err := s.ledger.MarkCharged(ctx, key, charge.ID); err != nil {
		log.Error("failed to mark ledger charged", zap.Error(err))
	}

	order := &Order{
		UserID:          userID,
		Products:        lines,
		TotalPrice:      snap.TotalPrice,
		PaymentInfo:     PaymentInfo{ID: charge.ID, Status: charge.Status, Method: charge.Method},
		ShippingAddress: in.ShippingAddress,
		IdempotencyKey:  key,
		CreatedAt:       s.now(),
	}
	if err := s.repo.Insert(ctx, order); err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			if existing, findErr := s.repo.FindByIdempotencyKey(ctx, key); findErr == nil {
				return existing, nil
			}
		}
		// The charge stays in the ledger as charged; the reconciler refunds it.
		log.Error("payment captured but order not recorded", zap.Error(err))
		return nil, apperror.Wrap(apperror.ServerError, ErrRecordOrder.Message, err)
	}
	log = log.With(zap.String("order_id", order.ID.Hex()))

	if err := s.ledger.MarkRecorded(ctx, key, order.ID.Hex()); err != nil {
		log.Error("failed to mark ledger recorded", zap.Error(err))
	}
	s.clearCart(ctx, log, userID)
	s.publish(ctx, log, events.OrderPlaced, order)

	log.Info("order placed", zap.Float64("total_price", order.TotalPrice))
	return order, nil
}

// settleContext keeps ctx's values but not its cancellation.
func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

func (s *service) ListOrders(ctx context.Context, userID string) ([]*View, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, orders...)
}

func (s *service) GetOrder(ctx context.Context, caller auth.Identity, orderID string) (*View, error) {
	order, err := s.ownedOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	views, err := s.resolve(ctx, order)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// CancelOrder refunds the payment, if any, and removes the order. A failed
// refund leaves the order in place.
func (s *service) CancelOrder(ctx context.Context, caller auth.Identity, orderID string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CancelOrder"),
		zap.String("order_id", orderID),
	)

	order, err := s.ownedOrder(ctx, caller, orderID)
	if err != nil {
		return err
	}

	if paymentID := order.PaymentInfo.ID; paymentID != "" {
		if err := s.gateway.Refund(ctx, paymentID); err != nil {
			log.Error("refund failed", zap.String("payment_id", paymentID), zap.Error(err))
			if apperror.KindOf(err) == apperror.ServerError {
				return apperror.Wrap(apperror.ProviderError, "refund failed", err)
			}
			return err
		}
	}

	ctx, cancel := settleContext(ctx)
	defer cancel()

	if err := s.repo.Delete(ctx, order.ID); err != nil {
		log.Error("failed to delete order", zap.Error(err))
		return err
	}

	if paymentID := order.PaymentInfo.ID; paymentID != "" {
		if err := s.ledger.MarkRefundedByPayment(ctx, paymentID); err != nil && !errors.Is(err, payment.ErrLedgerEntryNotFound) {
			log.Error("failed to mark ledger refunded", zap.Error(err))
		}
	}
	s.publish(ctx, log, events.OrderCancelled, order)

	log.Info("order cancelled")
	return nil
}

// CreateCheckoutSession prices the cart for the provider's hosted payment page.
func (s *service) CreateCheckoutSession(ctx context.Context, userID string) (*CheckoutSession, error) {
	snap, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]payment.SessionLineItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		lines = append(lines, payment.SessionLineItem{
			Name:            l.Product.Title,
			Description:     l.Product.Description,
			Images:          l.Product.Images,
			UnitAmountMinor: payment.MinorUnits(l.UnitPrice),
			Quantity:        int64(l.Quantity),
		})
	}

	session, err := s.gateway.CreateHostedSession(ctx, payment.HostedSessionRequest{
		UserID:     userID,
		Currency:   s.cfg.Currency,
		Lines:      lines,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("checkout session created", zap.String("session_id", session.ID))
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (s *service) CheckoutStatus(ctx context.Context, userID, sessionID string) (CheckoutStatus, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionIDRequired
	}

	status, err := s.gateway.GetSessionStatus(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if status.ClientReferenceID != userID {
		return "", ErrSessionNotFound
	}

	if status.Paid {
		return CheckoutSucceeded, nil
	}
	return CheckoutFailed, nil
}

// ownedOrder hides other users' orders behind NotFound. Admins see all.
func (s *service) ownedOrder(ctx context.Context, caller auth.Identity, orderID string) (*Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && order.UserID != caller.UserID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *service) resolve(ctx context.Context, orders ...*Order) ([]*View, error) {
	seen := make(map[primitive.ObjectID]struct{})
	ids := make([]primitive.ObjectID, 0)
	for _, o := range orders {
		for _, l := range o.Products {
			if _, ok := seen[l.ProductID]; !ok {
				seen[l.ProductID] = struct{}{}
				ids = append(ids, l.ProductID)
			}
		}
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*View, 0, len(orders))
	for _, o := range orders {
		v := &View{
			ID:              o.ID,
			UserID:          o.UserID,
			Products:        make([]ResolvedLine, 0, len(o.Products)),
			TotalPrice:      o.TotalPrice,
			PaymentInfo:     o.PaymentInfo,
			ShippingAddress: o.ShippingAddress,
			CreatedAt:       o.CreatedAt,
		}
		for _, l := range o.Products {
			v.Products = append(v.Products, ResolvedLine{
				Product:  products[l.ProductID],
				Quantity: l.Quantity,
				Price:    l.Price,
				Size:     l.Size,
				Color:    l.Color,
			})
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *service) clearCart(ctx context.Context, log *zap.Logger, userID string) {
	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		log.Error("failed to delete cart after checkout", zap.Error(err))
	}
}

func (s *service) publish(ctx context.Context, log *zap.Logger, eventType events.Type, o *Order) {
	if s.publisher == nil {
		return
	}

	lines := make([]events.OrderLine, 0, len(o.Products))
	for _, l := range o.Products {
		lines = append(lines, events.OrderLine{
			ProductID: l.ProductID.Hex(),
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, eventType, events.OrderEvent{
		OrderID:    o.ID.Hex(),
		UserID:     o.UserID,
		Lines:      lines,
		TotalPrice: o.TotalPrice,
		PaymentID:  o.PaymentInfo.ID,
		OccurredAt: s.now(),
	})
	if err != nil {
		log.Error("failed to publish order event",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}
