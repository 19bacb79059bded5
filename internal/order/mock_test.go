package order

import (
	"context"
	"sync"

	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/events"
	"storefront-be/internal/payment"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockCartEngine struct {
	mock.Mock
}

func (m *MockCartEngine) Snapshot(ctx context.Context, userID string) (*cart.Snapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Snapshot), args.Error(1)
}

func (m *MockCartEngine) DeleteCart(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.Charge, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Charge), args.Error(1)
}

func (m *MockGateway) FindCharge(ctx context.Context, idempotencyKey string) (*payment.Charge, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Charge), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, paymentID string) error {
	return m.Called(ctx, paymentID).Error(0)
}

func (m *MockGateway) CreateHostedSession(ctx context.Context, req payment.HostedSessionRequest) (*payment.HostedSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.HostedSession), args.Error(1)
}

func (m *MockGateway) GetSessionStatus(ctx context.Context, sessionID string) (*payment.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SessionStatus), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) BeginAttempt(ctx context.Context, e payment.LedgerEntry) (*payment.LedgerEntry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.LedgerEntry), args.Error(1)
}

func (m *MockLedger) RetryAttempt(ctx context.Context, key string) (*payment.LedgerEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.LedgerEntry), args.Error(1)
}

func (m *MockLedger) MarkCharged(ctx context.Context, key, paymentID string) error {
	return m.Called(ctx, key, paymentID).Error(0)
}

func (m *MockLedger) MarkRecorded(ctx context.Context, key, orderID string) error {
	return m.Called(ctx, key, orderID).Error(0)
}

func (m *MockLedger) MarkFailed(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockLedger) MarkRefundedByPayment(ctx context.Context, paymentID string) error {
	return m.Called(ctx, paymentID).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType events.Type, event events.OrderEvent) error {
	return m.Called(ctx, eventType, event).Error(0)
}

type fakeCatalog map[primitive.ObjectID]*catalog.Product

func (f fakeCatalog) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*catalog.Product, error) {
	out := make(map[primitive.ObjectID]*catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakeRepository keeps orders in memory and enforces the idempotency key
// uniqueness the Mongo index provides. Like the driver, Insert fails on a
// done context.
type fakeRepository struct {
	mu      sync.Mutex
	orders  map[primitive.ObjectID]*Order
	deleted []primitive.ObjectID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{orders: make(map[primitive.ObjectID]*Order)}
}

func (f *fakeRepository) Insert(ctx context.Context, o *Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.orders {
		if o.IdempotencyKey != "" && existing.IdempotencyKey == o.IdempotencyKey {
			return ErrDuplicateOrder
		}
	}
	o.ID = primitive.NewObjectID()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeRepository) FindByID(_ context.Context, id string) (*Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[oid]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeRepository) FindByIdempotencyKey(_ context.Context, key string) (*Order, error) {
	return f.findBy(func(o *Order) bool { return o.IdempotencyKey == key })
}

func (f *fakeRepository) FindByPaymentID(_ context.Context, paymentID string) (*Order, error) {
	return f.findBy(func(o *Order) bool { return o.PaymentInfo.ID == paymentID })
}

func (f *fakeRepository) findBy(match func(*Order) bool) (*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if match(o) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (f *fakeRepository) ListByUser(_ context.Context, userID string) ([]*Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Order, 0)
	for _, o := range f.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(f.orders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}
