package httpapi

import (
	"context"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/order"
	"storefront-be/internal/user"

	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in user.RegisterInput) (string, user.User, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Get(1).(user.User), args.Error(2)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, user.User, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Get(1).(user.User), args.Error(2)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalogService) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *MockCatalogService) LatestProducts(ctx context.Context) ([]*catalog.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *MockCatalogService) BestSelling(ctx context.Context) ([]*catalog.Product, error) {
	return m.products(m.Called(ctx))
}

func (m *MockCatalogService) products(args mock.Arguments) ([]*catalog.Product, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*catalog.Product), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) view(args mock.Arguments) (*cart.View, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *MockCartService) AddOrUpdateLine(ctx context.Context, userID string, in cart.LineInput) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, in))
}

func (m *MockCartService) UpdateLine(ctx context.Context, userID string, in cart.LineInput) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, in))
}

func (m *MockCartService) RemoveLine(ctx context.Context, userID string, key cart.LineKey) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, key))
}

func (m *MockCartService) GetCart(ctx context.Context, userID string) (*cart.View, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *MockCartService) DeleteCart(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCartService) Snapshot(ctx context.Context, userID string) (*cart.Snapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Snapshot), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, userID string, in order.PlaceOrderInput) (*order.Order, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, userID string) ([]*order.View, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.View), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, caller auth.Identity, orderID string) (*order.View, error) {
	args := m.Called(ctx, caller, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.View), args.Error(1)
}

func (m *MockOrderService) CancelOrder(ctx context.Context, caller auth.Identity, orderID string) error {
	return m.Called(ctx, caller, orderID).Error(0)
}

func (m *MockOrderService) CreateCheckoutSession(ctx context.Context, userID string) (*order.CheckoutSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutSession), args.Error(1)
}

func (m *MockOrderService) CheckoutStatus(ctx context.Context, userID, sessionID string) (order.CheckoutStatus, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Get(0).(order.CheckoutStatus), args.Error(1)
}

// stubResolver accepts a fixed set of bearer tokens.
type stubResolver map[string]auth.Identity

func (s stubResolver) ResolveIdentity(credential string) (auth.Identity, error) {
	if credential == "" {
		return auth.Identity{}, auth.ErrMissingCredential
	}
	id, ok := s[credential]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidCredential
	}
	return id, nil
}

var errBoom = apperror.Wrap(apperror.ServerError, "internal server error", context.DeadlineExceeded)
