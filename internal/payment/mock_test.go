package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Charge), args.Error(1)
}

func (m *MockGateway) FindCharge(ctx context.Context, idempotencyKey string) (*Charge, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Charge), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, paymentID string) error {
	return m.Called(ctx, paymentID).Error(0)
}

func (m *MockGateway) CreateHostedSession(ctx context.Context, req HostedSessionRequest) (*HostedSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*HostedSession), args.Error(1)
}

func (m *MockGateway) GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SessionStatus), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) BeginAttempt(ctx context.Context, e LedgerEntry) (*LedgerEntry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LedgerEntry), args.Error(1)
}

func (m *MockRepository) RetryAttempt(ctx context.Context, key string) (*LedgerEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LedgerEntry), args.Error(1)
}

func (m *MockRepository) MarkCharged(ctx context.Context, key, paymentID string) error {
	return m.Called(ctx, key, paymentID).Error(0)
}

func (m *MockRepository) MarkRecorded(ctx context.Context, key, orderID string) error {
	return m.Called(ctx, key, orderID).Error(0)
}

func (m *MockRepository) MarkFailed(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRepository) MarkRefunded(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRepository) MarkRefundedByPayment(ctx context.Context, paymentID string) error {
	return m.Called(ctx, paymentID).Error(0)
}

func (m *MockRepository) ListStale(ctx context.Context, status LedgerStatus, before time.Time) ([]LedgerEntry, error) {
	args := m.Called(ctx, status, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LedgerEntry), args.Error(1)
}

func (m *MockRepository) SavePaymentWebhook(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	externalID string,
	payload json.RawMessage,
	signatureValid bool,
) (int64, bool, error) {
	args := m.Called(ctx, provider, eventID, eventType, externalID, payload, signatureValid)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockRepository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	return m.Called(ctx, webhookID).Error(0)
}

func (m *MockRepository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	return m.Called(ctx, webhookID, reason).Error(0)
}

type MockOrderLookup struct {
	mock.Mock
}

func (m *MockOrderLookup) OrderIDForPayment(ctx context.Context, paymentID string) (string, bool, error) {
	args := m.Called(ctx, paymentID)
	return args.String(0), args.Bool(1), args.Error(2)
}
