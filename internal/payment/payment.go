package payment

import "context"

// Gateway is the external payment service.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
	// FindCharge returns the completed charge made under idempotencyKey, or
	// ErrChargeNotFound.
	FindCharge(ctx context.Context, idempotencyKey string) (*Charge, error)
	Refund(ctx context.Context, paymentID string) error
	CreateHostedSession(ctx context.Context, req HostedSessionRequest) (*HostedSession, error)
	GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error)
}
