package payment

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// breakerGateway stops calling the provider after repeated provider faults.
// Declines and unknown ids are not provider faults and never trip it.
type breakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerGateway(next Gateway, s BreakerSettings) Gateway {
	if s.Name == "" {
		s.Name = "payment"
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrDeclined) ||
				errors.Is(err, apperror.NotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("payment circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &breakerGateway{next: next, cb: cb}
}

func (b *breakerGateway) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	v, err := b.execute(func() (any, error) { return b.next.Charge(ctx, req) })
	if err != nil {
		return nil, err
	}
	return v.(*Charge), nil
}

func (b *breakerGateway) FindCharge(ctx context.Context, idempotencyKey string) (*Charge, error) {
	v, err := b.execute(func() (any, error) { return b.next.FindCharge(ctx, idempotencyKey) })
	if err != nil {
		return nil, err
	}
	return v.(*Charge), nil
}

func (b *breakerGateway) Refund(ctx context.Context, paymentID string) error {
	_, err := b.execute(func() (any, error) { return nil, b.next.Refund(ctx, paymentID) })
	return err
}

func (b *breakerGateway) CreateHostedSession(ctx context.Context, req HostedSessionRequest) (*HostedSession, error) {
	v, err := b.execute(func() (any, error) { return b.next.CreateHostedSession(ctx, req) })
	if err != nil {
		return nil, err
	}
	return v.(*HostedSession), nil
}

func (b *breakerGateway) GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	v, err := b.execute(func() (any, error) { return b.next.GetSessionStatus(ctx, sessionID) })
	if err != nil {
		return nil, err
	}
	return v.(*SessionStatus), nil
}

func (b *breakerGateway) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrProviderUnavailable
	}
	return v, err
}
