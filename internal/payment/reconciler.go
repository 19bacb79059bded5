package payment

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// OrderLookup finds the order persisted for a provider payment, if any.
type OrderLookup interface {
	OrderIDForPayment(ctx context.Context, paymentID string) (orderID string, found bool, err error)
}

// Reconciler closes the gap between a provider call and a persisted order.
// Entries left pending longer than After are resolved against the provider:
// no charge marks them failed, a charge moves them to charged. Entries left
// charged are refunded, unless an order turns out to exist, in which case the
// entry is marked recorded.
type Reconciler struct {
	Ledger  Repository
	Gateway Gateway
	Orders  OrderLookup
	After   time.Duration

	now func() time.Time
}

type ReconcileResult struct {
	Refunded  int
	Recorded  int
	Abandoned int
}

func (r *Reconciler) Run(ctx context.Context) (ReconcileResult, error) {
	log := logger.FromCtx(ctx).With(zap.String("component", "reconciler"))

	now := time.Now
	if r.now != nil {
		now = r.now
	}
	cutoff := now().Add(-r.After)

	var res ReconcileResult
	pending, err := r.Ledger.ListStale(ctx, LedgerPending, cutoff)
	if err != nil {
		return res, err
	}
	charged, err := r.Ledger.ListStale(ctx, LedgerCharged, cutoff)
	if err != nil {
		return res, err
	}

	var errs []error
	for _, e := range pending {
		entryLog := log.With(
			zap.String("idempotency_key", e.IdempotencyKey),
			zap.Int("attempt", e.Attempt),
		)

		charge, err := r.Gateway.FindCharge(ctx, e.ProviderKey())
		if errors.Is(err, ErrChargeNotFound) {
			if err := r.Ledger.MarkFailed(ctx, e.IdempotencyKey); err != nil {
				entryLog.Error("failed to mark ledger failed", zap.Error(err))
				errs = append(errs, err)
				continue
			}
			res.Abandoned++
			continue
		}
		if err != nil {
			entryLog.Error("charge lookup failed", zap.Error(err))
			errs = append(errs, err)
			continue
		}

		if err := r.Ledger.MarkCharged(ctx, e.IdempotencyKey, charge.ID); err != nil {
			entryLog.Error("failed to mark ledger charged", zap.Error(err))
			errs = append(errs, err)
			continue
		}
		entryLog.Warn("found charge for pending attempt", zap.String("payment_id", charge.ID))
		e.Status = LedgerCharged
		e.PaymentID = charge.ID
		charged = append(charged, e)
	}

	for _, e := range charged {
		entryLog := log.With(
			zap.String("idempotency_key", e.IdempotencyKey),
			zap.String("payment_id", e.PaymentID),
		)

		orderID, found, err := r.Orders.OrderIDForPayment(ctx, e.PaymentID)
		if err != nil {
			entryLog.Error("order lookup failed", zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if found {
			if err := r.Ledger.MarkRecorded(ctx, e.IdempotencyKey, orderID); err != nil {
				errs = append(errs, err)
				continue
			}
			res.Recorded++
			continue
		}

		if err := r.Gateway.Refund(ctx, e.PaymentID); err != nil {
			entryLog.Error("refund failed", zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if err := r.Ledger.MarkRefunded(ctx, e.IdempotencyKey); err != nil {
			entryLog.Error("failed to mark ledger refunded", zap.Error(err))
			errs = append(errs, err)
			continue
		}
		entryLog.Info("refunded unrecorded payment", zap.Int64("amount", e.AmountMinor))
		res.Refunded++
	}

	log.Info("reconcile completed",
		zap.Int("pending", len(pending)),
		zap.Int("candidates", len(charged)),
		zap.Int("refunded", res.Refunded),
		zap.Int("recorded", res.Recorded),
		zap.Int("abandoned", res.Abandoned),
	)
	return res, errors.Join(errs...)
}
