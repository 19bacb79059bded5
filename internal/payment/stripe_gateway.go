package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// metadataIdempotencyKey tags each PaymentIntent so FindCharge can locate it.
const metadataIdempotencyKey = "idempotency_key"

type StripeConfig struct {
	SecretKey string
	// HTTPClient and URL override the Stripe backend, mainly for tests.
	HTTPClient *http.Client
	URL        string
}

type stripeGateway struct {
	sc *client.API
}

// ----------------- Constructor -----------------

func NewStripeGateway(cfg StripeConfig) Gateway {
	if cfg.SecretKey == "" {
		logger.L().Warn("Stripe secret key is empty")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient: httpClient,
		// A checkout is a single attempt; the caller retries with the same key.
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.L().Named("stripe").Sugar(),
	}
	if cfg.URL != "" {
		backendCfg.URL = stripe.String(cfg.URL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)
	return &stripeGateway{
		sc: client.New(cfg.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
	}
}

// ----------------- Charge -----------------

// Charge creates and confirms a PaymentIntent in one call. Redirect-based
// payment methods are refused.
func (g *stripeGateway) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("gateway", "stripe"),
		zap.Int64("amount", req.AmountMinor),
		zap.String("currency", req.Currency),
	)

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountMinor),
		Currency:      stripe.String(req.Currency),
		PaymentMethod: stripe.String(req.PaymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata(metadataIdempotencyKey, req.IdempotencyKey)

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		log.Warn("stripe charge failed", zap.Error(err))
		return nil, mapStripeError(err)
	}

	charge := &Charge{ID: pi.ID, Status: string(pi.Status)}
	if pi.PaymentMethod != nil {
		charge.Method = pi.PaymentMethod.ID
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
	default:
		log.Warn("payment intent not completed",
			zap.String("payment_id", pi.ID),
			zap.String("status", string(pi.Status)),
		)
		return nil, ErrDeclined
	}

	log.Info("stripe charge succeeded", zap.String("payment_id", pi.ID))
	return charge, nil
}

// FindCharge searches PaymentIntents by the idempotency key stored in their
// metadata. Only succeeded or processing intents count as charges.
func (g *stripeGateway) FindCharge(ctx context.Context, idempotencyKey string) (*Charge, error) {
	params := &stripe.PaymentIntentSearchParams{}
	params.Context = ctx
	params.Query = fmt.Sprintf("metadata['%s']:'%s'", metadataIdempotencyKey, idempotencyKey)

	iter := g.sc.PaymentIntents.Search(params)
	for iter.Next() {
		pi := iter.PaymentIntent()
		switch pi.Status {
		case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		default:
			continue
		}
		charge := &Charge{ID: pi.ID, Status: string(pi.Status)}
		if pi.PaymentMethod != nil {
			charge.Method = pi.PaymentMethod.ID
		}
		return charge, nil
	}
	if err := iter.Err(); err != nil {
		logger.FromCtx(ctx).Error("stripe charge search failed",
			zap.String("idempotency_key", idempotencyKey),
			zap.Error(err),
		)
		return nil, apperror.Wrap(apperror.ProviderError, ErrProvider.Message, err)
	}
	return nil, ErrChargeNotFound
}

// ----------------- Refund -----------------

func (g *stripeGateway) Refund(ctx context.Context, paymentID string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentID)}
	params.Context = ctx

	if _, err := g.sc.Refunds.New(params); err != nil {
		logger.FromCtx(ctx).Error("stripe refund failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return apperror.Wrap(apperror.ProviderError, ErrProvider.Message, err)
	}
	return nil
}

// ----------------- Hosted checkout -----------------

func (g *stripeGateway) CreateHostedSession(ctx context.Context, req HostedSessionRequest) (*HostedSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, l := range req.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(l.Name),
					Description: optionalString(l.Description),
					Images:      stripe.StringSlice(l.Images),
				},
				UnitAmount: stripe.Int64(l.UnitAmountMinor),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.UserID),
	}
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		logger.FromCtx(ctx).Error("stripe session create failed", zap.Error(err))
		return nil, apperror.Wrap(apperror.ProviderError, ErrProvider.Message, err)
	}

	return &HostedSession{ID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) GetSessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, apperror.New(apperror.NotFound, "checkout session not found")
		}
		logger.FromCtx(ctx).Error("stripe session retrieve failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, apperror.Wrap(apperror.ProviderError, ErrProvider.Message, err)
	}

	return &SessionStatus{
		Paid:              s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		ClientReferenceID: s.ClientReferenceID,
	}, nil
}

// mapStripeError separates card declines from provider faults.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
		return apperror.Wrap(apperror.PaymentFailed, ErrDeclined.Message, err)
	}
	return apperror.Wrap(apperror.ProviderError, ErrProvider.Message, err)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
