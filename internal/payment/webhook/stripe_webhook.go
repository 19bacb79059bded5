package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"
	"storefront-be/internal/payment"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	provider     = "STRIPE"
	maxBodyBytes = int64(65536)
)

// Store is the webhook log. payment.Repository satisfies it.
type Store interface {
	SavePaymentWebhook(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		externalID string,
		payload json.RawMessage,
		signatureValid bool,
	) (int64, bool, error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type Handler struct {
	store  Store
	secret string
}

func NewHandler(store Store, secret string) *Handler {
	return &Handler{store: store, secret: secret}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("provider", provider))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		apperror.WriteJSON(w, apperror.New(apperror.InvalidInput, "failed to read body"))
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		r.Header.Get("Stripe-Signature"),
		h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		apperror.WriteJSON(w, payment.ErrInvalidSignature)
		return
	}

	log = log.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)

	var object struct {
		ID string `json:"id"`
	}
	if event.Data != nil {
		if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
			log.Warn("failed to decode webhook object id", zap.Error(err))
		}
	}

	webhookID, duplicate, err := h.store.SavePaymentWebhook(
		ctx, provider, event.ID, string(event.Type), object.ID, body, true,
	)
	if err != nil {
		log.Error("failed to store webhook", zap.Error(err))
		apperror.WriteJSON(w, err)
		return
	}
	if duplicate {
		log.Info("duplicate webhook ignored")
		writeReceived(w)
		return
	}

	if err := h.process(log, event); err != nil {
		log.Error("webhook processing failed", zap.Error(err))
		if markErr := h.store.MarkWebhookFailed(ctx, webhookID, err.Error()); markErr != nil {
			log.Error("failed to mark webhook failed", zap.Error(markErr))
		}
		writeReceived(w)
		return
	}

	if err := h.store.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}
	writeReceived(w)
}

func (h *Handler) process(log *zap.Logger, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return err
		}
		log.Info("checkout session completed",
			zap.String("session_id", s.ID),
			zap.String("client_reference_id", s.ClientReferenceID),
			zap.String("payment_status", string(s.PaymentStatus)),
		)
	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return err
		}
		log.Warn("payment intent failed", zap.String("payment_id", pi.ID))
	default:
		log.Debug("webhook event ignored")
	}
	return nil
}

func writeReceived(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received":true}`))
}
