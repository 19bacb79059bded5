package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Repository interface {
	// BeginAttempt records a pending attempt, or returns the entry already
	// stored under the same idempotency key.
	BeginAttempt(ctx context.Context, e LedgerEntry) (*LedgerEntry, error)
	// RetryAttempt moves a failed entry back to pending under the next
	// attempt number.
	RetryAttempt(ctx context.Context, key string) (*LedgerEntry, error)
	MarkCharged(ctx context.Context, key, paymentID string) error
	MarkRecorded(ctx context.Context, key, orderID string) error
	MarkFailed(ctx context.Context, key string) error
	MarkRefunded(ctx context.Context, key string) error
	MarkRefundedByPayment(ctx context.Context, paymentID string) error
	ListStale(ctx context.Context, status LedgerStatus, before time.Time) ([]LedgerEntry, error)

	SavePaymentWebhook(
		ctx context.Context,
		provider string,
		eventID string,
		eventType string,
		externalID string,
		payload json.RawMessage,
		signatureValid bool,
	) (webhookID int64, isDuplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const ledgerColumns = `idempotency_key, attempt, user_id, amount_minor, currency, status,
	COALESCE(payment_id, ''), COALESCE(order_id, ''), created_at, updated_at`

func scanLedger(row interface{ Scan(...any) error }) (*LedgerEntry, error) {
	var e LedgerEntry
	err := row.Scan(
		&e.IdempotencyKey, &e.Attempt, &e.UserID, &e.AmountMinor, &e.Currency, &e.Status,
		&e.PaymentID, &e.OrderID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) BeginAttempt(ctx context.Context, e LedgerEntry) (*LedgerEntry, error) {
	q := `
	INSERT INTO payment_ledger (idempotency_key, user_id, amount_minor, currency, status)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (idempotency_key)
	DO UPDATE SET updated_at = now()
	RETURNING ` + ledgerColumns

	return scanLedger(r.db.QueryRowContext(ctx, q,
		e.IdempotencyKey, e.UserID, e.AmountMinor, e.Currency, LedgerPending,
	))
}

func (r *repository) RetryAttempt(ctx context.Context, key string) (*LedgerEntry, error) {
	q := `
	UPDATE payment_ledger
	SET status = $2, attempt = attempt + 1, payment_id = NULL, updated_at = now()
	WHERE idempotency_key = $1 AND status = $3
	RETURNING ` + ledgerColumns

	e, err := scanLedger(r.db.QueryRowContext(ctx, q, key, LedgerPending, LedgerFailed))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLedgerEntryNotFound
	}
	return e, err
}

func (r *repository) MarkCharged(ctx context.Context, key, paymentID string) error {
	const q = `
	UPDATE payment_ledger
	SET status = $2, payment_id = $3, updated_at = now()
	WHERE idempotency_key = $1;
	`
	return r.exec(ctx, q, key, LedgerCharged, paymentID)
}

func (r *repository) MarkRecorded(ctx context.Context, key, orderID string) error {
	const q = `
	UPDATE payment_ledger
	SET status = $2, order_id = $3, updated_at = now()
	WHERE idempotency_key = $1;
	`
	return r.exec(ctx, q, key, LedgerRecorded, orderID)
}

func (r *repository) MarkFailed(ctx context.Context, key string) error {
	const q = `
	UPDATE payment_ledger
	SET status = $2, updated_at = now()
	WHERE idempotency_key = $1;
	`
	return r.exec(ctx, q, key, LedgerFailed)
}

func (r *repository) MarkRefunded(ctx context.Context, key string) error {
	const q = `
	UPDATE payment_ledger
	SET status = $2, updated_at = now()
	WHERE idempotency_key = $1;
	`
	return r.exec(ctx, q, key, LedgerRefunded)
}

func (r *repository) MarkRefundedByPayment(ctx context.Context, paymentID string) error {
	const q = `
	UPDATE payment_ledger
	SET status = $2, updated_at = now()
	WHERE payment_id = $1;
	`
	return r.exec(ctx, q, paymentID, LedgerRefunded)
}

func (r *repository) exec(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLedgerEntryNotFound
	}
	return nil
}

func (r *repository) ListStale(ctx context.Context, status LedgerStatus, before time.Time) ([]LedgerEntry, error) {
	q := `
	SELECT ` + ledgerColumns + `
	FROM payment_ledger
	WHERE status = $1 AND updated_at < $2
	ORDER BY updated_at;
	`

	rows, err := r.db.QueryContext(ctx, q, status, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *repository) SavePaymentWebhook(
	ctx context.Context,
	provider string,
	eventID string,
	eventType string,
	externalID string,
	payload json.RawMessage,
	signatureValid bool,
) (int64, bool, error) {

	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		external_id,
		signature_valid,
		payload
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (provider, event_id)
	DO NOTHING
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		provider,
		eventID,
		eventType,
		externalID,
		signatureValid,
		[]byte(payload),
	).Scan(&id)

	if err != nil {
		// Duplicate webhook → idempotent success
		if errors.Is(err, sql.ErrNoRows) {
			return 0, true, nil
		}
		return 0, false, err
	}

	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = now()
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID)
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
