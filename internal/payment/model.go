package payment

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
	UserID         string
}

type Charge struct {
	ID     string
	Status string
	Method string
}

type SessionLineItem struct {
	Name            string
	Description     string
	Images          []string
	UnitAmountMinor int64
	Quantity        int64
}

type HostedSessionRequest struct {
	UserID     string
	Currency   string
	Lines      []SessionLineItem
	SuccessURL string
	CancelURL  string
}

type HostedSession struct {
	ID  string
	URL string
}

type SessionStatus struct {
	Paid              bool
	ClientReferenceID string
}

type LedgerStatus string

const (
	LedgerPending  LedgerStatus = "pending"
	LedgerCharged  LedgerStatus = "charged"
	LedgerRecorded LedgerStatus = "recorded"
	LedgerFailed   LedgerStatus = "failed"
	LedgerRefunded LedgerStatus = "refunded"
)

// LedgerEntry tracks one checkout attempt across the payment boundary,
// keyed by the idempotency key sent to the provider.
type LedgerEntry struct {
	IdempotencyKey string
	// Attempt counts retries after a failed charge of the same checkout.
	Attempt        int
	UserID         string
	AmountMinor    int64
	Currency       string
	Status         LedgerStatus
	PaymentID      string
	OrderID        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProviderKey is the idempotency key sent to the provider for this attempt.
// Each retry after a decline gets a fresh key; the provider would otherwise
// replay the stored decline.
func (e LedgerEntry) ProviderKey() string {
	if e.Attempt == 0 {
		return e.IdempotencyKey
	}
	return fmt.Sprintf("%s-%d", e.IdempotencyKey, e.Attempt)
}

// MinorUnits converts an amount to integer cents, truncating anything past
// the second decimal place.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromInt(100)).
		Truncate(0).
		IntPart()
}
