package payment

import (
	"errors"

	"storefront-be/internal/apperror"
)

var (
	ErrDeclined            = apperror.New(apperror.PaymentFailed, "payment declined")
	ErrProviderUnavailable = apperror.New(apperror.ProviderError, "payment provider unavailable")
	ErrProvider            = apperror.New(apperror.ProviderError, "payment provider error")
	ErrInvalidSignature    = apperror.New(apperror.InvalidInput, "invalid webhook signature")
	ErrChargeNotFound      = apperror.New(apperror.NotFound, "charge not found")

	ErrLedgerEntryNotFound = errors.New("ledger entry not found")
)
