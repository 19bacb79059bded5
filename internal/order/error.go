package order

import "storefront-be/internal/apperror"

var (
	ErrOrderNotFound         = apperror.New(apperror.NotFound, "order not found")
	ErrSessionNotFound       = apperror.New(apperror.NotFound, "checkout session not found")
	ErrPaymentMethodRequired = apperror.New(apperror.InvalidInput, "payment method is required")
	ErrInvalidAddress        = apperror.New(apperror.InvalidInput, "shipping address requires street, city, postal code and country")
	ErrSessionIDRequired     = apperror.New(apperror.InvalidInput, "session id is required")
	ErrPaymentFailed         = apperror.New(apperror.PaymentFailed, "payment failed")
	ErrAttemptRefunded       = apperror.New(apperror.PaymentFailed, "previous checkout of this cart was refunded; update the cart to try again")
	ErrRecordOrder           = apperror.New(apperror.ServerError, "failed to record order")
)
