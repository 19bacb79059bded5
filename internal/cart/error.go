package cart

import (
	"errors"

	"storefront-be/internal/apperror"
)

var (
	// -- Validation & Input --
	ErrProductRequired = apperror.New(apperror.InvalidInput, "product id is required")
	ErrInvalidQuantity = apperror.New(apperror.InvalidInput, "quantity must be a positive integer")
	ErrSizeRequired    = apperror.New(apperror.InvalidInput, "size is required")
	ErrColorRequired   = apperror.New(apperror.InvalidInput, "color is required")

	// -- Resource State --
	ErrCartNotFound = apperror.New(apperror.NotFound, "cart not found")
	ErrLineNotFound = apperror.New(apperror.NotFound, "product not in cart")
	ErrEmptyCart    = apperror.New(apperror.EmptyCart, "cart is empty")

	ErrCacheMiss = errors.New("cache miss")
)
