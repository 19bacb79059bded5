package catalog

import "storefront-be/internal/apperror"

var (
	ErrProductNotFound = apperror.New(apperror.NotFound, "product not found")
	ErrInvalidQuantity = apperror.New(apperror.InvalidInput, "sales quantity must be positive")
)
