package user

import "storefront-be/internal/apperror"

var (
	ErrEmailExists        = apperror.New(apperror.InvalidInput, "email already registered")
	ErrInvalidEmail       = apperror.New(apperror.InvalidInput, "invalid email address")
	ErrWeakPassword       = apperror.New(apperror.InvalidInput, "password must be at least 8 characters and contain a letter, a digit and a special character")
	ErrNameRequired       = apperror.New(apperror.InvalidInput, "first and last name are required")
	ErrInvalidCredentials = apperror.New(apperror.Unauthorized, "invalid email or password")
	ErrUserNotFound       = apperror.New(apperror.NotFound, "user not found")
)
