package user

import (
	"time"

	"storefront-be/internal/auth"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}
