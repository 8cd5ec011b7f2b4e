package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=32"`
	// SessionKey is injected from the transport layer so an anonymous
	// cart can follow the customer into their new account.
	SessionKey string `json:"-"`
}

// LoginInput is the payload for authenticating.
type LoginInput struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	SessionKey string `json:"-"`
}

// CustomerDTO is the API projection of an account.
type CustomerDTO struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	IsStaff   bool       `json:"is_staff"`
	LastLogin *time.Time `json:"last_login_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AuthResultDTO carries the minted token alongside the account.
type AuthResultDTO struct {
	Token    string      `json:"token"`
	Customer CustomerDTO `json:"customer"`
}

func toCustomerDTO(c models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		IsStaff:   c.IsStaff,
		LastLogin: c.LastLoginAt,
		CreatedAt: c.CreatedAt,
	}
}
