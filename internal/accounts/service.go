package accounts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harborline/storefront-backend/internal/cart"
	"github.com/harborline/storefront-backend/pkg/auth"
	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/db"
	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/security"
	"github.com/harborline/storefront-backend/pkg/types"
)

// ServiceParams groups dependencies for the accounts service. Carts is
// optional; without it anonymous baskets are not merged on login.
type ServiceParams struct {
	Repo     *Repository
	Carts    cart.Service
	JWT      config.JWTConfig
	Password config.PasswordConfig
	Logg     *logger.Logger
}

// Service exposes account operations to controllers.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (AuthResultDTO, error)
	Login(ctx context.Context, input LoginInput) (AuthResultDTO, error)
	Me(ctx context.Context, actor types.Actor) (CustomerDTO, error)
}

type service struct {
	repo     *Repository
	carts    cart.Service
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds an accounts service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "accounts repo is required")
	}
	if params.JWT.Secret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "jwt secret is required")
	}
	return &service{
		repo:     params.Repo,
		carts:    params.Carts,
		jwt:      params.JWT,
		password: params.Password,
		logg:     params.Logg,
		now:      time.Now,
	}, nil
}

// Register creates an account and signs the customer in. A session
// cart, when present, follows them into the account.
func (s *service) Register(ctx context.Context, input RegisterInput) (AuthResultDTO, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return AuthResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return AuthResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return AuthResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing account")
	}
	if existing != nil {
		return AuthResultDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return AuthResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	customer := models.Customer{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, &customer); err != nil {
		if db.IsUniqueViolation(err, "idx_customers_email") {
			return AuthResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return AuthResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}

	s.adoptSessionCart(ctx, input.SessionKey, customer.ID)
	if s.logg != nil {
		ctx = s.logg.WithCustomerID(ctx, customer.ID.String())
		s.logg.Info(ctx, "account registered")
	}
	return s.issueToken(customer)
}

// Login verifies credentials and mints an access token. Failed lookups
// and bad passwords share one error so probing stays uninformative.
func (s *service) Login(ctx context.Context, input LoginInput) (AuthResultDTO, error) {
	customer, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		return AuthResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if customer == nil || !customer.IsActive {
		return AuthResultDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	ok, err := security.VerifyPassword(input.Password, customer.PasswordHash)
	if err != nil {
		return AuthResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return AuthResultDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	loginAt := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, customer.ID, loginAt); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "stamp last login failed: "+err.Error())
	}
	customer.LastLoginAt = &loginAt

	s.adoptSessionCart(ctx, input.SessionKey, customer.ID)
	if s.logg != nil {
		ctx = s.logg.WithCustomerID(ctx, customer.ID.String())
		s.logg.Info(ctx, "customer logged in")
	}
	return s.issueToken(*customer)
}

// Me returns the authenticated customer's account.
func (s *service) Me(ctx context.Context, actor types.Actor) (CustomerDTO, error) {
	if actor.CustomerID == uuid.Nil {
		return CustomerDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	customer, err := s.repo.FindByID(ctx, actor.CustomerID)
	if err != nil {
		return CustomerDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return toCustomerDTO(*customer), nil
}

// adoptSessionCart folds an anonymous basket into the customer's cart.
// Merge failures never block authentication.
func (s *service) adoptSessionCart(ctx context.Context, sessionKey string, customerID uuid.UUID) {
	if s.carts == nil || sessionKey == "" {
		return
	}
	if err := s.carts.MergeOnLogin(ctx, sessionKey, customerID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "session cart merge failed: "+err.Error())
	}
}

func (s *service) issueToken(customer models.Customer) (AuthResultDTO, error) {
	role := types.RoleCustomer
	if customer.IsStaff {
		role = types.RoleStaff
	}
	token, err := auth.MintAccessToken(s.jwt, s.now(), auth.AccessTokenPayload{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Role:       role,
	})
	if err != nil {
		return AuthResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return AuthResultDTO{Token: token, Customer: toCustomerDTO(customer)}, nil
}
