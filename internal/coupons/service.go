package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
)

// ValidationResultDTO is returned by the validate endpoint.
type ValidationResultDTO struct {
	Code           string          `json:"code"`
	Valid          bool            `json:"valid"`
	Reason         string          `json:"reason,omitempty"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// ServiceParams groups dependencies for the coupon service.
type ServiceParams struct {
	Repo *Repository
	Logg *logger.Logger
}

// Service exposes coupon validation to controllers.
type Service interface {
	ValidateCode(ctx context.Context, code string, subtotal decimal.Decimal) (ValidationResultDTO, error)
}

type service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds a coupon service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon repo is required")
	}
	return &service{
		repo: params.Repo,
		logg: params.Logg,
		now:  time.Now,
	}, nil
}

// ValidateCode resolves the code and reports whether it can be applied
// to an order with the given subtotal, along with the discount it
// would grant.
func (s *service) ValidateCode(ctx context.Context, code string, subtotal decimal.Decimal) (ValidationResultDTO, error) {
	if code == "" {
		return ValidationResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if subtotal.IsNegative() {
		return ValidationResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ValidationResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "coupon not found")
		}
		return ValidationResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	result := ValidationResultDTO{Code: coupon.Code}

	if ok, reason := IsValid(*coupon, s.now()); !ok {
		result.Reason = string(reason)
		return result, nil
	}
	if !MeetsMinimum(*coupon, subtotal) {
		result.Reason = string(ReasonMinimumOrder)
		return result, nil
	}

	result.Valid = true
	result.DiscountAmount = ComputeDiscount(*coupon, subtotal)
	return result, nil
}
