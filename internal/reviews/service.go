package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db"
	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/types"
)

// ServiceParams groups dependencies for the review service.
type ServiceParams struct {
	DB   *db.Client
	Repo *Repository
	Logg *logger.Logger
}

// Service exposes review operations to controllers.
type Service interface {
	CreateReview(ctx context.Context, actor types.Actor, input CreateReviewInput) (DTO, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID, cursor string, limit int) (PageDTO, error)
	UpdateReview(ctx context.Context, actor types.Actor, reviewID uuid.UUID, input UpdateReviewInput) (DTO, error)
	DeleteReview(ctx context.Context, actor types.Actor, reviewID uuid.UUID) error
}

type service struct {
	db   *db.Client
	repo *Repository
	logg *logger.Logger
}

// NewService builds a review service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review repo is required")
	}
	return &service{
		db:   params.DB,
		repo: params.Repo,
		logg: params.Logg,
	}, nil
}

// CreateReview posts a review on a product. When an owned order item
// references the product the review is marked as a verified purchase;
// an explicit order_item_id that the customer does not own is rejected.
// New reviews await moderation before they appear in listings.
func (s *service) CreateReview(ctx context.Context, actor types.Actor, input CreateReviewInput) (DTO, error) {
	if actor.CustomerID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var review models.Review
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.repo.FindActiveProductTx(tx, input.ProductID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		orderItem, err := s.repo.FindOwnedOrderItemTx(tx, actor.CustomerID, input.ProductID, input.OrderItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve order item")
		}
		if input.OrderItemID != nil && orderItem == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "order item does not match a purchase of this product")
		}

		review = models.Review{
			ID:         uuid.New(),
			ProductID:  input.ProductID,
			CustomerID: actor.CustomerID,
			Rating:     input.Rating,
			Title:      input.Title,
			Comment:    input.Comment,
		}
		if orderItem != nil {
			review.OrderItemID = &orderItem.ID
			review.IsVerifiedPurchase = true
		}

		exists, err := s.repo.ExistsForTx(tx, review.ProductID, review.CustomerID, review.OrderItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "product already reviewed")
		}

		if err := s.repo.CreateTx(tx, &review); err != nil {
			if db.IsUniqueViolation(err, "idx_review_identity") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already reviewed")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return DTO{}, err
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}
	if s.logg != nil {
		ctx = s.logg.WithCustomerID(ctx, actor.CustomerID.String())
		s.logg.Info(ctx, "review created")
	}
	return toDTO(review), nil
}

// ListProductReviews returns the approved reviews on a product.
func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	if productID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	page, err := s.repo.ListApprovedByProduct(ctx, productID, cursor, limit)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return PageDTO{}, err
		}
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return page, nil
}

// UpdateReview edits the customer's own review. Foreign reviews are
// reported as missing.
func (s *service) UpdateReview(ctx context.Context, actor types.Actor, reviewID uuid.UUID, input UpdateReviewInput) (DTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var updated models.Review
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		review, err := s.ownedReviewTx(tx, actor, reviewID)
		if err != nil {
			return err
		}
		fields := map[string]any{
			"rating":  input.Rating,
			"title":   input.Title,
			"comment": input.Comment,
		}
		if err := s.repo.UpdateFieldsTx(tx, review.ID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
		}
		if review.IsApproved {
			if err := s.repo.RecomputeProductAggregatesTx(tx, review.ProductID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh rating stats")
			}
		}
		updated = *review
		updated.Rating = input.Rating
		updated.Title = input.Title
		updated.Comment = input.Comment
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return DTO{}, err
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review")
	}
	return toDTO(updated), nil
}

// DeleteReview removes the customer's own review.
func (s *service) DeleteReview(ctx context.Context, actor types.Actor, reviewID uuid.UUID) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		review, err := s.ownedReviewTx(tx, actor, reviewID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteTx(tx, review.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
		}
		if review.IsApproved {
			if err := s.repo.RecomputeProductAggregatesTx(tx, review.ProductID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh rating stats")
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}
	return nil
}

func (s *service) ownedReviewTx(tx *gorm.DB, actor types.Actor, reviewID uuid.UUID) (*models.Review, error) {
	if actor.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	var review models.Review
	err := tx.First(&review, "id = ?", reviewID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	// Foreign reviews read as missing to avoid resource disclosure.
	if review.CustomerID != actor.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return &review, nil
}
