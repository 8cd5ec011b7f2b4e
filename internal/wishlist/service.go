package wishlist

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

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	DB   *db.Client
	Repo *Repository
	Logg *logger.Logger
}

// Service exposes wishlist operations to controllers. Every operation
// works against the customer's default wishlist, created on first use.
type Service interface {
	GetWishlist(ctx context.Context, actor types.Actor) (DTO, error)
	AddItem(ctx context.Context, actor types.Actor, productID uuid.UUID) (DTO, error)
	RemoveItem(ctx context.Context, actor types.Actor, productID uuid.UUID) (DTO, error)
}

type service struct {
	db   *db.Client
	repo *Repository
	logg *logger.Logger
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	return &service{
		db:   params.DB,
		repo: params.Repo,
		logg: params.Logg,
	}, nil
}

// GetWishlist returns the customer's default wishlist.
func (s *service) GetWishlist(ctx context.Context, actor types.Actor) (DTO, error) {
	if actor.CustomerID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	var wishlist *models.Wishlist
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		wishlist, txErr = s.repo.FindOrCreateDefaultTx(tx, actor.CustomerID)
		return txErr
	})
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	return toDTO(*wishlist), nil
}

// AddItem saves a product onto the default wishlist. Saving the same
// product twice is a conflict.
func (s *service) AddItem(ctx context.Context, actor types.Actor, productID uuid.UUID) (DTO, error) {
	if actor.CustomerID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if productID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var wishlistID uuid.UUID
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var product models.Product
		err := tx.Where("id = ? AND is_active = ?", productID, true).First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		wishlist, err := s.repo.FindOrCreateDefaultTx(tx, actor.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
		}
		wishlistID = wishlist.ID

		exists, err := s.repo.ItemExistsTx(tx, wishlist.ID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist item")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "product already in wishlist")
		}

		item := models.WishlistItem{WishlistID: wishlist.ID, ProductID: productID}
		if err := s.repo.CreateItemTx(tx, &item); err != nil {
			if db.IsUniqueViolation(err, "idx_wishlist_product") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product already in wishlist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist item")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return DTO{}, err
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return s.reload(ctx, wishlistID)
}

// RemoveItem drops a product from the default wishlist.
func (s *service) RemoveItem(ctx context.Context, actor types.Actor, productID uuid.UUID) (DTO, error) {
	if actor.CustomerID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}

	var wishlistID uuid.UUID
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		wishlist, err := s.repo.FindDefaultTx(tx, actor.CustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
		}
		if wishlist == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
		}
		wishlistID = wishlist.ID

		removed, err := s.repo.DeleteItemTx(tx, wishlist.ID, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
		}
		if removed == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return DTO{}, err
		}
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return s.reload(ctx, wishlistID)
}

func (s *service) reload(ctx context.Context, wishlistID uuid.UUID) (DTO, error) {
	wishlist, err := s.repo.Reload(ctx, wishlistID)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wishlist")
	}
	return toDTO(*wishlist), nil
}
