package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/logger"
)

// AddItemInput is the payload for adding a line to the cart.
type AddItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"required,gte=1"`
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo *Repository
	Logg *logger.Logger
}

// Service exposes basket operations to controllers.
type Service interface {
	GetCart(ctx context.Context, owner Owner) (DTO, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (DTO, error)
	UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (DTO, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (DTO, error)
	Clear(ctx context.Context, owner Owner) error
	MergeOnLogin(ctx context.Context, sessionKey string, customerID uuid.UUID) error
}

type service struct {
	repo *Repository
	db   *gorm.DB
	logg *logger.Logger
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	return &service{
		repo: params.Repo,
		db:   params.Repo.db,
		logg: params.Logg,
	}, nil
}

// GetCart returns the owner's basket, empty if they have none yet.
func (s *service) GetCart(ctx context.Context, owner Owner) (DTO, error) {
	if !owner.Valid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return DTO{Items: []ItemDTO{}}, nil
	}
	return toDTO(*cart), nil
}

// AddItem adds a product line or bumps an existing line's quantity.
// The cumulative quantity is validated against available stock before
// anything is written.
func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (DTO, error) {
	if !owner.Valid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	if input.Quantity < 1 {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, variant, err := s.loadPurchasable(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return DTO{}, err
	}

	cart, err := s.repo.FindOrCreate(ctx, owner)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, product.ID, input.VariantID)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	cumulative := input.Quantity
	if existing != nil {
		cumulative += existing.Quantity
	}
	if err := checkStock(product, variant, cumulative); err != nil {
		return DTO{}, err
	}

	if existing != nil {
		if err := s.repo.SetItemQuantity(ctx, existing.ID, cumulative); err != nil {
			return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
	} else {
		unitPrice := product.Price
		if variant != nil {
			unitPrice = variant.Price
		}
		line := models.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			VariantID: input.VariantID,
			Quantity:  input.Quantity,
			UnitPrice: unitPrice,
		}
		if err := s.repo.CreateItem(ctx, &line); err != nil {
			return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
	}

	return s.reload(ctx, cart.ID)
}

// UpdateItem sets a line's quantity. Zero or negative removes the line.
func (s *service) UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (DTO, error) {
	if !owner.Valid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	cart, item, err := s.ownedItem(ctx, owner, itemID)
	if err != nil {
		return DTO{}, err
	}

	if quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}
		return s.reload(ctx, cart.ID)
	}

	product, variant, err := s.loadPurchasable(ctx, item.ProductID, item.VariantID)
	if err != nil {
		return DTO{}, err
	}
	if err := checkStock(product, variant, quantity); err != nil {
		return DTO{}, err
	}
	if err := s.repo.SetItemQuantity(ctx, item.ID, quantity); err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.reload(ctx, cart.ID)
}

// RemoveItem deletes a line from the owner's cart.
func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (DTO, error) {
	if !owner.Valid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	cart, item, err := s.ownedItem(ctx, owner, itemID)
	if err != nil {
		return DTO{}, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return s.reload(ctx, cart.ID)
}

// Clear empties the owner's cart.
func (s *service) Clear(ctx context.Context, owner Owner) error {
	if !owner.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// MergeOnLogin folds the anonymous basket into the customer basket.
func (s *service) MergeOnLogin(ctx context.Context, sessionKey string, customerID uuid.UUID) error {
	if err := s.repo.MergeOnLogin(ctx, sessionKey, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge carts")
	}
	return nil
}

func (s *service) reload(ctx context.Context, cartID uuid.UUID) (DTO, error) {
	cart, err := s.repo.Reload(ctx, cartID)
	if err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return toDTO(*cart), nil
}

func (s *service) ownedItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if cart == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	item, err := s.repo.FindItemByID(ctx, cart.ID, itemID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if item == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return cart, item, nil
}

func (s *service) loadPurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.Product, *models.ProductVariant, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if variantID == nil {
		return &product, nil, nil
	}

	var variant models.ProductVariant
	err = s.db.WithContext(ctx).
		Where("id = ? AND product_id = ? AND is_active = ?", *variantID, productID, true).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product variant")
	}
	return &product, &variant, nil
}

// checkStock enforces availability against the cumulative requested
// quantity. Variant stock is always authoritative for variant lines;
// product stock applies only when the product tracks inventory.
func checkStock(product *models.Product, variant *models.ProductVariant, requested int) error {
	available := 0
	switch {
	case variant != nil:
		available = variant.StockQuantity
	case product.TrackInventory:
		available = product.StockQuantity
	default:
		return nil
	}
	if requested > available {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"product_id": product.ID,
				"available":  available,
				"requested":  requested,
			})
	}
	return nil
}
