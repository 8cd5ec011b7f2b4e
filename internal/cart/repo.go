package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// Owner identifies whose basket is being addressed: an authenticated
// customer or an anonymous session key. Exactly one must be set.
type Owner struct {
	CustomerID *uuid.UUID
	SessionKey string
}

// Valid reports whether the owner identifies exactly one basket.
func (o Owner) Valid() bool {
	return (o.CustomerID != nil) != (o.SessionKey != "")
}

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func ownerScope(owner Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.CustomerID != nil {
			return db.Where("customer_id = ?", *owner.CustomerID)
		}
		return db.Where("session_key = ?", owner.SessionKey)
	}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Variant")
}

// FindByOwner loads the owner's cart with items, or nil when none exists.
func (r *Repository) FindByOwner(ctx context.Context, owner Owner) (*models.Cart, error) {
	var cart models.Cart
	err := withItems(r.db.WithContext(ctx)).
		Scopes(ownerScope(owner)).
		Order("created_at ASC").
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// FindByOwnerTx is the transactional variant used during checkout so
// the lines read are the lines priced and cleared.
func (r *Repository) FindByOwnerTx(tx *gorm.DB, owner Owner) (*models.Cart, error) {
	var cart models.Cart
	err := withItems(tx).
		Scopes(ownerScope(owner)).
		Order("created_at ASC").
		First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// FindByIDTx loads a cart with items by id inside a transaction, or
// nil when it does not exist.
func (r *Repository) FindByIDTx(tx *gorm.DB, cartID uuid.UUID) (*models.Cart, error) {
	var basket models.Cart
	err := withItems(tx).First(&basket, "id = ?", cartID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &basket, nil
}

// FindOrCreate returns the owner's cart, creating an empty one on first use.
func (r *Repository) FindOrCreate(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := r.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	fresh := models.Cart{
		ID:         uuid.New(),
		CustomerID: owner.CustomerID,
		SessionKey: owner.SessionKey,
	}
	if err := r.db.WithContext(ctx).Create(&fresh).Error; err != nil {
		return nil, err
	}
	fresh.Items = []models.CartItem{}
	return &fresh, nil
}

// Reload refreshes a cart with its items by id.
func (r *Repository) Reload(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := withItems(r.db.WithContext(ctx)).First(&cart, "id = ?", cartID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindItem returns the line for (cart, product, variant), or nil.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	query := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID != nil {
		query = query.Where("variant_id = ?", *variantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}
	var item models.CartItem
	if err := query.First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindItemByID returns a line scoped to a cart, or nil.
func (r *Repository) FindItemByID(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new line, assigning its id.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// SetItemQuantity updates a line's quantity.
func (r *Repository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

// DeleteItem removes a single line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// ClearItems removes every line from a cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}

// ClearItemsTx removes every line from a cart inside a transaction.
func (r *Repository) ClearItemsTx(tx *gorm.DB, cartID uuid.UUID) error {
	return tx.Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}

// MergeOnLogin folds an anonymous session cart into the customer's
// cart. Lines already present in the customer cart keep the customer
// cart's quantity; the session cart is removed afterwards.
func (r *Repository) MergeOnLogin(ctx context.Context, sessionKey string, customerID uuid.UUID) error {
	if sessionKey == "" {
		return nil
	}
	sessionCart, err := r.FindByOwner(ctx, Owner{SessionKey: sessionKey})
	if err != nil || sessionCart == nil {
		return err
	}
	customerCart, err := r.FindOrCreate(ctx, Owner{CustomerID: &customerID})
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range sessionCart.Items {
			var existing int64
			query := tx.Model(&models.CartItem{}).
				Where("cart_id = ? AND product_id = ?", customerCart.ID, item.ProductID)
			if item.VariantID != nil {
				query = query.Where("variant_id = ?", *item.VariantID)
			} else {
				query = query.Where("variant_id IS NULL")
			}
			if err := query.Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			moved := models.CartItem{
				ID:        uuid.New(),
				CartID:    customerCart.ID,
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
			if err := tx.Create(&moved).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.CartItem{}, "cart_id = ?", sessionCart.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Cart{}, "id = ?", sessionCart.ID).Error
	})
}
