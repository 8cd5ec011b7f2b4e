package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("added_at DESC")
		}).
		Preload("Items.Product")
}

// FindDefaultTx returns the customer's default wishlist inside the
// transaction, or nil when they have none yet.
func (r *Repository) FindDefaultTx(tx *gorm.DB, customerID uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := withItems(tx).
		Where("customer_id = ? AND is_default = ?", customerID, true).
		First(&wishlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wishlist, nil
}

// FindOrCreateDefaultTx returns the default wishlist, creating it on
// first use.
func (r *Repository) FindOrCreateDefaultTx(tx *gorm.DB, customerID uuid.UUID) (*models.Wishlist, error) {
	wishlist, err := r.FindDefaultTx(tx, customerID)
	if err != nil {
		return nil, err
	}
	if wishlist != nil {
		return wishlist, nil
	}
	created := models.Wishlist{
		ID:         uuid.New(),
		CustomerID: customerID,
		Name:       "My Wishlist",
		IsDefault:  true,
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, err
	}
	created.Items = []models.WishlistItem{}
	return &created, nil
}

// Reload refreshes a wishlist with its items.
func (r *Repository) Reload(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := withItems(r.db.WithContext(ctx)).First(&wishlist, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// ItemExistsTx reports whether the product is already saved.
func (r *Repository) ItemExistsTx(tx *gorm.DB, wishlistID, productID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.WishlistItem{}).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateItemTx inserts a wishlist entry.
func (r *Repository) CreateItemTx(tx *gorm.DB, item *models.WishlistItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return tx.Create(item).Error
}

// DeleteItemTx removes a product from the wishlist. Returns the number
// of rows removed.
func (r *Repository) DeleteItemTx(tx *gorm.DB, wishlistID, productID uuid.UUID) (int64, error) {
	result := tx.
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&models.WishlistItem{})
	return result.RowsAffected, result.Error
}
