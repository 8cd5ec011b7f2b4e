package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/pagination"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts the order header and its item snapshots.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return tx.Create(order).Error
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDTx is the transactional variant used by state changes.
func (r *Repository) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByCustomer returns the customer's orders, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return rows, nextCursor, nil
}

// UpdateFieldsTx applies a partial update to one order.
func (r *Repository) UpdateFieldsTx(tx *gorm.DB, orderID uuid.UUID, fields map[string]any) error {
	return tx.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(fields).Error
}

// DecrementVariantStockTx takes stock from a variant. The single
// UPDATE statement keeps concurrent decrements from losing writes;
// there is no floor, so stock can go negative.
func (r *Repository) DecrementVariantStockTx(tx *gorm.DB, variantID uuid.UUID, quantity int) error {
	return tx.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity)).Error
}

// DecrementProductStockTx takes stock from a product that tracks
// inventory, with the same no-floor semantics.
func (r *Repository) DecrementProductStockTx(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	return tx.Model(&models.Product{}).
		Where("id = ? AND track_inventory = ?", productID, true).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity)).Error
}

// RestoreVariantStockTx returns stock to a variant on cancellation.
func (r *Repository) RestoreVariantStockTx(tx *gorm.DB, variantID uuid.UUID, quantity int) error {
	return tx.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

// RestoreProductStockTx returns stock to a tracked product on cancellation.
func (r *Repository) RestoreProductStockTx(tx *gorm.DB, productID uuid.UUID, quantity int) error {
	return tx.Model(&models.Product{}).
		Where("id = ? AND track_inventory = ?", productID, true).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error
}

// ProductTracksInventoryTx reports whether the product row tracks stock.
func (r *Repository) ProductTracksInventoryTx(tx *gorm.DB, productID uuid.UUID) (bool, error) {
	var flags []bool
	err := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Limit(1).
		Pluck("track_inventory", &flags).Error
	if err != nil || len(flags) == 0 {
		return false, err
	}
	return flags[0], nil
}

// SlugsForProductsTx resolves product slugs for cache invalidation.
func (r *Repository) SlugsForProductsTx(tx *gorm.DB, productIDs []uuid.UUID) ([]string, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var slugs []string
	err := tx.Model(&models.Product{}).
		Where("id IN ?", productIDs).
		Pluck("slug", &slugs).Error
	return slugs, err
}
