package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/pagination"
)

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a review repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts a review inside the given transaction.
func (r *Repository) CreateTx(tx *gorm.DB, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return tx.Create(review).Error
}

// FindByID loads a review row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ExistsForTx reports whether the customer already reviewed the product
// against the same order item.
func (r *Repository) ExistsForTx(tx *gorm.DB, productID, customerID uuid.UUID, orderItemID *uuid.UUID) (bool, error) {
	query := tx.Model(&models.Review{}).
		Where("product_id = ? AND customer_id = ?", productID, customerID)
	if orderItemID != nil {
		query = query.Where("order_item_id = ?", *orderItemID)
	} else {
		query = query.Where("order_item_id IS NULL")
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindOwnedOrderItemTx resolves an order item belonging to one of the
// customer's orders that references the product. A nil itemID searches
// for any qualifying item.
func (r *Repository) FindOwnedOrderItemTx(tx *gorm.DB, customerID, productID uuid.UUID, itemID *uuid.UUID) (*models.OrderItem, error) {
	query := tx.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.customer_id = ? AND order_items.product_id = ?", customerID, productID)
	if itemID != nil {
		query = query.Where("order_items.id = ?", *itemID)
	}
	var item models.OrderItem
	err := query.Order("order_items.created_at DESC").First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// FindActiveProductTx loads an active product row, or nil when absent.
func (r *Repository) FindActiveProductTx(tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := tx.Where("id = ? AND is_active = ?", productID, true).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListApprovedByProduct returns approved reviews for a product, newest
// first, cursor-paginated.
func (r *Repository) ListApprovedByProduct(ctx context.Context, productID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	decodedCursor, err := pagination.ParseCursor(cursor)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND is_approved = ?", productID, true)
	if decodedCursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID,
		)
	}

	var rows []models.Review
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).Error
	if err != nil {
		return PageDTO{}, err
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

	items := make([]DTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}

	return PageDTO{Items: items, NextCursor: nextCursor, Total: len(items)}, nil
}

// UpdateFieldsTx applies a partial update to a review row.
func (r *Repository) UpdateFieldsTx(tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return tx.Model(&models.Review{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteTx removes a review row.
func (r *Repository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&models.Review{}, "id = ?", id).Error
}

// RecomputeProductAggregatesTx refreshes the product's denormalised
// rating stats from its approved reviews.
func (r *Repository) RecomputeProductAggregatesTx(tx *gorm.DB, productID uuid.UUID) error {
	var stats struct {
		Count   int64
		Average *float64
	}
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, AVG(rating) AS average").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Scan(&stats).Error
	if err != nil {
		return err
	}
	average := 0.0
	if stats.Average != nil {
		average = *stats.Average
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"total_reviews":  stats.Count,
			"average_rating": average,
		}).Error
}
