package coupons

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

// Repository encapsulates coupon persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a coupon repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCode loads a coupon by its (case-insensitive) code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// FindByCodeTx is the transactional variant used during order placement.
func (r *Repository) FindByCodeTx(tx *gorm.DB, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := tx.Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ConsumeTx increments used_count with a guard so the usage budget can
// never be exceeded under concurrent placements. Returns the number of
// rows updated: zero means the budget was exhausted in the meantime.
func (r *Repository) ConsumeTx(tx *gorm.DB, couponID uuid.UUID) (int64, error) {
	result := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))
	return result.RowsAffected, result.Error
}

// Create inserts a coupon, assigning an ID when missing.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(coupon).Error
}
