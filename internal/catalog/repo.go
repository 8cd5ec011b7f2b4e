package catalog

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/pagination"
)

// Sort orders for product listings. Only the default newest-first
// order supports cursor pagination; the others page by offset.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

// ListFilter narrows the product listing.
type ListFilter struct {
	CategorySlug string
	BrandSlug    string
	Search       string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	InStockOnly  bool
	OnSaleOnly   bool
	FeaturedOnly bool
	Sort         string
	Cursor       string
	Offset       int
	Limit        int
}

// Repository encapsulates catalog reads.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns active products matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) (ProductPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(filter.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filter.Limit)
	decodedCursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return ProductPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Category").
		Preload("Images").
		Where("products.is_active = ?", true)

	if filter.CategorySlug != "" {
		query = query.
			Joins("JOIN categories c ON c.id = products.category_id").
			Where("c.slug = ?", filter.CategorySlug)
	}
	if filter.BrandSlug != "" {
		query = query.
			Joins("JOIN brands b ON b.id = products.brand_id").
			Where("b.slug = ?", filter.BrandSlug)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ? OR LOWER(products.description) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.MinPrice != nil {
		query = query.Where("products.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("products.price <= ?", *filter.MaxPrice)
	}
	if filter.InStockOnly {
		query = query.Where("products.track_inventory = ? OR products.stock_quantity > 0", false)
	}
	if filter.OnSaleOnly {
		query = query.Where("products.compare_price IS NOT NULL AND products.compare_price > products.price")
	}
	if filter.FeaturedOnly {
		query = query.Where("products.is_featured = ?", true)
	}

	sorted := filter.Sort != "" && filter.Sort != SortNewest
	if sorted {
		switch filter.Sort {
		case SortPriceAsc:
			query = query.Order("products.price ASC")
		case SortPriceDesc:
			query = query.Order("products.price DESC")
		case SortRating:
			query = query.Order("products.average_rating DESC")
		default:
			return ProductPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort order")
		}
		query = query.Order("products.created_at DESC").Offset(filter.Offset)
	} else {
		if decodedCursor != nil {
			query = query.Where(
				"(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
				decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID,
			)
		}
		query = query.Order("products.created_at DESC").Order("products.id DESC")
	}

	var rows []models.Product
	err = query.Limit(limitWithBuffer).Find(&rows).Error
	if err != nil {
		return ProductPageDTO{}, err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		if !sorted {
			last := rows[len(rows)-1]
			nextCursor = pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: last.CreatedAt,
				ID:        last.ID,
			})
		}
	}

	items := make([]ProductSummaryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSummaryDTO(row))
	}

	return ProductPageDTO{
		Items:      items,
		NextCursor: nextCursor,
		Total:      len(items),
	}, nil
}

// FindDetailBySlug loads the full product page for an active product.
func (r *Repository) FindDetailBySlug(ctx context.Context, slug string) (*ProductDetailDTO, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Variants", "is_active = ?", true).
		Preload("Attributes.AttributeValue.AttributeName").
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	detail := toDetailDTO(product)
	return &detail, nil
}

// ListBrands returns the active brands, alphabetically.
func (r *Repository) ListBrands(ctx context.Context) ([]BrandDTO, error) {
	var rows []models.Brand
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	brands := make([]BrandDTO, 0, len(rows))
	for _, row := range rows {
		brands = append(brands, BrandDTO{
			ID:      row.ID,
			Name:    row.Name,
			Slug:    row.Slug,
			Website: row.Website,
		})
	}
	return brands, nil
}

// ListCategories returns the active taxonomy, alphabetically.
func (r *Repository) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	categories := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, CategoryDTO{
			ID:       row.ID,
			Name:     row.Name,
			Slug:     row.Slug,
			ParentID: row.ParentID,
		})
	}
	return categories, nil
}

func toSummaryDTO(p models.Product) ProductSummaryDTO {
	dto := ProductSummaryDTO{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		SKU:           p.SKU,
		Price:         p.Price,
		ComparePrice:  p.ComparePrice,
		IsFeatured:    p.IsFeatured,
		InStock:       !p.TrackInventory || p.StockQuantity > 0,
		AverageRating: p.AverageRating,
		TotalReviews:  p.TotalReviews,
		CreatedAt:     p.CreatedAt,
	}
	if p.Category != nil {
		dto.CategorySlug = p.Category.Slug
	}
	for _, image := range p.Images {
		if image.IsPrimary {
			url := image.URL
			dto.ThumbnailURL = &url
			break
		}
	}
	if dto.ThumbnailURL == nil && len(p.Images) > 0 {
		url := p.Images[0].URL
		dto.ThumbnailURL = &url
	}
	return dto
}

func toDetailDTO(p models.Product) ProductDetailDTO {
	detail := ProductDetailDTO{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		SKU:              p.SKU,
		Price:            p.Price,
		ComparePrice:     p.ComparePrice,
		StockQuantity:    p.StockQuantity,
		StockStatus:      p.StockStatus.String(),
		TrackInventory:   p.TrackInventory,
		IsFeatured:       p.IsFeatured,
		IsDigital:        p.IsDigital,
		RequiresShipping: p.RequiresShipping,
		IsOnSale:         p.ComparePrice != nil && p.ComparePrice.GreaterThan(p.Price),
		AverageRating:    p.AverageRating,
		TotalReviews:     p.TotalReviews,
		Images:           make([]ProductImageDTO, 0, len(p.Images)),
		Variants:         make([]ProductVariantDTO, 0, len(p.Variants)),
		Attributes:       make([]AttributeDTO, 0, len(p.Attributes)),
		CreatedAt:        p.CreatedAt,
	}
	if p.Category != nil {
		detail.CategorySlug = p.Category.Slug
	}
	if p.Brand != nil {
		slug := p.Brand.Slug
		detail.BrandSlug = &slug
	}
	for _, image := range p.Images {
		detail.Images = append(detail.Images, ProductImageDTO{
			URL:       image.URL,
			AltText:   image.AltText,
			IsPrimary: image.IsPrimary,
			SortOrder: image.SortOrder,
		})
	}
	for _, attr := range p.Attributes {
		if attr.AttributeValue == nil || attr.AttributeValue.AttributeName == nil {
			continue
		}
		detail.Attributes = append(detail.Attributes, AttributeDTO{
			Name:  attr.AttributeValue.AttributeName.Name,
			Value: attr.AttributeValue.Value,
		})
	}
	for _, variant := range p.Variants {
		detail.Variants = append(detail.Variants, ProductVariantDTO{
			ID:            variant.ID,
			Name:          variant.Name,
			SKU:           variant.SKU,
			Price:         variant.Price,
			StockQuantity: variant.StockQuantity,
			IsActive:      variant.IsActive,
		})
	}
	return detail
}
