package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/redis"
)

// Cache is the redis read-through layer for catalog responses. All
// failures degrade to a miss so the database stays authoritative.
type Cache struct {
	client *redis.Client
	cfg    config.CacheConfig
	logg   *logger.Logger
}

// NewCache wires a catalog cache. A nil client disables caching.
func NewCache(client *redis.Client, cfg config.CacheConfig, logg *logger.Logger) *Cache {
	return &Cache{client: client, cfg: cfg, logg: logg}
}

func (c *Cache) productDetailKey(slug string) string {
	return c.client.CacheKey("product_detail", slug)
}

// listKey hashes the filter so every distinct listing gets its own
// entry. List entries are never invalidated explicitly; the short TTL
// bounds staleness instead.
func (c *Cache) listKey(filter ListFilter) string {
	minPrice, maxPrice := "", ""
	if filter.MinPrice != nil {
		minPrice = filter.MinPrice.String()
	}
	if filter.MaxPrice != nil {
		maxPrice = filter.MaxPrice.String()
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%t|%t|%t|%s|%s|%d|%d",
		filter.CategorySlug, filter.BrandSlug, filter.Search, minPrice, maxPrice,
		filter.InStockOnly, filter.OnSaleOnly, filter.FeaturedOnly,
		filter.Sort, filter.Cursor, filter.Offset, filter.Limit)
	return c.client.CacheKey("product_list", fmt.Sprintf("%x", h.Sum64()))
}

func (c *Cache) featuredKey() string {
	return c.client.CacheKey("featured_products")
}

func (c *Cache) categoriesKey() string {
	return c.client.CacheKey("categories")
}

func (c *Cache) brandsKey() string {
	return c.client.CacheKey("brands")
}

func (c *Cache) disabled() bool {
	return c == nil || c.client == nil
}

// GetList returns the cached listing for this filter, or nil on a miss.
func (c *Cache) GetList(ctx context.Context, filter ListFilter) *ProductPageDTO {
	if c.disabled() {
		return nil
	}
	var page ProductPageDTO
	if !c.get(ctx, c.listKey(filter), &page) {
		return nil
	}
	return &page
}

// SetList stores a listing under its filter key.
func (c *Cache) SetList(ctx context.Context, filter ListFilter, page ProductPageDTO) {
	if c.disabled() {
		return
	}
	c.set(ctx, c.listKey(filter), page, c.cfg.ProductListTTL)
}

// GetProductDetail returns the cached detail page, or nil on a miss.
func (c *Cache) GetProductDetail(ctx context.Context, slug string) *ProductDetailDTO {
	if c.disabled() {
		return nil
	}
	var detail ProductDetailDTO
	if !c.get(ctx, c.productDetailKey(slug), &detail) {
		return nil
	}
	return &detail
}

// SetProductDetail stores the detail page under its slug key.
func (c *Cache) SetProductDetail(ctx context.Context, slug string, detail ProductDetailDTO) {
	if c.disabled() {
		return
	}
	c.set(ctx, c.productDetailKey(slug), detail, c.cfg.ProductDetailTTL)
}

// GetFeatured returns the cached featured listing, or nil on a miss.
func (c *Cache) GetFeatured(ctx context.Context) *ProductPageDTO {
	if c.disabled() {
		return nil
	}
	var page ProductPageDTO
	if !c.get(ctx, c.featuredKey(), &page) {
		return nil
	}
	return &page
}

// SetFeatured stores the featured listing.
func (c *Cache) SetFeatured(ctx context.Context, page ProductPageDTO) {
	if c.disabled() {
		return
	}
	c.set(ctx, c.featuredKey(), page, c.cfg.FeaturedTTL)
}

// GetCategories returns the cached taxonomy, or nil on a miss.
func (c *Cache) GetCategories(ctx context.Context) []CategoryDTO {
	if c.disabled() {
		return nil
	}
	var categories []CategoryDTO
	if !c.get(ctx, c.categoriesKey(), &categories) {
		return nil
	}
	return categories
}

// SetCategories stores the taxonomy.
func (c *Cache) SetCategories(ctx context.Context, categories []CategoryDTO) {
	if c.disabled() {
		return
	}
	c.set(ctx, c.categoriesKey(), categories, c.cfg.TaxonomyTTL)
}

// GetBrands returns the cached brand list, or nil on a miss.
func (c *Cache) GetBrands(ctx context.Context) []BrandDTO {
	if c.disabled() {
		return nil
	}
	var brands []BrandDTO
	if !c.get(ctx, c.brandsKey(), &brands) {
		return nil
	}
	return brands
}

// SetBrands stores the brand list.
func (c *Cache) SetBrands(ctx context.Context, brands []BrandDTO) {
	if c.disabled() {
		return
	}
	c.set(ctx, c.brandsKey(), brands, c.cfg.TaxonomyTTL)
}

// InvalidateBrands drops the brand list entry.
func (c *Cache) InvalidateBrands(ctx context.Context) {
	if c.disabled() {
		return
	}
	if err := c.client.Del(ctx, c.brandsKey()); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "catalog cache invalidation failed: "+err.Error())
	}
}

// InvalidateProduct drops the detail entry for one slug plus the
// featured listing, which may embed the product.
func (c *Cache) InvalidateProduct(ctx context.Context, slug string) {
	if c.disabled() {
		return
	}
	keys := []string{c.featuredKey()}
	if slug != "" {
		keys = append(keys, c.productDetailKey(slug))
	}
	if err := c.client.Del(ctx, keys...); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "catalog cache invalidation failed: "+err.Error())
	}
}

// InvalidateCategories drops the taxonomy entry.
func (c *Cache) InvalidateCategories(ctx context.Context) {
	if c.disabled() {
		return
	}
	if err := c.client.Del(ctx, c.categoriesKey()); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "catalog cache invalidation failed: "+err.Error())
	}
}

func (c *Cache) get(ctx context.Context, key string, out any) bool {
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logg != nil {
			c.logg.Warn(ctx, "catalog cache read failed: "+err.Error())
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		if c.logg != nil {
			c.logg.Warn(ctx, "catalog cache entry corrupt: "+err.Error())
		}
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, string(raw), ttl); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "catalog cache write failed: "+err.Error())
	}
}
