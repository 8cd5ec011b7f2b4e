package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/redis"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.ProductImage{},
		&models.ProductVariant{},
		&models.AttributeName{},
		&models.AttributeValue{},
		&models.ProductAttribute{},
	))
	return db
}

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *goredis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *goredis.BoolCmd {
	if _, exists := f.data[key]; exists {
		return goredis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Incr(_ context.Context, key string) *goredis.IntCmd {
	return goredis.NewIntResult(1, nil)
}

func (f *fakeStore) Expire(_ context.Context, _ string, _ time.Duration) *goredis.BoolCmd {
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		ProductListTTL:   5 * time.Minute,
		ProductDetailTTL: 10 * time.Minute,
		FeaturedTTL:      30 * time.Minute,
		TaxonomyTTL:      15 * time.Minute,
	}
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) models.Category {
	t.Helper()
	category := models.Category{
		ID:       uuid.New(),
		Name:     name,
		Slug:     slug,
		IsActive: true,
	}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, mutate func(*models.Product)) models.Product {
	t.Helper()
	product := models.Product{
		ID:            uuid.New(),
		Name:          "Blue Widget",
		Slug:          "blue-widget-" + uuid.NewString()[:8],
		SKU:           "SKU-" + uuid.NewString()[:8],
		Description:   "A dependable widget.",
		Price:         decimal.RequireFromString("19.99"),
		CategoryID:    categoryID,
		StockQuantity: 10,
		IsActive:      true,
	}
	if mutate != nil {
		mutate(&product)
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *Cache, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	cache := NewCache(redis.FromCmdable(store), testCacheConfig(), nil)
	svc, err := NewService(ServiceParams{
		Repo:  NewRepository(db),
		Cache: cache,
	})
	require.NoError(t, err)
	return svc, cache, store
}

func TestListProductsPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	category := seedCategory(t, db, "Widgets", "widgets")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		created := base.Add(time.Duration(i) * time.Minute)
		seedProduct(t, db, category.ID, func(p *models.Product) {
			p.Name = fmt.Sprintf("Widget %d", i)
			p.CreatedAt = created
		})
	}

	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	page, err := svc.ListProducts(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)
	require.Equal(t, "Widget 2", page.Items[0].Name)
	require.Equal(t, "Widget 1", page.Items[1].Name)

	rest, err := svc.ListProducts(ctx, ListFilter{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	require.Empty(t, rest.NextCursor)
	require.Equal(t, "Widget 0", rest.Items[0].Name)
}

func TestListProductsFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	widgets := seedCategory(t, db, "Widgets", "widgets")
	gadgets := seedCategory(t, db, "Gadgets", "gadgets")

	seedProduct(t, db, widgets.ID, func(p *models.Product) {
		p.Name = "Copper Kettle"
	})
	seedProduct(t, db, gadgets.ID, func(p *models.Product) {
		p.Name = "Steel Kettle"
		p.IsFeatured = true
	})
	hidden := seedProduct(t, db, gadgets.ID, func(p *models.Product) {
		p.Name = "Hidden Kettle"
	})
	// Zero-valued fields with column defaults are skipped on insert, so
	// deactivate with an explicit update.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)

	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	byCategory, err := svc.ListProducts(ctx, ListFilter{CategorySlug: "widgets"})
	require.NoError(t, err)
	require.Len(t, byCategory.Items, 1)
	require.Equal(t, "Copper Kettle", byCategory.Items[0].Name)

	bySearch, err := svc.ListProducts(ctx, ListFilter{Search: "kettle"})
	require.NoError(t, err)
	require.Len(t, bySearch.Items, 2, "inactive products stay hidden")

	featured, err := svc.ListFeatured(ctx)
	require.NoError(t, err)
	require.Len(t, featured.Items, 1)
	require.Equal(t, "Steel Kettle", featured.Items[0].Name)
}

func TestListProductsBadCursor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, _, _ := newTestService(t, db)

	_, err := svc.ListProducts(context.Background(), ListFilter{Cursor: "not-base64!!"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetProductBySlugReadThrough(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	category := seedCategory(t, db, "Widgets", "widgets")
	product := seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Slug = "blue-widget"
	})
	require.NoError(t, db.Create(&models.ProductImage{
		ID:        uuid.New(),
		ProductID: product.ID,
		URL:       "https://cdn.example.com/blue-widget.jpg",
		IsPrimary: true,
	}).Error)

	svc, cache, store := newTestService(t, db)
	ctx := context.Background()

	detail, err := svc.GetProductBySlug(ctx, "blue-widget")
	require.NoError(t, err)
	require.Equal(t, product.ID, detail.ID)
	require.Len(t, detail.Images, 1)
	require.Contains(t, store.data, "sf:cache:product_detail:blue-widget")

	// The row is gone but the cached copy still serves.
	require.NoError(t, db.Delete(&models.Product{}, "id = ?", product.ID).Error)
	cached, err := svc.GetProductBySlug(ctx, "blue-widget")
	require.NoError(t, err)
	require.Equal(t, product.ID, cached.ID)

	cache.InvalidateProduct(ctx, "blue-widget")
	_, err = svc.GetProductBySlug(ctx, "blue-widget")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListCategoriesCached(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedCategory(t, db, "Widgets", "widgets")
	seedCategory(t, db, "Gadgets", "gadgets")

	svc, _, store := newTestService(t, db)
	ctx := context.Background()

	categories, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	require.Equal(t, "Gadgets", categories[0].Name, "alphabetical order")
	require.Contains(t, store.data, "sf:cache:categories")

	seedCategory(t, db, "Appliances", "appliances")
	again, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, again, 2, "served from cache until the TTL lapses")
}

func seedBrand(t *testing.T, db *gorm.DB, name, slug string) models.Brand {
	t.Helper()
	brand := models.Brand{
		ID:       uuid.New(),
		Name:     name,
		Slug:     slug,
		IsActive: true,
	}
	require.NoError(t, db.Create(&brand).Error)
	return brand
}

func TestListProductsBrandAndPriceFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	category := seedCategory(t, db, "Widgets", "widgets")
	acme := seedBrand(t, db, "Acme", "acme")
	orbit := seedBrand(t, db, "Orbit", "orbit")

	seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Name = "Acme Cheap"
		p.BrandID = &acme.ID
		p.Price = decimal.RequireFromString("9.99")
	})
	seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Name = "Acme Dear"
		p.BrandID = &acme.ID
		p.Price = decimal.RequireFromString("49.99")
	})
	seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Name = "Orbit Mid"
		p.BrandID = &orbit.ID
		p.Price = decimal.RequireFromString("25.00")
	})

	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	byBrand, err := svc.ListProducts(ctx, ListFilter{BrandSlug: "acme"})
	require.NoError(t, err)
	require.Len(t, byBrand.Items, 2)

	min := decimal.RequireFromString("20.00")
	max := decimal.RequireFromString("30.00")
	byPrice, err := svc.ListProducts(ctx, ListFilter{MinPrice: &min, MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, byPrice.Items, 1)
	require.Equal(t, "Orbit Mid", byPrice.Items[0].Name)
}

func TestListProductsStockAndSaleFilters(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	category := seedCategory(t, db, "Widgets", "widgets")

	seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Name = "In Stock"
	})
	drained := seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Name = "Drained"
	})
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", drained.ID).
		Update("stock_quantity", 0).Error)
	untracked := seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Name = "Untracked"
	})
	// track_inventory defaults true; flip it with an explicit update so the
	// column default does not swallow the zero value.
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", untracked.ID).
		Updates(map[string]any{"track_inventory": false, "stock_quantity": 0}).Error)
	compare := decimal.RequireFromString("29.99")
	seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Name = "On Sale"
		p.ComparePrice = &compare
	})

	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	inStock, err := svc.ListProducts(ctx, ListFilter{InStockOnly: true})
	require.NoError(t, err)
	names := make([]string, 0, len(inStock.Items))
	for _, item := range inStock.Items {
		names = append(names, item.Name)
	}
	require.ElementsMatch(t, []string{"In Stock", "Untracked", "On Sale"}, names)

	onSale, err := svc.ListProducts(ctx, ListFilter{OnSaleOnly: true})
	require.NoError(t, err)
	require.Len(t, onSale.Items, 1)
	require.Equal(t, "On Sale", onSale.Items[0].Name)
}

func TestListProductsSortOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	category := seedCategory(t, db, "Widgets", "widgets")

	prices := []string{"30.00", "10.00", "20.00"}
	for i, price := range prices {
		p := price
		seedProduct(t, db, category.ID, func(prod *models.Product) {
			prod.Name = fmt.Sprintf("Widget %d", i)
			prod.Price = decimal.RequireFromString(p)
			prod.AverageRating = decimal.NewFromInt(int64(i + 1))
		})
	}

	svc, _, _ := newTestService(t, db)
	ctx := context.Background()

	asc, err := svc.ListProducts(ctx, ListFilter{Sort: SortPriceAsc})
	require.NoError(t, err)
	require.Equal(t, "Widget 1", asc.Items[0].Name)
	require.Equal(t, "Widget 0", asc.Items[2].Name)
	require.Empty(t, asc.NextCursor, "sorted listings page by offset")

	desc, err := svc.ListProducts(ctx, ListFilter{Sort: SortPriceDesc})
	require.NoError(t, err)
	require.Equal(t, "Widget 0", desc.Items[0].Name)

	byRating, err := svc.ListProducts(ctx, ListFilter{Sort: SortRating})
	require.NoError(t, err)
	require.Equal(t, "Widget 2", byRating.Items[0].Name)

	offset, err := svc.ListProducts(ctx, ListFilter{Sort: SortPriceAsc, Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, offset.Items, 1)
	require.Equal(t, "Widget 2", offset.Items[0].Name)

	_, err = svc.ListProducts(ctx, ListFilter{Sort: "popularity"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestProductDetailAttributesAndSale(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	category := seedCategory(t, db, "Widgets", "widgets")
	compare := decimal.RequireFromString("39.99")
	product := seedProduct(t, db, category.ID, func(p *models.Product) {
		p.Slug = "sale-widget"
		p.ComparePrice = &compare
	})

	color := models.AttributeName{ID: uuid.New(), Name: "color", DisplayName: "Color"}
	require.NoError(t, db.Create(&color).Error)
	red := models.AttributeValue{ID: uuid.New(), AttributeNameID: color.ID, Value: "Red"}
	require.NoError(t, db.Create(&red).Error)
	require.NoError(t, db.Create(&models.ProductAttribute{
		ID:               uuid.New(),
		ProductID:        product.ID,
		AttributeValueID: red.ID,
	}).Error)

	svc, _, _ := newTestService(t, db)

	detail, err := svc.GetProductBySlug(context.Background(), "sale-widget")
	require.NoError(t, err)
	require.True(t, detail.IsOnSale)
	require.Equal(t, "in_stock", detail.StockStatus)
	require.True(t, detail.RequiresShipping)
	require.Len(t, detail.Attributes, 1)
	require.Equal(t, "color", detail.Attributes[0].Name)
	require.Equal(t, "Red", detail.Attributes[0].Value)
}

func TestListBrandsCached(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	seedBrand(t, db, "Orbit", "orbit")
	seedBrand(t, db, "Acme", "acme")
	retired := seedBrand(t, db, "Retired", "retired")
	require.NoError(t, db.Model(&models.Brand{}).
		Where("id = ?", retired.ID).
		Update("is_active", false).Error)

	svc, cache, store := newTestService(t, db)
	ctx := context.Background()

	brands, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	require.Equal(t, "Acme", brands[0].Name, "alphabetical order")
	require.Contains(t, store.data, "sf:cache:brands")

	seedBrand(t, db, "Zephyr", "zephyr")
	again, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, again, 2, "served from cache until invalidated")

	cache.InvalidateBrands(ctx)
	fresh, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 3)
}

func TestNilCacheFallsThrough(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	category := seedCategory(t, db, "Widgets", "widgets")
	seedProduct(t, db, category.ID, nil)

	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)

	page, err := svc.ListProducts(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
}
