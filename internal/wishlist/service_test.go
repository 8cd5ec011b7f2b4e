package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db"
	"github.com/harborline/storefront-backend/pkg/db/models"
	pkgerrors "github.com/harborline/storefront-backend/pkg/errors"
	"github.com/harborline/storefront-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:wishlist_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.Wishlist{},
		&models.WishlistItem{},
	))
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:   db.FromGorm(conn),
		Repo: NewRepository(conn),
	})
	require.NoError(t, err)
	return svc
}

func customerActor() types.Actor {
	return types.Actor{CustomerID: uuid.New(), Role: types.RoleCustomer}
}

func seedProduct(t *testing.T, conn *gorm.DB, name string) models.Product {
	t.Helper()
	category := models.Category{ID: uuid.New(), Name: "Widgets " + uuid.NewString()[:8], Slug: "widgets-" + uuid.NewString()[:8], IsActive: true}
	require.NoError(t, conn.Create(&category).Error)
	product := models.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       "p-" + uuid.NewString()[:8],
		SKU:        "SKU-" + uuid.NewString()[:8],
		Price:      decimal.RequireFromString("19.99"),
		CategoryID: category.ID,
		IsActive:   true,
	}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

func TestGetWishlistCreatesDefault(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	actor := customerActor()
	ctx := context.Background()

	wishlist, err := svc.GetWishlist(ctx, actor)
	require.NoError(t, err)
	require.True(t, wishlist.IsDefault)
	require.Equal(t, "My Wishlist", wishlist.Name)
	require.Empty(t, wishlist.Items)

	again, err := svc.GetWishlist(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, wishlist.ID, again.ID, "default wishlist is created once")
}

func TestAddItem(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	actor := customerActor()
	product := seedProduct(t, conn, "Blue Widget")
	ctx := context.Background()

	wishlist, err := svc.AddItem(ctx, actor, product.ID)
	require.NoError(t, err)
	require.Equal(t, 1, wishlist.ItemCount)
	require.Equal(t, product.ID, wishlist.Items[0].ProductID)
	require.Equal(t, "Blue Widget", wishlist.Items[0].ProductName)
	require.True(t, wishlist.Items[0].InStock)
}

func TestAddItemDuplicateConflict(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	actor := customerActor()
	product := seedProduct(t, conn, "Blue Widget")
	ctx := context.Background()

	_, err := svc.AddItem(ctx, actor, product.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, actor, product.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestAddItemUnknownProduct(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.AddItem(context.Background(), customerActor(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	actor := customerActor()
	product := seedProduct(t, conn, "Blue Widget")
	ctx := context.Background()

	_, err := svc.AddItem(ctx, actor, product.ID)
	require.NoError(t, err)

	wishlist, err := svc.RemoveItem(ctx, actor, product.ID)
	require.NoError(t, err)
	require.Empty(t, wishlist.Items)

	_, err = svc.RemoveItem(ctx, actor, product.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestWishlistsAreIsolatedPerCustomer(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, "Blue Widget")
	ctx := context.Background()

	first := customerActor()
	second := customerActor()

	_, err := svc.AddItem(ctx, first, product.ID)
	require.NoError(t, err)

	other, err := svc.GetWishlist(ctx, second)
	require.NoError(t, err)
	require.Empty(t, other.Items)

	_, err = svc.RemoveItem(ctx, second, product.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
