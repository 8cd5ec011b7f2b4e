package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/harborline/storefront-backend/internal/accounts"
	"github.com/harborline/storefront-backend/internal/cart"
	"github.com/harborline/storefront-backend/internal/catalog"
	"github.com/harborline/storefront-backend/internal/coupons"
	"github.com/harborline/storefront-backend/internal/orders"
	"github.com/harborline/storefront-backend/internal/reviews"
	"github.com/harborline/storefront-backend/internal/wishlist"
	pkgAuth "github.com/harborline/storefront-backend/pkg/auth"
	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/pagination"
	"github.com/harborline/storefront-backend/pkg/redis"
	"github.com/harborline/storefront-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAccounts struct{}

func (stubAccounts) Register(context.Context, accounts.RegisterInput) (accounts.AuthResultDTO, error) {
	return accounts.AuthResultDTO{Token: "t"}, nil
}

func (stubAccounts) Login(context.Context, accounts.LoginInput) (accounts.AuthResultDTO, error) {
	return accounts.AuthResultDTO{Token: "t"}, nil
}

func (stubAccounts) Me(context.Context, types.Actor) (accounts.CustomerDTO, error) {
	return accounts.CustomerDTO{}, nil
}

type stubCatalog struct{}

func (stubCatalog) ListProducts(context.Context, catalog.ListFilter) (catalog.ProductPageDTO, error) {
	return catalog.ProductPageDTO{}, nil
}

func (stubCatalog) GetProductBySlug(context.Context, string) (catalog.ProductDetailDTO, error) {
	return catalog.ProductDetailDTO{}, nil
}

func (stubCatalog) ListFeatured(context.Context) (catalog.ProductPageDTO, error) {
	return catalog.ProductPageDTO{}, nil
}

func (stubCatalog) ListCategories(context.Context) ([]catalog.CategoryDTO, error) {
	return nil, nil
}

func (stubCatalog) ListBrands(context.Context) ([]catalog.BrandDTO, error) {
	return nil, nil
}

type stubCart struct{}

func (stubCart) GetCart(context.Context, cart.Owner) (cart.DTO, error) { return cart.DTO{}, nil }

func (stubCart) AddItem(context.Context, cart.Owner, cart.AddItemInput) (cart.DTO, error) {
	return cart.DTO{}, nil
}

func (stubCart) UpdateItem(context.Context, cart.Owner, uuid.UUID, int) (cart.DTO, error) {
	return cart.DTO{}, nil
}

func (stubCart) RemoveItem(context.Context, cart.Owner, uuid.UUID) (cart.DTO, error) {
	return cart.DTO{}, nil
}

func (stubCart) Clear(context.Context, cart.Owner) error { return nil }

func (stubCart) MergeOnLogin(context.Context, string, uuid.UUID) error { return nil }

type stubOrders struct{}

func (stubOrders) CreateOrder(context.Context, types.Actor, orders.CreateOrderInput) (orders.DTO, error) {
	return orders.DTO{}, nil
}

func (stubOrders) GetOrder(context.Context, types.Actor, uuid.UUID) (orders.DTO, error) {
	return orders.DTO{}, nil
}

func (stubOrders) ListOrders(context.Context, types.Actor, pagination.Params) (orders.PageDTO, error) {
	return orders.PageDTO{}, nil
}

func (stubOrders) CancelOrder(context.Context, types.Actor, uuid.UUID) (orders.DTO, error) {
	return orders.DTO{}, nil
}

func (stubOrders) UpdateStatus(context.Context, types.Actor, uuid.UUID, orders.UpdateStatusInput) (orders.DTO, error) {
	return orders.DTO{}, nil
}

type stubCoupons struct{}

func (stubCoupons) ValidateCode(context.Context, string, decimal.Decimal) (coupons.ValidationResultDTO, error) {
	return coupons.ValidationResultDTO{Valid: true}, nil
}

type stubReviews struct{}

func (stubReviews) CreateReview(context.Context, types.Actor, reviews.CreateReviewInput) (reviews.DTO, error) {
	return reviews.DTO{}, nil
}

func (stubReviews) ListProductReviews(context.Context, uuid.UUID, string, int) (reviews.PageDTO, error) {
	return reviews.PageDTO{}, nil
}

func (stubReviews) UpdateReview(context.Context, types.Actor, uuid.UUID, reviews.UpdateReviewInput) (reviews.DTO, error) {
	return reviews.DTO{}, nil
}

func (stubReviews) DeleteReview(context.Context, types.Actor, uuid.UUID) error { return nil }

type stubWishlist struct{}

func (stubWishlist) GetWishlist(context.Context, types.Actor) (wishlist.DTO, error) {
	return wishlist.DTO{}, nil
}

func (stubWishlist) AddItem(context.Context, types.Actor, uuid.UUID) (wishlist.DTO, error) {
	return wishlist.DTO{}, nil
}

func (stubWishlist) RemoveItem(context.Context, types.Actor, uuid.UUID) (wishlist.DTO, error) {
	return wishlist.DTO{}, nil
}

// fakeStore satisfies the redis command surface with in-memory counters.
type fakeStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: map[string]int64{}}
}

func (f *fakeStore) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusCmd(ctx)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	return goredis.NewStatusCmd(ctx)
}

func (f *fakeStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	cmd := goredis.NewStringCmd(ctx)
	cmd.SetErr(goredis.Nil)
	return cmd
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *goredis.BoolCmd {
	cmd := goredis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeStore) Incr(ctx context.Context, key string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	cmd := goredis.NewIntCmd(ctx)
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *goredis.BoolCmd {
	cmd := goredis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	return goredis.NewIntCmd(ctx)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "storefront-test",
		ExpirationMinutes: 60,
	}
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.RateLimit = config.AuthRateLimitConfig{
		LoginWindow:        time.Minute,
		LoginIPLimit:       10,
		LoginEmailLimit:    2,
		RegisterWindow:     time.Minute,
		RegisterIPLimit:    10,
		RegisterEmailLimit: 10,
	}
	return cfg
}

func newTestRouter(cfg *config.Config) http.Handler {
	return NewRouter(
		cfg,
		nil,
		stubPinger{},
		stubPinger{},
		nil,
		redis.FromCmdable(newFakeStore()),
		stubAccounts{},
		stubCatalog{},
		stubCart{},
		stubOrders{},
		stubCoupons{},
		stubReviews{},
		stubWishlist{},
	)
}

func mintToken(t *testing.T, cfg *config.Config, role types.ActorRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		CustomerID: uuid.New(),
		Email:      "ada@example.com",
		Role:       role,
	})
	require.NoError(t, err)
	return token
}

func TestPublicRoutes(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{
		"/health/live",
		"/health/ready",
		"/metrics",
		"/api/v1/products",
		"/api/v1/products/featured",
		"/api/v1/products/widget-pro",
		"/api/v1/categories",
		"/api/v1/brands",
		"/api/v1/reviews/product/" + uuid.NewString(),
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCartRequiresOwner(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-Key", "sess-abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{
		"/api/v1/auth/me",
		"/api/v1/orders",
		"/api/v1/wishlist",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestOrdersFlowWithToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := mintToken(t, cfg, types.RoleCustomer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := `{"billing_address":{"line1":"1 Main St"},"shipping_address":{"line1":"1 Main St"}}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestStatusUpdateIsStaffOnly(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	path := "/api/v1/orders/" + uuid.NewString() + "/status"
	body := `{"status":"shipped"}`

	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, types.RoleCustomer))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg, types.RoleStaff))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRateLimitedPerEmail(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"email":"ada@example.com","password":"hunter2hunter2"}`

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestValidateCouponRoute(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/SAVE10/validate", strings.NewReader(`{"subtotal":"25.00"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
