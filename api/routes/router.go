package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborline/storefront-backend/api/controllers"
	"github.com/harborline/storefront-backend/api/middleware"
	"github.com/harborline/storefront-backend/internal/accounts"
	"github.com/harborline/storefront-backend/internal/cart"
	"github.com/harborline/storefront-backend/internal/catalog"
	"github.com/harborline/storefront-backend/internal/coupons"
	"github.com/harborline/storefront-backend/internal/orders"
	"github.com/harborline/storefront-backend/internal/reviews"
	"github.com/harborline/storefront-backend/internal/wishlist"
	"github.com/harborline/storefront-backend/pkg/config"
	"github.com/harborline/storefront-backend/pkg/logger"
	"github.com/harborline/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	pubsubPinger controllers.Pinger,
	redisClient *redis.Client,
	accountsService accounts.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	couponsService coupons.Service,
	reviewsService reviews.Service,
	wishlistService wishlist.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
			"pubsub":   pubsubPinger,
		}))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/featured", controllers.ListFeaturedProducts(catalogService, logg))
			r.Get("/{slug}", controllers.GetProduct(catalogService, logg))
		})
		r.Get("/categories", controllers.ListCategories(catalogService, logg))
		r.Get("/brands", controllers.ListBrands(catalogService, logg))
		r.Get("/reviews/product/{productId}", controllers.ListProductReviews(reviewsService, logg))
		r.Post("/coupons/{code}/validate", controllers.ValidateCoupon(couponsService, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(
				middleware.OptionalAuth(cfg.JWT, logg),
				middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			).Post("/register", controllers.AuthRegister(accountsService, logg))
			r.With(
				middleware.OptionalAuth(cfg.JWT, logg),
				middleware.AuthRateLimit(loginPolicy, redisClient, logg),
			).Post("/login", controllers.AuthLogin(accountsService, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(accountsService, logg))
		})

		// Cart endpoints accept either a bearer token or an anonymous
		// session key, so auth stays optional here.
		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Delete("/", controllers.ClearCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(cartService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(ordersService, logg))
				r.Post("/", controllers.CreateOrder(ordersService, logg))
				r.Get("/{orderId}", controllers.GetOrder(ordersService, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersService, logg))
				r.With(middleware.RequireStaff(logg)).Patch("/{orderId}/status", controllers.UpdateOrderStatus(ordersService, logg))
			})

			r.Post("/reviews", controllers.CreateReview(reviewsService, logg))
			r.Patch("/reviews/{reviewId}", controllers.UpdateReview(reviewsService, logg))
			r.Delete("/reviews/{reviewId}", controllers.DeleteReview(reviewsService, logg))

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.GetWishlist(wishlistService, logg))
				r.Post("/items", controllers.AddWishlistItem(wishlistService, logg))
				r.Delete("/items/{productId}", controllers.RemoveWishlistItem(wishlistService, logg))
			})
		})
	})

	return r
}
