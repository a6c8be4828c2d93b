package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brewbar/bubbletea-backend/api/controllers"
	authcontrollers "github.com/brewbar/bubbletea-backend/api/controllers/auth"
	cartcontrollers "github.com/brewbar/bubbletea-backend/api/controllers/cart"
	ordercontrollers "github.com/brewbar/bubbletea-backend/api/controllers/orders"
	"github.com/brewbar/bubbletea-backend/api/middleware"
	"github.com/brewbar/bubbletea-backend/internal/address"
	"github.com/brewbar/bubbletea-backend/internal/analytics/report"
	"github.com/brewbar/bubbletea-backend/internal/auth"
	"github.com/brewbar/bubbletea-backend/internal/cart"
	"github.com/brewbar/bubbletea-backend/internal/categories"
	checkoutsvc "github.com/brewbar/bubbletea-backend/internal/checkout"
	"github.com/brewbar/bubbletea-backend/internal/dashboard"
	"github.com/brewbar/bubbletea-backend/internal/media"
	"github.com/brewbar/bubbletea-backend/internal/orders"
	"github.com/brewbar/bubbletea-backend/internal/products"
	"github.com/brewbar/bubbletea-backend/internal/promotions"
	"github.com/brewbar/bubbletea-backend/internal/reviews"
	"github.com/brewbar/bubbletea-backend/internal/settings"
	"github.com/brewbar/bubbletea-backend/internal/toppings"
	"github.com/brewbar/bubbletea-backend/internal/users"
	"github.com/brewbar/bubbletea-backend/internal/wishlist"
	"github.com/brewbar/bubbletea-backend/pkg/auth/session"
	"github.com/brewbar/bubbletea-backend/pkg/config"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
	"github.com/brewbar/bubbletea-backend/pkg/metrics"
	pkgredis "github.com/brewbar/bubbletea-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs for
// idempotency replay and auth throttling.
type RedisStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	AuthLimitKey(policy, scope, value string) string
}

type reportGenerator interface {
	Generate(ctx context.Context, rawRange string) (*report.Report, error)
}

// Dependencies bundles everything the router wires into handlers. Nil
// services answer with INTERNAL_ERROR instead of panicking.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker
	Redis    RedisStore
	// Readiness maps a dependency name to its pinger for /health/ready.
	Readiness   map[string]controllers.Pinger
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth       auth.Service
	Categories categories.Service
	Products   products.Service
	Toppings   toppings.Service
	Reviews    reviews.Service
	Cart       cart.Service
	Wishlist   wishlist.Service
	Checkout   checkoutsvc.Service
	Orders     orders.Service
	Addresses  address.Service
	Promotions promotions.Service
	Users      users.Service
	Settings   settings.Service
	Dashboard  dashboard.Service
	Reports    reportGenerator
	Media      media.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	anonymousPolicy := middleware.NewAuthRateLimitPolicy(
		"anonymous",
		cfg.AuthRateLimit.AnonymousWindow,
		cfg.AuthRateLimit.AnonymousIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// Idempotency runs after Auth so replay records are scoped to the caller.
	idempotent := middleware.Idempotency(deps.Redis, logg)

	r.Route("/api/v1", func(r chi.Router) {
		// public
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg), idempotent).Post("/register", authcontrollers.Register(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", authcontrollers.Login(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(anonymousPolicy, deps.Redis, logg)).Post("/anonymous", authcontrollers.Anonymous(deps.Auth, logg))
			r.Post("/refresh", authcontrollers.Refresh(deps.Auth, logg))
			r.Post("/logout", authcontrollers.Logout(deps.Auth, cfg.JWT, logg))
		})
		r.Get("/categories", controllers.CategoryList(deps.Categories, logg))
		r.Get("/categories/{slug}/products", controllers.CategoryProducts(deps.Products, logg))
		r.Get("/products/featured", controllers.ProductFeatured(deps.Products, logg))
		r.Get("/products/search", controllers.ProductSearch(deps.Products, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/products/{productId}/related", controllers.ProductRelated(deps.Products, logg))
		r.Get("/settings", controllers.SettingsGet(deps.Settings, logg))
		r.Get("/media/url", controllers.MediaURL(deps.Media, logg))
		r.Post("/media/urls", controllers.MediaURLs(deps.Media, logg))

		// signed in, guests included
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(idempotent)

			r.Get("/me", authcontrollers.Me(deps.Auth, logg))
			r.Post("/products/{productId}/reviews", controllers.ReviewCreate(deps.Reviews, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			})
			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
				r.Get("/{productId}", controllers.WishlistCheck(deps.Wishlist, logg))
				r.Post("/{productId}", controllers.WishlistAdd(deps.Wishlist, logg))
				r.Delete("/{productId}", controllers.WishlistRemove(deps.Wishlist, logg))
			})
			r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			})
			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(deps.Addresses, logg))
				r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(deps.Addresses, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireAdmin(logg))
			r.Use(idempotent)

			r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))
			r.Get("/analytics", controllers.AdminAnalytics(deps.Reports, logg))
			r.Get("/settings", controllers.SettingsGet(deps.Settings, logg))
			r.Put("/settings", controllers.AdminSettingsUpdate(deps.Settings, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductList(deps.Products, logg))
				r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
				r.Put("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
				r.Get("/{productId}/toppings", controllers.AdminProductToppings(deps.Toppings, logg))
				r.Post("/{productId}/toppings/{toppingId}", controllers.AdminProductToppingLink(deps.Toppings, logg))
				r.Delete("/{productId}/toppings/{toppingId}", controllers.AdminProductToppingUnlink(deps.Toppings, logg))
			})
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.AdminCategoryList(deps.Categories, logg))
				r.Post("/", controllers.AdminCategoryCreate(deps.Categories, logg))
				r.Put("/{categoryId}", controllers.AdminCategoryUpdate(deps.Categories, logg))
				r.Delete("/{categoryId}", controllers.AdminCategoryDelete(deps.Categories, logg))
			})
			r.Route("/toppings", func(r chi.Router) {
				r.Get("/", controllers.AdminToppingList(deps.Toppings, logg))
				r.Post("/", controllers.AdminToppingCreate(deps.Toppings, logg))
				r.Put("/{toppingId}", controllers.AdminToppingUpdate(deps.Toppings, logg))
				r.Delete("/{toppingId}", controllers.AdminToppingDelete(deps.Toppings, logg))
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
				r.Patch("/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
			})
			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUserList(deps.Users, logg))
				r.Get("/{userId}", controllers.AdminUserGet(deps.Users, logg))
				r.Delete("/{userId}", controllers.AdminUserDelete(deps.Users, logg))
				r.Patch("/{userId}/status", controllers.AdminUserSetStatus(deps.Users, logg))
			})
			r.Route("/promotions", func(r chi.Router) {
				r.Get("/", controllers.AdminPromotionList(deps.Promotions, logg))
				r.Post("/", controllers.AdminPromotionCreate(deps.Promotions, logg))
				r.Put("/{promotionId}", controllers.AdminPromotionUpdate(deps.Promotions, logg))
				r.Delete("/{promotionId}", controllers.AdminPromotionDelete(deps.Promotions, logg))
			})
			r.Get("/reviews", controllers.AdminReviewList(deps.Reviews, logg))
			r.Patch("/reviews/{reviewId}/approve", controllers.AdminReviewApprove(deps.Reviews, logg))
			r.Post("/media/upload-url", controllers.MediaPresign(deps.Media, logg))
		})
	})

	return r
}
