package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/kwabenadarko/outlethub-backend/api/controllers"
	"github.com/kwabenadarko/outlethub-backend/api/middleware"
	"github.com/kwabenadarko/outlethub-backend/internal/auth"
	"github.com/kwabenadarko/outlethub-backend/internal/orders"
	"github.com/kwabenadarko/outlethub-backend/internal/outlets"
	products "github.com/kwabenadarko/outlethub-backend/internal/products"
	"github.com/kwabenadarko/outlethub-backend/pkg/auth/session"
	"github.com/kwabenadarko/outlethub-backend/pkg/config"
	"github.com/kwabenadarko/outlethub-backend/pkg/enums"
	"github.com/kwabenadarko/outlethub-backend/pkg/logger"
	"github.com/kwabenadarko/outlethub-backend/pkg/metrics"
	"github.com/kwabenadarko/outlethub-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Optional fields (metrics,
// webhook service) may be nil and their routes degrade gracefully.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *gorm.DB
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics

	AuthService          auth.Service
	RegisterService      auth.RegisterService
	AdminRegisterService auth.AdminRegisterService
	OutletService        outlets.Service
	ProductService       products.Service
	OrderService         orders.Service
	WebhookService       controllers.PaystackWebhookService
	PaystackVerifier     interface {
		ValidateSignature(payload []byte, signature string) bool
	}
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Frontend.BaseURL),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

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

	requireAuth := middleware.Auth(cfg.JWT, deps.SessionChecker, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", controllers.PaystackWebhook(deps.WebhookService, deps.PaystackVerifier, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	// Public catalog and storefront reads.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ListProducts(deps.ProductService, logg))
		r.Get("/featured", controllers.ListFeaturedProducts(deps.ProductService, logg))
		r.Get("/{productId}", controllers.GetProduct(deps.ProductService, logg))
		r.Get("/{productId}/reviews", controllers.ListProductReviews(deps.ProductService, logg))
		r.With(requireAuth).Post("/{productId}/reviews", controllers.AddProductReview(deps.ProductService, logg))
	})

	r.Route("/api/v1/outlets", func(r chi.Router) {
		r.Get("/", controllers.ListOutlets(deps.OutletService, logg))
		r.Get("/slug/{slug}", controllers.GetOutletBySlug(deps.OutletService, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRoles(logg, string(enums.UserRoleOutlet)))
			r.Post("/", controllers.CreateOutlet(deps.OutletService, logg))
			r.Get("/me", controllers.GetOwnOutlet(deps.OutletService, logg))
		})

		r.Get("/{outletId}", controllers.GetOutlet(deps.OutletService, logg))
		r.With(requireAuth).Put("/{outletId}", controllers.UpdateOutlet(deps.OutletService, logg))
	})

	// Catalog management for outlet owners.
	r.Route("/api/v1/outlet/products", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRoles(logg, string(enums.UserRoleOutlet), string(enums.UserRoleAdmin)))
		r.Get("/", controllers.OutletListProducts(deps.ProductService, logg))
		r.Post("/", controllers.OutletCreateProduct(deps.ProductService, logg))
		r.Patch("/{productId}", controllers.OutletUpdateProduct(deps.ProductService, logg))
		r.Delete("/{productId}", controllers.OutletDeleteProduct(deps.ProductService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		// Checkout callback pages poll this without a session.
		r.Get("/verify-payment/{reference}", controllers.VerifyOrderPayment(deps.OrderService, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/ping", controllers.PrivatePing())
			r.Post("/", controllers.CreateOrder(deps.OrderService, logg))
			r.Get("/", controllers.ListOrders(deps.OrderService, logg))
			r.Get("/{orderId}", controllers.GetOrder(deps.OrderService, logg))
			r.Put("/{orderId}/status", controllers.UpdateOrderStatus(deps.OrderService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireRoles(logg, string(enums.UserRoleAdmin)))
		r.Get("/ping", controllers.AdminPing())
		r.Post("/users", controllers.AdminCreateAdmin(deps.AdminRegisterService, logg))
		r.Get("/orders", controllers.AdminListOrders(deps.OrderService, logg))
		r.Put("/products/{productId}/featured", controllers.AdminSetProductFeatured(deps.ProductService, logg))
		r.Post("/outlets/{outletId}/verify", controllers.AdminVerifyOutlet(deps.OutletService, logg))
		r.Delete("/outlets/{outletId}", controllers.AdminDeleteOutlet(deps.OutletService, logg))
	})

	return r
}
