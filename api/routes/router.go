package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retaildesk/retaildesk-backend/api/controllers"
	"github.com/retaildesk/retaildesk-backend/api/middleware"
	"github.com/retaildesk/retaildesk-backend/internal/analytics"
	"github.com/retaildesk/retaildesk-backend/internal/auth"
	"github.com/retaildesk/retaildesk-backend/internal/catalog"
	"github.com/retaildesk/retaildesk-backend/internal/checkout"
	"github.com/retaildesk/retaildesk-backend/internal/customers"
	"github.com/retaildesk/retaildesk-backend/internal/ingestion"
	"github.com/retaildesk/retaildesk-backend/pkg/config"
	"github.com/retaildesk/retaildesk-backend/pkg/db"
	"github.com/retaildesk/retaildesk-backend/pkg/enums"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
	"github.com/retaildesk/retaildesk-backend/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Auth      auth.Service
	Orders    checkout.Service
	Ingestion ingestion.Service
	Analytics analytics.Service
	Customers customers.Repository
	Catalog   catalog.Repository
}

// New assembles the full HTTP surface.
func New(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var cachePinger redis.Pinger
	if deps.Redis != nil {
		cachePinger = deps.Redis
	}
	healthCtrl := controllers.NewHealthController(deps.DB, cachePinger, logg)
	authCtrl := controllers.NewAuthController(deps.Auth, logg)
	checkoutCtrl := controllers.NewCheckoutController(deps.Customers, deps.Catalog, deps.Orders, logg)
	ingestionCtrl := controllers.NewIngestionController(deps.Ingestion, cfg.Ingestion, logg)
	analyticsCtrl := controllers.NewAnalyticsController(deps.Analytics, logg)

	r := chi.NewRouter()

	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.CORS(cfg.Frontend.URL))

	r.Get("/health/live", healthCtrl.Live)
	r.Get("/health/ready", healthCtrl.Ready)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
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

	passthrough := func(next http.Handler) http.Handler { return next }
	loginLimiter, registerLimiter := passthrough, passthrough
	if deps.Redis != nil {
		loginLimiter = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
		registerLimiter = middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimiter).Post("/login", authCtrl.Login)
			r.With(registerLimiter).Post("/register", authCtrl.Register)
			r.Post("/forgot-password", authCtrl.ForgotPassword)
			r.Post("/reset-password", authCtrl.ResetPassword)

			r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", authCtrl.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/customers", checkoutCtrl.ListCustomers)
				r.Get("/customers/search", checkoutCtrl.SearchCustomers)
				r.Post("/customers", checkoutCtrl.CreateCustomer)
				r.Get("/products", checkoutCtrl.SearchProducts)
				r.Post("/orders", checkoutCtrl.PlaceOrder)
			})

			r.Get("/analytics/dashboard", analyticsCtrl.Dashboard)

			r.Route("/ingestion", func(r chi.Router) {
				r.Post("/inventory", ingestionCtrl.UploadInventory)
				r.Post("/sales", ingestionCtrl.UploadSales)

				// catalog-wide uploads stay admin-only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))
					r.Post("/customers", ingestionCtrl.UploadCustomers)
					r.Post("/products", ingestionCtrl.UploadProducts)
				})
			})
		})
	})

	return r
}
