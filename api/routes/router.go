package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/entitle-backend/api/controllers"
	billingcontrollers "github.com/angelmondragon/entitle-backend/api/controllers/billing"
	"github.com/angelmondragon/entitle-backend/api/middleware"
	"github.com/angelmondragon/entitle-backend/internal/accounts"
	checkoutsvc "github.com/angelmondragon/entitle-backend/internal/checkout"
	"github.com/angelmondragon/entitle-backend/internal/entitlements"
	"github.com/angelmondragon/entitle-backend/pkg/config"
	"github.com/angelmondragon/entitle-backend/pkg/db"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/angelmondragon/entitle-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	accountsRepo accounts.Repository,
	entitlementService *entitlements.Service,
	checkoutService *checkoutsvc.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Dev convenience only; deployed environments get tokens from the
	// identity service.
	if cfg.App.IsDev() {
		r.Post("/api/v1/auth/token", controllers.DevToken(cfg, logg, accountsRepo))
	}

	r.Route("/api/v1/billing", func(r chi.Router) {
		r.With(middleware.Auth(cfg.JWT, logg)).
			Get("/entitlement", billingcontrollers.Entitlement(entitlementService, accountsRepo, logg))

		// Checkout and portal degrade to redirects without identity.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/checkout/{priceName}", billingcontrollers.Checkout(checkoutService, accountsRepo, logg))
			r.Get("/portal", billingcontrollers.Portal(checkoutService, accountsRepo, logg))
		})
	})

	return r
}
