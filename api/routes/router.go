package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rafaelortiz/tradeyard-backend/api/controllers"
	"github.com/rafaelortiz/tradeyard-backend/api/middleware"
	"github.com/rafaelortiz/tradeyard-backend/internal/gateway"
	"github.com/rafaelortiz/tradeyard-backend/pkg/config"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	pkgredis "github.com/rafaelortiz/tradeyard-backend/pkg/redis"
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	Config      *config.Config
	Gateway     gateway.Service
	DB          db.Pinger
	Redis       pkgredis.Pinger
	Idempotency middleware.IdempotencyStore
	Metrics     prometheus.Gatherer
	Logger      *logger.Logger
}

// New assembles the router with middleware, health probes and the v1 API.
func New(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.CORS())

	health := controllers.NewHealthController(deps.DB, deps.Redis, deps.Logger)
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", health.Live)
		r.Get("/ready", health.Ready)
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	ordersCtrl := controllers.NewOrdersController(deps.Gateway, deps.Logger)
	returnsCtrl := controllers.NewReturnsController(deps.Gateway, deps.Logger)
	webhooksCtrl := controllers.NewWebhooksController(deps.Gateway, deps.Config.Webhook, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Idempotency != nil {
			r.Use(middleware.Idempotency(deps.Idempotency, deps.Logger))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Config.JWT, deps.Logger))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordersCtrl.Create)
				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", ordersCtrl.GetSnapshot)
					r.Post("/transitions", ordersCtrl.RequestTransition)
					r.Get("/audit", ordersCtrl.GetAuditLog)
					r.Post("/returns", returnsCtrl.Create)
				})
			})

			r.Route("/returns", func(r chi.Router) {
				r.Post("/{returnId}/transitions", returnsCtrl.RequestTransition)
			})
		})

		r.Post("/webhooks/payments", webhooksCtrl.PaymentFailed)
	})

	return r
}
