package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/locaops/rental-backend/api/controllers"
	"github.com/locaops/rental-backend/api/middleware"
	"github.com/locaops/rental-backend/internal/availability"
	"github.com/locaops/rental-backend/internal/incidents"
	"github.com/locaops/rental-backend/internal/items"
	"github.com/locaops/rental-backend/internal/reconciliation"
	"github.com/locaops/rental-backend/pkg/config"
	"github.com/locaops/rental-backend/pkg/db"
	"github.com/locaops/rental-backend/pkg/logger"
	"github.com/locaops/rental-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Items        items.Service
	Availability availability.Service
	Incidents    *incidents.Repository
	Resolver     *reconciliation.Resolver
	Detector     *reconciliation.Detector
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	var redisPinger redis.Pinger
	if deps.Redis != nil {
		redisPinger = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		var idempotencyStore redis.IdempotencyStore
		if deps.Redis != nil {
			idempotencyStore = deps.Redis
		}
		r.Use(middleware.Idempotency(idempotencyStore, deps.Logger))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", controllers.ListItems(deps.Items, deps.Logger))
			r.Route("/{itemID}", func(r chi.Router) {
				r.Get("/", controllers.GetItem(deps.Items, deps.Logger))
				r.Get("/availability", controllers.ItemAvailability(deps.Availability, deps.Logger))
				r.Post("/stock/adjust", controllers.AdjustStock(deps.Resolver, deps.Logger))
				r.Get("/ghosts", controllers.ItemGhosts(deps.Detector, deps.Logger))
				r.Post("/ghosts/{condition}/sync", controllers.SyncGhost(deps.Resolver, deps.Logger))
				r.Post("/ghosts/{condition}/resolve", controllers.ResolveGhost(deps.Resolver, deps.Logger))
			})
		})

		r.Route("/incidents/{condition}", func(r chi.Router) {
			r.Get("/", controllers.ListIncidents(deps.Incidents, deps.Logger))
			r.Post("/{incidentID}/resolve", controllers.ResolveIncident(deps.Resolver, deps.Logger))
		})
		r.Post("/incidents/damaged/{incidentID}/transfer", controllers.TransferIncident(deps.Resolver, deps.Logger))

		r.Get("/reconciliation/ghosts", controllers.ListGhosts(deps.Detector, deps.Logger))
	})

	return r
}
