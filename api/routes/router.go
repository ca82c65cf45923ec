package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/navnoorsingh0309/inventory-management/api/controllers"
	"github.com/navnoorsingh0309/inventory-management/api/middleware"
	componentsvc "github.com/navnoorsingh0309/inventory-management/internal/components"
	projectsvc "github.com/navnoorsingh0309/inventory-management/internal/projects"
	requestsvc "github.com/navnoorsingh0309/inventory-management/internal/requests"
	userinvsvc "github.com/navnoorsingh0309/inventory-management/internal/userinventory"
	"github.com/navnoorsingh0309/inventory-management/pkg/config"
	"github.com/navnoorsingh0309/inventory-management/pkg/enums"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
	pkgredis "github.com/navnoorsingh0309/inventory-management/pkg/redis"
)

// Dependencies carries everything the router wires into handlers.
// Idempotency overrides the replay store; when nil the Redis client serves it.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            controllers.Pinger
	Redis         *pkgredis.Client
	Idempotency   pkgredis.IdempotencyStore
	Registry      *prometheus.Registry
	Requests      requestsvc.Service
	Components    componentsvc.Service
	UserInventory userinvsvc.Service
	Projects      projectsvc.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    pingerOrNil(deps.Redis),
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		store := deps.Idempotency
		if store == nil && deps.Redis != nil {
			store = deps.Redis
		}
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(store, cfg.Idempotency, logg))

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.RequestCreate(deps.Requests, logg))
			r.Get("/{requestId}", controllers.RequestGet(deps.Requests, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMinRole(enums.RoleCategoryAdmin, logg))
				r.Get("/", controllers.RequestList(deps.Requests, logg))
				r.Post("/{requestId}/approve", controllers.RequestApprove(deps.Requests, logg))
				r.Post("/{requestId}/reject", controllers.RequestReject(deps.Requests, logg))
				r.Post("/{requestId}/return-component", controllers.RequestReturnComponent(deps.Requests, logg))
				r.Post("/{requestId}/return-project", controllers.RequestReturnProject(deps.Requests, logg))
			})
		})

		r.Get("/my-inventory", controllers.MyInventory(deps.UserInventory, logg))

		r.Route("/components", func(r chi.Router) {
			r.Get("/", controllers.ComponentList(deps.Components, logg))
			r.Get("/{componentId}", controllers.ComponentGet(deps.Components, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMinRole(enums.RoleCategoryAdmin, logg))
				r.Post("/", controllers.ComponentCreate(deps.Components, logg))
				r.Put("/{componentId}/stock", controllers.ComponentAdjustStock(deps.Components, logg))
				r.Delete("/{componentId}", controllers.ComponentDelete(deps.Components, logg))
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", controllers.ProjectList(deps.Projects, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireMinRole(enums.RoleCategoryAdmin, logg))
				r.Post("/", controllers.ProjectCreate(deps.Projects, logg))
				r.Delete("/{projectId}", controllers.ProjectDelete(deps.Projects, logg))
			})
		})
	})

	return r
}

// pingerOrNil avoids a typed-nil interface when redis is not configured.
func pingerOrNil(client *pkgredis.Client) controllers.Pinger {
	if client == nil {
		return nil
	}
	return client
}
