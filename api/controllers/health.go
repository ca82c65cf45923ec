package controllers

import (
	"context"
	"net/http"

	"github.com/navnoorsingh0309/inventory-management/api/responses"
	"github.com/navnoorsingh0309/inventory-management/pkg/config"
	pkgerrors "github.com/navnoorsingh0309/inventory-management/pkg/errors"
	"github.com/navnoorsingh0309/inventory-management/pkg/logger"
)

// Pinger is any datasource that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-IMS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing datasource answers.
func HealthReady(cfg *config.Config, logg *logger.Logger, sources map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-IMS-Env", cfg.App.Env)

		for name, source := range sources {
			if source == nil {
				continue
			}
			if err := source.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
