package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/campusfreestore/freestore-backend/api/responses"
	"github.com/campusfreestore/freestore-backend/pkg/config"
	pkgerrors "github.com/campusfreestore/freestore-backend/pkg/errors"
	"github.com/campusfreestore/freestore-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Freestore-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both backing stores answer a ping.
func HealthReady(cfg *config.Config, database, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Freestore-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"db": "ok", "redis": "ok"}
		var failed error

		if database != nil {
			if err := database.Ping(ctx); err != nil {
				checks["db"] = "unavailable"
				failed = err
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				checks["redis"] = "unavailable"
				failed = err
			}
		}

		if failed != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
