package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/splitbite/splitbite-backend/api/responses"
	"github.com/splitbite/splitbite-backend/pkg/config"
	pkgerrors "github.com/splitbite/splitbite-backend/pkg/errors"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

// Pinger is the health-check surface of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SplitBite-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports whether the backing stores answer within a short
// deadline. Any nil dependency is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SplitBite-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				responses.WriteError(ctx, logg,
					w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks))
				return
			}
			checks[name] = "up"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
