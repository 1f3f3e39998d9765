package controllers

import (
	"net/http"

	"github.com/tapline/sugarhouse-backend/api/responses"
	"github.com/tapline/sugarhouse-backend/pkg/config"
	"github.com/tapline/sugarhouse-backend/pkg/db"
	pkgerrors "github.com/tapline/sugarhouse-backend/pkg/errors"
	"github.com/tapline/sugarhouse-backend/pkg/logger"
	"github.com/tapline/sugarhouse-backend/pkg/redis"
)

const envHeader = "X-Sugarhouse-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
