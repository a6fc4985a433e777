package controllers

import (
	"net/http"

	"github.com/rafaelortiz/tradeyard-backend/api/responses"
	"github.com/rafaelortiz/tradeyard-backend/pkg/db"
	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
	"github.com/rafaelortiz/tradeyard-backend/pkg/logger"
	pkgredis "github.com/rafaelortiz/tradeyard-backend/pkg/redis"
)

type HealthController struct {
	db    db.Pinger
	redis pkgredis.Pinger
	logg  *logger.Logger
}

func NewHealthController(database db.Pinger, redis pkgredis.Pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: database, redis: redis, logg: logg}
}

func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	if c.db != nil {
		if err := c.db.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
			return
		}
	}
	if c.redis != nil {
		if err := c.redis.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
			return
		}
	}
	responses.WriteSuccess(w, map[string]string{"status": "ready"})
}
