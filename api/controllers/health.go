package controllers

import (
	"net/http"

	"github.com/retaildesk/retaildesk-backend/api/responses"
	"github.com/retaildesk/retaildesk-backend/pkg/db"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
	"github.com/retaildesk/retaildesk-backend/pkg/redis"
)

// HealthController serves the liveness and readiness probes.
type HealthController struct {
	db    db.Pinger
	redis redis.Pinger
	logg  *logger.Logger
}

func NewHealthController(database db.Pinger, cache redis.Pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: database, redis: cache, logg: logg}
}

func (h *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

// Ready reports whether the process can serve traffic. Both backing stores
// must answer a ping.
func (h *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			responses.WriteError(ctx, h.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
			return
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			responses.WriteError(ctx, h.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
			return
		}
	}

	responses.WriteSuccess(w, map[string]string{"status": "ready"})
}
