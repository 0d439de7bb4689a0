package controllers

import (
	"net/http"

	"github.com/retaildesk/retaildesk-backend/api/responses"
	"github.com/retaildesk/retaildesk-backend/internal/analytics"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
)

// AnalyticsController serves the dashboard payload.
type AnalyticsController struct {
	svc  analytics.Service
	logg *logger.Logger
}

func NewAnalyticsController(svc analytics.Service, logg *logger.Logger) *AnalyticsController {
	return &AnalyticsController{svc: svc, logg: logg}
}

func (a *AnalyticsController) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dash, err := a.svc.Dashboard(ctx)
	if err != nil {
		responses.WriteError(ctx, a.logg, w, err)
		return
	}
	responses.WriteSuccess(w, dash)
}
