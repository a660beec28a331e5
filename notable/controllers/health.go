package controllers

import (
	"context"
	"net/http"

	"notable/notable/utils/jsonutils"
	"notable/notable/utils/logging"

	"go.uber.org/zap"
)

// Pinger is anything the health check can probe, such as the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	deps map[string]Pinger
}

func NewHealthController(deps map[string]Pinger) *HealthController {
	return &HealthController{deps: deps}
}

// Live reports that the process is serving requests. It never probes deps.
func (h *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	jsonutils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheck probes every dependency and fails on the first one that is down.
func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	for name, p := range h.deps {
		if err := p.Ping(r.Context()); err != nil {
			logging.ErrorLogger.Error("health check failed", zap.String("dependency", name), zap.Error(err))
			jsonutils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "failing": name})
			return
		}
	}
	jsonutils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
