package routes

import (
	"notable/notable/controllers"

	"github.com/go-chi/chi/v5"
)

// HealthRoutes serves readiness at / and liveness at /live.
func HealthRoutes(ctrl *controllers.HealthController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", ctrl.HealthCheck)
	r.Get("/live", ctrl.Live)
	return r
}
