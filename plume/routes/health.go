package routes

import (
	"plume/plume/controllers"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(ctrl *controllers.HealthController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", ctrl.HealthCheck)
	r.Get("/ready", ctrl.Readiness)
	return r
}
