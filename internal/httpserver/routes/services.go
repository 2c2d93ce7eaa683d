package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/mw"
)

func init() { Register("services", registerServices) }

func registerServices(r chi.Router, d deps.Deps) {
	r.Route("/v2/{projectID}/os-services", func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

		r.Get("/", handlers.ListServices(d))
		r.Post("/heartbeat", handlers.ServiceHeartbeat(d))
		r.Put("/enable", handlers.ServiceEnable(d))
		r.Put("/disable", handlers.ServiceDisable(d))
	})
}
