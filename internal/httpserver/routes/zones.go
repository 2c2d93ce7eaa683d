package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/mw"
)

func init() { Register("zones", registerZones) }

func registerZones(r chi.Router, d deps.Deps) {
	r.Route("/v2/{projectID}/os-availability-zone", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Use(mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.RateBurst,
			RefillPerIPPerMin: d.RatePerMin,
			MaxEntries:        10000,
			TrustProxy:        d.TrustProxy,
		}))

		r.Get("/", handlers.ZoneSummary(d))
		r.Get("/detail", handlers.ZoneDetail(d))
		r.Get("/hosts/{host}", handlers.HostZone(d))
	})
}
