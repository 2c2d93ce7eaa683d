package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
	DefaultZone   string  `json:"default_zone,omitempty"`
	InternalZone  string  `json:"internal_zone,omitempty"`
}

// Healthz reports liveness of the process itself, without touching redis
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
		}
		if d.Resolver != nil {
			resp.DefaultZone = d.Resolver.DefaultZone()
			resp.InternalZone = d.Resolver.InternalZone()
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
