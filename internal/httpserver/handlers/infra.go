package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
)

// Overall modes reported by /infra
const (
	modeOperational = "operational"
	modeDegraded    = "degraded"
	modeCritical    = "critical"
)

type componentStatus struct {
	OK             bool    `json:"ok"`
	ServicesLoaded *int    `json:"services_loaded,omitempty"`
	AggregatesSeen *int    `json:"aggregates_loaded,omitempty"`
	CacheEntries   *int    `json:"cache_entries,omitempty"`
	CacheHits      *uint64 `json:"cache_hits,omitempty"`
	CacheMisses    *uint64 `json:"cache_misses,omitempty"`
	LastReset      string  `json:"last_reset,omitempty"`
	Source         string  `json:"source,omitempty"`
	Impact         string  `json:"impact,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the store, the registry and the zone cache
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"redis":      checkStore(ctx, d),
			"registry":   checkRegistry(ctx, d),
			"zone_cache": checkZoneCache(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if store, ok := components["redis"]; ok && !store.OK {
		return modeCritical
	}
	if registry, ok := components["registry"]; ok && !registry.OK {
		return modeDegraded
	}
	return modeOperational
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Impact: "zone-views-unavailable", Error: "client not initialized"}
	}
	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Impact: "zone-views-unavailable", Error: "timeout"}
	}
	return componentStatus{OK: true}
}

// checkRegistry is healthy once services have reported. Without them the
// detail view falls back to aggregate metadata.
func checkRegistry(ctx context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Error: "client not initialized"}
	}

	services, err := d.Store.ListServices(ctx)
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	aggregates, err := d.Store.ListAggregates(ctx)
	if err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}

	nServices, nAggregates := len(services), len(aggregates)
	status := componentStatus{
		OK:             nServices > 0,
		ServicesLoaded: &nServices,
		AggregatesSeen: &nAggregates,
		Source:         d.TopologyFile,
	}
	if nServices == 0 {
		status.Impact = "detail-from-aggregates"
	}
	return status
}

func checkZoneCache(d deps.Deps) componentStatus {
	if d.ZoneCache == nil {
		return componentStatus{OK: true, Impact: "host-zone-cache-disabled"}
	}

	stats := d.ZoneCache.Stats()
	lastReset := "never"
	if !stats.LastReset.IsZero() {
		lastReset = stats.LastReset.UTC().Format(time.RFC3339)
	}
	return componentStatus{
		OK:           true,
		CacheEntries: &stats.Entries,
		CacheHits:    &stats.Hits,
		CacheMisses:  &stats.Misses,
		LastReset:    lastReset,
	}
}
