package deps

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/zonewatch/internal/availability"
	"github.com/MrSnakeDoc/zonewatch/internal/index"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
	"github.com/MrSnakeDoc/zonewatch/internal/metrics"
	"github.com/MrSnakeDoc/zonewatch/internal/servicegroup"
	redisstore "github.com/MrSnakeDoc/zonewatch/internal/store/redis"
	"github.com/MrSnakeDoc/zonewatch/internal/zones"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time       // for testing, defaults to time.Now
	AllowedHosts  []string               // Host headers allowed to access the server
	AllowedCIDRS  []string               // IPs allowed to access ops and service registry endpoints
	TrustProxy    bool                   // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst     int                    // Per-IP burst on the zone API
	RatePerMin    int                    // Per-IP refill rate on the zone API
	TopologyFile  string                 // Path to the topology definitions file
	Store         *redisstore.Store      // Service registry and aggregate store
	Resolver      *availability.Resolver // Zone assignment and membership
	Liveness      *servicegroup.Driver   // Heartbeat liveness
	Aggregator    *zones.Aggregator      // Summary and detail builders
	ZoneCache     *index.ZoneCache       // Host zone cache shared with the resolver
	Metrics       *metrics.Metrics       // nil disables recording
	Gatherer      prometheus.Gatherer    // Source of /metrics
	ReloadTrigger chan struct{}          // Channel to trigger manual topology reload
}

// Now returns the current time from TimeNow, or time.Now when unset
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
