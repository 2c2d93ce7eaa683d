package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/zonewatch/internal/availability"
	"github.com/MrSnakeDoc/zonewatch/internal/config"
	"github.com/MrSnakeDoc/zonewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/zonewatch/internal/index"
	"github.com/MrSnakeDoc/zonewatch/internal/logger"
	"github.com/MrSnakeDoc/zonewatch/internal/metrics"
	"github.com/MrSnakeDoc/zonewatch/internal/servicegroup"
	redisstore "github.com/MrSnakeDoc/zonewatch/internal/store/redis"
	"github.com/MrSnakeDoc/zonewatch/internal/zones"
)

func newTestRouter(t *testing.T, allowedCIDRS []string) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redisstore.NewStore(client)
	cache := index.NewZoneCache(time.Minute)
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	m.RegisterZoneCache(cache)

	log := logger.NewNop()
	cfg := &config.Config{ListenPort: ":0", RequestTimeout: time.Second}
	d := deps.Deps{
		Logger:        log,
		StartTime:     time.Now(),
		AllowedCIDRS:  allowedCIDRS,
		RateBurst:     2,
		RatePerMin:    1,
		Store:         store,
		Resolver:      availability.NewResolver(store, cache, "nova", "internal"),
		Liveness:      servicegroup.NewDriver(time.Minute),
		Aggregator:    zones.New("internal"),
		ZoneCache:     cache,
		Metrics:       m,
		Gatherer:      reg,
		ReloadTrigger: make(chan struct{}, 1),
	}
	return NewRouter(cfg, log, d)
}

func serve(h http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouterServesZoneViews(t *testing.T) {
	h := newTestRouter(t, nil)

	w := serve(h, http.MethodGet, "/v2/openstack/os-availability-zone", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"availabilityZoneInfo":[]}`, w.Body.String())

	w = serve(h, http.MethodGet, "/v2/openstack/os-availability-zone/detail", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"zoneName":"nova"`)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestRouterRateLimitsZoneAPI(t *testing.T) {
	h := newTestRouter(t, nil)

	for i := 0; i < 2; i++ {
		w := serve(h, http.MethodGet, "/v2/openstack/os-availability-zone", "10.1.1.1:1000")
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(h, http.MethodGet, "/v2/openstack/os-availability-zone", "10.1.1.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "overLimit")

	// other clients keep their own bucket
	w = serve(h, http.MethodGet, "/v2/openstack/os-availability-zone", "10.1.1.2:1000")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterRestrictsOpsAndRegistry(t *testing.T) {
	h := newTestRouter(t, []string{"10.0.0.0/8"})

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "203.0.113.9:1").Code)

	for _, path := range []string{"/readyz", "/infra", "/metrics", "/v2/openstack/os-services"} {
		assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, path, "203.0.113.9:1").Code, path)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, path, "10.0.0.9:1").Code, path)
	}
}

func TestRouterExposesMetrics(t *testing.T) {
	h := newTestRouter(t, nil)

	serve(h, http.MethodGet, "/v2/openstack/os-availability-zone/detail", "")
	w := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.True(t, strings.Contains(body, "zonewatch_api_requests_total"), "request counter exported")
	assert.True(t, strings.Contains(body, "zonewatch_zone_cache_entries"), "cache gauge exported")
}
