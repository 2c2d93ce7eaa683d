package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
	"github.com/MrSnakeDoc/zonewatch/internal/index"
)

const namespace = "zonewatch"

// View labels
const (
	ViewSummary = "summary"
	ViewDetail  = "detail"
)

// Error reasons
const (
	ReasonMalformed = "malformed"
	ReasonUpstream  = "upstream"
)

// Metrics holds the service metrics. A nil *Metrics records nothing.
type Metrics struct {
	// RequestsTotal counts zone view requests by view and response format.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration tracks the time to build and render a view.
	RequestDuration *prometheus.HistogramVec

	// ZonesReported is the number of zones in the last response, by view and state.
	ZonesReported *prometheus.GaugeVec

	// AggregationErrors counts views that could not be built.
	AggregationErrors *prometheus.CounterVec

	// HeartbeatsTotal counts accepted service heartbeats.
	HeartbeatsTotal prometheus.Counter

	// ReloadsTotal counts topology reloads by result.
	ReloadsTotal *prometheus.CounterVec

	// ServicesReaped counts records removed for silence.
	ServicesReaped prometheus.Counter

	reg prometheus.Registerer
}

// New creates and registers metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics registered with a custom registry.
// Useful for testing to avoid conflicts with the default registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Number of availability zone requests by view and format.",
			},
			[]string{"view", "format"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Time to fetch, aggregate and render a zone view.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"view"},
		),
		ZonesReported: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "zones",
				Name:      "reported",
				Help:      "Number of zones in the last response, by view and state.",
			},
			[]string{"view", "state"},
		),
		AggregationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "zones",
				Name:      "aggregation_errors_total",
				Help:      "Number of zone views that failed, by view and reason.",
			},
			[]string{"view", "reason"},
		),
		HeartbeatsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "services",
				Name:      "heartbeats_total",
				Help:      "Number of accepted service heartbeats.",
			},
		),
		ReloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "topology",
				Name:      "reloads_total",
				Help:      "Number of topology reloads by result.",
			},
			[]string{"result"},
		),
		ServicesReaped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "services",
				Name:      "reaped_total",
				Help:      "Number of service records removed after a long silence.",
			},
		),
		reg: reg,
	}
}

// RegisterZoneCache exposes the host zone cache counters.
func (m *Metrics) RegisterZoneCache(cache *index.ZoneCache) {
	if m == nil || cache == nil {
		return
	}
	factory := promauto.With(m.reg)

	factory.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zone_cache",
			Name:      "hits_total",
			Help:      "Host zone lookups answered from the cache.",
		},
		func() float64 { return float64(cache.Stats().Hits) },
	)
	factory.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "zone_cache",
			Name:      "misses_total",
			Help:      "Host zone lookups that went to the aggregate store.",
		},
		func() float64 { return float64(cache.Stats().Misses) },
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "zone_cache",
			Name:      "entries",
			Help:      "Hosts currently cached.",
		},
		func() float64 { return float64(cache.Len()) },
	)
}

// RecordRequest records one served view
func (m *Metrics) RecordRequest(view, format string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(view, format).Inc()
	m.RequestDuration.WithLabelValues(view).Observe(elapsed.Seconds())
}

// RecordZones sets the zone gauges from a built view
func (m *Metrics) RecordZones(view string, zones []domain.Zone) {
	if m == nil {
		return
	}
	available := 0
	for _, z := range zones {
		if z.Available {
			available++
		}
	}
	m.ZonesReported.WithLabelValues(view, "available").Set(float64(available))
	m.ZonesReported.WithLabelValues(view, "unavailable").Set(float64(len(zones) - available))
}

// RecordAggregationError counts a failed view
func (m *Metrics) RecordAggregationError(view string, err error) {
	if m == nil {
		return
	}
	reason := ReasonUpstream
	if errors.Is(err, domain.ErrMalformedRecord) {
		reason = ReasonMalformed
	}
	m.AggregationErrors.WithLabelValues(view, reason).Inc()
}

// RecordHeartbeat counts one accepted heartbeat
func (m *Metrics) RecordHeartbeat() {
	if m == nil {
		return
	}
	m.HeartbeatsTotal.Inc()
}

// RecordReload counts a topology reload
func (m *Metrics) RecordReload(err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ReloadsTotal.WithLabelValues(result).Inc()
}

// RecordReaped counts removed service records
func (m *Metrics) RecordReaped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ServicesReaped.Add(float64(n))
}
