package availability

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
	"github.com/MrSnakeDoc/zonewatch/internal/index"
)

// Registry is the read side of the service and aggregate store
type Registry interface {
	ListServices(ctx context.Context) ([]domain.ServiceRecord, error)
	ListAggregates(ctx context.Context) ([]domain.Aggregate, error)
}

// Resolver assigns zones to services and lists zones from host aggregates.
type Resolver struct {
	registry     Registry
	cache        *index.ZoneCache
	defaultZone  string
	internalZone string
}

// NewResolver wires a resolver. cache may be nil to disable host zone caching.
func NewResolver(registry Registry, cache *index.ZoneCache, defaultZone, internalZone string) *Resolver {
	return &Resolver{
		registry:     registry,
		cache:        cache,
		defaultZone:  defaultZone,
		internalZone: internalZone,
	}
}

// DefaultZone returns the zone of compute hosts outside any zoned aggregate
func (r *Resolver) DefaultZone() string { return r.defaultZone }

// InternalZone returns the zone of control-plane services
func (r *Resolver) InternalZone() string { return r.internalZone }

// Assign sets ZoneLabel on every record.
//
// Compute services take the zones of the aggregates holding their host,
// joined by ",", or the default zone. Every other topic is internal.
func (r *Resolver) Assign(ctx context.Context, records []domain.ServiceRecord) ([]domain.ServiceRecord, error) {
	aggregates, err := r.registry.ListAggregates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list aggregates: %w", err)
	}
	hostZones := zonesByHost(aggregates)

	assigned := make([]domain.ServiceRecord, len(records))
	for i, record := range records {
		if record.Topic == domain.TopicCompute {
			record.ZoneLabel = r.zoneOf(hostZones, record.Host)
			r.remember(record.Host, record.ZoneLabel)
		} else {
			record.ZoneLabel = r.internalZone
		}
		assigned[i] = record
	}
	return assigned, nil
}

// Services returns every registered service with its zone assigned
func (r *Resolver) Services(ctx context.Context) ([]domain.ServiceRecord, error) {
	records, err := r.registry.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return r.Assign(ctx, records)
}

// Zones lists available and unavailable zone names.
//
// Zones of enabled services are available, followed by zones declared on
// aggregates. Zones only seen on disabled services are unavailable. When
// nothing defines a zone, the default zone is reported available.
func (r *Resolver) Zones(ctx context.Context) (available, unavailable []string, err error) {
	records, err := r.registry.ListServices(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list services: %w", err)
	}
	aggregates, err := r.registry.ListAggregates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list aggregates: %w", err)
	}
	hostZones := zonesByHost(aggregates)

	seen := make(map[string]bool)
	add := func(list *[]string, zone string) {
		if zone == "" || seen[zone] {
			return
		}
		seen[zone] = true
		*list = append(*list, zone)
	}

	var disabled []string
	for _, record := range records {
		zone := r.internalZone
		if record.Topic == domain.TopicCompute {
			zone = r.zoneOf(hostZones, record.Host)
		}
		if record.Disabled {
			disabled = append(disabled, zone)
			continue
		}
		add(&available, zone)
	}
	for _, agg := range aggregates {
		if zone, ok := agg.AvailabilityZone(); ok {
			add(&available, zone)
		}
	}
	for _, zone := range disabled {
		add(&unavailable, zone)
	}

	if len(available) == 0 && len(unavailable) == 0 {
		available = []string{r.defaultZone}
	}
	return available, unavailable, nil
}

// HostZone returns the zone of host, answering from the cache when it can
func (r *Resolver) HostZone(ctx context.Context, host string) (string, error) {
	if r.cache != nil {
		if zone, ok := r.cache.Get(host); ok {
			return zone, nil
		}
	}

	aggregates, err := r.registry.ListAggregates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list aggregates: %w", err)
	}
	zone := r.zoneOf(zonesByHost(aggregates), host)
	r.remember(host, zone)
	return zone, nil
}

// Warm fills the cache with the zone of every host found in an aggregate.
// It returns the number of hosts cached.
func (r *Resolver) Warm(ctx context.Context) (int, error) {
	if r.cache == nil {
		return 0, nil
	}
	aggregates, err := r.registry.ListAggregates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list aggregates: %w", err)
	}

	hostZones := zonesByHost(aggregates)
	zones := make(map[string]string, len(hostZones))
	for host := range hostZones {
		zones[host] = r.zoneOf(hostZones, host)
	}
	r.cache.Load(zones)
	return len(zones), nil
}

// ResetCache forgets every cached host zone
func (r *Resolver) ResetCache() {
	if r.cache != nil {
		r.cache.Reset()
	}
}

func (r *Resolver) zoneOf(hostZones map[string][]string, host string) string {
	if zones := hostZones[host]; len(zones) > 0 {
		return strings.Join(zones, ",")
	}
	return r.defaultZone
}

func (r *Resolver) remember(host, zone string) {
	if r.cache != nil {
		r.cache.Set(host, zone)
	}
}

// zonesByHost maps each host to the distinct zones of its aggregates, in aggregate order
func zonesByHost(aggregates []domain.Aggregate) map[string][]string {
	result := make(map[string][]string)
	for _, agg := range aggregates {
		zone, ok := agg.AvailabilityZone()
		if !ok {
			continue
		}
		for _, host := range agg.Hosts {
			if !slices.Contains(result[host], zone) {
				result[host] = append(result[host], zone)
			}
		}
	}
	return result
}
