package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
	"github.com/MrSnakeDoc/zonewatch/internal/index"
)

type fakeRegistry struct {
	services       []domain.ServiceRecord
	aggregates     []domain.Aggregate
	servicesErr    error
	aggregatesErr  error
	aggregateCalls int
}

func (f *fakeRegistry) ListServices(context.Context) ([]domain.ServiceRecord, error) {
	return f.services, f.servicesErr
}

func (f *fakeRegistry) ListAggregates(context.Context) ([]domain.Aggregate, error) {
	f.aggregateCalls++
	return f.aggregates, f.aggregatesErr
}

func zoned(name, zone string, hosts ...string) domain.Aggregate {
	return domain.Aggregate{
		Name:     name,
		Hosts:    hosts,
		Metadata: map[string]string{domain.AvailabilityZoneKey: zone},
	}
}

func TestAssign(t *testing.T) {
	registry := &fakeRegistry{
		aggregates: []domain.Aggregate{
			zoned("agg-1", "zone-1", "host-a"),
			zoned("agg-2", "zone-2", "host-a", "host-b"),
			{Name: "ssd", Hosts: []string{"host-c"}, Metadata: map[string]string{"ssd": "true"}},
		},
	}
	cache := index.NewZoneCache(time.Minute)
	r := NewResolver(registry, cache, "nova", "internal")

	records := []domain.ServiceRecord{
		{Host: "host-a", Binary: "nova-compute", Topic: "compute"},
		{Host: "host-b", Binary: "nova-compute", Topic: "compute"},
		{Host: "host-c", Binary: "nova-compute", Topic: "compute"},
		{Host: "host-a", Binary: "nova-scheduler", Topic: "scheduler"},
	}

	got, err := r.Assign(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "zone-1,zone-2", got[0].ZoneLabel)
	assert.Equal(t, "zone-2", got[1].ZoneLabel)
	assert.Equal(t, "nova", got[2].ZoneLabel, "host outside zoned aggregates gets the default zone")
	assert.Equal(t, "internal", got[3].ZoneLabel, "non compute services are internal")

	assert.Empty(t, records[0].ZoneLabel, "input records are not modified")

	zone, ok := cache.Get("host-b")
	assert.True(t, ok)
	assert.Equal(t, "zone-2", zone)
}

func TestServicesPropagatesFailures(t *testing.T) {
	boom := errors.New("redis down")

	r := NewResolver(&fakeRegistry{servicesErr: boom}, nil, "nova", "internal")
	_, err := r.Services(context.Background())
	assert.ErrorIs(t, err, boom)

	r = NewResolver(&fakeRegistry{aggregatesErr: boom}, nil, "nova", "internal")
	_, err = r.Services(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestZones(t *testing.T) {
	tests := []struct {
		name            string
		registry        *fakeRegistry
		wantAvailable   []string
		wantUnavailable []string
	}{
		{
			name: "enabled and disabled services",
			registry: &fakeRegistry{
				services: []domain.ServiceRecord{
					{Host: "h1", Binary: "nova-compute", Topic: "compute"},
					{Host: "h1", Binary: "nova-sched", Topic: "sched"},
					{Host: "h2", Binary: "nova-compute", Topic: "compute", Disabled: true},
					{Host: "h3", Binary: "nova-compute", Topic: "compute", Disabled: true},
				},
				aggregates: []domain.Aggregate{zoned("a1", "zone-1", "h1"), zoned("a2", "zone-2", "h2")},
			},
			wantAvailable:   []string{"zone-1", "internal", "zone-2"},
			wantUnavailable: []string{"nova"},
		},
		{
			name: "aggregates only",
			registry: &fakeRegistry{
				aggregates: []domain.Aggregate{zoned("a1", "zone-1", "h1"), zoned("a2", "zone-1", "h2")},
			},
			wantAvailable: []string{"zone-1"},
		},
		{
			name:          "nothing defined",
			registry:      &fakeRegistry{},
			wantAvailable: []string{"nova"},
		},
		{
			name: "disabled zone already available",
			registry: &fakeRegistry{
				services: []domain.ServiceRecord{
					{Host: "h1", Binary: "nova-compute", Topic: "compute"},
					{Host: "h2", Binary: "nova-compute", Topic: "compute", Disabled: true},
				},
			},
			wantAvailable: []string{"nova"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.registry, nil, "nova", "internal")
			available, unavailable, err := r.Zones(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, available)
			assert.Equal(t, tt.wantUnavailable, unavailable)
		})
	}
}

func TestZonesPropagatesFailure(t *testing.T) {
	boom := errors.New("redis down")
	r := NewResolver(&fakeRegistry{servicesErr: boom}, nil, "nova", "internal")

	available, unavailable, err := r.Zones(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, available)
	assert.Nil(t, unavailable)
}

func TestHostZoneUsesCache(t *testing.T) {
	registry := &fakeRegistry{aggregates: []domain.Aggregate{zoned("a1", "zone-1", "h1")}}
	r := NewResolver(registry, index.NewZoneCache(time.Minute), "nova", "internal")
	ctx := context.Background()

	zone, err := r.HostZone(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "zone-1", zone)

	zone, err = r.HostZone(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "zone-1", zone)
	assert.Equal(t, 1, registry.aggregateCalls, "second lookup should hit the cache")

	registry.aggregates = []domain.Aggregate{zoned("a1", "zone-9", "h1")}
	r.ResetCache()

	zone, err = r.HostZone(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "zone-9", zone, "reset must expose topology changes")
}

func TestHostZoneDefault(t *testing.T) {
	r := NewResolver(&fakeRegistry{}, nil, "nova", "internal")
	zone, err := r.HostZone(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, "nova", zone)
}

func TestWarm(t *testing.T) {
	registry := &fakeRegistry{
		aggregates: []domain.Aggregate{zoned("a1", "zone-1", "h1", "h2"), zoned("a2", "zone-2", "h3")},
	}
	cache := index.NewZoneCache(time.Minute)
	r := NewResolver(registry, cache, "nova", "internal")

	n, err := r.Warm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, cache.Len())

	zone, ok := cache.Get("h3")
	assert.True(t, ok)
	assert.Equal(t, "zone-2", zone)
}
