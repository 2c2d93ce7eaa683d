package zones

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

type stubResolver struct {
	available   []string
	unavailable []string
	err         error
	calls       int
}

func (s *stubResolver) Zones(context.Context) ([]string, []string, error) {
	s.calls++
	return s.available, s.unavailable, s.err
}

var (
	heartbeat25 = time.Date(2012, 12, 26, 14, 45, 25, 0, time.UTC)
	heartbeat24 = time.Date(2012, 12, 26, 14, 45, 24, 0, time.UTC)
)

// fixtureServices mirrors a small deployment: one compute node in zone-1,
// scheduler and network agents in the internal zone, and a disabled compute
// node in zone-2. The network agent is the only service past its deadline.
func fixtureServices() []domain.ObservedService {
	return []domain.ObservedService{
		{Record: domain.ServiceRecord{Binary: "nova-compute", Topic: "compute", ZoneLabel: "zone-1", Host: "fake_host-1", UpdatedAt: heartbeat25}, Alive: true},
		{Record: domain.ServiceRecord{Binary: "nova-sched", Topic: "sched", ZoneLabel: "internal", Host: "fake_host-1", UpdatedAt: heartbeat25}, Alive: true},
		{Record: domain.ServiceRecord{Binary: "nova-network", Topic: "network", ZoneLabel: "internal", Host: "fake_host-2", UpdatedAt: heartbeat24}, Alive: false},
		{Record: domain.ServiceRecord{Binary: "nova-compute", Topic: "compute", ZoneLabel: "zone-2", Host: "fake_host-3", Disabled: true, UpdatedAt: heartbeat25}, Alive: true},
	}
}

func TestFilteredZones(t *testing.T) {
	agg := New("internal")

	t.Run("available pass skips internal", func(t *testing.T) {
		got := agg.FilteredZones([]string{"zone1", "internal"}, true)
		require.Len(t, got, 1)
		assert.Equal(t, "zone1", got[0].Name)
		assert.True(t, got[0].Available)
		assert.False(t, got[0].Hosts.Present())
	})

	t.Run("unavailable pass", func(t *testing.T) {
		got := agg.FilteredZones([]string{"zone1", "internal"}, false)
		require.Len(t, got, 1)
		assert.Equal(t, "zone1", got[0].Name)
		assert.False(t, got[0].Available)
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		got := agg.FilteredZones([]string{"a", "a"}, true)
		assert.Len(t, got, 2)
	})

	t.Run("empty input", func(t *testing.T) {
		got := agg.FilteredZones(nil, true)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestSummary(t *testing.T) {
	agg := New("internal")

	got, err := agg.Summary(fixtureServices())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "zone-1", got[0].Name)
	assert.True(t, got[0].Available)
	assert.False(t, got[0].Hosts.Present())

	assert.Equal(t, "zone-2", got[1].Name)
	assert.False(t, got[1].Available)
	assert.False(t, got[1].Hosts.Present())
}

func TestSummaryUsesLiveness(t *testing.T) {
	agg := New("internal")
	services := []domain.ObservedService{
		{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "zone-a", Host: "h1"}, Alive: false},
		{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "zone-b", Host: "h2"}, Alive: false},
		{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "zone-b", Host: "h3"}, Alive: true},
	}

	got, err := agg.Summary(services)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Zone{Name: "zone-b", Available: true, Hosts: domain.NoHosts()}, got[0])
	assert.Equal(t, domain.Zone{Name: "zone-a", Available: false, Hosts: domain.NoHosts()}, got[1])
}

func TestDetailFixtureTree(t *testing.T) {
	agg := New("internal")
	resolver := &stubResolver{}

	got, err := agg.Detail(context.Background(), fixtureServices(), resolver)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Zero(t, resolver.calls, "resolver must not be asked when services exist")

	zone1, internal, zone2 := got[0], got[1], got[2]

	assert.Equal(t, "zone-1", zone1.Name)
	assert.True(t, zone1.Available)
	state, ok := zone1.Hosts.Get("fake_host-1", "nova-compute")
	require.True(t, ok)
	assert.Equal(t, "enabled :-) 2012-12-26T14:45:25.000000", state.StatusLine())

	assert.Equal(t, "internal", internal.Name)
	assert.True(t, internal.Available)
	assert.Equal(t, 2, internal.Hosts.Len())
	state, ok = internal.Hosts.Get("fake_host-2", "nova-network")
	require.True(t, ok)
	assert.Equal(t, "enabled XXX 2012-12-26T14:45:24.000000", state.StatusLine())

	assert.Equal(t, "zone-2", zone2.Name)
	assert.False(t, zone2.Available)
	assert.False(t, zone2.Hosts.Present())
}

func TestDetailKeepsDisabledEntriesOfReportingZones(t *testing.T) {
	agg := New("internal")
	services := []domain.ObservedService{
		{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "zone-1", Host: "h1"}, Alive: false},
		{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "zone-1", Host: "h2", Disabled: true}, Alive: true},
	}

	got, err := agg.Detail(context.Background(), services, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, got[0].Available, "disabled but live entry still counts for the OR")
	state, ok := got[0].Hosts.Get("h2", "nova-compute")
	require.True(t, ok)
	assert.False(t, state.Active)
	assert.True(t, state.Available)
}

func TestDetailListsDisabledOnlyZonesLast(t *testing.T) {
	agg := New("internal")
	services := []domain.ObservedService{
		{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "zone-2", Host: "h2", Disabled: true, UpdatedAt: heartbeat25}, Alive: true},
		{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "zone-1", Host: "h1", UpdatedAt: heartbeat25}, Alive: true},
	}

	got, err := agg.Detail(context.Background(), services, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "zone-1", got[0].Name, "reporting zones come before disabled-only ones")
	assert.True(t, got[0].Available)
	assert.True(t, got[0].Hosts.Present())

	assert.Equal(t, "zone-2", got[1].Name)
	assert.False(t, got[1].Available)
	assert.False(t, got[1].Hosts.Present())
}

func TestDetailFallsBackToResolver(t *testing.T) {
	agg := New("internal")
	resolver := &stubResolver{available: []string{"nova"}}

	got, err := agg.Detail(context.Background(), nil, resolver)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "nova", got[0].Name)
	assert.True(t, got[0].Available)
	assert.True(t, got[0].Hosts.Present(), "fallback zones carry an empty host tree")
	assert.Zero(t, got[0].Hosts.Len())
}

func TestDetailFallbackUnavailableZonesHaveNoHosts(t *testing.T) {
	agg := New("internal")
	resolver := &stubResolver{available: []string{"nova"}, unavailable: []string{"zone-9"}}

	got, err := agg.Detail(context.Background(), []domain.ObservedService{}, resolver)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "zone-9", got[1].Name)
	assert.False(t, got[1].Available)
	assert.False(t, got[1].Hosts.Present())
}

func TestDetailPropagatesResolverFailure(t *testing.T) {
	agg := New("internal")
	upstream := errors.New("aggregate metadata unreachable")

	got, err := agg.Detail(context.Background(), nil, &stubResolver{err: upstream})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, upstream)
}

func TestMalformedBatchIsRejected(t *testing.T) {
	agg := New("internal")

	tests := []struct {
		name     string
		services []domain.ObservedService
	}{
		{
			name: "missing zone",
			services: []domain.ObservedService{
				{Record: domain.ServiceRecord{Binary: "nova-compute", Host: "h1"}},
			},
		},
		{
			name: "missing host",
			services: []domain.ObservedService{
				{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "z"}},
			},
		},
		{
			name: "duplicate service",
			services: []domain.ObservedService{
				{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "z", Host: "h1"}, Alive: true},
				{Record: domain.ServiceRecord{Binary: "nova-compute", ZoneLabel: "z", Host: "h1"}, Alive: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.Detail(context.Background(), tt.services, nil)
			assert.ErrorIs(t, err, domain.ErrMalformedRecord)

			_, err = agg.Summary(tt.services)
			assert.ErrorIs(t, err, domain.ErrMalformedRecord)
		})
	}
}
