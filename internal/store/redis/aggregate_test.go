package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

func TestReplaceAggregates(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	first := []domain.Aggregate{
		{Name: "rack-2", Hosts: []string{"h3"}, Metadata: map[string]string{domain.AvailabilityZoneKey: "zone-2"}},
		{Name: "rack-1", Hosts: []string{"h1", "h2"}, Metadata: map[string]string{domain.AvailabilityZoneKey: "zone-1"}},
	}
	require.NoError(t, store.ReplaceAggregates(ctx, first))

	got, err := store.ListAggregates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rack-2", got[0].Name, "load order is kept")
	assert.Equal(t, []string{"h1", "h2"}, got[1].Hosts)

	second := []domain.Aggregate{
		{Name: "rack-9", Hosts: []string{"h9"}, Metadata: map[string]string{domain.AvailabilityZoneKey: "zone-9"}},
	}
	require.NoError(t, store.ReplaceAggregates(ctx, second))

	got, err = store.ListAggregates(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "rack-9", got[0].Name)
	assert.False(t, mr.Exists(AggregateKey("rack-1")), "previous aggregates are removed")
}

func TestListAggregatesEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.ListAggregates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
