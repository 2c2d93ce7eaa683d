package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/zonewatch/internal/logger"
)

func testOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), testOptions(mr.Addr()), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewGivesUpAfterTimeout(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	client, err := New(context.Background(), testOptions(addr), logger.NewNop())
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis unavailable")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewHonorsCancellation(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	opts := testOptions(addr)
	opts.ConnectTimeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := New(ctx, opts, logger.NewNop())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := testOptions("localhost:6379")
	require.NoError(t, valid.Validate())

	tests := map[string]func(o *ConnectOptions){
		"no address":       func(o *ConnectOptions) { o.Addr = "" },
		"no timeout":       func(o *ConnectOptions) { o.ConnectTimeout = 0 },
		"no retry":         func(o *ConnectOptions) { o.RetryInterval = 0 },
		"no max wait":      func(o *ConnectOptions) { o.MaxWait = 0 },
		"no ping timeout":  func(o *ConnectOptions) { o.PingTimeout = 0 },
		"negative warning": func(o *ConnectOptions) { o.WarnThreshold = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			opts := valid
			mutate(&opts)
			assert.Error(t, opts.Validate())
		})
	}
}

func TestBackoffCaps(t *testing.T) {
	b := backoff{wait: time.Second, max: 3 * time.Second}
	got := []time.Duration{b.next(), b.next(), b.next(), b.next()}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, got)
}
