package servicegroup

import (
	"time"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// DefaultDownTime is how long a service may stay silent before it is reported down
const DefaultDownTime = 60 * time.Second

// Driver answers liveness from heartbeat timestamps.
type Driver struct {
	downTime time.Duration
	now      func() time.Time
}

// NewDriver creates a heartbeat driver. A non-positive downTime falls back to DefaultDownTime.
func NewDriver(downTime time.Duration) *Driver {
	if downTime <= 0 {
		downTime = DefaultDownTime
	}
	return &Driver{downTime: downTime, now: time.Now}
}

// WithClock replaces the time source, for tests and replays
func (d *Driver) WithClock(now func() time.Time) *Driver {
	d.now = now
	return d
}

// DownTime returns the configured silence threshold
func (d *Driver) DownTime() time.Duration {
	return d.downTime
}

// IsUp reports whether the record heartbeated within the threshold.
// Clock skew counts both ways: a heartbeat from the future is as stale as one from the past.
func (d *Driver) IsUp(record domain.ServiceRecord) bool {
	last := record.LastSeen()
	if last.IsZero() {
		return false
	}
	elapsed := d.now().Sub(last)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	return elapsed <= d.downTime
}

// Annotate takes one liveness answer per record, against a single clock reading.
func (d *Driver) Annotate(records []domain.ServiceRecord) []domain.ObservedService {
	now := d.now()
	frozen := &Driver{downTime: d.downTime, now: func() time.Time { return now }}

	observed := make([]domain.ObservedService, 0, len(records))
	for _, r := range records {
		observed = append(observed, domain.ObservedService{Record: r, Alive: frozen.IsUp(r)})
	}
	return observed
}
