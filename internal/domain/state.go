package domain

import "time"

const (
	// LiveMarker and DownMarker are the liveness columns of a status line.
	LiveMarker = ":-)"
	DownMarker = "XXX"

	// TimestampLayout renders heartbeats with microsecond precision.
	TimestampLayout = "2006-01-02T15:04:05.000000"
)

// ServiceState is the per-service entry of the detail tree.
//
// Active and Available are kept apart: a disabled service can still be
// heartbeating, and an enabled one can be past its deadline.
type ServiceState struct {
	Active    bool
	Available bool
	UpdatedAt time.Time
}

// NewServiceState builds the entry for record given a liveness answer.
func NewServiceState(record ServiceRecord, alive bool) ServiceState {
	return ServiceState{
		Active:    record.Active(),
		Available: alive,
		UpdatedAt: record.UpdatedAt,
	}
}

// StatusLine formats the entry as "enabled :-) 2012-12-26T14:45:25.000000".
func (s ServiceState) StatusLine() string {
	status := "disabled"
	if s.Active {
		status = "enabled"
	}
	marker := DownMarker
	if s.Available {
		marker = LiveMarker
	}
	return status + " " + marker + " " + FormatTimestamp(s.UpdatedAt)
}

// FormatTimestamp renders t in UTC with microseconds. A zero time is "None".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "None"
	}
	return t.UTC().Format(TimestampLayout)
}
