package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewServiceStateKeepsDisabledAndLivenessApart(t *testing.T) {
	heartbeat := time.Date(2012, 12, 26, 14, 45, 25, 0, time.UTC)

	tests := []struct {
		name          string
		disabled      bool
		alive         bool
		wantActive    bool
		wantAvailable bool
	}{
		{name: "enabled and live", disabled: false, alive: true, wantActive: true, wantAvailable: true},
		{name: "disabled but live", disabled: true, alive: true, wantActive: false, wantAvailable: true},
		{name: "enabled but down", disabled: false, alive: false, wantActive: true, wantAvailable: false},
		{name: "disabled and down", disabled: true, alive: false, wantActive: false, wantAvailable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := ServiceRecord{Host: "fake_host-1", Binary: "nova-compute", Disabled: tt.disabled, UpdatedAt: heartbeat}
			state := NewServiceState(record, tt.alive)
			if state.Active != tt.wantActive {
				t.Errorf("Active = %v, want %v", state.Active, tt.wantActive)
			}
			if state.Available != tt.wantAvailable {
				t.Errorf("Available = %v, want %v", state.Available, tt.wantAvailable)
			}
			if !state.UpdatedAt.Equal(heartbeat) {
				t.Errorf("UpdatedAt = %v, want %v", state.UpdatedAt, heartbeat)
			}
		})
	}
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name  string
		state ServiceState
		want  string
	}{
		{
			name:  "enabled live",
			state: ServiceState{Active: true, Available: true, UpdatedAt: time.Date(2012, 12, 26, 14, 45, 25, 0, time.UTC)},
			want:  "enabled :-) 2012-12-26T14:45:25.000000",
		},
		{
			name:  "enabled down",
			state: ServiceState{Active: true, Available: false, UpdatedAt: time.Date(2012, 12, 26, 14, 45, 24, 0, time.UTC)},
			want:  "enabled XXX 2012-12-26T14:45:24.000000",
		},
		{
			name:  "disabled live with microseconds",
			state: ServiceState{Active: false, Available: true, UpdatedAt: time.Date(2012, 12, 26, 14, 45, 24, 123456000, time.UTC)},
			want:  "disabled :-) 2012-12-26T14:45:24.123456",
		},
		{
			name:  "never reported",
			state: ServiceState{Active: true},
			want:  "enabled XXX None",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.StatusLine(); got != tt.want {
				t.Errorf("StatusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTimestampConvertsToUTC(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	ts := time.Date(2012, 12, 26, 15, 45, 25, 0, paris)
	if got := FormatTimestamp(ts); got != "2012-12-26T14:45:25.000000" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  ServiceRecord
		wantErr bool
	}{
		{name: "complete", record: ServiceRecord{Host: "h", Binary: "b", ZoneLabel: "z"}},
		{name: "missing host", record: ServiceRecord{Binary: "b", ZoneLabel: "z"}, wantErr: true},
		{name: "missing binary", record: ServiceRecord{Host: "h", ZoneLabel: "z"}, wantErr: true},
		{name: "missing zone", record: ServiceRecord{Host: "h", Binary: "b"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRecord) {
					t.Errorf("Validate() = %v, want ErrMalformedRecord", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestServiceIDIsStable(t *testing.T) {
	a := ServiceID("fake_host-1", "nova-compute")
	b := ServiceID("fake_host-1", "nova-compute")
	c := ServiceID("fake_host-2", "nova-compute")

	if a != b {
		t.Errorf("ServiceID() not stable: %s != %s", a, b)
	}
	if a == c {
		t.Errorf("ServiceID() collided for different hosts: %s", a)
	}
}

func TestLastSeenFallsBackToCreation(t *testing.T) {
	created := time.Date(2012, 11, 14, 9, 53, 25, 0, time.UTC)
	record := ServiceRecord{CreatedAt: created}
	if !record.LastSeen().Equal(created) {
		t.Errorf("LastSeen() = %v, want %v", record.LastSeen(), created)
	}

	updated := created.Add(time.Hour)
	record.UpdatedAt = updated
	if !record.LastSeen().Equal(updated) {
		t.Errorf("LastSeen() = %v, want %v", record.LastSeen(), updated)
	}
}
