package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicCompute is the topic of the agents that run workloads. Only compute
// services take their zone from aggregate metadata.
const TopicCompute = "compute"

// serviceNamespace seeds the deterministic service IDs.
var serviceNamespace = uuid.MustParse("5b0e3c1e-8d8f-4a59-9d1e-6f0c2a7b4e11")

// ServiceRecord is one heartbeat row of the service registry.
//
// A record is uniquely identified by its (Host, Binary) pair. ZoneLabel is not
// a stored truth: it is assigned on every read from the host aggregates.
type ServiceRecord struct {
	// ID is derived from Host and Binary, see ServiceID.
	ID string `json:"id"`

	// Host is the physical or logical host reporting the service.
	Host string `json:"host"`

	// Binary identifies the service type (nova-compute, nova-scheduler...).
	Binary string `json:"binary"`

	// Topic is the message topic the service listens on.
	// Example: compute, scheduler, network
	Topic string `json:"topic"`

	// ZoneLabel is the zone the record belongs to once assigned.
	ZoneLabel string `json:"availability_zone,omitempty"`

	// Disabled is set by an administrator. It is orthogonal to liveness.
	Disabled bool `json:"disabled"`

	// CreatedAt is the time of the first heartbeat.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time of the last heartbeat write.
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceID returns the stable identifier of the service running binary on host.
func ServiceID(host, binary string) string {
	return uuid.NewSHA1(serviceNamespace, []byte(host+"/"+binary)).String()
}

// Active reports whether the service is administratively enabled.
func (r ServiceRecord) Active() bool { return !r.Disabled }

// LastSeen returns the last heartbeat, falling back to the creation time for
// services that never reported after registering.
func (r ServiceRecord) LastSeen() time.Time {
	if r.UpdatedAt.IsZero() {
		return r.CreatedAt
	}
	return r.UpdatedAt
}

// Validate rejects records missing a field the zone tree is keyed on.
func (r ServiceRecord) Validate() error {
	switch {
	case r.Host == "":
		return fmt.Errorf("%w: service %q has no host", ErrMalformedRecord, r.Binary)
	case r.Binary == "":
		return fmt.Errorf("%w: service on host %q has no binary", ErrMalformedRecord, r.Host)
	case r.ZoneLabel == "":
		return fmt.Errorf("%w: service %s on host %q has no zone", ErrMalformedRecord, r.Binary, r.Host)
	}
	return nil
}

// ObservedService pairs a record with the liveness answer taken for it.
type ObservedService struct {
	Record ServiceRecord
	Alive  bool
}

// State returns the detail-tree entry for the observed service.
func (o ObservedService) State() ServiceState {
	return NewServiceState(o.Record, o.Alive)
}
