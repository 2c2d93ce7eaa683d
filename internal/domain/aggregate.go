package domain

import "slices"

// AvailabilityZoneKey is the aggregate metadata key naming a zone.
const AvailabilityZoneKey = "availability_zone"

// Aggregate groups hosts and carries metadata about them.
type Aggregate struct {
	Name     string            `json:"name"`
	Hosts    []string          `json:"hosts"`
	Metadata map[string]string `json:"metadata"`
}

// AvailabilityZone returns the zone the aggregate defines, if any.
func (a Aggregate) AvailabilityZone() (string, bool) {
	zone, ok := a.Metadata[AvailabilityZoneKey]
	if !ok || zone == "" {
		return "", false
	}
	return zone, true
}

// HasHost reports whether host belongs to the aggregate.
func (a Aggregate) HasHost(host string) bool {
	return slices.Contains(a.Hosts, host)
}
