package topology

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// binaryPrefix is stripped from binaries to derive a default topic
const binaryPrefix = "nova-"

// Mapper converts a topology file to domain entities
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapAggregates converts aggregate specs, keeping file order
func (m *Mapper) MapAggregates(file *File) ([]domain.Aggregate, error) {
	aggregates := make([]domain.Aggregate, 0, len(file.Aggregates))
	seen := make(map[string]bool, len(file.Aggregates))

	for i, decl := range file.Aggregates {
		if decl.Name == "" {
			return nil, fmt.Errorf("aggregate #%d has no name", i+1)
		}
		if seen[decl.Name] {
			return nil, fmt.Errorf("aggregate %q declared twice", decl.Name)
		}
		seen[decl.Name] = true

		metadata := make(map[string]string, len(decl.Metadata)+1)
		for k, v := range decl.Metadata {
			metadata[k] = v
		}
		if decl.AvailabilityZone != "" {
			if zone, ok := metadata[domain.AvailabilityZoneKey]; ok && zone != decl.AvailabilityZone {
				return nil, fmt.Errorf("aggregate %q: availability_zone %q conflicts with metadata %q",
					decl.Name, decl.AvailabilityZone, zone)
			}
			metadata[domain.AvailabilityZoneKey] = decl.AvailabilityZone
		}

		aggregates = append(aggregates, domain.Aggregate{
			Name:     decl.Name,
			Hosts:    append([]string(nil), decl.Hosts...),
			Metadata: metadata,
		})
	}

	return aggregates, nil
}

// MapServices converts seeded services to registry records.
// Seeded records have no heartbeat yet: liveness falls back to CreatedAt.
func (m *Mapper) MapServices(file *File) ([]domain.ServiceRecord, error) {
	records := make([]domain.ServiceRecord, 0, len(file.Services))
	seen := make(map[string]bool, len(file.Services))
	now := m.now()

	for i, decl := range file.Services {
		if decl.Host == "" || decl.Binary == "" {
			return nil, fmt.Errorf("service #%d needs both host and binary", i+1)
		}

		id := domain.ServiceID(decl.Host, decl.Binary)
		if seen[id] {
			return nil, fmt.Errorf("service %s on host %q declared twice", decl.Binary, decl.Host)
		}
		seen[id] = true

		topic := decl.Topic
		if topic == "" {
			topic = defaultTopic(decl.Binary)
		}

		records = append(records, domain.ServiceRecord{
			ID:       id,
			Host:     decl.Host,
			Binary:   decl.Binary,
			Topic:    topic,
			Disabled: decl.Disabled,
			// Keep file order in the registration index
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
	}

	return records, nil
}

// defaultTopic derives the topic from the binary name
// Example: "nova-compute" -> "compute"
func defaultTopic(binary string) string {
	return strings.TrimPrefix(binary, binaryPrefix)
}
