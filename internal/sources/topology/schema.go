package topology

// File represents the top-level structure of topology.yaml
type File struct {
	Aggregates []AggregateSpec `yaml:"aggregates"`
	Services   []ServiceSpec   `yaml:"services"`
}

// AggregateSpec declares a host aggregate.
// AvailabilityZone is a shortcut for the availability_zone metadata key.
type AggregateSpec struct {
	Name             string            `yaml:"name"`
	AvailabilityZone string            `yaml:"availability_zone,omitempty"`
	Metadata         map[string]string `yaml:"metadata,omitempty"`
	Hosts            []string          `yaml:"hosts"`
}

// ServiceSpec declares a service known before its first heartbeat
type ServiceSpec struct {
	Host     string `yaml:"host"`
	Binary   string `yaml:"binary"`
	Topic    string `yaml:"topic,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}
