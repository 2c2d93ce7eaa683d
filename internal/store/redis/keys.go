package redis

const (
	// KeyPrefixService is the prefix for service record keys
	KeyPrefixService = "zonewatch:service:"
	// KeyServicesIndex is the sorted set of service IDs, scored by creation time
	KeyServicesIndex = "zonewatch:services:index"
	// KeyPrefixAggregate is the prefix for host aggregate keys
	KeyPrefixAggregate = "zonewatch:aggregate:"
	// KeyAggregatesIndex is the sorted set of aggregate names, scored by load order
	KeyAggregatesIndex = "zonewatch:aggregates:index"
)

// ServiceKey returns the Redis key for a service record by ID
func ServiceKey(id string) string {
	return KeyPrefixService + id
}

// ServicesIndexKey returns the key of the service ordering index
func ServicesIndexKey() string {
	return KeyServicesIndex
}

// AggregateKey returns the Redis key for an aggregate by name
func AggregateKey(name string) string {
	return KeyPrefixAggregate + name
}

// AggregatesIndexKey returns the key of the aggregate ordering index
func AggregatesIndexKey() string {
	return KeyAggregatesIndex
}
