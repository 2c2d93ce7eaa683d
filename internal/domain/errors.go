package domain

import "errors"

var (
	// ErrMalformedRecord rejects a whole batch of service records.
	ErrMalformedRecord = errors.New("malformed service record")

	// ErrServiceNotFound is returned when no record exists for a host/binary pair.
	ErrServiceNotFound = errors.New("service not found")
)
