package collector

import (
	"errors"
	"fmt"

	"github.com/katello-exporter/katello-exporter/internal/katello"
)

// MappingError reports a payload whose shape a mapper could not handle,
// such as a subscription search without a results array.
type MappingError struct {
	Group string
	Err   error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("collector: map %s: %v", e.Group, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// Failure reasons used as the reason label of the group failure counter.
const (
	reasonConnection = "connection"
	reasonUpstream   = "upstream"
	reasonDecode     = "decode"
	reasonMapping    = "mapping"
	reasonUnknown    = "unknown"
)

// failureReason classifies a group error.
func failureReason(err error) string {
	var (
		connErr *katello.ConnectionError
		upErr   *katello.UpstreamError
		decErr  *katello.DecodeError
		mapErr  *MappingError
	)
	switch {
	case errors.As(err, &connErr):
		return reasonConnection
	case errors.As(err, &upErr):
		return reasonUpstream
	case errors.As(err, &decErr):
		return reasonDecode
	case errors.As(err, &mapErr):
		return reasonMapping
	default:
		return reasonUnknown
	}
}
