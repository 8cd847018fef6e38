package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidAddress is returned when a contract address fails validation.
var ErrInvalidAddress = errors.New("invalid address")

// UpstreamError reports a failed market-data fetch: either a non-2xx status
// or a transport/parse failure carried in Err.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream http %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NotFoundError means the upstream document carried no pairs for Address.
type NotFoundError struct {
	Address string
}

func (e *NotFoundError) Error() string {
	return "no pairs found for " + e.Address
}

// CapabilityUnavailableError is returned when a raster format is requested
// from a composer built without a rasterizer.
type CapabilityUnavailableError struct {
	Capability string
}

func (e *CapabilityUnavailableError) Error() string {
	return e.Capability + " capability unavailable"
}

// IconFetchError wraps any failure of the best-effort icon overlay.
type IconFetchError struct {
	URL string
	Err error
}

func (e *IconFetchError) Error() string {
	return "icon " + e.URL + ": " + e.Err.Error()
}

func (e *IconFetchError) Unwrap() error { return e.Err }

func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsCapability(err error) bool {
	var ce *CapabilityUnavailableError
	return errors.As(err, &ce)
}
