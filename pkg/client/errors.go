package client

import "fmt"

// TransportError indicates a network-level failure that survived every
// retry attempt. It carries the attempt count and the last underlying
// cause.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// VendorAPIError indicates a non-2xx response from a vendor API. The raw
// response body never leaves the transport boundary; callers see only the
// status and the vendor path.
type VendorAPIError struct {
	Provider string
	Status   int
	Path     string
}

func (e *VendorAPIError) Error() string {
	return fmt.Sprintf("%s API error: status %d on %s", e.Provider, e.Status, e.Path)
}

// Retryable reports whether the response status class is worth retrying.
// Auth and other 4xx failures (except 429) will not improve on retry.
func (e *VendorAPIError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
