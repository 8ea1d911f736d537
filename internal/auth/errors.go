package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPrincipal indicates no credential exists for the principal key.
	ErrUnknownPrincipal = errors.New("unknown principal")
	// ErrAuthFailed indicates the external system rejected both the cached
	// token and a freshly refreshed one, or the refresh itself failed.
	// Surfaced distinctly so operators can tell credential problems from
	// generic upstream errors.
	ErrAuthFailed = errors.New("authentication failed")
)

// UpstreamError carries a non-2xx, non-401 response for the caller to
// interpret. Body is the drained response body.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d: %s", e.Status, e.Body)
}

// IsStatus reports whether err is an UpstreamError with the given status code.
func IsStatus(err error, status int) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Status == status
}
