package correlation

import (
	"errors"
	"net/http"
)

// Domain errors for correlation record operations.
var (
	ErrNotFound  = errors.New("correlation record not found")
	ErrDuplicate = errors.New("correlation record already exists")
	// ErrStageConflict indicates a compare-and-set stage advance found the
	// record in a different stage than expected. Duplicate webhook
	// deliveries surface here and are treated as idempotent replays.
	ErrStageConflict = errors.New("record stage changed concurrently")
)

// MapHTTPStatus maps correlation domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrStageConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
