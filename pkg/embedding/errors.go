package embedding

import (
	"errors"
	"fmt"
)

// UnavailableError reports a failed embedding call. Transient marks failures
// worth retrying (network errors, 5xx, rate limiting); permanent failures
// (bad request, auth) should surface to the caller as-is.
type UnavailableError struct {
	Transient bool
	Err       error
}

func (e *UnavailableError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("embedding unavailable (%s): %v", kind, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient embedding failure.
func IsRetryable(err error) bool {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Transient
	}
	return false
}
