package llm

import (
	"errors"
	"fmt"
)

// GenerationError reports a failed call to the language model backend.
// Retryable failures (network, 5xx, rate limits, cancellation) are surfaced
// to the caller so the query can be re-issued.
type GenerationError struct {
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a generation failure worth retrying.
func IsRetryable(err error) bool {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}
