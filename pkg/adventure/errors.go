package adventure

import (
	"errors"
	"fmt"
)

// ErrGenerationFailed matches every GenerationError via errors.Is.
var ErrGenerationFailed = errors.New("generation failed")

// FailureReason says which step of an operation failed.
type FailureReason string

const (
	ReasonInvalidRequest  FailureReason = "invalid_request"
	ReasonBackend         FailureReason = "backend"
	ReasonInvalidResponse FailureReason = "invalid_response"
)

// GenerationError is the single failure kind of the generation operations.
// The backend call errored or timed out, or its output did not match the
// declared response shape.
type GenerationError struct {
	Operation string
	Reason    FailureReason
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
