package classifier

import (
	"errors"
	"fmt"
)

// GenerationError reports that the chat endpoint produced no usable reply.
// Callers escalate to ticket creation instead of surfacing it raw.
type GenerationError struct {
	Status int
	err    error
}

func (e *GenerationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("generate response: status %d: %v", e.Status, e.err)
	}
	return fmt.Sprintf("generate response: %v", e.err)
}

func (e *GenerationError) Unwrap() error {
	return e.err
}

// ErrEmptyResponse is wrapped when the service answers without a response text.
var ErrEmptyResponse = errors.New("no response generated")

// IsGenerationError reports whether err came from a failed chat generation.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
