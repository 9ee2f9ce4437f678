// ABOUTME: Error values returned by the ingestion pipeline.
// ABOUTME: MissingFieldError carries the dotted path of the absent field.
package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrParse reports a payload that is not valid JSON or has a field of the wrong type.
	ErrParse = errors.New("parse error")
	// ErrMissingField reports a required field absent from the payload.
	ErrMissingField = errors.New("missing field")
	// ErrNotScored reports a record whose score_state is not SCORED.
	ErrNotScored = errors.New("record not scored")
)

// MissingFieldError names the required field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

// Is lets errors.Is match ErrMissingField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
