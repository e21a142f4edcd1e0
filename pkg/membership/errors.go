package membership

import (
	"errors"
	"fmt"
)

// ErrInternal marks a programming-contract violation, e.g. a price lookup
// miss after validation already constrained the domain.
var ErrInternal = errors.New("internal error")

// ValidationError rejects a malformed signup request before any external
// call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StageError tags a saga failure with the stage it aborted in, and the id of
// the already-created contact when one exists.
type StageError struct {
	Stage     string
	ContactID string
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("membership signup failed at stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
