package matter

import (
	"errors"
	"fmt"
)

// Sentinel errors for the kinematics layer. Typed errors below wrap these
// so callers can match with errors.Is while still getting full context.
var (
	// ErrStageViolation indicates a read or operation above the realized
	// stage. Always a caller defect; nothing is recomputed silently.
	ErrStageViolation = errors.New("matter: stage violation")

	// ErrInvalidTopology indicates a malformed body tree, detected once at
	// construction.
	ErrInvalidTopology = errors.New("matter: invalid topology")

	// ErrDomain indicates an out-of-range body id, mobility index, or
	// argument value. Fatal for the call, harmless to the state.
	ErrDomain = errors.New("matter: domain error")
)

// StageViolationError names the operation plus the required and actual
// stages.
type StageViolationError struct {
	Op       string
	Required Stage
	Actual   Stage
}

func (e *StageViolationError) Error() string {
	return fmt.Sprintf("matter: %s requires stage %s, state realized to %s",
		e.Op, e.Required, e.Actual)
}

func (e *StageViolationError) Unwrap() error { return ErrStageViolation }

// TopologyError reports why a body tree failed validation.
type TopologyError struct {
	Body   BodyID
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("matter: body %d: %s", e.Body, e.Reason)
}

func (e *TopologyError) Unwrap() error { return ErrInvalidTopology }

// DomainError reports an out-of-range argument to an operation.
type DomainError struct {
	Op     string
	Detail string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("matter: %s: %s", e.Op, e.Detail)
}

func (e *DomainError) Unwrap() error { return ErrDomain }
