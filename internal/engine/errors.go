package engine

import "errors"

// Reducers report domain outcomes (not found, already present) through their
// boolean and id results. The errors below cover the inputs that no outcome
// can represent without breaking an invariant.
var (
	// ErrSelfReassign is returned by DeleteCategory when the reassignment
	// target is the category being deleted.
	ErrSelfReassign = errors.New("cannot reassign data points to the category being deleted")

	// ErrNonFiniteValue is returned when a data point value is NaN or infinite.
	ErrNonFiniteValue = errors.New("data point value must be finite")
)
