package schedule

import "github.com/pkg/errors"

var (
	// ErrCyclicDependency is returned when ordering constraints and access
	// conflicts cannot be reconciled into an acyclic execution order.
	ErrCyclicDependency = errors.New("schedule: cyclic system dependency")

	// ErrUnknownSystem is returned when an ordering constraint names a
	// system that was never added.
	ErrUnknownSystem = errors.New("schedule: unknown system")

	// ErrDuplicateSystem is returned when two systems are added under the
	// same name.
	ErrDuplicateSystem = errors.New("schedule: duplicate system name")
)
