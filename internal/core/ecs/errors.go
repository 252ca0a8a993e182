package ecs

import "github.com/pkg/errors"

var (
	// ErrEntityNotAlive is returned when an operation references an entity
	// whose handle is stale or was never issued.
	ErrEntityNotAlive = errors.New("ecs: entity is not alive")

	// ErrDuplicateComponent is returned when an insert would attach a
	// component type the entity already carries.
	ErrDuplicateComponent = errors.New("ecs: duplicate component type on entity")

	// ErrComponentNotRegistered is returned when a query or dynamic lookup
	// names a component identifier the registry has never issued.
	ErrComponentNotRegistered = errors.New("ecs: component type not registered")

	// ErrResourceExists is returned when a resource of the same type is
	// inserted twice without removal.
	ErrResourceExists = errors.New("ecs: resource of this type already exists")
)
