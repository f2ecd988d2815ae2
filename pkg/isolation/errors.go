package isolation

import "errors"

var (
	// ErrEntityNotRegistered is returned when a statement references an
	// entity descriptor that never went through a registry. Registration is
	// what declares the tenant-scoped trait, so executing around it would
	// silently skip the filter.
	ErrEntityNotRegistered = errors.New("entity not registered")

	// ErrDuplicateEntity is returned when two entities are registered under
	// the same name.
	ErrDuplicateEntity = errors.New("entity already registered")

	// ErrInvalidEntity is returned when an entity descriptor is missing a
	// name or table.
	ErrInvalidEntity = errors.New("invalid entity descriptor")

	// ErrNilStatement is returned when a nil statement is executed.
	ErrNilStatement = errors.New("nil statement")
)
