package classes

import "errors"

// Errors returned by class operations.
var (
	// ErrInvalidClass indicates a class without a name or colour, or a
	// duplicate name.
	ErrInvalidClass = errors.New("invalid class")

	// ErrUnknownClass indicates a name or index that is not in the registry.
	ErrUnknownClass = errors.New("unknown class")
)
