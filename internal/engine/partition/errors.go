package partition

import "errors"

// Errors returned by partition operations.
var (
	// ErrBlockNotFound indicates no block starts at the given offset.
	ErrBlockNotFound = errors.New("block not found")

	// ErrOverlap indicates a block cannot be placed because its range is
	// already covered.
	ErrOverlap = errors.New("range already covered")

	// ErrInvalidBlock indicates a block with no tokens or inconsistent bounds.
	ErrInvalidBlock = errors.New("invalid block")

	// ErrBlockChanged indicates a replacement changed a block's range or tokens.
	ErrBlockChanged = errors.New("replacement changes block range")

	// ErrInvariant indicates the items no longer tile the sentence.
	ErrInvariant = errors.New("partition invariant violated")
)
