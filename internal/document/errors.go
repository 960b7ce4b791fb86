package document

import "errors"

// Errors returned by document operations.
var (
	// ErrUnsupportedFormat indicates a file that is neither .txt nor .json.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrSentenceOutOfRange indicates a sentence index past either end.
	ErrSentenceOutOfRange = errors.New("sentence index out of range")

	// ErrTokenOutOfRange indicates a token index past either end of the
	// sentence, or a reversed token range.
	ErrTokenOutOfRange = errors.New("token index out of range")

	// ErrEmptyDocument indicates an operation that needs a sentence.
	ErrEmptyDocument = errors.New("document has no sentences")

	// ErrInvalidEntity indicates a saved entity that does not fit its
	// sentence.
	ErrInvalidEntity = errors.New("invalid entity")
)
