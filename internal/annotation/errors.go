package annotation

import "errors"

// Errors returned by the codec.
var (
	// ErrMalformedEntity indicates an entity tuple with missing or mistyped
	// fields.
	ErrMalformedEntity = errors.New("malformed entity")

	// ErrMalformedRow indicates an annotation row that is not
	// [paragraphId, text, {entities}].
	ErrMalformedRow = errors.New("malformed annotation row")

	// ErrUnsupportedVersion indicates a file written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported file version")

	// ErrTextMismatch indicates the file's text fingerprint does not match
	// its sentences.
	ErrTextMismatch = errors.New("text fingerprint mismatch")
)
