package pipeline

import "errors"

var (
	// ErrInputTooLarge is returned by ReadStep when a document exceeds the
	// configured size limit. The document is not parsed.
	ErrInputTooLarge = errors.New("input too large")

	// ErrNoDocument is returned by steps that need a parsed tree when
	// ParseStep has not run.
	ErrNoDocument = errors.New("document not parsed")
)
