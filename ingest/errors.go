package ingest

import "errors"

// Error kinds surfaced by the pipeline. Callers discriminate with errors.Is;
// the wrapped message carries the offending cue id or line number.
var (
	// ErrNotFound reports a missing source resource.
	ErrNotFound = errors.New("not found")

	// ErrMalformedInput reports an unparseable cue block, an invalid
	// timestamp, or a negative duration.
	ErrMalformedInput = errors.New("malformed input")

	// ErrValidation reports a structurally invalid intermediate record.
	ErrValidation = errors.New("validation failed")
)
