// Package gcmerr defines the sentinel error kinds surfaced across the
// GCM pipeline. Every kind but InternalInvariant is meant to propagate
// to a caller boundary; InternalInvariant is asserted with panic and
// never returned (it indicates a bug in the tracer, not bad input).
package gcmerr

import "errors"

var (
	// IoFailure wraps any file open/read/write failure.
	IoFailure = errors.New("gcm: io failure")

	// MalformedFasta is reported when a FASTA reader rejects a record.
	MalformedFasta = errors.New("gcm: malformed fasta")

	// RaggedAlignment is reported when rows of one alignment file
	// disagree on gapped length.
	RaggedAlignment = errors.New("gcm: ragged alignment")

	// DuplicateName is reported when a sequence name is seen twice
	// while building an AlignmentState.
	DuplicateName = errors.New("gcm: duplicate sequence name")

	// UnknownSequence is reported when a glue alignment references a
	// name absent from the constructed state.
	UnknownSequence = errors.New("gcm: unknown sequence")

	// WeightArityMismatch is reported when the --weights vector length
	// disagrees with the number of glue files.
	WeightArityMismatch = errors.New("gcm: weight arity mismatch")
)

// InternalInvariant panics with msg; it documents a tracer bug, not a
// surfaceable runtime error. Call sites use this instead of returning
// an error so that the distinction between "bad input" (the six errors
// above) and "our own logic is wrong" is visible at the call site.
func InternalInvariant(msg string) {
	panic("gcm: internal invariant violated: " + msg)
}
