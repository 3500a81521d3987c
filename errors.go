package gridfolio

import "errors"

// Sentinel errors for the conditions detected by the calendar and dimension
// engines. They are always wrapped with fmt.Errorf("...: %w", Err...) so that
// the message carries the offending values; match with errors.Is.
var (
	// ErrInvalidFrequency reports a frequency token outside the allowed set,
	// or with a disallowed repeat count (e.g. "2D").
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrIncompatibleFrequency reports a comparison between two anchored
	// frequencies whose anchor months are not mutually convertible.
	ErrIncompatibleFrequency = errors.New("incompatible frequencies")

	// ErrIndexMismatch reports grids that differ in frequency, timezone or
	// start-of-day where they are required to match.
	ErrIndexMismatch = errors.New("grid mismatch")

	// ErrAmbiguousDimension reports dimension inference that found no single
	// plausible dimension: a slot collision, or a mix of dimension-aware and
	// dimensionless data.
	ErrAmbiguousDimension = errors.New("ambiguous dimension")

	// ErrUnknownKey reports a named input entry whose key is not one of the
	// recognized dimension abbreviations.
	ErrUnknownKey = errors.New("unknown dimension key")

	// ErrInconsistentData reports supplied members that violate a dimension
	// identity (energy vs power times duration, revenue vs energy times
	// price) beyond tolerance.
	ErrInconsistentData = errors.New("inconsistent data")

	// ErrUnmappableYear reports year-remapping that exhausted all fallback
	// passes with target days left unmatched.
	ErrUnmappableYear = errors.New("unmappable days")

	// ErrNonexistentTime reports a local wall time that falls in a DST gap.
	ErrNonexistentTime = errors.New("nonexistent local time")

	// ErrAmbiguousTime reports a local wall time that occurs twice (DST fold).
	ErrAmbiguousTime = errors.New("ambiguous local time")
)
