package exporter

import "fmt"

// ValidationError rejects a malformed request before any work starts.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// EncodingError means the provider rejected the parameter set of a
// combination. Every format under that combination fails with it, since
// the encoding is shared.
type EncodingError struct {
	Tag string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("configuration encoding failed for %q: %v", e.Tag, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// PartResolutionError means no part could be matched for a configured
// export and the caller gave nothing usable to match against.
type PartResolutionError struct {
	Msg string
}

func (e *PartResolutionError) Error() string { return e.Msg }

// TranslationFailedError carries the provider's stated reason for a failed
// translation job. Distinct from TimeoutError.
type TranslationFailedError struct {
	Reason string
}

func (e *TranslationFailedError) Error() string {
	return "translation failed: " + e.Reason
}

// TimeoutError means the polling ceiling was exhausted without the
// translation reaching a terminal state.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("translation timed out after %d polls", e.Attempts)
}

// ExtractionError means a bundled payload could not be disambiguated to a
// single file. The unit fails rather than guessing.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return "payload extraction failed: " + e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }
