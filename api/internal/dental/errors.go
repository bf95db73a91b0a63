package dental

import (
	"errors"
	"fmt"
)

// DecodeKind classifies why a model response could not become a Report.
type DecodeKind int

const (
	NoSubjectDetected DecodeKind = iota + 1
	NoJSONFound
	SchemaMismatch
)

func (k DecodeKind) String() string {
	switch k {
	case NoSubjectDetected:
		return "no_subject_detected"
	case NoJSONFound:
		return "no_json_found"
	case SchemaMismatch:
		return "schema_mismatch"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Any *DecodeError of the same kind matches.
var (
	ErrNoTeethFound   = &DecodeError{Kind: NoSubjectDetected}
	ErrNoJSONFound    = &DecodeError{Kind: NoJSONFound}
	ErrSchemaMismatch = &DecodeError{Kind: SchemaMismatch}
)

type DecodeError struct {
	Kind   DecodeKind
	Field  string // set for SchemaMismatch; empty when the span is not valid JSON
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case NoSubjectDetected:
		return "dental: image does not show teeth"
	case NoJSONFound:
		return "dental: no JSON object in model response"
	case SchemaMismatch:
		if e.Field == "" {
			return "dental: schema mismatch: " + e.Reason
		}
		return fmt.Sprintf("dental: schema mismatch on %q: %s", e.Field, e.Reason)
	}
	return "dental: decode failed"
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	var t *DecodeError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func mismatch(field, reason string, err error) *DecodeError {
	return &DecodeError{Kind: SchemaMismatch, Field: field, Reason: reason, Err: err}
}

// StreamError wraps a transport or SDK failure while talking to the model.
type StreamError struct {
	Engine string
	Err    error
}

func (e *StreamError) Error() string {
	if e.Engine == "" {
		return fmt.Sprintf("stream: %v", e.Err)
	}
	return fmt.Sprintf("%s stream: %v", e.Engine, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// ImageError means the photo could not be prepared for the request.
type ImageError struct {
	Op  string
	Err error
}

func (e *ImageError) Error() string { return fmt.Sprintf("image %s: %v", e.Op, e.Err) }

func (e *ImageError) Unwrap() error { return e.Err }

// KindOf reports the decode kind of err, or 0 when err is not a *DecodeError.
func KindOf(err error) DecodeKind {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
