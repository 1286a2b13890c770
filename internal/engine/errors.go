package engine

import (
	"errors"
	"fmt"
)

// FailureKind classifies pipeline failures so the dispatcher can map
// each one to its player-facing message without string matching.
type FailureKind string

const (
	FailureContextUnavailable     FailureKind = "context_unavailable"
	FailureDirectionNotRecognized FailureKind = "direction_not_recognized"
	FailureBlockedPath            FailureKind = "blocked_path"
	FailurePersistence            FailureKind = "persistence"
	FailureClassifierEmpty        FailureKind = "classifier_empty"
	FailureClassifierMalformed    FailureKind = "classifier_malformed"
	FailureClassifierTimeout      FailureKind = "classifier_timeout"
	FailureClassifierUnavailable  FailureKind = "classifier_unavailable"
	FailureGeneratorTimeout       FailureKind = "generator_timeout"
	FailureGeneratorUnavailable   FailureKind = "generator_unavailable"
)

// Failure wraps a pipeline error with its kind so callers can branch
// with errors.As while preserving the underlying cause chain.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err with the given kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Failuref creates a failure from a formatted message.
func Failuref(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. The second
// return is false when the chain carries no Failure.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}
