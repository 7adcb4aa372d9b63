package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports caller-fault input: missing fields, disallowed audio,
// malformed history.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError for the given field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Stage names the external provider call that failed.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageCompletion    Stage = "completion"
	StageSynthesis     Stage = "synthesis"
)

// UpstreamError wraps a provider failure with the pipeline stage it happened in.
type UpstreamError struct {
	Stage    Stage
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed [%s]: %v", e.Stage.Label(), e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError. A nil err stays nil.
func Upstream(stage Stage, provider string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Stage: stage, Provider: provider, Err: err}
}

// AsUpstream returns the UpstreamError inside err, if any.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// Label is the human name of the stage used in error messages.
func (s Stage) Label() string {
	switch s {
	case StageTranscription:
		return "speech-to-text"
	case StageCompletion:
		return "AI processing"
	case StageSynthesis:
		return "text-to-speech"
	default:
		return string(s)
	}
}
