package jobs

import "errors"

// Kind classifies why a job failed.
type Kind string

const (
	KindInvalidRequest    Kind = "invalid_request"
	KindStage             Kind = "stage_error"
	KindTranscode         Kind = "transcode_error"
	KindTranscribe        Kind = "transcribe_error"
	KindTranscribeTimeout Kind = "transcribe_timeout"
	KindInternal          Kind = "internal_error"
)

// Error is a terminal pipeline failure. Its message is what the caller
// receives in the error notification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var je *Error
	if errors.As(err, &je) {
		return je.Kind
	}
	return ""
}
