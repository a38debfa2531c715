package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a run failure by the component that produced it
type ErrorKind string

const (
	ErrUpload       ErrorKind = "UploadError"
	ErrSubmission   ErrorKind = "SubmissionError"
	ErrPoll         ErrorKind = "PollError"
	ErrJobFailed    ErrorKind = "JobFailedError"
	ErrTimeout      ErrorKind = "TimeoutError"
	ErrVerification ErrorKind = "VerificationError"
	ErrStorageQuery ErrorKind = "StorageQueryError"
)

// RunError is a component failure tagged with its kind. Components return
// their own kind and the orchestrator attaches it to the Outcome unmodified.
type RunError struct {
	Kind    ErrorKind
	Message string

	// HTTPStatus and Body carry the remote API's rejection when the
	// failure came from a non-2xx response
	HTTPStatus int
	Body       string

	// Transient marks retry-worthy transport failures (timeout, 5xx,
	// connection reset) as opposed to definitive ones (404, malformed
	// response)
	Transient bool

	Err error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.HTTPStatus != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.HTTPStatus)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// AsRunError extracts a RunError from err, or nil if there is none
func AsRunError(err error) *RunError {
	var re *RunError
	if errors.As(err, &re) {
		return re
	}
	return nil
}

// KindOf returns err's error kind, or "" for errors outside the taxonomy
func KindOf(err error) ErrorKind {
	if re := AsRunError(err); re != nil {
		return re.Kind
	}
	return ""
}
