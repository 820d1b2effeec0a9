package domain

import (
	"errors"
	"fmt"
)

// Reason classifies why an item was dropped.
type Reason string

const (
	ReasonFetch         Reason = "fetch"
	ReasonRobotsBlocked Reason = "robots_blocked"
	ReasonParse         Reason = "parse"
	ReasonTooShort      Reason = "too_short"
	ReasonMalformed     Reason = "malformed"
	ReasonBackend       Reason = "backend_unavailable"
	ReasonEmptyResponse Reason = "empty_response"
	ReasonAuth          Reason = "auth"
	ReasonExhausted     Reason = "strategies_exhausted"
	ReasonUnknown       Reason = "unknown"
)

// ErrNothingProduced reports a run that finished without a single record.
var ErrNothingProduced = errors.New("no records produced")

// Failure is the error value threaded through stage boundaries.
type Failure struct {
	Reason  Reason
	Subject string
	Err     error
}

// Fail builds a Failure for subject (a URL, an article, a post).
func Fail(reason Reason, subject string, err error) *Failure {
	return &Failure{Reason: reason, Subject: subject, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Reason, f.Subject)
	}
	return fmt.Sprintf("%s: %s: %v", f.Reason, f.Subject, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf extracts the reason code of err, or ReasonUnknown.
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonUnknown
}

// IsFatal reports whether err must abort a run.
func IsFatal(err error) bool {
	return ReasonOf(err) == ReasonAuth
}
