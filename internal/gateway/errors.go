package gateway

import (
	"fmt"
	"net/http"
)

// Kind groups gateway failures by how the client should see them.
type Kind int

const (
	// KindInvalidInput means the request itself cannot be served
	KindInvalidInput Kind = iota
	// KindAdmissionRejected means no credential or capacity before dispatch
	KindAdmissionRejected
	// KindUpstreamBlocked is a 403 from the upstream, never retried
	KindUpstreamBlocked
	// KindExhausted means the tier ran out of credentials mid-request
	KindExhausted
	// KindUnavailable means every attempt failed
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindAdmissionRejected:
		return "admission_rejected"
	case KindUpstreamBlocked:
		return "upstream_blocked"
	case KindExhausted:
		return "exhausted"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Class is the failure class of the last attempt.
type Class string

const (
	ClassNone      Class = ""
	ClassBlocked   Class = "blocked"
	ClassExhausted Class = "exhausted"
	ClassNetwork   Class = "network"
	ClassGeneric   Class = "generic"
)

// Error is returned by Complete for every failure the client should see.
type Error struct {
	Kind    Kind
	Status  int // upstream HTTP status, 0 when none was observed
	Message string
	Class   Class
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Class != ClassNone && e.Kind == KindUnavailable {
		msg = fmt.Sprintf("%s (last failure: %s)", msg, e.Class)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the status the client should receive.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindAdmissionRejected:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
