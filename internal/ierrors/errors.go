// Package ierrors defines the tagged error kinds the core surfaces, per the
// daemon's error handling design: a closed set of kinds plus an open Other,
// with context attached out of band so the variant stays pattern-matchable.
package ierrors

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind is one of the closed set of error kinds the core can raise.
type Kind int

const (
	// Other covers anything that doesn't fit one of the named kinds below.
	Other Kind = iota
	InvalidApiVersion
	NotFound
	MethodNotAllowed
	InvalidProvisioning
	ProvisioningFailed
	CacheIO
	RuntimeFatal
	ModuleCrash
	ServiceError
)

func (k Kind) String() string {
	switch k {
	case InvalidApiVersion:
		return "InvalidApiVersion"
	case NotFound:
		return "NotFound"
	case MethodNotAllowed:
		return "MethodNotAllowed"
	case InvalidProvisioning:
		return "InvalidProvisioning"
	case ProvisioningFailed:
		return "ProvisioningFailed"
	case CacheIO:
		return "CacheIO"
	case RuntimeFatal:
		return "RuntimeFatal"
	case ModuleCrash:
		return "ModuleCrash"
	case ServiceError:
		return "ServiceError"
	default:
		return "Other"
	}
}

// StatusCode returns the HTTP status this kind maps to, for kinds that cross
// the router/launcher boundary as a response rather than a fatal error.
func (k Kind) StatusCode() int {
	switch k {
	case InvalidApiVersion:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error is the core's wire-form error: a kind plus a message, optionally
// wrapping a cause. The cause is attached out of band (via Unwrap) so
// callers can still pattern-match on Kind without string-matching messages.
type Error struct {
	Kind  Kind
	msg   string
	cause error
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

// Wrap attaches kind and a message to cause, preserving cause's stack via
// github.com/pkg/errors so %+v still prints the original trace.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, msg: msg, cause: pkgerrors.Wrap(cause, msg)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Format makes %+v print the message followed by the cause's %+v form,
// which includes the stack trace recorded by Wrap; other verbs print Error().
func (e *Error) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+') && e.cause != nil:
		fmt.Fprintf(s, "%s: %+v", e.msg, e.cause)
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		_, _ = io.WriteString(s, e.Error())
	}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or Other if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
