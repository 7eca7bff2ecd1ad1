package errors

import (
	goerrors "errors"
	"fmt"
	"maps"
	"strings"
)

const UnknownCode = 500

// Error is a structured error carrying an HTTP-style status code, a stable
// machine-readable reason, a human-readable message, optional metadata and
// the wrapped cause.
type Error struct {
	Code     int               `json:"code,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	cause    error
}

// Error returns a human-readable error message with the optional cause chain.
func (e *Error) Error() string {
	var msg strings.Builder

	fmt.Fprintf(&msg, "code=%d", e.Code)
	if e.Reason != "" {
		msg.WriteString(", reason=")
		msg.WriteString(e.Reason)
	}
	msg.WriteString(", message=")
	msg.WriteString(e.Message)

	if len(e.Metadata) > 0 {
		msg.WriteString(", metadata={")
		first := true
		for k, v := range e.Metadata {
			if !first {
				msg.WriteString(", ")
			}
			msg.WriteString(k)
			msg.WriteByte('=')
			msg.WriteString(v)
			first = false
		}
		msg.WriteString("}")
	}

	if e.cause != nil {
		msg.WriteString(", cause=")
		msg.WriteString(e.cause.Error())
	}

	return msg.String()
}

// Unwrap returns the cause of the error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is an *Error with the same code and reason.
func (e *Error) Is(err error) bool {
	var ae *Error
	if goerrors.As(err, &ae) {
		return e.Code == ae.Code && e.Reason == ae.Reason
	}
	return false
}

// WithMetadata adds metadata to the error. Returns a new instance to keep
// the original immutable.
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}

	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}
	maps.Copy(err.Metadata, m)
	return err
}

// WithCause adds a cause to the error. Returns a new instance to keep the
// original immutable.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}

	err := e.clone()
	err.cause = cause
	return err
}

// clone creates a shallow copy of the error while deep copying the metadata map.
func (e *Error) clone() *Error {
	var metadata map[string]string
	if len(e.Metadata) > 0 {
		metadata = make(map[string]string, len(e.Metadata))
		maps.Copy(metadata, e.Metadata)
	}

	return &Error{
		Code:     e.Code,
		Reason:   e.Reason,
		Message:  e.Message,
		Metadata: metadata,
		cause:    e.cause,
	}
}

// New creates a new error with the given status code, reason and formatted message.
func New(code int, reason, format string, args ...any) *Error {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	return &Error{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}

// FromError converts a generic error to *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	if ae, ok := err.(*Error); ok {
		return ae
	}

	var ae *Error
	if goerrors.As(err, &ae) {
		return ae
	}

	return New(UnknownCode, "UNKNOWN", "%v", err)
}

// Wrap wraps an error with additional context while preserving the chain.
// Returns nil if the input error is nil.
func Wrap(err error, code int, reason, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return New(code, reason, format, args...).WithCause(err)
}

// Reason returns the reason of err if it is an *Error, otherwise "UNKNOWN".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return FromError(err).Reason
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return goerrors.As(err, target)
}
