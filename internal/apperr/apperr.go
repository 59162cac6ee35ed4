// Package apperr defines the error taxonomy shared by the search engine,
// the segment cache, and the transport layer. Every error that can reach
// a client is classified into one of a small set of kinds so the
// transport can map it to an `error` event without string-sniffing.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one of the surfaced failure categories.
type Kind string

const (
	InvalidInput        Kind = "InvalidInput"
	TitleUnknown        Kind = "TitleUnknown"
	UpstreamUnavailable Kind = "UpstreamUnavailable"
	NoPath              Kind = "NoPath"
	TimedOut            Kind = "TimedOut"
	Internal            Kind = "Internal"
)

// Error wraps an underlying cause with a surfaced Kind and a
// client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to Internal for any
// error not produced by this package.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}
