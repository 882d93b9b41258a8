// Package apperr defines the error kinds raised by the generation and impact
// pipelines. Every kind is translated to a status code exactly once, at the
// HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindNoData
	KindIntegrity
	KindConfiguration
	KindTooMuchData
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindNoData:
		return "no_data"
	case KindIntegrity:
		return "integrity"
	case KindConfiguration:
		return "configuration"
	case KindTooMuchData:
		return "too_much_data"
	default:
		return "unknown"
	}
}

var (
	// ErrValidation matches malformed caller input.
	ErrValidation = &Error{Kind: KindValidation}
	// ErrNotFound matches lookups with no reference row.
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrNoData matches well-formed queries with an empty range.
	ErrNoData = &Error{Kind: KindNoData}
	// ErrIntegrity matches reference data defects.
	ErrIntegrity = &Error{Kind: KindIntegrity}
	// ErrConfiguration matches missing static mappings.
	ErrConfiguration = &Error{Kind: KindConfiguration}
	// ErrTooMuchData matches an exhausted resampling ladder.
	ErrTooMuchData = &Error{Kind: KindTooMuchData}
)

// Error carries a kind and a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in the chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-facing message of the first *Error in the chain.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error    { return newf(KindValidation, format, args...) }
func NotFound(format string, args ...any) error      { return newf(KindNotFound, format, args...) }
func NoData(format string, args ...any) error        { return newf(KindNoData, format, args...) }
func Integrity(format string, args ...any) error     { return newf(KindIntegrity, format, args...) }
func Configuration(format string, args ...any) error { return newf(KindConfiguration, format, args...) }
func TooMuchData(format string, args ...any) error   { return newf(KindTooMuchData, format, args...) }

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, err error, format string, args ...any) error {
	e := newf(kind, format, args...)
	e.Err = err
	return e
}
