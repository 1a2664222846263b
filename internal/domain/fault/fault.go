// Package fault defines the error taxonomy used while provisioning TeX Live.
//
// Every failure is a *Error carrying a Kind. All kinds except KindCache are
// fatal and bubble up to the command line; cache failures are downgraded to
// warnings where they occur.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes an error.
type Kind string

// Error kinds.
const (
	KindConfiguration Kind = "CONFIGURATION"
	KindCapability    Kind = "CAPABILITY"
	KindExecution     Kind = "EXECUTION"
	KindParse         Kind = "PARSE"
	KindPatch         Kind = "PATCH"
	KindCache         Kind = "CACHE"
)

// Sentinels for errors.Is comparisons by kind.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrCapability    = &Error{Kind: KindCapability}
	ErrExecution     = &Error{Kind: KindExecution}
	ErrParse         = &Error{Kind: KindParse}
	ErrPatch         = &Error{Kind: KindPatch}
	ErrCache         = &Error{Kind: KindCache}
)

// Error is a categorized error with an optional actionable suggestion.
type Error struct {
	Kind       Kind
	Message    string
	Context    string // file path, command line, or other location
	Suggestion string
	Underlying error
}

// Error returns the message and, when present, its context and cause.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Format returns a multi-line rendering with kind, location and suggestion.
func (e *Error) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// WithContext returns a copy of e with context set.
func (e *Error) WithContext(ctx string) *Error {
	c := *e
	c.Context = ctx
	return &c
}

// WithSuggestion returns a copy of e with suggestion set.
func (e *Error) WithSuggestion(s string) *Error {
	c := *e
	c.Suggestion = s
	return &c
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Underlying = err
	return &c
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsFatal reports whether err must stop the job.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrCache)
}

// Configuration reports an invalid or out-of-range input.
func Configuration(format string, args ...any) *Error {
	return New(KindConfiguration, format, args...)
}

// Capability reports an action the resolved version does not support.
func Capability(action string, version fmt.Stringer) *Error {
	return &Error{
		Kind:    KindCapability,
		Message: fmt.Sprintf("`%s` action is not implemented in TeX Live %s", action, version),
	}
}

// Execution reports an external command that exited unsuccessfully.
func Execution(command string, exitCode int, stderr string) *Error {
	msg := fmt.Sprintf("`%s` failed with exit code %d", command, exitCode)
	if s := strings.TrimSpace(stderr); s != "" {
		msg += ": " + s
	}
	return &Error{Kind: KindExecution, Message: msg}
}

// Parse reports malformed package database input.
func Parse(format string, args ...any) *Error {
	return New(KindParse, format, args...)
}

// Patch reports a missing or unexpected patch target.
func Patch(format string, args ...any) *Error {
	return New(KindPatch, format, args...)
}

// Cache reports a cache restore or save failure.
func Cache(message string, err error) *Error {
	return &Error{Kind: KindCache, Message: message, Underlying: err}
}
