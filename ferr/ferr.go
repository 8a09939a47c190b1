// Package ferr implements the structured, back-traceable error used
// throughout the aes package. It plays the role the original
// libcerror error object plays in the C sources this module is built
// from: a single object that accumulates one frame per layer of the call
// stack instead of discarding context at each return.
package ferr

import "fmt"

// Domain identifies the subsystem that raised an error.
type Domain string

const (
	DomainArguments Domain = "arguments"
	DomainRuntime   Domain = "runtime"
	DomainMemory    Domain = "memory"
)

// Code is a stable, comparable failure reason within a Domain.
type Code string

const (
	CodeInvalidArgument    Code = "invalid_argument"
	CodeMissing            Code = "missing"
	CodeMemory             Code = "memory"
	CodeSetFailed          Code = "set_failed"
	CodeInitializeFailed   Code = "initialize_failed"
	CodeFinalizeFailed     Code = "finalize_failed"
	CodeAuthenticationFail Code = "authentication_failed"
)

// Error is the façade the aes core reports failures through.
// It never inspects its own cause; it only accumulates frames as it is
// wrapped on the way up the stack.
type Error struct {
	Domain     Domain
	Code       Code
	Message    string
	SystemCode int
	cause      error
	frames     []string
}

// New creates a new Error with no cause.
func New(domain Domain, code Code, message string) *Error {
	return &Error{Domain: domain, Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(domain Domain, code Code, format string, args ...any) *Error {
	return New(domain, code, fmt.Sprintf(format, args...))
}

// WithSystemCode attaches a platform/system error code (errno, GetLastError, …).
func (e *Error) WithSystemCode(code int) *Error {
	e.SystemCode = code
	return e
}

// Error implements the error interface, rendering the full frame trail.
func (e *Error) Error() string {
	s := string(e.Domain) + "/" + string(e.Code) + ": " + e.Message
	for i := len(e.frames) - 1; i >= 0; i-- {
		s += "\n\tat " + e.frames[i]
	}
	if e.cause != nil {
		s += "\ncaused by: " + e.cause.Error()
	}
	return s
}

// Unwrap exposes the underlying cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same domain and code,
// so callers can do errors.Is(err, ferr.New(ferr.DomainArguments, ferr.CodeInvalidArgument, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Domain == t.Domain && e.Code == t.Code
}

// Wrap appends a new frame to err without discarding the chain below it.
// If err is not already a *Error, it is adopted as the cause of a fresh
// runtime-domain Error.
func Wrap(err error, frame string) error {
	if err == nil {
		return nil
	}
	fe, ok := err.(*Error)
	if !ok {
		fe = &Error{Domain: DomainRuntime, Code: CodeSetFailed, Message: err.Error(), cause: err}
	}
	fe.frames = append(fe.frames, frame)
	return fe
}
