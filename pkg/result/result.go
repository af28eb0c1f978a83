// Package result implements the outcome type shared by every service
// operation. An operation either succeeds with a payload or fails with a
// kind-tagged Error; expected domain conditions are always returned, never
// panicked. Mixing the two states up is a programming defect and aborts.
package result

import "fmt"

// Kind classifies an Error. The boundary layer dispatches on the kind, not
// on the description text.
type Kind int

const (
	KindNone Kind = iota
	KindFailure
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindFailure:
		return "FAILURE"
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return fmt.Sprintf("KIND(%d)", int(k))
	}
}

// Error is a typed domain error. The zero value carries KindNone and marks
// the absence of an error on a succeeded result.
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Kind        Kind   `json:"-"`
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Kind == KindNone {
		return "<none>"
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// IsNone reports whether the error is the success sentinel.
func (e Error) IsNone() bool { return e.Kind == KindNone }

// ErrValidationFailed is the single error attached to a result that carries
// field-level errors in its side channel.
var ErrValidationFailed = Error{
	Code:        "VALIDATION_ERROR",
	Description: "one or more validation errors occurred",
	Kind:        KindValidation,
}

// ErrNullValue tags results produced from an absent value.
var ErrNullValue = Error{
	Code:        "NULL_VALUE",
	Description: "the requested value is null",
	Kind:        KindFailure,
}

// Failure builds an unclassified domain error.
func Failure(code, description string) Error {
	return Error{Code: code, Description: description, Kind: KindFailure}
}

// Validation builds a bad-input error.
func Validation(code, description string) Error {
	return Error{Code: code, Description: description, Kind: KindValidation}
}

// NotFound builds a missing-resource error.
func NotFound(code, description string) Error {
	return Error{Code: code, Description: description, Kind: KindNotFound}
}

// Conflict builds a state-conflict error.
func Conflict(code, description string) Error {
	return Error{Code: code, Description: description, Kind: KindConflict}
}

// Unauthorized builds a missing-credentials error.
func Unauthorized(code, description string) Error {
	return Error{Code: code, Description: description, Kind: KindUnauthorized}
}

// Forbidden builds an insufficient-rights error.
func Forbidden(code, description string) Error {
	return Error{Code: code, Description: description, Kind: KindForbidden}
}

// Result is a tagged union over the success payload type T. Construct it
// only through Ok, Err, Invalid or Of; the zero value is not a valid result.
type Result[T any] struct {
	ok     bool
	value  T
	err    Error
	fields []Error
}

// Unit is the payload of results that carry no value.
type Unit struct{}

// Empty is the payload-free result form.
type Empty = Result[Unit]

// Ok wraps a successful payload.
func Ok[T any](value T) Result[T] {
	return Result[T]{ok: true, value: value}
}

// OK returns a succeeded Empty.
func OK() Empty { return Ok(Unit{}) }

// Err wraps a failure. Passing the None sentinel is a caller bug.
func Err[T any](e Error) Result[T] {
	if e.Kind == KindNone {
		panic("result: failure constructed with the None sentinel")
	}
	return Result[T]{err: e}
}

// Invalid wraps an ordered list of field-level errors behind the generic
// validation sentinel. Every entry must itself be a real error.
func Invalid[T any](fields []Error) Result[T] {
	if len(fields) == 0 {
		panic("result: invalid result constructed without field errors")
	}
	copied := make([]Error, len(fields))
	copy(copied, fields)
	for _, f := range copied {
		if f.Kind == KindNone {
			panic("result: field error carries the None sentinel")
		}
	}
	return Result[T]{err: ErrValidationFailed, fields: copied}
}

// Of wraps a possibly-absent value: present becomes Ok, nil becomes a
// failure tagged with the null-value code.
func Of[T any](value *T) Result[T] {
	if value == nil {
		return Err[T](ErrNullValue)
	}
	return Ok(*value)
}

// Forward re-types a failed result for callers expecting a different
// payload. Forwarding a succeeded result is a caller bug.
func Forward[T, U any](r Result[U]) Result[T] {
	if r.ok {
		panic("result: forward of a succeeded result")
	}
	return Result[T]{err: r.err, fields: r.fields}
}

// Succeeded reports whether the operation completed without error.
func (r Result[T]) Succeeded() bool { return r.ok }

// Value returns the payload. Reading it off a failed result is a
// programming defect, not a domain condition.
func (r Result[T]) Value() T {
	if !r.ok {
		panic(fmt.Sprintf("result: value read on failed result (%s)", r.err.Code))
	}
	return r.value
}

// Err returns the attached error; the None sentinel on success.
func (r Result[T]) Err() Error { return r.err }

// FieldErrors returns the ordered field-level errors collected by the
// validation pipeline, nil for any other failure.
func (r Result[T]) FieldErrors() []Error { return r.fields }

// IsInvalid distinguishes a bag of field-level failures from a single
// domain failure without inspecting the list length.
func (r Result[T]) IsInvalid() bool { return r.fields != nil }
