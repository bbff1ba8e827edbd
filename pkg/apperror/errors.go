// Package apperror is the error taxonomy shared by the write side, the read side and the HTTP edge.
// Every error carries a Kind so callers can classify it without knowing where it came from.
package apperror

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies an error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindDomainRule
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindDomainRule:
		return "DOMAIN_RULE_VIOLATION"
	case KindTransient:
		return "TRANSIENT"
	default:
		return "INTERNAL_ERROR"
	}
}

// HTTPStatus is the status code the HTTP edge should answer with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDomainRule:
		return http.StatusUnprocessableEntity
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorised application error.
type Error struct {
	Kind   Kind
	Msg    string
	Field  string            // conflicting field, if any
	Fields map[string]string // field-level validation messages
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		b.WriteString(" (" + strings.Join(parts, "; ") + ")")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error    { return e.Err }
func (e *Error) Category() string { return e.Kind.String() }
func (e *Error) HTTPStatus() int  { return e.Kind.HTTPStatus() }

// Validation aggregates field-level failures into one error.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Msg: "validation failed", Fields: fields}
}

// InvalidValue is a single-value validation failure, used by value objects.
func InvalidValue(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Conflict(msg, field string) *Error {
	return &Error{Kind: KindConflict, Msg: msg, Field: field}
}

func DomainRule(msg string) *Error {
	return &Error{Kind: KindDomainRule, Msg: msg}
}

func Transient(msg string, err error) *Error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
