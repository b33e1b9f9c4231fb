// Package apperr defines the categorized error model shared by every layer.
// An error carries a Kind that decides the HTTP status and a numeric Code
// that is the only detail exposed to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error and decides its HTTP status.
type Kind int

const (
	Unknown Kind = iota
	InvalidFormat
	InvalidValue
	AuthenticationFailed
	AuthorizationFailed
	RecordNotFound
	RecordAlreadyExists
)

// HTTPStatus maps a kind to the status its failure response uses.
// Authentication failures answer 403 and authorization failures 401; the
// swap is long-standing wire behavior clients depend on.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidFormat, InvalidValue, RecordNotFound, RecordAlreadyExists:
		return http.StatusBadRequest
	case AuthenticationFailed:
		return http.StatusForbidden
	case AuthorizationFailed:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case InvalidFormat:
		return "invalid format"
	case InvalidValue:
		return "invalid value"
	case AuthenticationFailed:
		return "authentication failed"
	case AuthorizationFailed:
		return "authorization failed"
	case RecordNotFound:
		return "record not found"
	case RecordAlreadyExists:
		return "record already exists"
	default:
		return "unknown"
	}
}

// Code is the stable numeric error code returned to API clients.
type Code int

const (
	CodeUnknown                       Code = 0
	CodeInvalidEmailFormat            Code = 1
	CodeInvalidUsernameFormat         Code = 2
	CodeInvalidPasswordFormat         Code = 3
	CodeInvalidUsernameOrPassword     Code = 4
	CodeEmailInUse                    Code = 5
	CodeUsernameInUse                 Code = 6
	CodeAdminNotFound                 Code = 7
	CodeAdminPermissionNotFound       Code = 8
	CodeAdminPermissionAlreadyGranted Code = 9
	CodeInvalidIDFormat               Code = 10
	CodeInvalidAdminIDFormat          Code = 11
	CodeInvalidSessionID              Code = 12
	CodeNotAuthorized                 Code = 13
	CodeAdminPermissionAlreadyRevoked Code = 14
	CodeInvalidPassword               Code = 15
	CodeInvalidOldPasswordFormat      Code = 16
	CodeInvalidNewPasswordFormat      Code = 17
	CodeInvalidCodeFormat             Code = 18
	CodeInvalidNameFormat             Code = 19
	CodeServiceCodeInUse              Code = 20
	CodeServiceNameInUse              Code = 21
)

// Error is a categorized error. The zero Kind/Code pair means an internal
// failure whose detail stays server-side.
type Error struct {
	Kind  Kind
	Code  Code
	cause error
}

// New creates a categorized error with no underlying cause.
func New(kind Kind, code Code) *Error {
	return &Error{Kind: kind, Code: code}
}

// Wrap attaches the unknown category to an arbitrary error. Already
// categorized errors pass through unchanged so kinds assigned close to the
// failure survive intermediate layers.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: Unknown, Code: CodeUnknown, cause: err}
}

// From extracts the categorized error, treating anything uncategorized as
// unknown. Safe to call with nil.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err)
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Kind, e.Code, e.cause)
	}
	return fmt.Sprintf("%s (code %d)", e.Kind, e.Code)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}
