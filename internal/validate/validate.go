// Package validate checks request fields against a declared schema. Each
// failing field maps to a stable INVALID_*_FORMAT error code derived from
// the field name.
package validate

import (
	"regexp"
	"sort"

	"github.com/opsgate/opsgate/internal/apperr"
)

// Field checks one value against its expected shape.
type Field func(value any) bool

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s.]+(\.[^@\s.]+)+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,16}$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z0-9#?!@$%^&*-]{8,32}$`)
	letterPattern   = regexp.MustCompile(`[A-Za-z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	codePattern     = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)
)

// EmailField accepts a syntactically valid email address.
func EmailField(value any) bool {
	s, ok := value.(string)
	return ok && emailPattern.MatchString(s)
}

// UsernameField accepts a 2-16 character username containing at least two
// letters, or a valid email address (the login field is overloaded).
func UsernameField(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	if usernamePattern.MatchString(s) && len(letterPattern.FindAllString(s, 2)) >= 2 {
		return true
	}
	return EmailField(s)
}

// PasswordField accepts 8-32 characters with at least one letter and one digit.
func PasswordField(value any) bool {
	s, ok := value.(string)
	return ok &&
		passwordPattern.MatchString(s) &&
		letterPattern.MatchString(s) &&
		digitPattern.MatchString(s)
}

// NotEmptyStringField accepts any non-empty string.
func NotEmptyStringField(value any) bool {
	s, ok := value.(string)
	return ok && s != ""
}

// IntegerField accepts integral numbers: Go ints, or JSON numbers decoded as
// float64 with no fractional part.
func IntegerField(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == float64(int64(v))
	default:
		return false
	}
}

// CodeField accepts a lowercase identifier safe for use in a table name:
// 2-32 characters, leading letter, then letters, digits or underscores.
func CodeField(value any) bool {
	s, ok := value.(string)
	return ok && codePattern.MatchString(s)
}

// formatCodes maps field names to their INVALID_*_FORMAT error codes.
var formatCodes = map[string]apperr.Code{
	"email":       apperr.CodeInvalidEmailFormat,
	"username":    apperr.CodeInvalidUsernameFormat,
	"password":    apperr.CodeInvalidPasswordFormat,
	"id":          apperr.CodeInvalidIDFormat,
	"adminId":     apperr.CodeInvalidAdminIDFormat,
	"oldPassword": apperr.CodeInvalidOldPasswordFormat,
	"newPassword": apperr.CodeInvalidNewPasswordFormat,
	"code":        apperr.CodeInvalidCodeFormat,
	"name":        apperr.CodeInvalidNameFormat,
}

// FormatCode returns the error code for a failed field, falling back to
// CodeUnknown for fields without a registered code.
func FormatCode(field string) apperr.Code {
	if code, ok := formatCodes[field]; ok {
		return code
	}
	return apperr.CodeUnknown
}

// Validate checks values against the schema and returns one InvalidFormat
// error per failing field (missing fields fail their check). Fields are
// checked in sorted name order so multi-error responses are stable.
func Validate(values map[string]any, schema map[string]Field) []*apperr.Error {
	fields := make([]string, 0, len(schema))
	for field := range schema {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var errs []*apperr.Error
	for _, field := range fields {
		if !schema[field](values[field]) {
			errs = append(errs, apperr.New(apperr.InvalidFormat, FormatCode(field)))
		}
	}
	return errs
}
