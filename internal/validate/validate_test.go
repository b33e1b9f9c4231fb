package validate

import (
	"testing"

	"github.com/opsgate/opsgate/internal/apperr"
)

// TestEmailField exercises the email shape check.
func TestEmailField(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{"a@x.com", true},
		{"first.last@sub.example.org", true},
		{"no-at-sign", false},
		{"a@x", false},
		{"@x.com", false},
		{"", false},
		{42, false},
	}

	for _, tt := range tests {
		if got := EmailField(tt.value); got != tt.want {
			t.Errorf("EmailField(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestUsernameField covers the overloaded username-or-email login field.
func TestUsernameField(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{"alice", true},
		{"ab", true},
		{"a1", false},                // only one letter
		{"a", false},                 // too short
		{"toolongusername-x", false}, // 17 chars
		{"a@x.com", true},            // email accepted
		{nil, false},
	}

	for _, tt := range tests {
		if got := UsernameField(tt.value); got != tt.want {
			t.Errorf("UsernameField(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestPasswordField covers the length and composition rules.
func TestPasswordField(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{"Passw0rd1", true},
		{"abc12345", true},
		{"12345678", false}, // no letter
		{"abcdefgh", false}, // no digit
		{"a1!", false},      // too short
		{"white space1", false},
	}

	for _, tt := range tests {
		if got := PasswordField(tt.value); got != tt.want {
			t.Errorf("PasswordField(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestIntegerField covers Go ints and JSON float64 decoding.
func TestIntegerField(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{int64(5), true},
		{5, true},
		{float64(5), true},
		{5.5, false},
		{"5", false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IntegerField(tt.value); got != tt.want {
			t.Errorf("IntegerField(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestCodeField covers the table-name-safe service code shape.
func TestCodeField(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{"billing", true},
		{"svc_2", true},
		{"Billing", false},
		{"2svc", false},
		{"a", false},
		{"drop table", false},
	}

	for _, tt := range tests {
		if got := CodeField(tt.value); got != tt.want {
			t.Errorf("CodeField(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestValidateCollectsAllFailures verifies one code per failing field, in
// stable field-name order.
func TestValidateCollectsAllFailures(t *testing.T) {
	errs := Validate(map[string]any{
		"email":    "bad",
		"username": "x",
		"password": "Passw0rd1",
	}, map[string]Field{
		"email":    EmailField,
		"username": UsernameField,
		"password": PasswordField,
	})

	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if errs[0].Code != apperr.CodeInvalidEmailFormat {
		t.Errorf("first error code = %d, want %d", errs[0].Code, apperr.CodeInvalidEmailFormat)
	}
	if errs[1].Code != apperr.CodeInvalidUsernameFormat {
		t.Errorf("second error code = %d, want %d", errs[1].Code, apperr.CodeInvalidUsernameFormat)
	}
	for _, e := range errs {
		if e.Kind != apperr.InvalidFormat {
			t.Errorf("error kind = %v, want InvalidFormat", e.Kind)
		}
	}
}

// TestValidateMissingField verifies absent fields fail their check.
func TestValidateMissingField(t *testing.T) {
	errs := Validate(map[string]any{}, map[string]Field{
		"oldPassword": NotEmptyStringField,
	})

	if len(errs) != 1 || errs[0].Code != apperr.CodeInvalidOldPasswordFormat {
		t.Errorf("got %v, want single INVALID_OLD_PASSWORD_FORMAT error", errs)
	}
}

// TestValidateSuccess verifies a fully valid payload yields no errors.
func TestValidateSuccess(t *testing.T) {
	errs := Validate(map[string]any{
		"email":    "a@x.com",
		"username": "alice",
		"password": "Passw0rd1",
	}, map[string]Field{
		"email":    EmailField,
		"username": UsernameField,
		"password": PasswordField,
	})

	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}
