package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{"valid_simple", "user@example.com", true},
		{"valid_subdomain", "user@mail.example.com", true},
		{"valid_plus", "user+tag@example.com", true},
		{"valid_dash", "user-name@example.com", true},
		{"valid_dot", "user.name@example.com", true},
		{"valid_numbers", "user123@example456.com", true},
		{"invalid_no_at", "userexample.com", false},
		{"invalid_no_domain", "user@", false},
		{"invalid_no_user", "@example.com", false},
		{"invalid_double_at", "user@@example.com", false},
		{"invalid_spaces", "user @example.com", false},
		{"invalid_no_tld", "user@example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidEmail(tt.email)
			assert.Equal(t, tt.valid, result, "Email: %s", tt.email)
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{"valid_plain", "5551234567", true},
		{"valid_plus", "+15551234567", true},
		{"valid_dashes", "555-123-4567", true},
		{"valid_parens", "1 (555) 123-4567", true},
		{"invalid_letters", "555-CALL-NOW", false},
		{"invalid_too_short", "12345", false},
		{"invalid_empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidPhone(tt.phone)
			assert.Equal(t, tt.valid, result, "Phone: %s", tt.phone)
		})
	}
}

func TestIsValidUUID(t *testing.T) {
	tests := []struct {
		name  string
		uuid  string
		valid bool
	}{
		{"valid_uuid", "550e8400-e29b-41d4-a716-446655440000", true},
		{"valid_uppercase", "550E8400-E29B-41D4-A716-446655440000", true},
		{"invalid_short", "550e8400-e29b-41d4-a716", false},
		{"invalid_no_dashes", "550e8400e29b41d4a716446655440000", false},
		{"invalid_empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidUUID(tt.uuid)
			assert.Equal(t, tt.valid, result, "UUID: %s", tt.uuid)
		})
	}
}

func TestValidateMethodValue(t *testing.T) {
	tests := []struct {
		name       string
		methodType string
		value      string
		valid      bool
	}{
		{"valid_email", "email", "a@example.com", true},
		{"invalid_email", "email", "not-an-email", false},
		{"valid_phone", "phone", "+15551234567", true},
		{"invalid_phone", "phone", "words", false},
		{"valid_linkedin", "linkedin", "linkedin.com/in/someone", true},
		{"empty_linkedin", "linkedin", "  ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := ValidateMethodValue(tt.methodType, tt.value)
			assert.Equal(t, tt.valid, ok, "value: %s (%s)", tt.value, msg)
		})
	}
}

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "Passw0rd", true},
		{"too_short", "Pw1", false},
		{"no_upper", "passw0rd", false},
		{"no_lower", "PASSW0RD", false},
		{"no_number", "Password", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := IsValidPassword(tt.password)
			assert.Equal(t, tt.valid, ok, msg)
		})
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("hel\x00lo"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "tab\there", SanitizeString("tab\there"))
	assert.Equal(t, "clean", SanitizeString("cle\x07an"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abcdef", 3))
	assert.Equal(t, "abc", TruncateString("abc", 10))
}
