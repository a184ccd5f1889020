package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeField_Credentials(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "password field",
			key:      "password",
			value:    "mysecretpassword123",
			expected: "myse***********d123",
		},
		{
			name:     "api_key field",
			key:      "api_key",
			value:    "pms-1234567890abcdefghij",
			expected: "pms-****************ghij",
		},
		{
			name:     "gateway token field",
			key:      "gateway_token",
			value:    "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9",
			expected: "eyJh****************************VCJ9",
		},
		{
			name:     "authorization header",
			key:      "Authorization",
			value:    "Bearer token123456",
			expected: "Bear**********3456",
		},
		{
			name:     "short secret",
			key:      "secret",
			value:    "abc",
			expected: "a*c",
		},
		{
			name:     "very short secret",
			key:      "pwd",
			value:    "ab",
			expected: "**",
		},
		{
			name:     "empty value",
			key:      "password",
			value:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeField(tt.key, tt.value)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeField_Phone(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "e164 phone",
			key:      "phone",
			value:    "+14155550123",
			expected: "+1********23",
		},
		{
			name:     "recipient field",
			key:      "recipient",
			value:    "+14155550123",
			expected: "+1********23",
		},
		{
			name:     "guest_phone field",
			key:      "guest_phone",
			value:    "4155550123",
			expected: "********23",
		},
		{
			name:     "short phone",
			key:      "phone",
			value:    "123",
			expected: "***",
		},
		{
			name:     "empty phone",
			key:      "phone",
			value:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeField(tt.key, tt.value)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeField_Email(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "email field",
			key:      "email",
			value:    "guest@example.com",
			expected: "gue***@example.com",
		},
		{
			name:     "guest_email field",
			key:      "guest_email",
			value:    "john.doe@company.org",
			expected: "joh***@company.org",
		},
		{
			name:     "short email",
			key:      "email",
			value:    "ab@test.com",
			expected: "a*@test.com",
		},
		{
			name:     "invalid email no at",
			key:      "email",
			value:    "notanemail",
			expected: "**********",
		},
		{
			name:     "empty email",
			key:      "email",
			value:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeField(tt.key, tt.value)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeField_NonSensitive(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "reservation id",
			key:      "reservation_id",
			value:    "RES-12345",
			expected: "RES-12345",
		},
		{
			name:     "guest name",
			key:      "guest_name",
			value:    "John Doe",
			expected: "John Doe",
		},
		{
			name:     "message content",
			key:      "content",
			value:    "Your room is ready",
			expected: "Your room is ready",
		},
		{
			name:     "breaker name",
			key:      "breaker",
			value:    "pms.availability",
			expected: "pms.availability",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeField(tt.key, tt.value)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeField_CaseInsensitive(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"PASSWORD uppercase", "PASSWORD", "secret123"},
		{"Password mixed", "Password", "secret123"},
		{"API_KEY uppercase", "API_KEY", "key123456"},
		{"Token mixed", "Token", "token9876"},
		{"PHONE uppercase", "PHONE", "+14155550123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeField(tt.key, tt.value)
			assert.NotEqual(t, tt.value, result)
			assert.Contains(t, result, "*")
		})
	}
}

func TestSanitizeToken_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "8 char string boundary",
			value:    "12345678",
			expected: "1******8",
		},
		{
			name:     "9 char string",
			value:    "123456789",
			expected: "1234*6789",
		},
		{
			name:     "single char",
			value:    "a",
			expected: "*",
		},
		{
			name:     "three chars",
			value:    "abc",
			expected: "a*c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeToken(tt.value)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizePhone_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "plus prefix kept",
			value:    "+447911123456",
			expected: "+4*********56",
		},
		{
			name:     "no plus prefix",
			value:    "5550123",
			expected: "*****23",
		},
		{
			name:     "four digits masked fully",
			value:    "1234",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizePhone(tt.value)
			assert.Equal(t, tt.expected, result)
		})
	}
}
