package validation

import (
	"testing"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@sub.example.co", true},
		{"x@y.z", true},

		// Invalid cases
		{"alice", false},
		{"alice@", false},
		{"@example.com", false},
		{"alice@example", false}, // No TLD dot
		{"alice @example.com", false},
		{"alice@@example.com", false},
		{"", false},
	}

	for _, tc := range tests {
		result := IsValidEmail(tc.addr)
		if result != tc.valid {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tc.addr, result, tc.valid)
		}
	}
}

func TestIsValidChallengeID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"chal_0123456789abcdef01234567", true},

		// Invalid cases
		{"chal_0123456789abcdef0123456", false},   // Too short
		{"chal_0123456789abcdef012345678", false}, // Too long
		{"chal_0123456789ABCDEF01234567", false},  // Uppercase hex
		{"sess_0123456789abcdef01234567", false},  // Wrong prefix
		{"chal_", false},
		{"", false},
	}

	for _, tc := range tests {
		result := IsValidChallengeID(tc.id)
		if result != tc.valid {
			t.Errorf("IsValidChallengeID(%q) = %v, want %v", tc.id, result, tc.valid)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"hello", 10, "hello"},
		{"  hello  ", 10, "hello"},
		{"hello world", 5, "hello"},
		{"hello\x00world", 20, "helloworld"},
	}

	for _, tc := range tests {
		result := SanitizeString(tc.input, tc.maxLen)
		if result != tc.expected {
			t.Errorf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.maxLen, result, tc.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	// Test valid input
	errors := Validate(
		Required("email", "alice@example.com"),
		ValidEmail("email", "alice@example.com"),
	)
	if len(errors) != 0 {
		t.Errorf("Expected no errors, got %v", errors)
	}

	// Test invalid input
	errors = Validate(
		Required("email", ""),
		ValidEmail("other", "invalid"),
	)
	if len(errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errors))
	}
}

func TestValidEmbedding(t *testing.T) {
	small := make([]float64, 128)
	if err := ValidEmbedding("embedding", small)(); err != nil {
		t.Errorf("Expected 128-dim embedding to pass, got %v", err)
	}

	huge := make([]float64, MaxEmbeddingDims+1)
	if err := ValidEmbedding("embedding", huge)(); err == nil {
		t.Error("Expected oversized embedding to fail")
	}
}

func TestMaxLength(t *testing.T) {
	if err := MaxLength("name", "short", 10)(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := MaxLength("name", "this is far too long", 5)(); err == nil {
		t.Error("Expected error for over-length value")
	}
}
