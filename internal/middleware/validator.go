package middleware

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Input validation and sanitization utilities

// MaxUserInputLen bounds the user_input form field in bytes.
const MaxUserInputLen = 64 << 10

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateUserInput rejects oversized or non-UTF-8 text.
func ValidateUserInput(input string) error {
	if len(input) > MaxUserInputLen {
		return fmt.Errorf("user_input exceeds %d bytes", MaxUserInputLen)
	}
	if !utf8.ValidString(input) {
		return fmt.Errorf("user_input is not valid UTF-8")
	}
	return nil
}

// ParseBool reads the truthy form values the browser extension sends.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// ValidateModel checks a model identifier supplied by the client.
func ValidateModel(model string) error {
	if model == "" {
		return nil // Optional field
	}
	if len(model) > 128 {
		return fmt.Errorf("model name too long")
	}
	for _, r := range model {
		if r <= ' ' || r == '?' || r == '#' || r == '\\' {
			return fmt.Errorf("invalid characters in model name")
		}
	}
	if strings.Contains(model, "..") {
		return fmt.Errorf("invalid model name")
	}
	return nil
}
