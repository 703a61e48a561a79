package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder is the string used to replace sensitive data.
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns contains compiled regex patterns for detecting sensitive
// values inside log strings. Compiled once at package initialization.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),        // OpenAI-style keys
	regexp.MustCompile(`(?i)(AIza[a-zA-Z0-9_-]{35})`),        // Google API keys
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`), // Bearer tokens

	// Generic secret assignments
	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),
}

// sensitiveFieldMarkers are substrings of field names that indicate the value
// must never be logged verbatim.
var sensitiveFieldMarkers = []string{
	"GEN_API_KEY",
	"SMTP_PASSWORD",
	"PASSWORD",
	"SECRET",
	"TOKEN",
	"API_KEY",
	"APIKEY",
	"CREDENTIAL",
}

// RedactSensitiveData scans a string and redacts any detected sensitive data.
// This is a pure function; the original string is returned unchanged when no
// pattern matches.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}

	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// IsSensitiveField returns true if the field name indicates sensitive data.
// Only the name is inspected, not the value.
func IsSensitiveField(fieldName string) bool {
	upperName := strings.ToUpper(fieldName)

	for _, marker := range sensitiveFieldMarkers {
		if strings.Contains(upperName, marker) {
			return true
		}
	}
	return false
}

// RedactField redacts a field value if either the field name marks it as
// sensitive or the value itself matches a known secret pattern.
func RedactField(fieldName, fieldValue string) string {
	if IsSensitiveField(fieldName) {
		return RedactedPlaceholder
	}
	return RedactSensitiveData(fieldValue)
}
