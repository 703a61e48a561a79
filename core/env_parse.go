package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvOrDefault returns the value of an environment variable or a default value.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseIntEnv parses an environment variable as an integer.
// Returns the default value if the variable is not set or cannot be parsed.
func ParseIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ParseBoolEnv parses an environment variable as a boolean.
// Accepts case-insensitive "true", "1", "yes", "on" as true values and
// "false", "0", "no", "off" as false values. Anything else falls back to
// the default.
func ParseBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ParseDurationEnv parses an environment variable as a duration in seconds.
func ParseDurationEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(ParseIntEnv(key, defaultSeconds)) * time.Second
}

// ParseMillisEnv parses an environment variable as a duration in milliseconds.
// Used for the short pacing and backoff delays where whole seconds are too coarse.
func ParseMillisEnv(key string, defaultMillis int) time.Duration {
	return time.Duration(ParseIntEnv(key, defaultMillis)) * time.Millisecond
}

// ParseListEnv parses a comma-separated environment variable into a slice.
// Entries are trimmed of whitespace; empty entries are dropped.
// Returns nil if the variable is not set or contains no usable entries.
func ParseListEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
