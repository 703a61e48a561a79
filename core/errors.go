package core

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration-related error with an actionable
// instruction for resolving it. Configuration errors are fatal at startup and
// abort the run before any work begins.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeMissingConfig  = "MISSING_CONFIG"
	ErrCodeInvalidAPIURL  = "INVALID_API_URL"
	ErrCodeNoCredentials  = "NO_CREDENTIALS"
	ErrCodeInvalidMailCfg = "INVALID_MAIL_CONFIG"
)

// ErrMissingConfig returns an error for a missing required configuration variable.
func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

// ErrInvalidAPIURL returns an error for a malformed files API base URL.
func ErrInvalidAPIURL(url string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidAPIURL,
		Message: fmt.Sprintf("Invalid FILES_API_URL '%s': %s", url, reason),
		Action:  "Set FILES_API_URL to a valid URL (e.g., https://files.example.com)",
	}
}

// ErrNoCredentials returns an error for an empty generation credential set.
func ErrNoCredentials(prefix string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeNoCredentials,
		Message: fmt.Sprintf("No generation API credentials found under prefix %s", prefix),
		Action:  fmt.Sprintf("Set at least one %s_<n> variable in your .env file", prefix),
	}
}

// ErrInvalidMailConfig returns an error for an unreadable mail configuration file.
func ErrInvalidMailConfig(path string, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidMailCfg,
		Message: fmt.Sprintf("Cannot load mail configuration from %s: %s", path, reason),
		Action:  "Fix the YAML file or unset MAIL_CONFIG_FILE to configure mail via environment",
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so.
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}
