// Package validation runs the startup checks shown to the operator before a
// batch begins: configuration presence, credential discovery, and output
// directory writability, with colored progress output.
package validation

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"copygen/core"
)

// CheckResult is the outcome of a single configuration check.
type CheckResult struct {
	Valid   bool
	Warning bool
	Message string
	Error   error
}

// ConfigChecker performs the individual startup checks.
type ConfigChecker struct {
	envPath   string
	outputDir string
}

// NewConfigChecker creates a checker with default paths.
func NewConfigChecker() *ConfigChecker {
	return &ConfigChecker{
		envPath:   ".env",
		outputDir: core.GetEnvOrDefault("OUTPUT_DIR", "./output"),
	}
}

// WithEnvPath sets a custom .env location.
func (c *ConfigChecker) WithEnvPath(path string) *ConfigChecker {
	c.envPath = path
	return c
}

// WithOutputDir sets the output directory to probe.
func (c *ConfigChecker) WithOutputDir(dir string) *ConfigChecker {
	c.outputDir = dir
	return c
}

// CheckEnvFile reports whether the .env file exists. Missing is a warning,
// not a failure: configuration may come from the process environment.
func (c *ConfigChecker) CheckEnvFile() CheckResult {
	info, err := os.Stat(c.envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Valid:   true,
				Warning: true,
				Message: fmt.Sprintf("%s not found, relying on process environment", c.envPath),
			}
		}
		return CheckResult{Valid: false, Message: "cannot stat env file", Error: err}
	}
	if info.IsDir() {
		return CheckResult{
			Valid:   false,
			Message: fmt.Sprintf("%s is a directory", c.envPath),
			Error:   fmt.Errorf("env path %s is a directory", c.envPath),
		}
	}

	return CheckResult{Valid: true, Message: fmt.Sprintf("found %s", c.envPath)}
}

// CheckFilesAPIURL verifies FILES_API_URL is set and parses as an http(s) URL.
func (c *ConfigChecker) CheckFilesAPIURL() CheckResult {
	raw := os.Getenv("FILES_API_URL")
	if raw == "" {
		err := core.ErrMissingConfig("FILES_API_URL")
		return CheckResult{Valid: false, Message: "FILES_API_URL is not set", Error: err}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return CheckResult{Valid: false, Message: "FILES_API_URL does not parse", Error: core.ErrInvalidAPIURL(raw, err.Error())}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return CheckResult{Valid: false, Message: "FILES_API_URL scheme must be http or https", Error: core.ErrInvalidAPIURL(raw, "scheme must be http or https")}
	}

	return CheckResult{Valid: true, Message: parsed.Host}
}

// CheckCredentials counts environment variables under the credential prefix.
func (c *ConfigChecker) CheckCredentials() CheckResult {
	count := 0
	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if strings.HasPrefix(name, core.CredentialEnvPrefix) && strings.TrimSpace(value) != "" {
			count++
		}
	}

	if count == 0 {
		err := core.ErrNoCredentials(core.CredentialEnvPrefix)
		return CheckResult{Valid: false, Message: "no generation credentials found", Error: err}
	}

	plural := "credentials"
	if count == 1 {
		plural = "credential"
	}
	return CheckResult{Valid: true, Message: fmt.Sprintf("%d %s configured", count, plural)}
}

// CheckOutputDir verifies the output directory exists (or can be created) and
// is writable, by writing and removing a probe file.
func (c *ConfigChecker) CheckOutputDir() CheckResult {
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return CheckResult{Valid: false, Message: "cannot create output directory", Error: err}
	}

	probe := filepath.Join(c.outputDir, ".write-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return CheckResult{Valid: false, Message: "output directory is not writable", Error: err}
	}
	os.Remove(probe)

	return CheckResult{Valid: true, Message: c.outputDir}
}
