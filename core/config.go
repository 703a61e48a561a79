// Package core holds configuration, shared errors, and small cross-cutting
// helpers used by the batch runner and its collaborators.
package core

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CredentialEnvPrefix is the environment variable name prefix scanned for
// generation API credentials (e.g. GEN_API_KEY_1, GEN_API_KEY_2).
const CredentialEnvPrefix = "GEN_API_KEY"

// MailConfig holds SMTP notifier settings. An empty Host disables sending.
//
// Values may come from the environment (SMTP_* variables) or from an optional
// YAML file pointed to by MAIL_CONFIG_FILE; environment variables win.
type MailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	StartTLS bool     `yaml:"starttls"`
}

// Config holds all configuration values for a batch run.
type Config struct {
	// Files API
	FilesAPIURL string
	BatchSize   int

	// Generation
	GenModel       string
	GenBaseURL     string
	MaxAttempts    int
	RequestDelay   time.Duration // pacing delay paid before every generation attempt
	RetryBaseDelay time.Duration // linear backoff base between failed attempts
	AITimeout      time.Duration

	// Processing
	MaxConcurrent int
	OutputDir     string
	HTTPTimeout   time.Duration

	// Outcome journal (empty path disables)
	JournalPath string

	// Reporting
	Mail            MailConfig
	SendEmptyReport bool

	AllowSelfSignedCerts bool
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. Only the files API base URL is required here; generation
// credentials are validated separately when the key ring is built.
func LoadConfig() (*Config, error) {
	filesAPIURL := os.Getenv("FILES_API_URL")
	if filesAPIURL == "" {
		return nil, ErrMissingConfig("FILES_API_URL")
	}
	if parsed, err := url.Parse(filesAPIURL); err != nil {
		return nil, ErrInvalidAPIURL(filesAPIURL, err.Error())
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, ErrInvalidAPIURL(filesAPIURL, "scheme must be http or https")
	}

	mail, err := loadMailConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		FilesAPIURL: filesAPIURL,
		BatchSize:   ParseIntEnv("BATCH_SIZE", 20),

		GenModel:   GetEnvOrDefault("GEN_MODEL", "gpt-4o-mini"),
		GenBaseURL: os.Getenv("GEN_BASE_URL"),
		// 5 attempts with rotation handles transient upstream trouble
		// without hammering a rate-limited endpoint
		MaxAttempts:    ParseIntEnv("MAX_ATTEMPTS", 5),
		RequestDelay:   ParseMillisEnv("REQUEST_DELAY_MS", 1000),
		RetryBaseDelay: ParseMillisEnv("RETRY_BASE_DELAY_MS", 2000),
		AITimeout:      ParseDurationEnv("AI_TIMEOUT", 60),

		MaxConcurrent: ParseIntEnv("MAX_CONCURRENT", 3),
		OutputDir:     GetEnvOrDefault("OUTPUT_DIR", "./output"),
		HTTPTimeout:   ParseDurationEnv("HTTP_TIMEOUT", 30),

		JournalPath: os.Getenv("JOURNAL_DB"),

		Mail:            mail,
		SendEmptyReport: ParseBoolEnv("SEND_EMPTY_REPORT", false),

		AllowSelfSignedCerts: ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),
	}, nil
}

// loadMailConfig assembles the SMTP settings. A YAML file (MAIL_CONFIG_FILE)
// provides the base values when present; SMTP_* environment variables
// override individual fields.
func loadMailConfig() (MailConfig, error) {
	cfg := MailConfig{
		Port:     587,
		StartTLS: true,
	}

	if path := os.Getenv("MAIL_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return MailConfig{}, ErrInvalidMailConfig(path, err.Error())
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return MailConfig{}, ErrInvalidMailConfig(path, err.Error())
		}
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Host = v
	}
	if v := ParseIntEnv("SMTP_PORT", 0); v != 0 {
		cfg.Port = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.From = v
	}
	if v := ParseListEnv("SMTP_TO"); v != nil {
		cfg.To = v
	}
	if v := os.Getenv("SMTP_STARTTLS"); v != "" {
		cfg.StartTLS = ParseBoolEnv("SMTP_STARTTLS", true)
	}

	return cfg, nil
}

// NewHTTPClient returns an HTTP client configured with the given timeout and
// TLS settings based on AllowSelfSignedCerts. All requests to external APIs
// should go through a client from this function so TLS configuration is
// respected everywhere.
func NewHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
