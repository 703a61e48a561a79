package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"copygen/core"
	"copygen/core/validation"
	"copygen/filesapi"
	"copygen/llm"
	"copygen/logging"
	"copygen/report"
	"copygen/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, "copygen.log")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Printf("Failed to sync logger: %v\n", syncErr)
		}
	}()

	// Run startup checks before heavy operations
	if exitCode := runStartupValidation(logger); exitCode != core.ExitCodeSuccess {
		return exitCode
	}

	// Load configuration (safe to call after validation passes)
	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return core.ExitCodeError
	}

	logger.Info("Configuration loaded",
		zap.String("files_api", config.FilesAPIURL),
		zap.Int("batch_size", config.BatchSize),
		zap.String("model", config.GenModel),
		zap.Int("max_attempts", config.MaxAttempts),
		zap.Duration("request_delay", config.RequestDelay),
		zap.Duration("retry_base_delay", config.RetryBaseDelay),
		zap.Int("max_concurrent", config.MaxConcurrent),
		zap.String("output_dir", config.OutputDir),
		zap.Bool("journal_enabled", config.JournalPath != ""),
		zap.Bool("mail_configured", config.Mail.Host != ""),
		zap.Bool("dev_mode", isDevelopment),
	)

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		logger.Error("Failed to create output directory", zap.Error(err))
		return core.ExitCodeError
	}

	ring, err := llm.NewKeyRingFromEnv()
	if err != nil {
		logger.Error("Failed to build credential ring", zap.Error(err))
		return core.ExitCodeError
	}
	logger.Info("Credential ring ready", zap.Int("keys", ring.Len()))

	httpClient := core.NewHTTPClient(config, config.HTTPTimeout)
	files := filesapi.NewClient(config.FilesAPIURL, httpClient, logger)
	generator := llm.NewClient(config, ring, logger)
	mailer := report.NewMailer(config.Mail, logger)

	var journal *store.Journal
	if config.JournalPath != "" {
		journal, err = store.Open(config.JournalPath)
		if err != nil {
			logger.Error("Failed to open outcome journal", zap.Error(err))
			return core.ExitCodeError
		}
		defer journal.Close()
	}

	// Interrupt aborts the batch; workers stop claiming new items
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(config, files, generator, mailer, journal, logger)

	if err := runner.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Batch interrupted")
			return core.ExitCodeSIGINT
		}
		logger.Error("Batch failed", zap.Error(err))
		return core.ExitCodeError
	}

	logger.Info("Batch complete")
	return core.ExitCodeSuccess
}

// runStartupValidation runs the configuration checks shown to the operator.
//
// Returns the appropriate exit code:
//   - ExitCodeSuccess (0) if all checks pass
//   - ExitCodeError (1) if any check fails
func runStartupValidation(logger *logging.Logger) int {
	logger.Info("Starting startup validation...")

	suite := validation.NewSuite().
		WithOutputDir(core.GetEnvOrDefault("OUTPUT_DIR", "./output")).
		WithShowProgress(true)

	result := suite.Validate()

	if !result.Success {
		logger.Error("Startup validation failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Duration("duration", result.Duration),
		)

		for _, step := range result.Steps {
			if step.Status == validation.StepFailed {
				logger.Error("Validation step failed",
					zap.String("step", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Error),
				)
			}
		}

		return core.ExitCodeError
	}

	logger.Info("Startup validation passed",
		zap.Int("checks_passed", result.PassedSteps),
		zap.Duration("duration", result.Duration),
	)

	return core.ExitCodeSuccess
}
