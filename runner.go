package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"copygen/core"
	"copygen/filesapi"
	"copygen/logging"
	"copygen/queue"
	"copygen/report"
	"copygen/store"
)

// FilesService is the slice of the files API client the runner needs.
// Satisfied by *filesapi.Client.
type FilesService interface {
	PendingFiles(ctx context.Context, batchSize int) ([]filesapi.FileRecord, error)
	FetchPrompt(ctx context.Context, record filesapi.FileRecord) (string, error)
	MarkCopied(ctx context.Context, id string) error
}

// Generator produces text for a prompt. Satisfied by *llm.Client.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Notifier delivers the batch report. Satisfied by *report.Mailer.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}

// Runner drives one batch: fetch pending items, process them concurrently,
// journal the outcomes, and send the summary report.
type Runner struct {
	cfg     *core.Config
	files   FilesService
	gen     Generator
	mailer  Notifier
	journal *store.Journal // nil when the journal is disabled
	logger  *logging.Logger
	runID   string
}

// NewRunner wires a Runner. journal may be nil.
func NewRunner(cfg *core.Config, files FilesService, gen Generator, mailer Notifier, journal *store.Journal, logger *logging.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		files:   files,
		gen:     gen,
		mailer:  mailer,
		journal: journal,
		logger:  logger.Named("runner"),
		runID:   uuid.New().String()[:8],
	}
}

// Run executes the batch. The returned error is fatal (failed batch fetch or
// cancellation); per-item failures are recorded in the summary, never
// returned.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.logger.With(zap.String("run_id", r.runID))

	pending, err := r.files.PendingFiles(ctx, r.cfg.BatchSize)
	if err != nil {
		fetchErr := fmt.Errorf("fetch pending batch: %w", err)
		r.notifyFailure(logger, fetchErr)
		return fetchErr
	}

	if len(pending) == 0 {
		logger.Info("No pending files")
		if r.cfg.SendEmptyReport {
			r.sendReport(logger, queue.Summary{})
		}
		return nil
	}

	logger.Info("Batch started",
		zap.Int("items", len(pending)),
		zap.Int("workers", r.cfg.MaxConcurrent),
	)

	if r.journal != nil {
		if err := r.journal.StartRun(ctx, r.runID); err != nil {
			logger.Warn("Failed to journal run start", zap.Error(err))
		}
	}

	outcomes := queue.Run(ctx, r.cfg.MaxConcurrent, pending, r.processFile)

	if err := ctx.Err(); err != nil {
		return err
	}

	summary := queue.Summarize(outcomes)
	logger.Info("Batch processed",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)

	if r.journal != nil {
		for i, outcome := range outcomes {
			if err := r.journal.RecordOutcome(context.Background(), r.runID, pending[i].ID, outcome); err != nil {
				logger.Warn("Failed to journal outcome",
					zap.String("file_id", pending[i].ID),
					zap.Error(err),
				)
			}
		}
		if err := r.journal.FinishRun(context.Background(), r.runID, summary.Succeeded, summary.Failed); err != nil {
			logger.Warn("Failed to journal run finish", zap.Error(err))
		}
	}

	r.sendReport(logger, summary)
	return nil
}

// sendReport builds and emails the batch summary. Send failures are logged
// and swallowed; reporting never affects the batch outcome.
func (r *Runner) sendReport(logger *logging.Logger, summary queue.Summary) {
	stats, err := report.GatherFolderStats(r.cfg.OutputDir)
	if err != nil {
		logger.Warn("Failed to gather output folder stats", zap.Error(err))
	}

	totalProcessed := int64(-1)
	if r.journal != nil {
		total, err := r.journal.TotalProcessed(context.Background())
		if err != nil {
			logger.Warn("Failed to read all-time processed count", zap.Error(err))
		} else {
			totalProcessed = total
		}
	}

	body := report.BuildSummary(r.runID, summary, stats, totalProcessed)
	subject := fmt.Sprintf("copygen batch %s: %d succeeded, %d failed", r.runID, summary.Succeeded, summary.Failed)

	if err := r.mailer.Send(context.Background(), subject, body); err != nil {
		logger.Warn("Failed to send report email", zap.Error(err))
	}
}

// notifyFailure sends a best-effort email about a fatal batch failure.
func (r *Runner) notifyFailure(logger *logging.Logger, fatalErr error) {
	subject := fmt.Sprintf("copygen batch %s aborted", r.runID)
	body := report.BuildFailureNotice(r.runID, fatalErr)

	if err := r.mailer.Send(context.Background(), subject, body); err != nil {
		logger.Warn("Failed to send failure notification", zap.Error(err))
	}
}
