package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"copygen/filesapi"
	"copygen/queue"
	"copygen/slug"
)

// processFile handles one pending item end to end: fetch its prompt, generate
// text, write the output file, and report the status change upstream.
//
// Every failure becomes a failure Outcome carrying the step that broke; no
// partial output is persisted and no status update is sent for a failed item.
func (r *Runner) processFile(ctx context.Context, record filesapi.FileRecord) queue.Outcome {
	logger := r.logger.With(
		zap.String("run_id", r.runID),
		zap.String("file_id", record.ID),
		zap.String("original", record.OriginalFilename),
	)

	prompt, err := r.files.FetchPrompt(ctx, record)
	if err != nil {
		logger.Warn("Prompt fetch failed", zap.Error(err))
		return queue.Failed(record.OriginalFilename, fmt.Errorf("fetch prompt: %w", err))
	}

	text, err := r.gen.Generate(ctx, prompt, r.cfg.GenModel)
	if err != nil {
		logger.Warn("Generation failed", zap.Error(err))
		return queue.Failed(record.OriginalFilename, fmt.Errorf("generate: %w", err))
	}

	name := slug.Make(record.OriginalFilename)
	path := filepath.Join(r.cfg.OutputDir, name)

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		logger.Warn("Output write failed", zap.String("path", path), zap.Error(err))
		return queue.Failed(record.OriginalFilename, fmt.Errorf("write output: %w", err))
	}

	if err := r.files.MarkCopied(ctx, record.ID); err != nil {
		logger.Warn("Status update failed", zap.Error(err))
		return queue.Failed(record.OriginalFilename, fmt.Errorf("update status: %w", err))
	}

	logger.Info("Item processed", zap.String("output", name))
	return queue.Succeeded(name)
}
