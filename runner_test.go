package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"copygen/core"
	"copygen/filesapi"
	"copygen/logging"
	"copygen/store"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	return logging.NewLoggerWithCore(zapcore.NewNopCore(), false)
}

// filesServer fakes the files service: a listing, per-file prompt payloads,
// and status PUT recording.
type filesServer struct {
	mu      sync.Mutex
	records []filesapi.FileRecord
	prompts map[string]string
	updates map[string]filesapi.StatusUpdate

	listErr bool
}

func newFilesServer(t *testing.T, count int) (*filesServer, *httptest.Server) {
	t.Helper()
	fs := &filesServer{
		prompts: make(map[string]string),
		updates: make(map[string]filesapi.StatusUpdate),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		defer fs.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/files":
			if fs.listErr {
				http.Error(w, "backend down", http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(fs.records)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/prompt/"):
			id := strings.TrimPrefix(r.URL.Path, "/prompt/")
			prompt, ok := fs.prompts[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(prompt)

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/files/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/files/")
			if _, known := fs.prompts[id]; !known {
				http.NotFound(w, r)
				return
			}
			var update filesapi.StatusUpdate
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			fs.updates[id] = update
			w.WriteHeader(http.StatusOK)

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("f-%d", i)
		fs.records = append(fs.records, filesapi.FileRecord{
			ID:               id,
			OriginalFilename: fmt.Sprintf("Document %d.docx", i),
			SecureURL:        server.URL + "/prompt/" + id,
			Status:           filesapi.StatusPending,
		})
		fs.prompts[id] = fmt.Sprintf("prompt for document %d", i)
	}

	return fs, server
}

func (fs *filesServer) updateCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.updates)
}

// stubGenerator succeeds unless the prompt matches a failing substring.
type stubGenerator struct {
	calls    atomic.Int64
	failWhen func(prompt string) bool
}

func (g *stubGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	g.calls.Add(1)
	if g.failWhen != nil && g.failWhen(prompt) {
		return "", errors.New("upstream permanently unavailable")
	}
	return "generated for: " + prompt, nil
}

// recordingNotifier captures sent mail.
type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
	err      error
}

func (n *recordingNotifier) Send(_ context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.subjects = append(n.subjects, subject)
	n.bodies = append(n.bodies, body)
	return nil
}

func (n *recordingNotifier) sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subjects)
}

func (n *recordingNotifier) lastBody() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.bodies) == 0 {
		return ""
	}
	return n.bodies[len(n.bodies)-1]
}

func testRunConfig(t *testing.T, baseURL string) *core.Config {
	t.Helper()
	return &core.Config{
		FilesAPIURL:   baseURL,
		BatchSize:     20,
		MaxConcurrent: 3,
		OutputDir:     t.TempDir(),
		HTTPTimeout:   5 * time.Second,
	}
}

func newTestRunner(t *testing.T, cfg *core.Config, server *httptest.Server, gen Generator, notifier Notifier, journal *store.Journal) *Runner {
	t.Helper()
	logger := testLogger(t)
	files := filesapi.NewClient(server.URL, server.Client(), logger)
	return NewRunner(cfg, files, gen, notifier, journal, logger)
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestRunner_FullBatchWithFailures(t *testing.T) {
	fs, server := newFilesServer(t, 20)
	cfg := testRunConfig(t, server.URL)

	// documents 3 and 7 never generate
	gen := &stubGenerator{failWhen: func(prompt string) bool {
		return strings.Contains(prompt, "document 3") || strings.Contains(prompt, "document 7")
	}}
	notifier := &recordingNotifier{}

	runner := newTestRunner(t, cfg, server, gen, notifier, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := countFiles(t, cfg.OutputDir); got != 18 {
		t.Errorf("output files = %d, want 18", got)
	}
	if got := fs.updateCount(); got != 18 {
		t.Errorf("status updates = %d, want 18", got)
	}
	for id, update := range fs.updates {
		if update.Status != filesapi.StatusAlreadyCopy {
			t.Errorf("update[%s].Status = %q, want %q", id, update.Status, filesapi.StatusAlreadyCopy)
		}
	}

	if notifier.sent() != 1 {
		t.Fatalf("emails sent = %d, want 1", notifier.sent())
	}
	body := notifier.lastBody()
	if !strings.Contains(body, "Succeeded: 18") || !strings.Contains(body, "Failed:    2") {
		t.Errorf("report body missing counts:\n%s", body)
	}
	if !strings.Contains(body, "Document 3.docx") || !strings.Contains(body, "permanently unavailable") {
		t.Errorf("report body missing failure detail:\n%s", body)
	}
}

func TestRunner_OutputFilenamesAreSlugs(t *testing.T) {
	fs, server := newFilesServer(t, 1)
	fs.records[0].OriginalFilename = "Café Menu (Final).docx"
	cfg := testRunConfig(t, server.URL)

	runner := newTestRunner(t, cfg, server, &stubGenerator{}, &recordingNotifier{}, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "cafe-menu-final.txt")); err != nil {
		t.Errorf("expected slugged output file: %v", err)
	}
}

func TestRunner_EmptyBatch(t *testing.T) {
	_, server := newFilesServer(t, 0)
	cfg := testRunConfig(t, server.URL)

	gen := &stubGenerator{}
	notifier := &recordingNotifier{}

	runner := newTestRunner(t, cfg, server, gen, notifier, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if gen.calls.Load() != 0 {
		t.Errorf("generation calls = %d, want 0", gen.calls.Load())
	}
	if got := countFiles(t, cfg.OutputDir); got != 0 {
		t.Errorf("output files = %d, want 0", got)
	}
	if notifier.sent() != 0 {
		t.Errorf("emails sent = %d, want 0 (SEND_EMPTY_REPORT off)", notifier.sent())
	}
}

func TestRunner_EmptyBatchWithEmptyReportEnabled(t *testing.T) {
	_, server := newFilesServer(t, 0)
	cfg := testRunConfig(t, server.URL)
	cfg.SendEmptyReport = true

	notifier := &recordingNotifier{}
	runner := newTestRunner(t, cfg, server, &stubGenerator{}, notifier, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if notifier.sent() != 1 {
		t.Fatalf("emails sent = %d, want 1", notifier.sent())
	}
	if !strings.Contains(notifier.lastBody(), "Processed: 0") {
		t.Errorf("empty report should carry zero counts:\n%s", notifier.lastBody())
	}
}

func TestRunner_FatalFetchFailure(t *testing.T) {
	fs, server := newFilesServer(t, 5)
	fs.listErr = true
	cfg := testRunConfig(t, server.URL)

	gen := &stubGenerator{}
	notifier := &recordingNotifier{}

	runner := newTestRunner(t, cfg, server, gen, notifier, nil)
	err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when the batch fetch fails")
	}

	if gen.calls.Load() != 0 {
		t.Errorf("generation calls = %d, want 0", gen.calls.Load())
	}
	if notifier.sent() != 1 {
		t.Fatalf("failure notifications = %d, want 1", notifier.sent())
	}
	if !strings.Contains(notifier.subjects[0], "aborted") {
		t.Errorf("failure subject = %q", notifier.subjects[0])
	}
}

func TestRunner_NotifierFailureDoesNotFailBatch(t *testing.T) {
	_, server := newFilesServer(t, 3)
	cfg := testRunConfig(t, server.URL)

	notifier := &recordingNotifier{err: errors.New("smtp unreachable")}
	runner := newTestRunner(t, cfg, server, &stubGenerator{}, notifier, nil)

	if err := runner.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, notifier failure must be swallowed", err)
	}
	if got := countFiles(t, cfg.OutputDir); got != 3 {
		t.Errorf("output files = %d, want 3", got)
	}
}

func TestRunner_JournalRecordsOutcomes(t *testing.T) {
	_, server := newFilesServer(t, 4)
	cfg := testRunConfig(t, server.URL)

	journal, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	gen := &stubGenerator{failWhen: func(prompt string) bool {
		return strings.Contains(prompt, "document 1")
	}}
	notifier := &recordingNotifier{}

	runner := newTestRunner(t, cfg, server, gen, notifier, journal)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	total, err := journal.TotalProcessed(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("TotalProcessed() = %d, want 3", total)
	}

	if !strings.Contains(notifier.lastBody(), "Total processed to date: 3") {
		t.Errorf("report should include all-time count:\n%s", notifier.lastBody())
	}
}

func TestRunner_StatusUpdateFailureRecordedAsFailure(t *testing.T) {
	fs, server := newFilesServer(t, 1)
	cfg := testRunConfig(t, server.URL)

	// reject the status PUT
	fs.mu.Lock()
	fs.records[0].ID = "missing/id" // path never matches the PUT route
	fs.mu.Unlock()

	notifier := &recordingNotifier{}
	runner := newTestRunner(t, cfg, server, &stubGenerator{}, notifier, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(notifier.lastBody(), "Failed:    1") {
		t.Errorf("status update failure should be a failed outcome:\n%s", notifier.lastBody())
	}
}
