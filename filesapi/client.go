package filesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"copygen/logging"
)

// maxPromptBytes caps how much of a prompt payload is read.
const maxPromptBytes = 1 << 20

// Client talks to the files service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// NewClient builds a files service client. baseURL is the service root
// without the /api/files path.
func NewClient(baseURL string, httpClient *http.Client, logger *logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.Named("filesapi"),
	}
}

// ListFiles fetches the full file listing.
func (c *Client) ListFiles(ctx context.Context) ([]FileRecord, error) {
	url := c.baseURL + "/api/files"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build files request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("list files: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var records []FileRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode files response: %w", err)
	}

	return records, nil
}

// PendingFiles returns up to batchSize records whose status is Pending,
// preserving listing order.
func (c *Client) PendingFiles(ctx context.Context, batchSize int) ([]FileRecord, error) {
	records, err := c.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]FileRecord, 0, batchSize)
	for _, r := range records {
		if r.Status != StatusPending {
			continue
		}
		pending = append(pending, r)
		if len(pending) == batchSize {
			break
		}
	}

	c.logger.Info("fetched pending files",
		zap.Int("total", len(records)),
		zap.Int("pending", len(pending)),
		zap.Int("batch_size", batchSize),
	)

	return pending, nil
}

// FetchPrompt downloads a record's prompt payload from its secure URL and
// returns it as text.
//
// Payloads are usually JSON: a JSON string yields its value, any other JSON
// document is re-serialized to compact text. A body that is not valid JSON is
// returned as-is.
func (c *Client) FetchPrompt(ctx context.Context, record FileRecord) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, record.SecureURL, nil)
	if err != nil {
		return "", fmt.Errorf("build prompt request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch prompt: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPromptBytes))
	if err != nil {
		return "", fmt.Errorf("read prompt body: %w", err)
	}

	return promptFromPayload(body), nil
}

// promptFromPayload converts a raw payload body into prompt text.
func promptFromPayload(body []byte) string {
	var asString string
	if err := json.Unmarshal(body, &asString); err == nil {
		return asString
	}

	var asAny interface{}
	if err := json.Unmarshal(body, &asAny); err == nil {
		serialized, err := json.Marshal(asAny)
		if err == nil {
			return string(serialized)
		}
	}

	return string(body)
}

// MarkCopied reports a record as processed: PUT {base}/api/files/{id} with
// the AlreadyCopy status and the completion time in epoch milliseconds.
func (c *Client) MarkCopied(ctx context.Context, id string) error {
	update := StatusUpdate{
		Status:             StatusAlreadyCopy,
		CompletedTimestamp: time.Now().UnixMilli(),
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}

	url := fmt.Sprintf("%s/api/files/%s", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("update status: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.logger.Debug("marked file copied", zap.String("file_id", id))
	return nil
}
