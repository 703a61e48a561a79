package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"copygen/core"
	"copygen/logging"
)

// ErrEmptyResponse marks a completion that returned no usable text. Treated
// like any other attempt failure so the retry policy gets another shot with
// the next key.
var ErrEmptyResponse = errors.New("generation returned empty response")

// ChatCompleter is the slice of the OpenAI-compatible client the generator
// needs. Satisfied by *openai.Client; tests substitute a stub.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// CompleterFactory builds a ChatCompleter bound to one API key. The real
// factory wraps openai.NewClient; tests inject counting stubs.
type CompleterFactory func(apiKey string) ChatCompleter

// NewCompleterFactory returns the production factory. When baseURL is
// non-empty the client targets an OpenAI-compatible endpoint at that URL
// instead of the default.
func NewCompleterFactory(baseURL string) CompleterFactory {
	return func(apiKey string) ChatCompleter {
		if baseURL == "" {
			return openai.NewClient(apiKey)
		}
		config := openai.DefaultConfig(apiKey)
		config.BaseURL = baseURL
		return openai.NewClientWithConfig(config)
	}
}

// Client generates text from prompts against an OpenAI-compatible API,
// rotating credentials between attempts and pacing every request.
type Client struct {
	ring    *KeyRing
	policy  Policy
	pacing  time.Duration
	timeout time.Duration
	model   string
	factory CompleterFactory
	logger  *logging.Logger
}

// NewClient builds a generation client from the run configuration.
func NewClient(cfg *core.Config, ring *KeyRing, logger *logging.Logger) *Client {
	return &Client{
		ring: ring,
		policy: Policy{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     LinearBackoff(cfg.RetryBaseDelay),
		},
		pacing:  cfg.RequestDelay,
		timeout: cfg.AITimeout,
		model:   cfg.GenModel,
		factory: NewCompleterFactory(cfg.GenBaseURL),
		logger:  logger.Named("llm"),
	}
}

// NewClientWithFactory is NewClient with an injected completer factory.
// Used by tests.
func NewClientWithFactory(cfg *core.Config, ring *KeyRing, factory CompleterFactory, logger *logging.Logger) *Client {
	c := NewClient(cfg, ring, logger)
	c.factory = factory
	return c
}

// Generate produces completion text for the given prompt using the named
// model; an empty model falls back to the configured default.
//
// Each attempt takes the next key from the ring, pays the pacing delay, and
// issues one chat completion. Failed attempts (transport errors, API errors,
// empty responses) are retried per the client's policy with linear backoff.
// Rate-limit responses are logged distinctly but retried the same way; key
// rotation means the next attempt usually lands on a different credential.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.model
	}

	var result string

	err := c.policy.Do(ctx, func(attempt int) error {
		// pacing applies to every attempt, not just retries
		if c.pacing > 0 {
			select {
			case <-time.After(c.pacing):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		text, err := c.complete(ctx, c.ring.Next(), prompt, model)
		if err != nil {
			c.logAttemptFailure(attempt, err)
			return err
		}

		result = text
		return nil
	})
	if err != nil {
		return "", err
	}

	return result, nil
}

func (c *Client) complete(ctx context.Context, apiKey, prompt, model string) (string, error) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.factory(apiKey).CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

func (c *Client) logAttemptFailure(attempt int, err error) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		c.logger.Warn("generation rate-limited, rotating to next key",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
		)
		return
	}

	c.logger.Warn("generation attempt failed",
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", c.policy.MaxAttempts),
		zap.Error(err),
	)
}
