package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrMalformedResponse is returned when the AI answer holds no parseable JSON.
var ErrMalformedResponse = errors.New("AI response is not valid JSON")

// Prompt is one structured-content request.
type Prompt struct {
	Name        string // для логов и метрик
	System      string
	User        string
	Timeout     time.Duration
	Temperature *float64
	MaxTokens   *int
}

// StructuredContentClient returns a JSON payload for a prompt or an unambiguous failure.
type StructuredContentClient interface {
	Synthesize(ctx context.Context, prompt Prompt) (json.RawMessage, error)
}

// RetryConfig управляет повторными попытками вызова AI.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type contentSynthesisClient struct {
	ai     AIClient
	retry  RetryConfig
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewContentSynthesisClient wraps an AIClient with timeouts, retries and JSON extraction.
func NewContentSynthesisClient(ai AIClient, retry RetryConfig, logger *zap.Logger) StructuredContentClient {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &contentSynthesisClient{
		ai:     ai,
		retry:  retry,
		logger: logger.Named("ContentSynthesis"),
		sleep:  sleepCtx,
	}
}

func (c *contentSynthesisClient) Synthesize(ctx context.Context, prompt Prompt) (json.RawMessage, error) {
	log := c.logger.With(zap.String("prompt", prompt.Name))
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		raw, err := c.attempt(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		log.Warn("Structured content attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.retry.MaxAttempts),
			zap.Error(err))

		if attempt == c.retry.MaxAttempts || ctx.Err() != nil {
			break
		}
		if err := c.sleep(ctx, backoffDelay(c.retry.BaseDelay, attempt)); err != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *contentSynthesisClient) attempt(ctx context.Context, prompt Prompt) (json.RawMessage, error) {
	callCtx := ctx
	if prompt.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, prompt.Timeout)
		defer cancel()
	}
	text, _, err := c.ai.GenerateText(callCtx, prompt.System, prompt.User, GenerationParams{
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return ExtractJSON(text)
}

// ExtractJSON strips markdown fences and returns the first JSON object or array in text.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, ErrMalformedResponse
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return nil, ErrMalformedResponse
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("%w: %.80q", ErrMalformedResponse, candidate)
	}
	return json.RawMessage(candidate), nil
}

// backoffDelay: base * 2^(attempt-1) ± 10%.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	jitter := delay * 0.1
	delay += (rand.Float64()*2 - 1) * jitter
	return time.Duration(delay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func float64Ptr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }
