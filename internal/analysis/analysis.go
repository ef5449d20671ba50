// Package analysis sends contract text to an OpenAI-compatible chat
// completions endpoint for clause review and advisory prose.
package analysis

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/accord/internal/risk"
	"github.com/JaimeStill/accord/pkg/formatting"
)

// ErrAnalysis wraps every failure to obtain a usable completion.
var ErrAnalysis = errors.New("clause analysis failed")

// Analyzer returns clause findings for a document's text.
type Analyzer interface {
	Analyze(ctx context.Context, text string) ([]risk.Clause, error)
}

// Client is the chat completions implementation of Analyzer.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	group   singleflight.Group
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// New creates a Client from a finalized config.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:     *cfg,
		http:    &http.Client{Timeout: cfg.TimeoutDuration()},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		logger:  logger.With("system", "analysis"),
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type reply struct {
	Analysis *[]risk.Clause `json:"analysis"`
}

// Analyze sends text for clause review. Results for identical text are served
// from cache until they expire.
func (c *Client) Analyze(ctx context.Context, text string) ([]risk.Clause, error) {
	v, err := c.do(ctx, "clauses", func(ctx context.Context) (any, error) {
		content, err := c.complete(ctx, systemPrompt, clausePrompt(c.clip(text)), c.cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return parseClauses(content)
	}, text)
	if err != nil {
		return nil, err
	}
	return v.([]risk.Clause), nil
}

// Summarize returns a plain-English summary of the contract.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.prose(ctx, "summary", summaryPrompt(c.clip(text)), text)
}

// Suggest drafts a clause. With riskyText it rewrites that text into a
// balanced version; without it, it drafts the missing clause from scratch.
func (c *Client) Suggest(ctx context.Context, clause, riskyText string) (string, error) {
	return c.prose(ctx, "suggestion", suggestionPrompt(clause, c.clip(riskyText)), clause, riskyText)
}

// Answer responds to a question using only the contract text.
func (c *Client) Answer(ctx context.Context, text, question string) (string, error) {
	return c.prose(ctx, "answer", answerPrompt(c.clip(text), question), text, question)
}

func (c *Client) prose(ctx context.Context, kind, prompt string, parts ...string) (string, error) {
	v, err := c.do(ctx, kind, func(ctx context.Context) (any, error) {
		content, err := c.complete(ctx, advisorPrompt, prompt, c.cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return nil, fmt.Errorf("%w: empty %s", ErrAnalysis, kind)
		}
		return content, nil
	}, parts...)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// do serves kind for parts from cache, or runs fn once for all concurrent
// callers asking the same thing. fn runs detached from any single caller's
// cancellation and is bounded by the request timeout; each caller stops
// waiting when its own context ends.
func (c *Client) do(ctx context.Context, kind string, fn func(context.Context) (any, error), parts ...string) (any, error) {
	key := kind + ":" + digest(parts...)

	if v, ok := c.cached(key); ok {
		c.logger.Debug("served from cache", "kind", kind, "key", key[len(kind)+1:][:12])
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.TimeoutDuration())
		defer cancel()

		v, err := fn(shared)
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("result shared with concurrent caller", "kind", kind)
		}
		return res.Val, nil
	}
}

func (c *Client) clip(text string) string {
	if len(text) > c.cfg.MaxInputChars {
		return strings.ToValidUTF8(text[:c.cfg.MaxInputChars], "")
	}
	return text
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit: %v", ErrAnalysis, err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrAnalysis, err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrAnalysis, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnalysis, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrAnalysis, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrAnalysis, resp.StatusCode, truncate(string(raw), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrAnalysis, err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrAnalysis)
	}

	c.logger.Info("completion received", "model", c.cfg.Model, "duration", time.Since(start))
	return chat.Choices[0].Message.Content, nil
}

func parseClauses(content string) ([]risk.Clause, error) {
	r, err := formatting.Parse[reply](content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}
	if r.Analysis == nil {
		return nil, fmt.Errorf("%w: response has no analysis array", ErrAnalysis)
	}
	return *r.Analysis, nil
}

func (c *Client) cached(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.cache, key)
		return nil, false
	}
	return e.value, true
}

func (c *Client) store(key string, value any) {
	ttl := c.cfg.CacheTTLDuration()
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.cache) >= c.cfg.CacheSize {
		c.evict(now)
	}
	c.cache[key] = cacheEntry{value: value, expires: now.Add(ttl)}
}

// evict drops expired entries, then the entry closest to expiry if the cache
// is still full. Caller holds mu.
func (c *Client) evict(now time.Time) {
	var oldest string
	var oldestAt time.Time

	for k, e := range c.cache {
		if now.After(e.expires) {
			delete(c.cache, k)
			continue
		}
		if oldest == "" || e.expires.Before(oldestAt) {
			oldest, oldestAt = k, e.expires
		}
	}

	if len(c.cache) >= c.cfg.CacheSize && oldest != "" {
		delete(c.cache, oldest)
	}
}

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
