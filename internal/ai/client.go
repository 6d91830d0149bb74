package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

type Options struct {
	APIKey      string
	ChatModel   string
	EmbedModel  string
	Temperature float32
	// RPMLimit caps calls per minute; 0 disables the limiter.
	RPMLimit int
	// EmbedAttempts is the number of tries per embedding call. The serving
	// path uses 1; bulk indexing raises it.
	EmbedAttempts int
}

type Client struct {
	client        *genai.Client
	chatModel     string
	embedModel    string
	temp          float32
	embedAttempts int

	// 限流
	rpmLimit int
	mu       sync.Mutex
	tokens   int
	lastTick time.Time
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("create genai client: empty api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	attempts := opts.EmbedAttempts
	if attempts <= 0 {
		attempts = 1
	}
	c := &Client{
		client:        client,
		chatModel:     opts.ChatModel,
		embedModel:    opts.EmbedModel,
		temp:          opts.Temperature,
		embedAttempts: attempts,
		rpmLimit:      opts.RPMLimit,
		tokens:        opts.RPMLimit,
		lastTick:      time.Now(),
	}
	return c, nil
}

// Model returns the chat model name.
func (c *Client) Model() string { return c.chatModel }

// Generate sends one prompt and returns the response text. Exactly one remote
// call is made; failures are returned to the caller unretried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.waitForToken(ctx); err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temp),
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.chatModel, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content (%s): %w", c.chatModel, err)
	}
	text := resp.Text()
	slog.Debug("generated answer", "model", c.chatModel, "chars", len(text))
	return text, nil
}

// Embed 生成文本嵌入向量
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < c.embedAttempts; attempt++ {
		if err := c.waitForToken(ctx); err != nil {
			return nil, err
		}
		resp, err := c.client.Models.EmbedContent(ctx, c.embedModel,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
		if err == nil {
			if len(resp.Embeddings) == 0 {
				return nil, fmt.Errorf("empty embedding response")
			}
			return resp.Embeddings[0].Values, nil
		}
		lastErr = err
		if attempt+1 == c.embedAttempts {
			break
		}
		wait := time.Duration(1<<attempt) * time.Second
		if isQuotaError(err) {
			wait = time.Duration(10*(attempt+1)) * time.Second
		}
		slog.Warn("embed failed, retrying", "attempt", attempt+1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	if c.embedAttempts == 1 {
		return nil, fmt.Errorf("embed content (%s): %w", c.embedModel, lastErr)
	}
	return nil, fmt.Errorf("embed failed after %d attempts: %w", c.embedAttempts, lastErr)
}

// EmbedFunc 返回一个可用于 chromem-go 的 embedding 函数
func (c *Client) EmbedFunc() func(ctx context.Context, text string) ([]float32, error) {
	return c.Embed
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// waitForToken 简单令牌桶限流
func (c *Client) waitForToken(ctx context.Context) error {
	if c.rpmLimit <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastTick)
	if elapsed >= time.Minute {
		c.tokens = c.rpmLimit
		c.lastTick = now
	}

	if c.tokens > 0 {
		c.tokens--
		return nil
	}

	wait := time.Minute - elapsed
	c.mu.Unlock()
	slog.Info("rate limit reached, waiting", "duration", wait)
	select {
	case <-ctx.Done():
		c.mu.Lock()
		return ctx.Err()
	case <-time.After(wait):
	}
	c.mu.Lock()
	c.tokens = c.rpmLimit - 1
	c.lastTick = time.Now()
	return nil
}
