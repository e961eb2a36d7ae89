package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// ChatGPTClient implements ports.ChatClient backed by OpenAI-compatible APIs
// (Moonshot, DashScope, DeepSeek, Qianfan, OpenAI).
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	temperature  float64
	maxTokens    int
	maxRetries   int
	retryBase    time.Duration
	httpClient   *http.Client
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger
}

var _ ports.ChatClient = (*ChatGPTClient)(nil)

// Option customizes the client.
type Option func(*ChatGPTClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *ChatGPTClient) { c.httpClient = client }
}

// WithSleep replaces the wait used between rate-limited attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *ChatGPTClient) { c.sleep = sleep }
}

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ReportConfig, log *slog.Logger, opts ...Option) *ChatGPTClient {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := &ChatGPTClient{
		endpoint:     completionsURL(cfg.APIBase),
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		maxRetries:   cfg.MaxRetries,
		retryBase:    cfg.RetryBase,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		sleep:  sleepContext,
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a user message and returns the trimmed assistant text.
// 429 and 503 responses are retried with exponential backoff; any other failure is returned at once.
func (c *ChatGPTClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.model == "" || c.endpoint == "" {
		return "", fmt.Errorf("%w: chat client misconfigured", domain.ErrGenerationFailed)
	}

	messages := make([]chatMessage, 0, 2)
	if prompt := strings.TrimSpace(c.systemPrompt); prompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	for attempt := 0; ; attempt++ {
		content, status, err := c.post(ctx, body)
		if err == nil {
			return content, nil
		}
		if !retryable(status) || attempt >= c.maxRetries {
			return "", err
		}

		wait := c.retryBase << attempt
		c.logger.Warn("rate limited, retrying", "status", status, "wait", wait, "attempt", attempt+1, "max_retries", c.maxRetries)
		if err := c.sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("wait for retry: %w", err)
		}
	}
}

func (c *ChatGPTClient) post(ctx context.Context, body []byte) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", resp.StatusCode, fmt.Errorf("%w: chat api error %s: %s",
			domain.ErrGenerationFailed, resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", resp.StatusCode, fmt.Errorf("decode completion: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", resp.StatusCode, nil
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), resp.StatusCode, nil
}

func completionsURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return base + "/chat/completions"
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
