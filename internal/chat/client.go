// Package chat relays study-assistant conversations to an OpenRouter
// compatible chat completions endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/logger"
)

var ErrNotConfigured = errors.New("chat relay is not configured")

var validRoles = map[string]bool{"system": true, "user": true, "assistant": true}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client is a stateless relay; it keeps no conversation history.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
	referer    string
	log        *logger.Logger
}

func NewClient(cfg config.Chat, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	url := cfg.BaseURL
	if url == "" {
		url = config.DefaultOpenRouterURL
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultChatModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		apiKey:     cfg.APIKey,
		model:      model,
		referer:    cfg.Referer,
		log:        log,
	}
}

// Reply forwards messages upstream and returns the first choice's content.
func (c *Client) Reply(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", apperr.Validation("messages must not be empty")
	}
	for i, m := range messages {
		if !validRoles[m.Role] {
			return "", apperr.Validation("message %d has invalid role %q", i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return "", apperr.Validation("message %d has empty content", i)
		}
	}
	if c.apiKey == "" {
		return "", apperr.Unavailable("chat", ErrNotConfigured)
	}

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Unavailable("chat", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperr.Unavailable("chat", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Chat upstream returned error", "status", resp.StatusCode, "body", truncate(string(raw), 200))
		return "", apperr.Unavailable("chat", fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperr.Unavailable("chat", fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return "", apperr.Unavailable("chat", errors.New(parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return "", apperr.Unavailable("chat", errors.New("upstream returned no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
