// Package client is a Go client for the theology chat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/capitalize-ai/theology-chat/internal/model"
)

const (
	DefaultBaseURL = "http://localhost:3001/api"
	DefaultTimeout = 30 * time.Second
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status     int
	Message    string
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsRateLimited reports whether err is a 429 from the API.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

// Client talks to the chat and lessons endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. https://host/.netlify/functions/api.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope mirrors model.Response with a typed payload.
type envelope[T any] struct {
	Success    bool   `json:"success"`
	Data       T      `json:"data"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	SessionID  string `json:"sessionId"`
	RetryAfter int    `json:"retryAfter"`
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (*envelope[T], error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Error, RetryAfter: env.RetryAfter}
		if decodeErr != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", decodeErr)
	}
	return &env, nil
}

// SendMessage posts a chat message with the prior history.
func (c *Client) SendMessage(ctx context.Context, message, sessionID string, history []model.HistoryTurn) (*model.ChatReply, error) {
	if history == nil {
		history = []model.HistoryTurn{}
	}
	env, err := do[model.ChatReply](ctx, c, http.MethodPost, "/chat/message", &model.ChatRequest{
		Message:             message,
		SessionID:           sessionID,
		ConversationHistory: history,
	})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// History returns the stored turns of a session.
func (c *Client) History(ctx context.Context, sessionID string) (*model.History, error) {
	env, err := do[model.History](ctx, c, http.MethodGet, "/chat/history/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// ClearHistory deletes the stored turns of a session.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	_, err := do[json.RawMessage](ctx, c, http.MethodDelete, "/chat/history/"+url.PathEscape(sessionID), nil)
	return err
}

// DailyLesson generates a lesson on topic.
func (c *Client) DailyLesson(ctx context.Context, topic string) (*model.Lesson, error) {
	env, err := do[model.Lesson](ctx, c, http.MethodPost, "/lessons/daily", &model.LessonRequest{Topic: topic})
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Topics lists the lesson topics.
func (c *Client) Topics(ctx context.Context) ([]string, error) {
	env, err := do[[]string](ctx, c, http.MethodGet, "/lessons/topics", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Archive lists archived lessons, newest first.
func (c *Client) Archive(ctx context.Context) ([]model.Lesson, error) {
	env, err := do[[]model.Lesson](ctx, c, http.MethodGet, "/lessons/archive", nil)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}
