package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrTimeout = errors.New("analysis backend timeout")
	ErrBackend = errors.New("analysis backend error")
)

const defaultBaseURL = "https://api.openai.com/v1"

// Message is one entry of an OpenAI-style chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an OpenAI-compatible chat completions endpoint. Some
// providers behind this API reject max_tokens or temperature with a 400, so
// Complete adapts the payload and retries, capped at three attempts.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{},
	}
}

func (c *Client) Model() string { return c.model }

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts the messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	payload := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": 0.2,
		"max_tokens":  maxTokens,
	}

	for attempt := 0; attempt < 3; attempt++ {
		status, body, err := c.post(ctx, payload)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return "", fmt.Errorf("%w: %v", ErrBackend, err)
		}
		if status == http.StatusOK {
			var resp completionResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return "", fmt.Errorf("%w: response parse: %v", ErrBackend, err)
			}
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("%w: empty choices", ErrBackend)
			}
			return resp.Choices[0].Message.Content, nil
		}

		text := string(body)
		if status == http.StatusBadRequest {
			if _, has := payload["max_tokens"]; has &&
				strings.Contains(text, "max_tokens") && strings.Contains(text, "max_completion_tokens") {
				delete(payload, "max_tokens")
				payload["max_completion_tokens"] = maxTokens
				continue
			}
			if _, has := payload["temperature"]; has && strings.Contains(text, `"param": "temperature"`) {
				delete(payload, "temperature")
				continue
			}
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrBackend, status, truncate(text, 300))
	}
	return "", fmt.Errorf("%w: retries exhausted", ErrBackend)
}

func (c *Client) post(ctx context.Context, payload map[string]any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
