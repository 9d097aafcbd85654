// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package genai wraps the text-generation service behind a small backend
// interface. Every call requests a structured-JSON response; the service
// enforces no schema, so callers must validate the shape themselves.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/content-engine/pkg/types"
)

// Backend abstracts the text-generation API so tests can supply a mock.
// Complete sends one instruction and returns the raw JSON object text the
// model produced.
type Backend interface {
	Complete(ctx context.Context, instruction string) ([]byte, error)
}

// chatAPIURL is the chat-completions endpoint. Declared as a var so tests
// can substitute an httptest server.
var chatAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend implements Backend against the OpenAI chat-completions API
// with JSON-object response formatting.
type OpenAIBackend struct {
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAIBackend builds a backend from configuration.
func NewOpenAIBackend(cfg types.AIConfig) *OpenAIBackend {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIBackend{
		apiKey: cfg.APIKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat respFormat    `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the instruction as a single user message and returns the
// model's JSON object text.
func (b *OpenAIBackend) Complete(ctx context.Context, instruction string) ([]byte, error) {
	body, err := json.Marshal(chatRequest{
		Model:          b.model,
		Messages:       []chatMessage{{Role: "user", Content: instruction}},
		ResponseFormat: respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, chatAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling generation API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("generation API returned %d: %s", resp.StatusCode, string(payload))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding generation response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("generation API returned no content")
	}
	return []byte(parsed.Choices[0].Message.Content), nil
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// CallWithRetry calls the backend with exponential backoff on transport or
// API errors. Malformed-but-successful responses are the caller's problem;
// only failed calls are retried.
func CallWithRetry(ctx context.Context, backend Backend, instruction string, maxRetries int) ([]byte, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := backend.Complete(ctx, instruction)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
