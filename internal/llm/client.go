// Package llm provides the chat-completion transport used by the LLM
// extractor, plus the retry policy wrapped around it.
//
// The client speaks the OpenAI-compatible chat completions wire format, so
// it works against OpenRouter, OpenAI, DeepSeek, or a local Ollama without
// code changes — only the endpoint and key differ.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultEndpoint is the OpenRouter chat completions URL.
const DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 30 * time.Second

// Request is one completion request.
type Request struct {
	System      string
	Prompt      string
	Model       string  // empty = client default
	Temperature float64 // low values keep extraction output stable
	JSONFormat  bool    // ask the provider for strict-JSON output
}

// Client is the interface the extractor depends on. The HTTP
// implementation below is the production one; tests substitute fakes.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Config holds HTTP client construction inputs.
type Config struct {
	Endpoint string // empty = DefaultEndpoint
	APIKey   string
	Model    string
	Timeout  time.Duration // empty = DefaultTimeout
}

// HTTPClient calls an OpenAI-compatible chat completions endpoint.
type HTTPClient struct {
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
}

// NewHTTPClient builds the production transport.
func NewHTTPClient(cfg Config) *HTTPClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Name() string { return c.model }

// Chat completions wire types (OpenAI-compatible).
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// HTTPError is a non-2xx response from the completion endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration // from the Retry-After header, 0 when absent
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// DecodeError is a transport-layer JSON decode failure: the endpoint
// answered 2xx but the envelope wasn't parseable. Distinct from the model
// emitting bad JSON inside a well-formed envelope.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decoding completion response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// Complete sends one chat completion request and returns the raw model
// output text.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	wire := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.JSONFormat {
		wire.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var retryAfter time.Duration
		if h := resp.Header.Get("Retry-After"); h != "" {
			if secs, err := strconv.Atoi(h); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			RetryAfter: retryAfter,
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &DecodeError{Err: err}
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return parsed.Choices[0].Message.Content, nil
}
