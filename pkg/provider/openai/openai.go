// Package openai implements the provider client against any
// OpenAI-compatible HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/models"
	"github.com/cvforge-ai/cvforge/pkg/provider"
)

// Client talks to an OpenAI-compatible endpoint. Timeouts come from the
// caller's context.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	logger  *zap.Logger
}

// New creates a client for the given provider name and base URL.
func New(name, baseURL, apiKey string, logger *zap.Logger) (*Client, error) {
	target, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid provider URL: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid provider URL %q: missing scheme or host", baseURL)
	}
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(target.String(), "/"),
		apiKey:  apiKey,
		logger:  logging.OrNop(logger),
	}, nil
}

// Name returns the configured provider name.
func (c *Client) Name() string {
	return c.name
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage usagePayload    `json:"usage"`
}

type usagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   usagePayload `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed requests one vector per input from /v1/embeddings.
func (c *Client) Embed(ctx context.Context, model string, inputs []string) (*provider.EmbedResult, error) {
	body, err := json.Marshal(embeddingRequest{Model: model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}

	respBody, err := c.post(ctx, model, "/v1/embeddings", body)
	if err != nil {
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, c.malformed(model, fmt.Errorf("decode embedding response: %w", err))
	}
	if len(parsed.Data) != len(inputs) {
		return nil, c.malformed(model, fmt.Errorf("got %d embeddings for %d inputs", len(parsed.Data), len(inputs)))
	}

	vectors := make([][]float32, len(inputs))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, c.malformed(model, fmt.Errorf("embedding index %d out of range", d.Index))
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, c.malformed(model, fmt.Errorf("missing embedding for input %d", i))
		}
	}

	return &provider.EmbedResult{
		Vectors: vectors,
		Usage: models.Usage{
			PromptTokens: parsed.Usage.PromptTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}, nil
}

// Generate requests a structured draft from /v1/chat/completions in JSON mode.
func (c *Client) Generate(ctx context.Context, model string, req provider.GenerateRequest) (*provider.GenerateResult, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:          model,
		Messages:       messages,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	respBody, err := c.post(ctx, model, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, c.malformed(model, fmt.Errorf("decode chat response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return nil, c.malformed(model, fmt.Errorf("no choices in response"))
	}

	content, err := provider.ParseDraft(parsed.Choices[0].Message.Content, c.name, model)
	if err != nil {
		return nil, err
	}

	return &provider.GenerateResult{
		Content: content,
		Usage: models.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}, nil
}

// post sends an authenticated JSON request and returns the response body,
// classifying any failure.
func (c *Client) post(ctx context.Context, model, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &provider.Error{
			Kind:     classifyTransport(err),
			Provider: c.name,
			Model:    model,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.Error{
			Kind:     provider.KindTransport,
			Provider: c.name,
			Model:    model,
			Err:      fmt.Errorf("read response: %w", err),
		}
	}

	c.logger.Debug("provider call",
		zap.String("provider", c.name),
		zap.String("model", model),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode >= 400 {
		kind := provider.KindUpstream
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = provider.KindRateLimited
		}
		return nil, &provider.Error{
			Kind:     kind,
			Provider: c.name,
			Model:    model,
			Status:   resp.StatusCode,
			Err:      errors.New(upstreamMessage(respBody)),
		}
	}

	return respBody, nil
}

func (c *Client) malformed(model string, err error) error {
	return &provider.Error{Kind: provider.KindMalformed, Provider: c.name, Model: model, Err: err}
}

// classifyTransport separates deadline expiry from other connection failures.
func classifyTransport(err error) provider.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return provider.KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return provider.KindTimeout
	}
	return provider.KindTransport
}

// upstreamMessage pulls the error message out of an OpenAI-style error body,
// falling back to a trimmed copy of the raw payload.
func upstreamMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}
	if msg == "" {
		msg = "upstream error"
	}
	return msg
}
