// Package gemini implements the provider client on the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/models"
	"github.com/cvforge-ai/cvforge/pkg/provider"
)

// modelAPI is the slice of the GenAI SDK the client calls. *genai.Models
// satisfies it.
type modelAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Client talks to the Gemini API.
type Client struct {
	name   string
	api    modelAPI
	logger *zap.Logger
}

// New creates a client for the Gemini API backend.
func New(ctx context.Context, name, apiKey string, logger *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{name: name, api: client.Models, logger: logging.OrNop(logger)}, nil
}

// Name returns the configured provider name.
func (c *Client) Name() string {
	return c.name
}

// Embed returns one vector per input, in order. The embeddings API does not
// report token usage, so usage is estimated from input length.
func (c *Client) Embed(ctx context.Context, model string, inputs []string) (*provider.EmbedResult, error) {
	contents := make([]*genai.Content, len(inputs))
	for i, text := range inputs {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	start := time.Now()
	resp, err := c.api.EmbedContent(ctx, model, contents, nil)
	if err != nil {
		return nil, c.classify(model, err)
	}
	c.logger.Debug("provider call",
		zap.String("provider", c.name),
		zap.String("model", model),
		zap.String("task", "embedding"),
		zap.Int("inputs", len(inputs)),
		zap.Duration("latency", time.Since(start)))

	if len(resp.Embeddings) != len(inputs) {
		return nil, c.malformed(model, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(inputs)))
	}

	vectors := make([][]float32, len(inputs))
	tokens := 0
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, c.malformed(model, fmt.Errorf("missing embedding for input %d", i))
		}
		vectors[i] = emb.Values
		tokens += models.EstimateTokens(inputs[i])
	}

	return &provider.EmbedResult{
		Vectors: vectors,
		Usage:   models.Usage{PromptTokens: tokens, TotalTokens: tokens},
	}, nil
}

// Generate produces a structured draft via GenerateContent in JSON mode.
func (c *Client) Generate(ctx context.Context, model string, req provider.GenerateRequest) (*provider.GenerateResult, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	start := time.Now()
	resp, err := c.api.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, c.classify(model, err)
	}
	c.logger.Debug("provider call",
		zap.String("provider", c.name),
		zap.String("model", model),
		zap.String("task", "generation"),
		zap.Duration("latency", time.Since(start)))

	raw := candidateText(resp)
	if raw == "" {
		return nil, c.malformed(model, fmt.Errorf("empty response"))
	}

	content, err := provider.ParseDraft(raw, c.name, model)
	if err != nil {
		return nil, err
	}

	return &provider.GenerateResult{
		Content: content,
		Usage:   generateUsage(resp, req, raw),
	}, nil
}

// candidateText concatenates the text parts of every candidate.
func candidateText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// generateUsage reads reported token counts, falling back to length-based
// estimates when the API omits them.
func generateUsage(resp *genai.GenerateContentResponse, req provider.GenerateRequest, raw string) models.Usage {
	if meta := resp.UsageMetadata; meta != nil && meta.TotalTokenCount > 0 {
		return models.Usage{
			PromptTokens:     int(meta.PromptTokenCount),
			CompletionTokens: int(meta.CandidatesTokenCount),
			TotalTokens:      int(meta.TotalTokenCount),
		}
	}
	prompt := models.EstimateTokens(req.System) + models.EstimateTokens(req.Prompt)
	completion := models.EstimateTokens(raw)
	return models.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// classify maps a GenAI SDK error onto the provider error taxonomy.
func (c *Client) classify(model string, err error) error {
	kind := provider.KindTransport
	status := 0

	var apiErr genai.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = provider.KindTimeout
	case errors.As(err, &apiErr):
		status = apiErr.Code
		if apiErr.Code == 429 {
			kind = provider.KindRateLimited
		} else if apiErr.Code >= 400 {
			kind = provider.KindUpstream
		}
	}

	return &provider.Error{
		Kind:     kind,
		Provider: c.name,
		Model:    model,
		Status:   status,
		Err:      err,
	}
}

func (c *Client) malformed(model string, err error) error {
	return &provider.Error{Kind: provider.KindMalformed, Provider: c.name, Model: model, Err: err}
}
