// Package provider defines the contract model adapters implement and the
// typed error taxonomy the pipeline uses to tell transport trouble from
// malformed payloads without parsing error strings.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cvforge-ai/cvforge/pkg/models"
)

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindUpstream    ErrorKind = "upstream"
	KindMalformed   ErrorKind = "malformed"
)

// Error is a classified provider failure. All kinds count as model failures
// for circuit breaking.
type Error struct {
	Kind     ErrorKind
	Provider string
	Model    string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("call to %s/%s failed (%s)", e.Provider, e.Model, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("call to %s/%s failed (%s, status %d)", e.Provider, e.Model, e.Kind, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind from err, or "" when err does not wrap a
// provider error.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// EmbedResult carries one vector per input, in input order.
type EmbedResult struct {
	Vectors [][]float32
	Usage   models.Usage
}

// GenerateRequest is one structured-draft generation call.
type GenerateRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// GenerateResult carries the parsed draft and reported usage.
type GenerateResult struct {
	Content models.GeneratedContent
	Usage   models.Usage
}

// Client is implemented by each provider adapter.
type Client interface {
	// Name returns the configured provider name.
	Name() string
	// Embed returns one vector per input, in order.
	Embed(ctx context.Context, model string, inputs []string) (*EmbedResult, error)
	// Generate produces a structured draft for the prompt.
	Generate(ctx context.Context, model string, req GenerateRequest) (*GenerateResult, error)
}

// Registry maps configured provider names to clients. It is populated once
// at startup and read-only afterwards.
type Registry struct {
	clients map[string]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client under its provider name.
func (r *Registry) Register(c Client) {
	r.clients[c.Name()] = c
}

// Lookup returns the client for a provider name.
func (r *Registry) Lookup(name string) (Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// ExtractJSON strips markdown code fences and slices to the outermost JSON
// object, which is how drafts come back from chat-tuned models.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		if strings.HasPrefix(s, "json") {
			s = s[4:]
		}
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// ParseDraft decodes a model's raw text response into structured content.
// Anything undecodable is a malformed-payload provider error.
func ParseDraft(raw, providerName, model string) (models.GeneratedContent, error) {
	extracted := ExtractJSON(raw)
	if extracted == "" {
		return models.GeneratedContent{}, &Error{
			Kind: KindMalformed, Provider: providerName, Model: model,
			Err: fmt.Errorf("no JSON object in response"),
		}
	}

	var draft models.GeneratedContent
	if err := json.Unmarshal([]byte(extracted), &draft); err != nil {
		return models.GeneratedContent{}, &Error{
			Kind: KindMalformed, Provider: providerName, Model: model,
			Err: fmt.Errorf("decode draft: %w", err),
		}
	}
	if draft.Summary == "" && len(draft.Sections) == 0 {
		return models.GeneratedContent{}, &Error{
			Kind: KindMalformed, Provider: providerName, Model: model,
			Err: fmt.Errorf("draft has neither summary nor sections"),
		}
	}
	return draft, nil
}
