package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/cvforge-ai/cvforge/pkg/provider"
)

type fakeAPI struct {
	generateResp *genai.GenerateContentResponse
	generateErr  error
	embedResp    *genai.EmbedContentResponse
	embedErr     error

	lastModel  string
	lastConfig *genai.GenerateContentConfig
}

func (f *fakeAPI) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.lastModel = model
	f.lastConfig = config
	return f.generateResp, f.generateErr
}

func (f *fakeAPI) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.lastModel = model
	return f.embedResp, f.embedErr
}

func newTestClient(api *fakeAPI) *Client {
	return &Client{name: "gemini", api: api, logger: zap.NewNop()}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), "gemini", "  ", nil); err == nil {
		t.Error("New() with blank key expected error")
	}
}

func TestEmbed(t *testing.T) {
	api := &fakeAPI{
		embedResp: &genai.EmbedContentResponse{
			Embeddings: []*genai.ContentEmbedding{
				{Values: []float32{1, 0}},
				{Values: []float32{0, 1}},
			},
		},
	}
	c := newTestClient(api)

	res, err := c.Embed(context.Background(), "embed-test", []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if api.lastModel != "embed-test" {
		t.Errorf("model = %q", api.lastModel)
	}
	if len(res.Vectors) != 2 || res.Vectors[0][0] != 1 || res.Vectors[1][1] != 1 {
		t.Errorf("vectors = %v", res.Vectors)
	}
	if res.Usage.TotalTokens == 0 {
		t.Error("usage should be estimated from input length")
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	api := &fakeAPI{
		embedResp: &genai.EmbedContentResponse{
			Embeddings: []*genai.ContentEmbedding{{Values: []float32{1}}},
		},
	}
	c := newTestClient(api)

	_, err := c.Embed(context.Background(), "embed-test", []string{"a", "b"})
	if provider.KindOf(err) != provider.KindMalformed {
		t.Errorf("KindOf() = %q, want malformed", provider.KindOf(err))
	}
}

func TestGenerate(t *testing.T) {
	api := &fakeAPI{
		generateResp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: "```json\n{\"summary\":\"Tailored\"}\n```"}}},
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     100,
				CandidatesTokenCount: 25,
				TotalTokenCount:      125,
			},
		},
	}
	c := newTestClient(api)

	res, err := c.Generate(context.Background(), "gemini-test", provider.GenerateRequest{
		System:    "You tailor CVs.",
		Prompt:    "Tailor this.",
		MaxTokens: 512,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Content.Summary != "Tailored" {
		t.Errorf("Summary = %q", res.Content.Summary)
	}
	if res.Usage.PromptTokens != 100 || res.Usage.CompletionTokens != 25 || res.Usage.TotalTokens != 125 {
		t.Errorf("usage = %+v", res.Usage)
	}
	if api.lastConfig == nil || api.lastConfig.ResponseMIMEType != "application/json" {
		t.Errorf("config = %+v", api.lastConfig)
	}
	if api.lastConfig.MaxOutputTokens != 512 {
		t.Errorf("MaxOutputTokens = %d", api.lastConfig.MaxOutputTokens)
	}
	if api.lastConfig.SystemInstruction == nil {
		t.Error("system instruction not set")
	}
}

func TestGenerateUsageEstimatedWhenUnreported(t *testing.T) {
	api := &fakeAPI{
		generateResp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: `{"summary":"ok"}`}}},
			}},
		},
	}
	c := newTestClient(api)

	res, err := c.Generate(context.Background(), "gemini-test", provider.GenerateRequest{Prompt: "a long enough prompt"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Usage.TotalTokens == 0 || res.Usage.PromptTokens == 0 || res.Usage.CompletionTokens == 0 {
		t.Errorf("usage should be estimated, got %+v", res.Usage)
	}
}

func TestGenerateEmptyResponse(t *testing.T) {
	api := &fakeAPI{generateResp: &genai.GenerateContentResponse{}}
	c := newTestClient(api)

	_, err := c.Generate(context.Background(), "gemini-test", provider.GenerateRequest{Prompt: "x"})
	if provider.KindOf(err) != provider.KindMalformed {
		t.Errorf("KindOf() = %q, want malformed", provider.KindOf(err))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want provider.ErrorKind
	}{
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, provider.KindRateLimited},
		{"server error", genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, provider.KindUpstream},
		{"deadline", context.DeadlineExceeded, provider.KindTimeout},
		{"connection", errors.New("dial tcp: connection refused"), provider.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{generateErr: tt.err}
			c := newTestClient(api)

			_, err := c.Generate(context.Background(), "gemini-test", provider.GenerateRequest{Prompt: "x"})
			if got := provider.KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCandidateTextConcatenatesParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "first"}, {Text: "  "}, {Text: "second"}}}},
			nil,
			{Content: nil},
		},
	}
	if got := candidateText(resp); got != "first\nsecond" {
		t.Errorf("candidateText() = %q", got)
	}
}
