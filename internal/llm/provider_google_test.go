package llm

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"google.golang.org/genai"
)

// stubModels replays a canned response and records the generation call.
type stubModels struct {
	model       string
	contents    []*genai.Content
	config      *genai.GenerateContentConfig
	hadDeadline bool
	resp        *genai.GenerateContentResponse
	err         error
}

func (s *stubModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	s.contents = contents
	s.config = config
	_, s.hadDeadline = ctx.Deadline()
	return s.resp, s.err
}

func candidateResponse(texts ...string) *genai.GenerateContentResponse {
	parts := make([]*genai.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, &genai.Part{Text: t})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestGoogleInvokeJSONResponseMode(t *testing.T) {
	stub := &stubModels{resp: candidateResponse(`{"name":`, `"ramen"}`)}
	p := &googleProvider{models: stub}

	plan := testPlan()
	plan.System = "be terse"
	raw, err := p.invoke(context.Background(), plan)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if raw.combinedText() != `{"name":"ramen"}` {
		t.Fatalf("unexpected text: %q", raw.combinedText())
	}

	if stub.model != "claude-test" {
		t.Fatalf("unexpected model: %q", stub.model)
	}
	if len(stub.contents) != 1 || stub.contents[0].Parts[0].Text != "find recipes" {
		t.Fatalf("unexpected contents: %v", stub.contents)
	}
	cfg := stub.config
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("unexpected mime type: %q", cfg.ResponseMIMEType)
	}
	if !reflect.DeepEqual(cfg.ResponseJsonSchema, plan.Schema) {
		t.Fatalf("schema not set on response config: %v", cfg.ResponseJsonSchema)
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "be terse" {
		t.Fatalf("system instruction not carried: %v", cfg.SystemInstruction)
	}
	if cfg.MaxOutputTokens != 256 {
		t.Fatalf("unexpected max output tokens: %d", cfg.MaxOutputTokens)
	}
	if !stub.hadDeadline {
		t.Fatal("round trip must carry a deadline")
	}
}

func TestGoogleInvokeEmptyCandidates(t *testing.T) {
	cases := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"nil content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &googleProvider{models: &stubModels{resp: tc.resp}}
			raw, err := p.invoke(context.Background(), testPlan())
			if err != nil {
				t.Fatalf("invoke failed: %v", err)
			}
			if len(raw.blocks) != 0 {
				t.Fatalf("expected no blocks, got %v", raw.blocks)
			}
		})
	}
}

func TestGoogleInvokeErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", genai.APIError{Code: 503, Message: "overloaded"}, ErrUpstreamUnavailable},
		{"rate limited", genai.APIError{Code: 429, Message: "quota"}, ErrUpstreamRateLimited},
		{"unauthorized", genai.APIError{Code: 403, Message: "denied"}, ErrMissingCredential},
		{"deadline", context.DeadlineExceeded, ErrUpstreamTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &googleProvider{models: &stubModels{err: tc.err}}
			_, err := p.invoke(context.Background(), testPlan())
			if !errors.Is(err, tc.want) {
				t.Fatalf("classified as %v, want %v", err, tc.want)
			}
		})
	}
}
