package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

type stubResult struct {
	resp rawResponse
	err  error
}

// stubProvider replays canned responses and records each call plan.
type stubProvider struct {
	results []stubResult
	plans   []callPlan
}

func (s *stubProvider) invoke(_ context.Context, plan callPlan) (rawResponse, error) {
	s.plans = append(s.plans, plan)
	i := len(s.plans) - 1
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i].resp, s.results[i].err
}

func textResponse(text string) rawResponse {
	return rawResponse{blocks: []contentBlock{{kind: blockText, text: text}}}
}

func toolResponse(args string) rawResponse {
	return rawResponse{blocks: []contentBlock{{
		kind:     blockToolUse,
		toolName: emitToolName,
		toolArgs: json.RawMessage(args),
	}}}
}

func newTestClient(stub *stubProvider) *Client {
	c := New(Config{
		Provider:              ProviderAnthropic,
		DefaultModelAnthropic: "claude-test",
		AnthropicAPIKey:       "test-key",
	})
	c.anthropic = stub
	return c
}

type namedShape struct {
	Name string `json:"name"`
}

var namedSchema = MustSchemaOf(namedShape{})

func TestInvokeToolCallPath(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: toolResponse(`{"name": "ramen"}`)}}}
	c := newTestClient(stub)

	res, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !res.FromToolCall {
		t.Fatal("expected tool-call result")
	}
	if !reflect.DeepEqual(res.JSON, map[string]any{"name": "ramen"}) {
		t.Fatalf("unexpected payload: %v", res.JSON)
	}
	if string(res.Canonical) != `{"name":"ramen"}` {
		t.Fatalf("unexpected canonical form: %s", res.Canonical)
	}
}

func TestInvokeTextBraceSlice(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{
		resp: textResponse("Sure! Here it is:\n{\"name\": \"tacos\"}\nand also {\"name\": \"ignored\"}"),
	}}}
	c := newTestClient(stub)

	res, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.FromToolCall {
		t.Fatal("expected text-path result")
	}
	if res.JSON["name"] != "tacos" {
		t.Fatalf("first balanced object should win, got %v", res.JSON)
	}
}

func TestInvokeMalformedText(t *testing.T) {
	for _, text := range []string{
		`{"name": "unterminated`,
		`{"name": }`,
	} {
		stub := &stubProvider{results: []stubResult{{resp: textResponse(text)}}}
		c := newTestClient(stub)
		_, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
		if !errors.Is(err, ErrMalformedJSON) {
			t.Fatalf("text %q: expected ErrMalformedJSON, got %v", text, err)
		}
	}
}

func TestInvokeNoStructuredOutput(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: textResponse("no json at all, sorry")}}}
	c := newTestClient(stub)

	_, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
	if !errors.Is(err, ErrNoStructuredOutput) {
		t.Fatalf("expected ErrNoStructuredOutput, got %v", err)
	}
}

func TestInvokeToolArgsFailingSchema(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: toolResponse(`{"other": 1}`)}}}
	c := newTestClient(stub)

	_, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
	if !errors.Is(err, ErrNoStructuredOutput) {
		t.Fatalf("expected ErrNoStructuredOutput for schema violation, got %v", err)
	}
}

func TestInvokeBadToolArgsFallThroughToText(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: rawResponse{blocks: []contentBlock{
		{kind: blockToolUse, toolName: emitToolName, toolArgs: json.RawMessage(`{"other": 1}`)},
		{kind: blockText, text: `let me answer in prose instead: {"name": "ramen"}`},
	}}}}}
	c := newTestClient(stub)

	res, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if res.FromToolCall {
		t.Fatal("nonconforming tool call must not win over the text path")
	}
	if res.JSON["name"] != "ramen" {
		t.Fatalf("unexpected payload: %v", res.JSON)
	}
}

func TestInvokeBadToolArgsWithUselessText(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: rawResponse{blocks: []contentBlock{
		{kind: blockToolUse, toolName: emitToolName, toolArgs: json.RawMessage(`{"other": 1}`)},
		{kind: blockText, text: "sorry, that did not work"},
	}}}}}
	c := newTestClient(stub)

	_, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
	if !errors.Is(err, ErrNoStructuredOutput) {
		t.Fatalf("expected the validation failure to surface, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("error should name the missing field, got %v", err)
	}
}

func TestInvokeMissingCredentialSkipsNetwork(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: toolResponse(`{"name": "x"}`)}}}
	c := New(Config{Provider: ProviderAnthropic, DefaultModelAnthropic: "claude-test"})
	c.anthropic = stub

	_, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if len(stub.plans) != 0 {
		t.Fatalf("provider must not be called without a credential, got %d calls", len(stub.plans))
	}
}

func TestInvokeRequiresSchema(t *testing.T) {
	c := newTestClient(&stubProvider{results: []stubResult{{}}})
	if _, err := c.Invoke(context.Background(), Request{Prompt: "pick"}); err == nil {
		t.Fatal("expected error for missing schema")
	}
}

func TestInvokeWebToolsAnthropicOnly(t *testing.T) {
	c := New(Config{
		Provider:           ProviderOpenAI,
		DefaultModelOpenAI: "gpt-test",
		OpenAIAPIKey:       "test-key",
	})
	_, err := c.Invoke(context.Background(), Request{Prompt: "pick", Schema: namedSchema, WebSearch: true})
	if err == nil {
		t.Fatal("expected error for web tools on non-anthropic provider")
	}
}

func TestInvokeWithRetrySecondAttemptStricter(t *testing.T) {
	stub := &stubProvider{results: []stubResult{
		{resp: textResponse("oops, no json")},
		{resp: toolResponse(`{"name": "ramen"}`)},
	}}
	c := newTestClient(stub)

	res, err := InvokeWithRetry(context.Background(), c, Request{
		Prompt: "pick",
		System: "base instructions",
		Schema: namedSchema,
	})
	if err != nil {
		t.Fatalf("InvokeWithRetry failed: %v", err)
	}
	if res.JSON["name"] != "ramen" {
		t.Fatalf("unexpected payload: %v", res.JSON)
	}
	if len(stub.plans) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", len(stub.plans))
	}
	if stub.plans[0].System != "base instructions" {
		t.Fatalf("first attempt must use the original system prompt, got %q", stub.plans[0].System)
	}
	if !strings.Contains(stub.plans[1].System, emitToolName) {
		t.Fatalf("second attempt must carry stricter instructions, got %q", stub.plans[1].System)
	}
}

func TestInvokeWithRetryStopsAfterTwoAttempts(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: textResponse("still no json")}}}
	c := newTestClient(stub)

	_, err := InvokeWithRetry(context.Background(), c, Request{Prompt: "pick", Schema: namedSchema})
	if !errors.Is(err, ErrNoStructuredOutput) {
		t.Fatalf("expected ErrNoStructuredOutput, got %v", err)
	}
	if len(stub.plans) != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", len(stub.plans))
	}
}

func TestInvokeWithRetryDoesNotRetryUpstreamFailures(t *testing.T) {
	stub := &stubProvider{results: []stubResult{
		{err: fmt.Errorf("%w: status 429", ErrUpstreamRateLimited)},
	}}
	c := newTestClient(stub)

	_, err := InvokeWithRetry(context.Background(), c, Request{Prompt: "pick", Schema: namedSchema})
	if !errors.Is(err, ErrUpstreamRateLimited) {
		t.Fatalf("expected ErrUpstreamRateLimited, got %v", err)
	}
	if len(stub.plans) != 1 {
		t.Fatalf("upstream failures must not be retried, got %d calls", len(stub.plans))
	}
}

func TestInvokeCitationLabelingAndBound(t *testing.T) {
	stub := &stubProvider{results: []stubResult{{resp: rawResponse{blocks: []contentBlock{
		{kind: blockText, text: `found these {"name": "ok"}`, citations: []Citation{
			{URL: "https://a.example/1"},
			{URL: "https://a.example/2"},
			{URL: "https://a.example/1"},
			{URL: "https://a.example/3"},
			{URL: "https://a.example/4"},
		}},
	}}}}}
	c := newTestClient(stub)

	res, err := c.Invoke(context.Background(), Request{
		Prompt:        "pick",
		Schema:        namedSchema,
		CitationLabel: "article",
		MaxCitations:  3,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if len(res.Citations) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(res.Citations))
	}
	for i, cit := range res.Citations {
		if cit.Label != "article" {
			t.Fatalf("citation %d missing label: %+v", i, cit)
		}
	}
	if res.Citations[0].URL != "https://a.example/1" || res.Citations[2].URL != "https://a.example/3" {
		t.Fatalf("unexpected citation order: %v", res.Citations)
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(fmt.Errorf("wrap: %w", ErrMalformedJSON)) {
		t.Fatal("malformed JSON must be retryable")
	}
	if !Retryable(ErrNoStructuredOutput) {
		t.Fatal("missing structured output must be retryable")
	}
	for _, err := range []error{ErrMissingCredential, ErrUpstreamTimeout, ErrUpstreamRateLimited, ErrUpstreamUnavailable} {
		if Retryable(err) {
			t.Fatalf("%v must not be retryable", err)
		}
	}
}
