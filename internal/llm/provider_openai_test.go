package llm

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// stubChat replays canned completions and records the request.
type stubChat struct {
	reqs        []openai.ChatCompletionRequest
	hadDeadline bool
	resp        openai.ChatCompletionResponse
	err         error
}

func (s *stubChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.reqs = append(s.reqs, req)
	_, s.hadDeadline = ctx.Deadline()
	return s.resp, s.err
}

func toolCallCompletion(name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				ToolCalls: []openai.ToolCall{{
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: name, Arguments: args},
				}},
			},
		}},
	}
}

func TestOpenAIInvokeForcesEmitTool(t *testing.T) {
	stub := &stubChat{resp: toolCallCompletion(emitToolName, `{"name":"ramen"}`)}
	p := &openAIProvider{chat: stub}

	plan := testPlan()
	plan.System = "be terse"
	raw, err := p.invoke(context.Background(), plan)
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	args, ok := raw.firstToolUse(emitToolName)
	if !ok || string(args) != `{"name":"ramen"}` {
		t.Fatalf("unexpected tool use: %s %v", args, ok)
	}

	if len(stub.reqs) != 1 {
		t.Fatalf("expected 1 call, got %d", len(stub.reqs))
	}
	req := stub.reqs[0]
	if req.Model != "claude-test" || req.MaxTokens != 256 {
		t.Fatalf("unexpected request: model=%s max_tokens=%d", req.Model, req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected messages: %v", req.Messages)
	}
	if len(req.Tools) != 1 || req.Tools[0].Function == nil || req.Tools[0].Function.Name != emitToolName {
		t.Fatalf("unexpected tools: %v", req.Tools)
	}
	if !reflect.DeepEqual(req.Tools[0].Function.Parameters, plan.Schema) {
		t.Fatalf("schema not placed in function parameters: %v", req.Tools[0].Function.Parameters)
	}
	choice, ok := req.ToolChoice.(openai.ToolChoice)
	if !ok || choice.Function.Name != emitToolName {
		t.Fatalf("emit tool must be forced, got %v", req.ToolChoice)
	}
	if !stub.hadDeadline {
		t.Fatal("round trip must carry a deadline")
	}
}

func TestOpenAIInvokeTextFallback(t *testing.T) {
	stub := &stubChat{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Content: `{"name":"tacos"}`},
		}},
	}}
	p := &openAIProvider{chat: stub}

	raw, err := p.invoke(context.Background(), testPlan())
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if _, ok := raw.firstToolUse(emitToolName); ok {
		t.Fatal("unexpected tool use block")
	}
	if raw.combinedText() != `{"name":"tacos"}` {
		t.Fatalf("unexpected text: %q", raw.combinedText())
	}
}

func TestOpenAIInvokeEmptyChoices(t *testing.T) {
	p := &openAIProvider{chat: &stubChat{}}
	_, err := p.invoke(context.Background(), testPlan())
	if !errors.Is(err, ErrNoStructuredOutput) {
		t.Fatalf("expected ErrNoStructuredOutput, got %v", err)
	}
}

func TestOpenAIInvokeErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, ErrUpstreamRateLimited},
		{"unauthorized", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}, ErrMissingCredential},
		{"server error", &openai.RequestError{HTTPStatusCode: 500, Err: errors.New("boom")}, ErrUpstreamUnavailable},
		{"deadline", context.DeadlineExceeded, ErrUpstreamTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &openAIProvider{chat: &stubChat{err: tc.err}}
			_, err := p.invoke(context.Background(), testPlan())
			if !errors.Is(err, tc.want) {
				t.Fatalf("classified as %v, want %v", err, tc.want)
			}
		})
	}
}

func TestOpenAIInvokeDeadlineFromPlan(t *testing.T) {
	stub := &stubChat{resp: toolCallCompletion(emitToolName, `{}`)}
	p := &openAIProvider{chat: stub}

	plan := testPlan()
	plan.RoundTimeout = 50 * time.Millisecond
	if _, err := p.invoke(context.Background(), plan); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if !stub.hadDeadline {
		t.Fatal("plan timeout not applied to the call context")
	}
}
