package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openAIChat captures the subset of the OpenAI client used by the
// provider. It is satisfied by *openai.Client so tests can pass a stub.
type openAIChat interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type openAIProvider struct {
	chat openAIChat
}

func newOpenAIProvider(cfg Config) providerClient {
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &openAIProvider{chat: openai.NewClientWithConfig(oc)}
}

// invoke forces the structured-output tool through function calling. OpenAI
// has no server-side web tools here, so every plan is a single round trip.
func (p *openAIProvider) invoke(ctx context.Context, plan callPlan) (rawResponse, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if plan.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: plan.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: plan.Input,
	})

	req := openai.ChatCompletionRequest{
		Model:     plan.Model,
		Messages:  msgs,
		MaxTokens: plan.MaxOutputTokens,
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        emitToolName,
				Description: emitToolDescription,
				Parameters:  plan.Schema,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: emitToolName},
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, plan.RoundTimeout)
	defer cancel()
	resp, err := p.chat.CreateChatCompletion(callCtx, req)
	if err != nil {
		return rawResponse{}, classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return rawResponse{}, fmt.Errorf("%w: empty choices", ErrNoStructuredOutput)
	}

	choice := resp.Choices[0]
	var raw rawResponse
	for _, tc := range choice.Message.ToolCalls {
		raw.blocks = append(raw.blocks, contentBlock{
			kind:     blockToolUse,
			toolName: tc.Function.Name,
			toolArgs: json.RawMessage(tc.Function.Arguments),
		})
	}
	if choice.Message.Content != "" {
		raw.blocks = append(raw.blocks, contentBlock{kind: blockText, text: choice.Message.Content})
	}
	return raw, nil
}

func classifyOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err)
	}
	return classifyTransport(err)
}
