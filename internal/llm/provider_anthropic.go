package llm

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// webFetchBeta opts the request into the web_fetch server tool, which is
// still gated behind a beta header.
const webFetchBeta = "web-fetch-2025-09-10"

// anthropicMessages captures the subset of the Anthropic SDK used by the
// provider. It is satisfied by *sdk.MessageService so tests can pass a stub.
type anthropicMessages interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type anthropicProvider struct {
	msg anthropicMessages
}

func newAnthropicProvider(cfg Config) providerClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}
	if cfg.AnthropicBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AnthropicBaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	ac := sdk.NewClient(opts...)
	return &anthropicProvider{msg: &ac.Messages}
}

// invoke issues a Messages call offering the structured-output tool and,
// when requested, the server-side web tools. Web tool use happens entirely
// provider-side within a turn; long turns surface as pause_turn stops and
// are resumed until MaxToolRounds is exhausted. Each round trip gets its
// own wall-clock budget.
func (p *anthropicProvider) invoke(ctx context.Context, plan callPlan) (rawResponse, error) {
	params := sdk.MessageNewParams{
		MaxTokens: int64(plan.MaxOutputTokens),
		Model:     sdk.Model(plan.Model),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(plan.Input))},
	}
	if plan.System != "" {
		params.System = []sdk.TextBlockParam{{Text: plan.System}}
	}

	emit := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: plan.Schema}, emitToolName)
	if emit.OfTool != nil {
		emit.OfTool.Description = sdk.String(emitToolDescription)
	}
	params.Tools = []sdk.ToolUnionParam{emit}

	if plan.WebSearch {
		params.Tools = append(params.Tools, sdk.ToolUnionParam{
			OfWebSearchTool20250305: &sdk.WebSearchTool20250305Param{
				MaxUses: sdk.Int(int64(plan.MaxToolRounds)),
			},
		})
	}
	if !plan.WebSearch && !plan.WebFetch {
		// No grounding step needed, so the emit tool is the only valid move.
		params.ToolChoice = sdk.ToolChoiceParamOfTool(emitToolName)
	}

	var opts []option.RequestOption
	if plan.WebFetch {
		// The SDK has no typed param for the web_fetch beta tool yet; append
		// it to the serialized tool list directly.
		opts = append(opts,
			option.WithHeader("anthropic-beta", webFetchBeta),
			option.WithJSONSet("tools.-1", map[string]any{
				"type":      "web_fetch_20250910",
				"name":      "web_fetch",
				"max_uses":  plan.MaxToolRounds,
				"citations": map[string]any{"enabled": true},
			}),
		)
	}

	rounds := plan.MaxToolRounds
	if rounds < 1 {
		rounds = 1
	}
	var msg *sdk.Message
	for round := 0; round < rounds; round++ {
		callCtx, cancel := context.WithTimeout(ctx, plan.RoundTimeout)
		var err error
		msg, err = p.msg.New(callCtx, params, opts...)
		cancel()
		if err != nil {
			return rawResponse{}, classifyAnthropicErr(err)
		}
		if msg.StopReason != sdk.StopReasonPauseTurn {
			break
		}
		// Resume the paused turn with the partial assistant content.
		params.Messages = append(params.Messages, msg.ToParam())
	}
	// A turn still paused after the last round carries no final answer; the
	// enforcement layer reports it as missing structured output.
	return anthropicBlocks(msg), nil
}

func anthropicBlocks(msg *sdk.Message) rawResponse {
	var raw rawResponse
	if msg == nil {
		return raw
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			cb := contentBlock{kind: blockText, text: block.Text}
			for _, cit := range block.Citations {
				if cit.URL == "" {
					continue
				}
				cb.citations = append(cb.citations, Citation{URL: cit.URL})
			}
			raw.blocks = append(raw.blocks, cb)
		case "tool_use":
			raw.blocks = append(raw.blocks, contentBlock{
				kind:     blockToolUse,
				toolName: block.Name,
				toolArgs: block.Input,
			})
		}
		// server_tool_use and web_search_tool_result blocks carry no final
		// payload and are skipped.
	}
	return raw
}

func classifyAnthropicErr(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode, err)
	}
	return classifyTransport(err)
}
