package llm

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// googleModels captures the subset of the genai client used by the
// provider. It is satisfied by *genai.Models so tests can pass a stub.
type googleModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type googleProvider struct {
	models googleModels
}

func newGoogleProvider(cfg Config) (providerClient, error) {
	gc, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.GoogleAPIKey,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.GoogleBaseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &googleProvider{models: gc.Models}, nil
}

// invoke uses Gemini's native JSON response mode instead of a tool call:
// the response schema constrains generation directly and the payload comes
// back as the text of the single candidate.
func (p *googleProvider) invoke(ctx context.Context, plan callPlan) (rawResponse, error) {
	gcfg := &genai.GenerateContentConfig{
		ResponseMIMEType:   "application/json",
		ResponseJsonSchema: plan.Schema,
	}
	if plan.System != "" {
		gcfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: plan.System}},
		}
	}
	if plan.MaxOutputTokens > 0 {
		gcfg.MaxOutputTokens = int32(plan.MaxOutputTokens)
	}

	callCtx, cancel := context.WithTimeout(ctx, plan.RoundTimeout)
	defer cancel()
	res, err := p.models.GenerateContent(callCtx, plan.Model, genai.Text(plan.Input), gcfg)
	if err != nil {
		return rawResponse{}, classifyGoogleErr(err)
	}

	var raw rawResponse
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return raw, nil
	}
	for _, part := range res.Candidates[0].Content.Parts {
		if part.Text != "" {
			raw.blocks = append(raw.blocks, contentBlock{kind: blockText, text: part.Text})
		}
	}
	return raw, nil
}

func classifyGoogleErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return classifyTransport(err)
}
