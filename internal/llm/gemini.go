package llm

import (
	"context"
	"encoding/json"
	"log"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateJSON sends the concatenated system prompt and input payload and
// requests application/json output.
func (g *GeminiClient) GenerateJSON(ctx context.Context, system string, input any) (json.RawMessage, error) {
	in, _ := json.MarshalIndent(input, "", "  ")
	full := system + "\n\n[INPUT JSON]\n" + string(in)
	log.Printf("LLM request (%s): %d bytes", g.model, len(full))

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, err
	}
	// A response that is not JSON is a broken output contract, not a blip;
	// retrying the same prompt will not fix it.
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, NewPermanentError(ErrInvalidJSON)
	}
	raw := json.RawMessage(resp.Candidates[0].Content.Parts[0].Text)
	var scratch any
	if err := json.Unmarshal(raw, &scratch); err != nil {
		return nil, NewPermanentError(ErrInvalidJSON)
	}
	return raw, nil
}
