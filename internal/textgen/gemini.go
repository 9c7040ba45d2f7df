package textgen

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/starford/ankigen/internal/apperr"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// contentModel is the slice of the genai client used here.
type contentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Generator with the Google Gen AI SDK.
type Gemini struct {
	models contentModel
	model  string
	logger *slog.Logger
}

// NewGemini creates a configured client. The caller is responsible for
// checking the spending gate before calling it.
func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("textgen: %w: API key is required", apperr.ErrConfig)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("textgen: create client: %w", err)
	}
	return newGemini(client.Models, model, logger), nil
}

func newGemini(m contentModel, model string, logger *slog.Logger) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gemini{models: m, model: model, logger: logger}
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("textgen: generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil {
			g.logger.Warn("textgen: prompt blocked", slog.String("reason", string(resp.PromptFeedback.BlockReason)))
		}
		return "", apperr.ErrNoContent
	}
	return resp.Text(), nil
}

// Rephrase asks for n rewordings, one per line.
func (g *Gemini) Rephrase(ctx context.Context, text string, n int) ([]string, error) {
	if n < 1 {
		n = 1
	}
	answer, err := g.generate(ctx, rephrasePrompt(text, n))
	if err != nil {
		return nil, err
	}
	variants := SplitLines(answer)
	switch {
	case len(variants) == 0:
		return nil, apperr.ErrNoContent
	case len(variants) < n:
		g.logger.Warn("textgen: fewer variations than requested",
			slog.Int("want", n), slog.Int("got", len(variants)))
		return variants, nil
	}
	return variants[:n], nil
}

// Describe asks for a short hint phrase.
func (g *Gemini) Describe(ctx context.Context, word string) (string, error) {
	answer, err := g.generate(ctx, describePrompt(word))
	if err != nil {
		return "", err
	}
	d := CleanDescription(answer)
	if d == "" {
		return "", apperr.ErrNoContent
	}
	return d, nil
}

// Verify *Gemini satisfies Generator at compile time.
var _ Generator = (*Gemini)(nil)
