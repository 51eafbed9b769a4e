package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/ports"
)

const defaultGeminiModel = "gemini-1.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements the model delegates with the Gemini SDK.
type GeminiClient struct {
	client *genai.Client
	model  generator
}

var (
	_ ports.SummarizationDelegate = (*GeminiClient)(nil)
	_ ports.BiasDelegate          = (*GeminiClient)(nil)
)

// NewGeminiClient dials the Gemini API. Close releases the underlying connection.
func NewGeminiClient(ctx context.Context, cfg config.GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: client.GenerativeModel(name)}, nil
}

// Close releases the SDK client.
func (g *GeminiClient) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Summarize implements ports.SummarizationDelegate.
func (g *GeminiClient) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	answer, err := g.generate(ctx, summaryPrompt(text, maxLen, minLen))
	if err != nil {
		return "", err
	}
	return checkSummary(answer)
}

// Classify implements ports.BiasDelegate.
func (g *GeminiClient) Classify(ctx context.Context, text string, labels []string) (string, error) {
	answer, err := g.generate(ctx, biasPrompt(text, labels))
	if err != nil {
		return "", err
	}
	return matchLabel(answer, labels)
}

func (g *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates: %w", domain.ErrMalformedResponse)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text: %w", domain.ErrMalformedResponse)
	}
	return b.String(), nil
}
