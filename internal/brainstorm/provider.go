// Package brainstorm generates candidate features per fixed category via an
// abstract suggestion provider. Provider output is untrusted text: it must
// pass strict schema validation before use, and any validation failure is
// absorbed at the category level - one bad response never aborts the run.
package brainstorm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"
)

// SuggestionProvider is the narrow boundary to the external generative
// collaborator. Implementations must be safe for concurrent use.
type SuggestionProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiProvider implements SuggestionProvider using Google's Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed suggestion provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Generate sends a prompt and returns the raw completion text.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return result.Text(), nil
}

// StaticProvider returns canned responses keyed by substring match on the
// prompt. Deterministic; used in tests and offline runs.
type StaticProvider struct {
	Responses map[string]string // key: substring expected in the prompt
	Fallback  string
}

// Generate matches the prompt against configured substrings. Keys are
// tried in sorted order so overlapping matches resolve the same way on
// every call.
func (p *StaticProvider) Generate(_ context.Context, prompt string) (string, error) {
	keys := make([]string, 0, len(p.Responses))
	for key := range p.Responses {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if key != "" && strings.Contains(prompt, key) {
			return p.Responses[key], nil
		}
	}
	if p.Fallback != "" {
		return p.Fallback, nil
	}
	return "[]", nil
}
