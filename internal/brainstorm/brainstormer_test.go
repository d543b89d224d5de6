package brainstorm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnerd/internal/config"
	"roadnerd/internal/types"
)

// errorProvider fails every call.
type errorProvider struct{}

func (errorProvider) Generate(context.Context, string) (string, error) {
	return "", errors.New("provider down")
}

// flakyProvider fails one category and answers the rest.
type flakyProvider struct {
	failCategory string
	response     string
}

func (p *flakyProvider) Generate(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, fmt.Sprintf("%q", p.failCategory)) {
		return "", errors.New("category exploded")
	}
	return p.response, nil
}

func newTestBrainstormer(p SuggestionProvider) *Brainstormer {
	return NewBrainstormer(p, config.DefaultConfig())
}

func TestParseSuggestionsValid(t *testing.T) {
	raw := "```json\n" + `[
  {"name": "Incremental sync", "description": "Sync only deltas", "rationale": "faster", "effort_hours": 12, "confidence": 0.8}
]` + "\n```"

	features, dropped, err := ParseSuggestions(raw, types.CategoryPerformance)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, features, 1)

	f := features[0]
	assert.Equal(t, types.CategoryPerformance, f.Category)
	assert.Equal(t, "Incremental sync", f.Name)
	assert.Equal(t, 12.0, f.Effort.Range.Realistic)
	assert.Equal(t, 0.8, f.Confidence)
}

func TestParseSuggestionsDropsInvalidEntries(t *testing.T) {
	raw := `[
  {"name": "", "description": "no name", "effort_hours": 5, "confidence": 0.5},
  {"name": "Bad effort", "description": "x", "effort_hours": -1, "confidence": 0.5},
  {"name": "Bad confidence", "description": "x", "effort_hours": 5, "confidence": 3},
  {"name": "Keeper", "description": "valid", "effort_hours": 5, "confidence": 0}
]`

	features, dropped, err := ParseSuggestions(raw, types.CategoryTesting)
	require.NoError(t, err)
	assert.Equal(t, 3, dropped)
	require.Len(t, features, 1)
	assert.Equal(t, "Keeper", features[0].Name)
	// Zero confidence means unreported and defaults to the midpoint.
	assert.Equal(t, 0.5, features[0].Confidence)
}

func TestParseSuggestionsInvalidJSONIsError(t *testing.T) {
	_, _, err := ParseSuggestions("I think you should add more tests!", types.CategoryTesting)
	assert.Error(t, err)
}

func TestBrainstormAbsorbsCategoryFailures(t *testing.T) {
	provider := &flakyProvider{
		failCategory: string(types.CategorySecurity),
		response:     `[{"name": "Thing", "description": "d", "effort_hours": 4, "confidence": 0.6}]`,
	}
	b := newTestBrainstormer(provider)

	features, warnings := b.Brainstorm(context.Background(), ProjectContext{Name: "demo"})

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "security")
	// 7 surviving categories each produced "Thing"; dedup keeps one.
	require.Len(t, features, 1)
	assert.Equal(t, "Thing", features[0].Name)
}

func TestBrainstormAllCategoriesFailing(t *testing.T) {
	b := newTestBrainstormer(errorProvider{})
	features, warnings := b.Brainstorm(context.Background(), ProjectContext{Name: "demo"})
	assert.Empty(t, features)
	assert.Len(t, warnings, len(types.AllFeatureCategories))
}

func TestBrainstormNilProvider(t *testing.T) {
	b := newTestBrainstormer(nil)
	features, warnings := b.Brainstorm(context.Background(), ProjectContext{})
	assert.Empty(t, features)
	assert.NotEmpty(t, warnings)
}

func TestNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, NameSimilarity("Dark Mode", "dark-mode"))
	assert.Greater(t, NameSimilarity("Incremental backup", "Incremental backups"), 0.85)
	assert.Less(t, NameSimilarity("Dark mode", "Export to CSV"), 0.3)
}

func TestDedupeKeepsHigherConfidenceDetails(t *testing.T) {
	b := newTestBrainstormer(nil)
	features := []DesirableFeature{
		{Name: "Dark mode", Description: "first", Rationale: "weak", Confidence: 0.4,
			Effort: types.HeuristicEffort(10, 0.4), Dependencies: []string{"theming"}},
		{Name: "dark-mode", Description: "second", Rationale: "strong", Confidence: 0.9,
			Effort: types.HeuristicEffort(6, 0.9), Dependencies: []string{"settings"}},
	}

	out := b.Dedupe(features)
	require.Len(t, out, 1)
	// First-seen name survives; higher-confidence source wins the details.
	assert.Equal(t, "Dark mode", out[0].Name)
	assert.Equal(t, "strong", out[0].Rationale)
	assert.Equal(t, 6.0, out[0].Effort.Range.Realistic)
	assert.Equal(t, []string{"settings", "theming"}, out[0].Dependencies)
}

func TestStaticProviderSubstringMatch(t *testing.T) {
	p := &StaticProvider{
		Responses: map[string]string{"security": `[{"name": "Audit log", "description": "d", "effort_hours": 8, "confidence": 0.7}]`},
		Fallback:  "[]",
	}

	resp, err := p.Generate(context.Background(), `features in the "security" category`)
	require.NoError(t, err)
	assert.Contains(t, resp, "Audit log")

	resp, err = p.Generate(context.Background(), "anything else")
	require.NoError(t, err)
	assert.Equal(t, "[]", resp)
}

func TestStaticProviderOverlappingKeysDeterministic(t *testing.T) {
	p := &StaticProvider{
		Responses: map[string]string{
			"feature":  "alpha",
			"features": "beta",
		},
	}

	// Both keys match; the lexicographically first one wins every time.
	for i := 0; i < 20; i++ {
		resp, err := p.Generate(context.Background(), "suggest features for the project")
		require.NoError(t, err)
		assert.Equal(t, "alpha", resp)
	}
}
