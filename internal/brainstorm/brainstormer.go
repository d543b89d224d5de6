package brainstorm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"roadnerd/internal/config"
	"roadnerd/internal/logging"
	"roadnerd/internal/types"
)

// DesirableFeature is a validated candidate feature for the roadmap.
type DesirableFeature struct {
	Category     types.FeatureCategory `json:"category"`
	Name         string                `json:"name"` // unique after dedup
	Description  string                `json:"description"`
	Rationale    string                `json:"rationale,omitempty"`
	Effort       types.EffortEstimate  `json:"effort"`
	Dependencies []string              `json:"dependencies,omitempty"`
	Confidence   float64               `json:"confidence"`
}

// ProjectContext describes the project for prompt construction.
type ProjectContext struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Languages   []string `json:"languages,omitempty"`
	KnownGaps   []string `json:"known_gaps,omitempty"`
}

// Brainstormer issues one provider request per fixed category, validates
// the responses, and deduplicates the merged result.
type Brainstormer struct {
	provider        SuggestionProvider
	maxConcurrent   int
	categoryTimeout time.Duration
	dedupThreshold  float64
}

// NewBrainstormer creates a brainstormer over the given provider.
func NewBrainstormer(provider SuggestionProvider, cfg *config.Config) *Brainstormer {
	return &Brainstormer{
		provider:        provider,
		maxConcurrent:   cfg.Brainstorm.MaxConcurrentCalls,
		categoryTimeout: cfg.GetCategoryTimeout(),
		dedupThreshold:  cfg.Brainstorm.DedupThreshold,
	}
}

// Brainstorm generates candidate features for all 8 fixed categories.
// A malformed or timed-out response degrades that single category to an
// empty list with a warning; the pipeline never blocks on one category.
func (b *Brainstormer) Brainstorm(ctx context.Context, pctx ProjectContext) ([]DesirableFeature, []string) {
	if b.provider == nil {
		return nil, []string{"no suggestion provider configured; brainstorming skipped"}
	}

	var mu sync.Mutex
	byCategory := make(map[types.FeatureCategory][]DesirableFeature)
	var warnings []string
	addWarning := func(w string) {
		mu.Lock()
		warnings = append(warnings, w)
		mu.Unlock()
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.maxConcurrent)

	for _, category := range types.AllFeatureCategories {
		eg.Go(func() error {
			catCtx, cancel := context.WithTimeout(egCtx, b.categoryTimeout)
			defer cancel()

			features, err := b.brainstormCategory(catCtx, category, pctx)
			if err != nil {
				addWarning(fmt.Sprintf("brainstorm %s: %v", category, err))
				logging.BrainstormWarn("category %s degraded to empty: %v", category, err)
				return nil // absorbed at the category level
			}
			mu.Lock()
			byCategory[category] = features
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // workers never return errors; they record warnings

	// Merge in canonical category order for determinism.
	var all []DesirableFeature
	for _, category := range types.AllFeatureCategories {
		all = append(all, byCategory[category]...)
	}

	deduped := b.Dedupe(all)
	logging.Brainstorm("Brainstorm: %d candidate(s), %d after dedup, %d warning(s)",
		len(all), len(deduped), len(warnings))
	return deduped, warnings
}

// brainstormCategory issues one provider call and validates the response.
func (b *Brainstormer) brainstormCategory(ctx context.Context, category types.FeatureCategory, pctx ProjectContext) ([]DesirableFeature, error) {
	prompt := buildPrompt(category, pctx)

	response, err := b.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	features, dropped, err := ParseSuggestions(response, category)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		logging.BrainstormDebug("category %s: dropped %d invalid suggestion(s)", category, dropped)
	}
	return features, nil
}

// buildPrompt constructs the per-category request.
func buildPrompt(category types.FeatureCategory, pctx ProjectContext) string {
	var sb strings.Builder
	sb.WriteString("You are brainstorming new features for a software project.\n\n")
	fmt.Fprintf(&sb, "## Project\n%s: %s\n", pctx.Name, pctx.Description)
	if len(pctx.Languages) > 0 {
		fmt.Fprintf(&sb, "Languages: %s\n", strings.Join(pctx.Languages, ", "))
	}
	if len(pctx.KnownGaps) > 0 {
		sb.WriteString("\n## Known Gaps\n")
		for _, g := range pctx.KnownGaps {
			fmt.Fprintf(&sb, "- %s\n", g)
		}
	}
	fmt.Fprintf(&sb, "\n## Task\nSuggest up to 5 features in the %q category.\n", category)
	sb.WriteString(`
## Response Format (JSON array only, no markdown)
[
  {
    "name": "short feature name",
    "description": "one paragraph",
    "rationale": "why this matters",
    "effort_hours": 12,
    "dependencies": ["other feature or component names"],
    "confidence": 0.0-1.0
  }
]
Only return the JSON array, no other text.`)
	return sb.String()
}

// suggestionSchema is the strict wire schema for one provider suggestion.
type suggestionSchema struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Rationale    string   `json:"rationale"`
	EffortHours  float64  `json:"effort_hours"`
	Dependencies []string `json:"dependencies"`
	Confidence   float64  `json:"confidence"`
}

// ParseSuggestions validates a raw provider response against the schema.
// Entries failing validation are discarded (counted in dropped); a response
// that is not valid JSON at all is an error for the whole category.
func ParseSuggestions(response string, category types.FeatureCategory) ([]DesirableFeature, int, error) {
	cleaned := stripFences(response)

	var raw []suggestionSchema
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, 0, fmt.Errorf("response is not a valid JSON array: %w", err)
	}

	var features []DesirableFeature
	dropped := 0
	for _, s := range raw {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Description) == "" {
			dropped++
			continue
		}
		if s.EffortHours <= 0 || s.EffortHours > 2000 {
			dropped++
			continue
		}
		confidence := s.Confidence
		if confidence < 0 || confidence > 1 {
			dropped++
			continue
		}
		if confidence == 0 {
			confidence = 0.5
		}
		features = append(features, DesirableFeature{
			Category:     category,
			Name:         strings.TrimSpace(s.Name),
			Description:  strings.TrimSpace(s.Description),
			Rationale:    strings.TrimSpace(s.Rationale),
			Effort:       types.HeuristicEffort(s.EffortHours, confidence),
			Dependencies: s.Dependencies,
			Confidence:   confidence,
		})
	}
	return features, dropped, nil
}

// stripFences removes markdown code fences from a model response.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Dedupe merges features whose normalized names are similar above the
// threshold, keeping the higher-confidence source's rationale and effort.
func (b *Brainstormer) Dedupe(features []DesirableFeature) []DesirableFeature {
	threshold := b.dedupThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}

	var kept []DesirableFeature
	for _, f := range features {
		merged := false
		for i := range kept {
			if NameSimilarity(kept[i].Name, f.Name) >= threshold {
				if f.Confidence > kept[i].Confidence {
					// higher-confidence source wins rationale/effort
					name := kept[i].Name
					kept[i] = f
					kept[i].Name = name
				}
				// union of dependencies either way
				kept[i].Dependencies = unionStrings(kept[i].Dependencies, f.Dependencies)
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, f)
		}
	}
	return kept
}

// NameSimilarity computes a Dice coefficient over character bigrams of the
// normalized names. 1.0 for identical normalized names.
func NameSimilarity(a, b string) float64 {
	na, nb := normalizeName(a), normalizeName(b)
	if na == nb {
		return 1.0
	}
	ba, bb := bigrams(na), bigrams(nb)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	overlap := 0
	for bg, count := range ba {
		if other, ok := bb[bg]; ok {
			if other < count {
				count = other
			}
			overlap += count
		}
	}
	totalA, totalB := 0, 0
	for _, c := range ba {
		totalA += c
	}
	for _, c := range bb {
		totalB += c
	}
	return 2 * float64(overlap) / float64(totalA+totalB)
}

func normalizeName(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func bigrams(s string) map[string]int {
	out := make(map[string]int)
	for i := 0; i+2 <= len(s); i++ {
		out[s[i:i+2]]++
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
