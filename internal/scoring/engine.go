// Package scoring ranks brainstormed features on impact, effort, ROI,
// strategic value, and risk using rule-based heuristics. Scores feed the
// prioritizer; they are deterministic for identical inputs.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"roadnerd/internal/brainstorm"
	"roadnerd/internal/config"
	"roadnerd/internal/logging"
	"roadnerd/internal/types"
)

// ScoredFeature extends a DesirableFeature with its score breakdown.
// All sub-scores are in [1,10] except ROI.
type ScoredFeature struct {
	brainstorm.DesirableFeature

	ImpactScore    float64 `json:"impact_score"`
	EffortScore    float64 `json:"effort_score"`
	ROI            float64 `json:"roi"` // impact / effort
	StrategicValue float64 `json:"strategic_value"`
	RiskScore      float64 `json:"risk_score"`
	PriorityScore  float64 `json:"priority_score"`
}

// Engine scores features with configurable priority weights.
type Engine struct {
	weights config.ScoringConfig
}

// NewEngine creates a scoring engine.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{weights: cfg.Scoring}
}

// categoryImpact is the base impact signal per category.
var categoryImpact = map[types.FeatureCategory]float64{
	types.CategoryCoreFunctionality:   8,
	types.CategorySecurity:            8,
	types.CategoryPerformance:         6,
	types.CategoryUserExperience:      6,
	types.CategoryIntegration:         5,
	types.CategoryDeveloperExperience: 4,
	types.CategoryTesting:             4,
	types.CategoryDocumentation:       3,
}

// impactKeywords nudge impact up when present in name or description.
var impactKeywords = map[string]float64{
	"crash": 2, "data loss": 2, "security": 1.5, "critical": 1.5,
	"core": 1, "blocking": 1.5, "performance": 1, "scal": 1,
}

// effortKeywords nudge effort up for known-heavy work.
var effortKeywords = map[string]float64{
	"ast": 1.5, "parser": 1.5, "llm": 1, "ai": 1, "migration": 2,
	"distributed": 2, "refactor": 1, "protocol": 1.5,
}

// securityKeywords flag risk in security-sensitive areas.
var securityKeywords = []string{"auth", "security", "credential", "token", "encrypt", "permission"}

// ScoreFeatures scores all features. A malformed feature is dropped with a
// warning rather than failing the batch.
func (e *Engine) ScoreFeatures(features []brainstorm.DesirableFeature, pctx brainstorm.ProjectContext) ([]ScoredFeature, []string) {
	var warnings []string
	var scored []ScoredFeature

	// Dependency fan-out: features named as dependencies of others unlock work.
	dependents := make(map[string]int)
	for _, f := range features {
		for _, dep := range f.Dependencies {
			dependents[normalize(dep)]++
		}
	}

	for _, f := range features {
		if strings.TrimSpace(f.Name) == "" {
			warnings = append(warnings, "scoring: dropped feature with empty name")
			continue
		}
		if err := f.Effort.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("scoring: dropped %q: %v", f.Name, err))
			continue
		}

		sf := ScoredFeature{DesirableFeature: f}
		sf.ImpactScore = e.impactScore(f)
		sf.EffortScore = e.effortScore(f)
		sf.ROI = sf.ImpactScore / sf.EffortScore
		sf.StrategicValue = e.strategicValue(f, dependents, pctx)
		sf.RiskScore = e.riskScore(f)
		sf.PriorityScore = e.weights.ImpactWeight*sf.ImpactScore +
			e.weights.ROIWeight*sf.ROI +
			e.weights.StrategicWeight*sf.StrategicValue -
			e.weights.RiskWeight*sf.RiskScore

		scored = append(scored, sf)
		logging.ScoringDebug("%s: impact=%.1f effort=%.1f roi=%.2f strategic=%.1f risk=%.1f priority=%.2f",
			f.Name, sf.ImpactScore, sf.EffortScore, sf.ROI, sf.StrategicValue, sf.RiskScore, sf.PriorityScore)
	}

	logging.Scoring("Scored %d feature(s), %d dropped", len(scored), len(warnings))
	return scored, warnings
}

// impactScore derives impact from category and keyword signals.
func (e *Engine) impactScore(f brainstorm.DesirableFeature) float64 {
	score, ok := categoryImpact[f.Category]
	if !ok {
		score = 4
	}
	text := strings.ToLower(f.Name + " " + f.Description)
	for kw, boost := range impactKeywords {
		if strings.Contains(text, kw) {
			score += boost
		}
	}
	return clampScore(score)
}

// effortScore maps estimated hours onto [1,10] with keyword adjustments.
// New dependencies and AST/AI-integration work push effort up.
func (e *Engine) effortScore(f brainstorm.DesirableFeature) float64 {
	hours := f.Effort.Range.Realistic
	if hours <= 0 {
		hours = 8
	}
	// 4h -> ~2, 40h -> ~6.5, 160h -> ~9.2
	score := 1 + 2.5*math.Log2(hours/2)
	if score < 1 {
		score = 1
	}

	score += 0.5 * float64(len(f.Dependencies))

	text := strings.ToLower(f.Name + " " + f.Description)
	for kw, boost := range effortKeywords {
		if strings.Contains(text, kw) {
			score += boost
		}
	}
	return clampScore(score)
}

// strategicValue boosts features that unlock other work or close a P0 gap.
func (e *Engine) strategicValue(f brainstorm.DesirableFeature, dependents map[string]int, pctx brainstorm.ProjectContext) float64 {
	score := 5.0

	if n := dependents[normalize(f.Name)]; n > 0 {
		score += math.Min(float64(n)*1.5, 3)
	}

	// Closing a known P0 gap is the strongest strategic signal.
	nameLower := strings.ToLower(f.Name)
	for _, g := range pctx.KnownGaps {
		gl := strings.ToLower(g)
		if strings.Contains(gl, "p0") && (strings.Contains(gl, nameLower) || strings.Contains(nameLower, firstWord(gl))) {
			score += 3
			break
		}
	}
	return clampScore(score)
}

// riskScore sums risk flags: new dependencies, security-sensitive areas,
// and low-confidence estimates.
func (e *Engine) riskScore(f brainstorm.DesirableFeature) float64 {
	score := 1.0

	score += 2 * math.Min(float64(len(f.Dependencies)), 2)

	text := strings.ToLower(f.Name + " " + f.Description)
	for _, kw := range securityKeywords {
		if strings.Contains(text, kw) {
			score += 3
			break
		}
	}

	if f.Confidence > 0 && f.Confidence < 0.4 {
		score += 2
	}
	return clampScore(score)
}

// clampScore keeps a sub-score in [1,10].
func clampScore(s float64) float64 {
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}
