// Package engine orchestrates the full analysis pipeline: one codebase scan
// shared by both gap analyzers, optional feature brainstorming, scoring, and
// roadmap generation. Analyze is a pure pipeline over its input directories;
// all I/O below it is read-only except logging.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"roadnerd/internal/brainstorm"
	"roadnerd/internal/config"
	"roadnerd/internal/gap"
	"roadnerd/internal/logging"
	"roadnerd/internal/roadmap"
	"roadnerd/internal/scoring"
	"roadnerd/internal/world"
)

// Input names the directories one run analyzes. Previous carries the
// roadmap from the last run; its completed and wont-do items are excluded
// from regeneration unless listed in Reinstate.
type Input struct {
	Project   string
	CodeDir   string
	SpecsDir  string // empty skips spec gap analysis
	DocsDir   string // empty skips feature claim analysis
	Previous  *roadmap.Roadmap
	Reinstate []string
}

// Result is everything one run produced.
type Result struct {
	RunID        string                     `json:"run_id"`
	Roadmap      *roadmap.Roadmap           `json:"roadmap"`
	SpecGaps     []gap.SpecGap              `json:"spec_gaps"`
	FeatureGaps  []gap.FeatureGap           `json:"feature_gaps"`
	Completeness gap.CompletenessAssessment `json:"completeness"`
	Features     []scoring.ScoredFeature    `json:"features,omitempty"`
	Warnings     []string                   `json:"warnings,omitempty"`
	Partial      bool                       `json:"partial,omitempty"` // deadline hit
	Stages       map[string]time.Duration   `json:"-"`
}

// Engine wires the pipeline stages together.
type Engine struct {
	cfg      *config.Config
	provider brainstorm.SuggestionProvider // nil skips brainstorming
}

// New creates an engine. provider may be nil to run analysis-only.
func New(cfg *config.Config, provider brainstorm.SuggestionProvider) *Engine {
	return &Engine{cfg: cfg, provider: provider}
}

// Analyze runs the whole pipeline. The run deadline is soft: when it
// expires, completed stages are kept, remaining stages are skipped, and the
// result is marked partial with a warning. Stage failures that have a
// degraded mode degrade; only an unusable scan or an unresolvable
// dependency graph is fatal.
func (e *Engine) Analyze(ctx context.Context, in Input) (*Result, error) {
	runID := uuid.NewString()
	deadline := e.cfg.GetRunDeadline()
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	res := &Result{RunID: runID, Stages: make(map[string]time.Duration)}
	logging.Engine("Run %s: analyzing %s (deadline %v)", runID, in.CodeDir, deadline)

	// One scan serves both analyzers.
	scanStart := time.Now()
	cache := world.NewParseCache(e.cfg.Execution.ParseCacheSize)
	scanner := world.NewScanner(cache, e.cfg.Execution.MaxConcurrentFiles)
	scan, err := scanner.Scan(ctx, in.CodeDir)
	if err != nil {
		return nil, fmt.Errorf("codebase scan failed: %w", err)
	}
	res.Stages["scan"] = time.Since(scanStart)

	// Gap analysis.
	stageStart := time.Now()
	if in.SpecsDir != "" {
		analyzer := gap.NewSpecAnalyzer(e.cfg, scanner)
		specGaps, warnings, err := analyzer.AnalyzeWithIndex(ctx, in.SpecsDir, scan.Index, scan.Failures)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("spec analysis failed: %v", err))
		} else {
			res.SpecGaps = specGaps
			res.Warnings = append(res.Warnings, warnings...)
		}
	}
	if in.DocsDir != "" {
		analyzer := gap.NewFeatureAnalyzer(e.cfg, scanner)
		featureGaps, warnings, err := analyzer.AnalyzeWithIndex(ctx, in.DocsDir, scan.Index, scan.Failures)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("feature analysis failed: %v", err))
		} else {
			res.FeatureGaps = featureGaps
			res.Warnings = append(res.Warnings, warnings...)
		}
	}
	res.Completeness = gap.AssessCompleteness(res.SpecGaps, res.FeatureGaps)
	res.Stages["gaps"] = time.Since(stageStart)

	// Brainstorming and scoring, skipped without a provider or past the
	// deadline.
	stageStart = time.Now()
	if e.provider != nil && ctx.Err() == nil {
		pctx := brainstorm.ProjectContext{
			Name:      in.Project,
			Languages: scan.Index.Languages(),
			KnownGaps: summarizeGaps(res.SpecGaps),
		}
		b := brainstorm.NewBrainstormer(e.provider, e.cfg)
		features, warnings := b.Brainstorm(ctx, pctx)
		res.Warnings = append(res.Warnings, warnings...)

		eng := scoring.NewEngine(e.cfg)
		scored, scoreWarnings := eng.ScoreFeatures(features, pctx)
		res.Features = scored
		res.Warnings = append(res.Warnings, scoreWarnings...)
	}
	res.Stages["brainstorm"] = time.Since(stageStart)

	if ctx.Err() != nil {
		res.Partial = true
		res.Warnings = append(res.Warnings, "run deadline exceeded; roadmap built from completed stages only")
	}

	// Roadmap generation always runs over whatever the stages produced.
	stageStart = time.Now()
	gen := roadmap.NewGenerator(e.cfg)
	rm, err := gen.Generate(roadmap.Input{
		Project:      in.Project,
		Version:      e.cfg.Version,
		SpecGaps:     res.SpecGaps,
		FeatureGaps:  res.FeatureGaps,
		Features:     res.Features,
		Completeness: res.Completeness,
		Previous:     in.Previous,
		Reinstate:    in.Reinstate,
	})
	if err != nil {
		return nil, err
	}
	rm.Metadata.RunID = runID
	rm.Warnings = append(rm.Warnings, res.Warnings...)
	res.Roadmap = rm
	res.Stages["roadmap"] = time.Since(stageStart)

	logging.Engine("Run %s complete: %d item(s), partial=%v", runID, len(rm.Items), res.Partial)
	return res, nil
}

// summarizeGaps renders problematic spec gaps as one-line prompts for the
// brainstormer's context.
func summarizeGaps(gaps []gap.SpecGap) []string {
	var out []string
	for _, g := range gaps {
		if g.Status == gap.StatusComplete || g.Excluded {
			continue
		}
		out = append(out, fmt.Sprintf("[%s] %s (%s)", g.Priority, g.Requirement.Title, g.Status))
		if len(out) >= 20 {
			break
		}
	}
	return out
}
