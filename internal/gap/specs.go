package gap

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"roadnerd/internal/config"
	"roadnerd/internal/logging"
	"roadnerd/internal/types"
	"roadnerd/internal/world"
)

// SpecAnalyzer verifies specification requirements against a codebase.
type SpecAnalyzer struct {
	cfg       config.AnalysisConfig
	scanner   *world.Scanner
	stubPreds []StubPredicate
	estimator types.EffortEstimator // optional; nil falls back to heuristic
}

// NewSpecAnalyzer creates a spec gap analyzer.
func NewSpecAnalyzer(cfg *config.Config, scanner *world.Scanner) *SpecAnalyzer {
	return &SpecAnalyzer{
		cfg:       cfg.Analysis,
		scanner:   scanner,
		stubPreds: BuildStubPredicates(cfg.Analysis.StubPredicates),
	}
}

// SetEffortEstimator installs an optional historical effort estimator.
func (a *SpecAnalyzer) SetEffortEstimator(e types.EffortEstimator) {
	a.estimator = e
}

// AnalyzeSpecs discovers specification files under specsDir, extracts
// requirements, and verifies each against the code under codeDir.
// Returned gaps include complete records so completeness can be assessed;
// per-file failures become warnings, never errors.
func (a *SpecAnalyzer) AnalyzeSpecs(ctx context.Context, specsDir, codeDir string) ([]SpecGap, []string, error) {
	scan, err := a.scanner.Scan(ctx, codeDir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan code dir: %w", err)
	}
	return a.AnalyzeWithIndex(ctx, specsDir, scan.Index, scan.Failures)
}

// AnalyzeWithIndex runs spec analysis against an already-built symbol index,
// letting the engine scan the codebase once for both analyzers.
func (a *SpecAnalyzer) AnalyzeWithIndex(ctx context.Context, specsDir string, idx *world.Index, scanFailures []world.ScanFailure) ([]SpecGap, []string, error) {
	var warnings []string

	specFiles, err := DiscoverSpecs(specsDir, a.cfg.SpecExtensions)
	if err != nil {
		return nil, nil, fmt.Errorf("discover specs: %w", err)
	}
	if len(specFiles) == 0 {
		warnings = append(warnings, fmt.Sprintf("no specification files found under %s", specsDir))
	}
	for _, f := range scanFailures {
		warnings = append(warnings, fmt.Sprintf("source parse failed: %s: %v", f.Path, f.Err))
	}

	var gaps []SpecGap
	for _, specPath := range specFiles {
		if ctx.Err() != nil {
			warnings = append(warnings, "spec analysis cut short by deadline")
			break
		}
		reqs, err := ParseSpecFile(specPath)
		if err != nil {
			// malformed spec file: skip, record warning, continue
			warnings = append(warnings, fmt.Sprintf("spec parsing failed: %v", err))
			continue
		}
		for _, req := range reqs {
			gaps = append(gaps, a.verifyRequirement(req, idx, len(scanFailures) > 0))
		}
	}

	logging.Gap("Spec analysis: %d requirement(s) assessed, %d warning(s)", len(gaps), len(warnings))
	return gaps, warnings, nil
}

var arityHintRe = regexp.MustCompile(`(\d+)\s+(?:parameters|arguments|args|inputs)\b`)

// expectedArity derives a parameter-count constraint from acceptance
// criteria when one is stated; -1 leaves arity unconstrained.
func expectedArity(req Requirement) int {
	for _, c := range req.AcceptanceCriteria {
		if m := arityHintRe.FindStringSubmatch(strings.ToLower(c)); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	return -1
}

// verifyRequirement classifies one requirement via signature verification.
func (a *SpecAnalyzer) verifyRequirement(req Requirement, idx *world.Index, hadScanFailures bool) SpecGap {
	expectedName := world.ExpectedSymbolName(req.Title)
	wantParams := expectedArity(req)

	gap := SpecGap{
		ID:          fmt.Sprintf("spec:%s:%s", filepath.Base(req.Source), req.ID),
		Requirement: req,
		Priority:    req.Priority,
		ExpectedLocation: fmt.Sprintf("symbol %s (derived from %q)",
			expectedName, req.Title),
	}

	v := world.VerifySignature(idx, expectedName, wantParams)

	switch {
	case !v.Found:
		gap.Status = StatusMissing
		gap.Evidence = append(gap.Evidence, Evidence{
			Type:             EvidenceSymbolMissing,
			Description:      fmt.Sprintf("no symbol matching %q in %d indexed symbols", expectedName, idx.SymbolCount()),
			ConfidenceImpact: 40,
		})
		if hadScanFailures {
			// some candidate files never parsed, so absence is less certain
			gap.Evidence = append(gap.Evidence, Evidence{
				Type:             EvidenceUnknown,
				Description:      "one or more source files failed to parse; absence unverifiable there",
				ConfidenceImpact: -15,
			})
		}

	default:
		sym := v.Symbol
		gap.ActualLocation = fmt.Sprintf("%s:%d", sym.File, sym.Line)
		gap.Evidence = append(gap.Evidence, Evidence{
			Type:             EvidenceSymbolFound,
			Description:      fmt.Sprintf("symbol %s at %s:%d", sym.Name, sym.File, sym.Line),
			ConfidenceImpact: 20,
		})
		if !v.ExactName {
			gap.Evidence = append(gap.Evidence, Evidence{
				Type:             EvidenceNameVariant,
				Description:      fmt.Sprintf("matched via name variant of %q", expectedName),
				ConfidenceImpact: -10,
			})
		}
		if wantParams >= 0 {
			if v.ArityMatch {
				gap.Evidence = append(gap.Evidence, Evidence{
					Type:             EvidenceArityMatch,
					Description:      fmt.Sprintf("parameter arity %d matches", wantParams),
					ConfidenceImpact: 15,
				})
			} else {
				gap.Evidence = append(gap.Evidence, Evidence{
					Type:             EvidenceArityMismatch,
					Description:      fmt.Sprintf("expected %d parameter(s), found %d", wantParams, sym.ParamCount),
					ConfidenceImpact: -20,
				})
			}
		}

		if isStub, reason := DetectStub(*sym, a.stubPreds); isStub {
			gap.Status = StatusStub
			gap.Evidence = append(gap.Evidence, Evidence{
				Type:             EvidenceStubDetected,
				Description:      reason,
				ConfidenceImpact: 30,
			})
		} else if v.HasTest && v.ArityMatch {
			gap.Status = StatusComplete
			gap.Evidence = append(gap.Evidence, Evidence{
				Type:             EvidenceTestFound,
				Description:      "colocated test references symbol",
				ConfidenceImpact: 25,
			})
		} else {
			gap.Status = StatusPartial
			if !v.HasTest {
				gap.Evidence = append(gap.Evidence, Evidence{
					Type:             EvidenceTestMissing,
					Description:      "no colocated test found",
					ConfidenceImpact: 15,
				})
			}
		}
	}

	gap.Confidence = scoreEvidence(gap.Evidence)
	if gap.Confidence < a.cfg.ConfidenceThreshold && gap.Status != StatusComplete {
		// retained but flagged, never silently dropped
		gap.Excluded = true
	}

	gap.Effort = a.estimateEffort(gap)
	return gap
}

// estimateEffort sizes a gap. Uses the pluggable estimator when present,
// otherwise the complexity+keyword heuristic.
func (a *SpecAnalyzer) estimateEffort(g SpecGap) types.EffortEstimate {
	complexity := 1 + len(g.Requirement.AcceptanceCriteria)
	if a.estimator != nil {
		return a.estimator.Estimate(g.Requirement.Title, complexity)
	}

	var base float64
	switch g.Status {
	case StatusMissing:
		base = 16
	case StatusStub:
		base = 8
	case StatusPartial:
		base = 6
	default:
		base = 0
	}
	if base == 0 {
		return types.HeuristicEffort(0, 1.0)
	}
	realistic := base * (1 + 0.25*float64(len(g.Requirement.AcceptanceCriteria)))
	return types.HeuristicEffort(realistic, float64(g.Confidence)/100.0)
}
