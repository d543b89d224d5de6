package gap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"roadnerd/internal/config"
	"roadnerd/internal/logging"
	"roadnerd/internal/types"
	"roadnerd/internal/world"
)

// FeatureAnalyzer verifies advertised-feature documentation against code.
type FeatureAnalyzer struct {
	cfg       config.AnalysisConfig
	scanner   *world.Scanner
	stubPreds []StubPredicate
	estimator types.EffortEstimator
}

// NewFeatureAnalyzer creates a feature gap analyzer.
func NewFeatureAnalyzer(cfg *config.Config, scanner *world.Scanner) *FeatureAnalyzer {
	return &FeatureAnalyzer{
		cfg:       cfg.Analysis,
		scanner:   scanner,
		stubPreds: BuildStubPredicates(cfg.Analysis.StubPredicates),
	}
}

// SetEffortEstimator installs an optional historical effort estimator.
func (a *FeatureAnalyzer) SetEffortEstimator(e types.EffortEstimator) {
	a.estimator = e
}

// FeatureClaim is one advertised capability extracted from documentation.
type FeatureClaim struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Line   int    `json:"line"`
}

var (
	featureHeadingRe = regexp.MustCompile(`(?i)^#{1,6}\s+.*\b(features?|capabilities|what.*(?:does|can)|highlights)\b`)
	// "- **Name** — description" style bullets carry claims anywhere
	boldBulletRe  = regexp.MustCompile(`^[-*]\s+\*\*([^*]+)\*\*\s*[-–—:]?\s*(.*)$`)
	plainBulletRe = regexp.MustCompile(`^[-*]\s+(.+)$`)
)

// ExtractClaims pulls feature claims from one documentation file:
// any bold-prefixed bullet, plus every bullet inside a Features section.
func ExtractClaims(path string) ([]FeatureClaim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read doc %s: %w", path, err)
	}

	var claims []FeatureClaim
	inFeatureSection := false

	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "#") {
			inFeatureSection = featureHeadingRe.MatchString(line)
			continue
		}

		if m := boldBulletRe.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[1])
			if desc := strings.TrimSpace(m[2]); desc != "" {
				text = text + ": " + desc
			}
			claims = append(claims, FeatureClaim{Text: text, Source: path, Line: i + 1})
			continue
		}

		if inFeatureSection {
			if m := plainBulletRe.FindStringSubmatch(line); m != nil {
				claims = append(claims, FeatureClaim{Text: strings.TrimSpace(m[1]), Source: path, Line: i + 1})
			}
		}
	}

	return claims, nil
}

// AnalyzeFeatures extracts claims from docs under docsDir and verifies each
// against the code under codeDir.
func (a *FeatureAnalyzer) AnalyzeFeatures(ctx context.Context, docsDir, codeDir string) ([]FeatureGap, []string, error) {
	scan, err := a.scanner.Scan(ctx, codeDir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan code dir: %w", err)
	}
	return a.AnalyzeWithIndex(ctx, docsDir, scan.Index, scan.Failures)
}

// AnalyzeWithIndex runs feature analysis against an already-built index.
func (a *FeatureAnalyzer) AnalyzeWithIndex(ctx context.Context, docsDir string, idx *world.Index, scanFailures []world.ScanFailure) ([]FeatureGap, []string, error) {
	var warnings []string

	docFiles, err := discoverDocs(docsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("discover docs: %w", err)
	}
	if len(docFiles) == 0 {
		warnings = append(warnings, fmt.Sprintf("no documentation files found under %s", docsDir))
	}

	var gaps []FeatureGap
	for _, docPath := range docFiles {
		if ctx.Err() != nil {
			warnings = append(warnings, "feature analysis cut short by deadline")
			break
		}
		claims, err := ExtractClaims(docPath)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("doc parsing failed: %v", err))
			continue
		}
		for _, claim := range claims {
			gaps = append(gaps, a.verifyClaim(claim, idx, len(scanFailures) > 0))
		}
	}

	logging.Gap("Feature analysis: %d claim(s) verified, %d warning(s)", len(gaps), len(warnings))
	return gaps, warnings, nil
}

// discoverDocs returns documentation files under dir, sorted.
func discoverDocs(dir string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logging.GapDebug("doc discovery: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".markdown", ".rst", ".txt":
			docs = append(docs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}

// verifyClaim scores one claim's accuracy via signature verification.
func (a *FeatureAnalyzer) verifyClaim(claim FeatureClaim, idx *world.Index, hadScanFailures bool) FeatureGap {
	// Lead phrase of the claim names the capability.
	lead := claim.Text
	if i := strings.IndexAny(lead, ":.—–"); i > 0 {
		lead = lead[:i]
	}
	expectedName := world.ExpectedSymbolName(lead)

	g := FeatureGap{
		Claim:  claim.Text,
		Source: claim.Source,
		Line:   claim.Line,
	}

	v := world.VerifySignature(idx, expectedName, -1)

	switch {
	case !v.Found:
		g.Accuracy = 15
		g.Evidence = append(g.Evidence, Evidence{
			Type:             EvidenceSymbolMissing,
			Description:      fmt.Sprintf("no symbol matching %q", expectedName),
			ConfidenceImpact: -35,
		})
		if hadScanFailures {
			g.Accuracy += 10
			g.Evidence = append(g.Evidence, Evidence{
				Type:             EvidenceUnknown,
				Description:      "some source files failed to parse; claim may be implemented there",
				ConfidenceImpact: -10,
			})
		}
	default:
		sym := v.Symbol
		g.Evidence = append(g.Evidence, Evidence{
			Type:             EvidenceSymbolFound,
			Description:      fmt.Sprintf("symbol %s at %s:%d", sym.Name, sym.File, sym.Line),
			ConfidenceImpact: 25,
		})
		if isStub, reason := DetectStub(*sym, a.stubPreds); isStub {
			g.Accuracy = 45
			g.Evidence = append(g.Evidence, Evidence{
				Type: EvidenceStubDetected, Description: reason, ConfidenceImpact: -20,
			})
		} else if v.HasTest {
			g.Accuracy = 95
			g.Evidence = append(g.Evidence, Evidence{
				Type: EvidenceTestFound, Description: "colocated test references symbol", ConfidenceImpact: 20,
			})
		} else {
			g.Accuracy = 70
			g.Evidence = append(g.Evidence, Evidence{
				Type: EvidenceTestMissing, Description: "implemented but untested", ConfidenceImpact: 5,
			})
		}
		if !v.ExactName {
			g.Accuracy -= 10
			g.Evidence = append(g.Evidence, Evidence{
				Type:             EvidenceNameVariant,
				Description:      fmt.Sprintf("matched via name variant of %q", expectedName),
				ConfidenceImpact: -5,
			})
		}
	}

	g.Status = a.classifyAccuracy(g.Accuracy)
	g.Effort = a.estimateClaimEffort(g)
	g.Recommendation = RecommendFor(g.Status, g.Effort)
	return g
}

// classifyAccuracy maps an accuracy score to a claim status using the
// configured thresholds.
func (a *FeatureAnalyzer) classifyAccuracy(accuracy int) ClaimStatus {
	switch {
	case accuracy >= a.cfg.AccurateThreshold:
		return ClaimAccurate
	case accuracy >= a.cfg.MisleadingThreshold:
		return ClaimMisleading
	default:
		return ClaimFalse
	}
}

// smallEffortHours bounds what counts as "small" for the implement-vs-document call.
const smallEffortHours = 8

// RecommendFor is a pure function of (status, estimated effort).
func RecommendFor(status ClaimStatus, effort types.EffortEstimate) Recommendation {
	switch status {
	case ClaimAccurate:
		return RecommendNone
	case ClaimMisleading:
		return RecommendDisclaimer
	default:
		if effort.Range.Realistic <= smallEffortHours {
			return RecommendImplement
		}
		return RecommendUpdateDocs
	}
}

// estimateClaimEffort sizes the work implied by a claim gap.
func (a *FeatureAnalyzer) estimateClaimEffort(g FeatureGap) types.EffortEstimate {
	complexity := 1 + len(strings.Fields(g.Claim))/6
	if a.estimator != nil {
		return a.estimator.Estimate(g.Claim, complexity)
	}

	var base float64
	switch g.Status {
	case ClaimFalse:
		base = 6
	case ClaimMisleading:
		base = 4
	default:
		return types.HeuristicEffort(0, 1.0)
	}
	return types.HeuristicEffort(base*float64(complexity), 0.5)
}
