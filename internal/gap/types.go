// Package gap detects implementation gaps: requirements claimed by spec
// documents and features advertised by docs are verified against the actual
// codebase via AST-level signature verification, producing confidence-scored
// gap records and an aggregate completeness assessment.
package gap

import (
	"roadnerd/internal/types"
)

// Requirement is one requirement extracted from a specification document.
type Requirement struct {
	ID                 string         `json:"id"` // unique within a spec
	Title              string         `json:"title"`
	Priority           types.Priority `json:"priority"`
	AcceptanceCriteria []string       `json:"acceptance_criteria,omitempty"`
	Category           string         `json:"category,omitempty"`
	Source             string         `json:"source"` // spec file path
	Line               int            `json:"line"`
	// Glyph-declared status from the spec itself, if any (checked box etc.)
	DeclaredDone bool `json:"declared_done,omitempty"`
}

// EvidenceType classifies a piece of gap evidence.
type EvidenceType string

const (
	EvidenceSymbolFound   EvidenceType = "symbol_found"
	EvidenceSymbolMissing EvidenceType = "symbol_missing"
	EvidenceArityMatch    EvidenceType = "arity_match"
	EvidenceArityMismatch EvidenceType = "arity_mismatch"
	EvidenceTestFound     EvidenceType = "test_found"
	EvidenceTestMissing   EvidenceType = "test_missing"
	EvidenceStubDetected  EvidenceType = "stub_detected"
	EvidenceNameVariant   EvidenceType = "name_variant"
	EvidenceUnknown       EvidenceType = "unknown" // parse/IO failure on a candidate file
)

// Evidence is one weighted observation contributing to a gap's confidence.
type Evidence struct {
	Type             EvidenceType `json:"type"`
	Description      string       `json:"description"`
	ConfidenceImpact int          `json:"confidence_impact"` // -50..+50
}

// GapStatus classifies a requirement's implementation state.
type GapStatus string

const (
	StatusComplete GapStatus = "complete" // signature verified + colocated test
	StatusPartial  GapStatus = "partial"  // signature present, criteria unmet or test missing
	StatusStub     GapStatus = "stub"     // placeholder body
	StatusMissing  GapStatus = "missing"  // no matching symbol
)

// SpecGap is a detected mismatch between a requirement and the codebase.
type SpecGap struct {
	ID          string      `json:"id"`
	Requirement Requirement `json:"requirement"`
	Status      GapStatus   `json:"status"`
	Confidence  int         `json:"confidence"` // 0-100
	Evidence    []Evidence  `json:"evidence"`

	ExpectedLocation string `json:"expected_location,omitempty"`
	ActualLocation   string `json:"actual_location,omitempty"`

	Effort   types.EffortEstimate `json:"effort"`
	Priority types.Priority       `json:"priority"`

	// Excluded marks results below the confidence threshold. They are
	// retained and reported, never silently dropped.
	Excluded bool `json:"excluded,omitempty"`
}

// ClaimStatus classifies a documentation claim's accuracy.
type ClaimStatus string

const (
	ClaimAccurate   ClaimStatus = "accurate"   // accuracy >= 90
	ClaimMisleading ClaimStatus = "misleading" // 40-89
	ClaimFalse      ClaimStatus = "false"      // < 40
)

// Recommendation is the action derived from a feature gap.
type Recommendation string

const (
	RecommendNone         Recommendation = "none"
	RecommendDisclaimer   Recommendation = "add-disclaimer"
	RecommendImplement    Recommendation = "implement-feature"
	RecommendUpdateDocs   Recommendation = "update-documentation"
)

// FeatureGap is a verified documentation claim with its accuracy verdict.
type FeatureGap struct {
	Claim          string               `json:"claim"`
	Source         string               `json:"source"`
	Line           int                  `json:"line"`
	Accuracy       int                  `json:"accuracy"` // 0-100
	Status         ClaimStatus          `json:"status"`
	Recommendation Recommendation       `json:"recommendation"`
	Evidence       []Evidence           `json:"evidence,omitempty"`
	Effort         types.EffortEstimate `json:"effort"`
}

// CompletenessAssessment aggregates gaps into completion percentages.
type CompletenessAssessment struct {
	Overall             float64                    `json:"overall"` // 0-100
	ByCategory          map[string]float64         `json:"by_category"`
	ByPriority          map[types.Priority]float64 `json:"by_priority"`
	ProductionReadiness float64                    `json:"production_readiness"`
	CriticalGaps        []SpecGap                  `json:"critical_gaps,omitempty"`
	DocAccuracy         float64                    `json:"doc_accuracy"`
}

// clampConfidence keeps confidence in [0,100].
func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// scoreEvidence computes confidence = clamp(50 + sum(impacts), 0, 100).
func scoreEvidence(evidence []Evidence) int {
	score := 50
	for _, e := range evidence {
		score += e.ConfidenceImpact
	}
	return clampConfidence(score)
}
