// Package types holds shared primitives used across the analysis pipeline.
// This package exists to break import cycles between gap, scoring, and roadmap.
package types

import "fmt"

// Priority is a roadmap priority tier.
type Priority string

const (
	PriorityP0 Priority = "P0" // blocks production, security, misleading docs
	PriorityP1 Priority = "P1" // core value proposition
	PriorityP2 Priority = "P2" // enhancement
	PriorityP3 Priority = "P3" // everything else
)

// PriorityWeights are the completeness aggregation weights per tier.
var PriorityWeights = map[Priority]float64{
	PriorityP0: 0.5,
	PriorityP1: 0.3,
	PriorityP2: 0.15,
	PriorityP3: 0.05,
}

// Rank returns a sortable rank for a priority (P0 first).
func (p Priority) Rank() int {
	switch p {
	case PriorityP0:
		return 0
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	default:
		return 4
	}
}

// Valid reports whether p is a known tier.
func (p Priority) Valid() bool {
	return p.Rank() < 4
}

// EffortRange bounds an estimate.
type EffortRange struct {
	Optimistic  float64 `json:"optimistic"`
	Realistic   float64 `json:"realistic"`
	Pessimistic float64 `json:"pessimistic"`
}

// EffortEstimate is a time estimate in hours with a confidence and method.
type EffortEstimate struct {
	Hours      float64     `json:"hours"` // same as Range.Realistic
	Confidence float64     `json:"confidence"`
	Method     string      `json:"method"` // heuristic, historical
	Range      EffortRange `json:"range"`
}

// Validate enforces optimistic <= realistic <= pessimistic.
func (e EffortEstimate) Validate() error {
	if e.Range.Optimistic > e.Range.Realistic || e.Range.Realistic > e.Range.Pessimistic {
		return fmt.Errorf("effort range not ordered: %.1f/%.1f/%.1f",
			e.Range.Optimistic, e.Range.Realistic, e.Range.Pessimistic)
	}
	return nil
}

// HeuristicEffort builds a well-formed estimate around a realistic figure.
func HeuristicEffort(realistic float64, confidence float64) EffortEstimate {
	return EffortEstimate{
		Hours:      realistic,
		Confidence: confidence,
		Method:     "heuristic",
		Range: EffortRange{
			Optimistic:  realistic * 0.6,
			Realistic:   realistic,
			Pessimistic: realistic * 1.8,
		},
	}
}

// EffortEstimator is the optional pluggable estimator. When absent the
// complexity+keyword heuristic estimator is used.
type EffortEstimator interface {
	Estimate(description string, complexity int) EffortEstimate
}

// FeatureCategory is one of the fixed brainstorming categories.
type FeatureCategory string

const (
	CategoryCoreFunctionality   FeatureCategory = "core-functionality"
	CategoryUserExperience      FeatureCategory = "user-experience"
	CategoryIntegration         FeatureCategory = "integration"
	CategoryPerformance         FeatureCategory = "performance"
	CategorySecurity            FeatureCategory = "security"
	CategoryDeveloperExperience FeatureCategory = "developer-experience"
	CategoryDocumentation       FeatureCategory = "documentation"
	CategoryTesting             FeatureCategory = "testing"
)

// AllFeatureCategories lists the 8 fixed categories in canonical order.
var AllFeatureCategories = []FeatureCategory{
	CategoryCoreFunctionality,
	CategoryUserExperience,
	CategoryIntegration,
	CategoryPerformance,
	CategorySecurity,
	CategoryDeveloperExperience,
	CategoryDocumentation,
	CategoryTesting,
}

// ValidFeatureCategory reports whether c names a fixed category.
func ValidFeatureCategory(c FeatureCategory) bool {
	for _, known := range AllFeatureCategories {
		if c == known {
			return true
		}
	}
	return false
}
