package gap

import (
	"sort"

	"roadnerd/internal/logging"
	"roadnerd/internal/types"
)

// AssessCompleteness aggregates spec and feature gaps into per-category and
// per-priority completion percentages and a production-readiness score.
// Zero gaps means nothing is known to be missing: readiness is 100, not NaN.
func AssessCompleteness(specGaps []SpecGap, featureGaps []FeatureGap) CompletenessAssessment {
	assessment := CompletenessAssessment{
		ByCategory: make(map[string]float64),
		ByPriority: make(map[types.Priority]float64),
	}

	if len(specGaps) == 0 && len(featureGaps) == 0 {
		assessment.Overall = 100
		assessment.ProductionReadiness = 100
		assessment.DocAccuracy = 100
		return assessment
	}

	// Per-category completion over spec gaps.
	catTotal := make(map[string]int)
	catDone := make(map[string]int)
	prioTotal := make(map[types.Priority]int)
	prioDone := make(map[types.Priority]int)

	for _, g := range specGaps {
		cat := g.Requirement.Category
		if cat == "" {
			cat = "uncategorized"
		}
		catTotal[cat]++
		prioTotal[g.Priority]++
		if g.Status == StatusComplete {
			catDone[cat]++
			prioDone[g.Priority]++
		}
	}

	for cat, total := range catTotal {
		assessment.ByCategory[cat] = percent(catDone[cat], total)
	}
	for prio, total := range prioTotal {
		assessment.ByPriority[prio] = percent(prioDone[prio], total)
	}

	// Overall completion weighted by priority tier.
	weightSum, weighted := 0.0, 0.0
	for prio, total := range prioTotal {
		w, ok := types.PriorityWeights[prio]
		if !ok {
			w = types.PriorityWeights[types.PriorityP3]
		}
		weightSum += w
		weighted += w * percent(prioDone[prio], total)
	}
	if weightSum > 0 {
		assessment.Overall = weighted / weightSum
	} else {
		assessment.Overall = 100
	}

	// Documentation accuracy over feature gaps.
	if len(featureGaps) > 0 {
		sum := 0
		for _, fg := range featureGaps {
			sum += fg.Accuracy
		}
		assessment.DocAccuracy = float64(sum) / float64(len(featureGaps))
	} else {
		assessment.DocAccuracy = 100
	}

	// Critical gaps: every P0 spec gap not complete, deterministic order.
	for _, g := range specGaps {
		if g.Priority == types.PriorityP0 && g.Status != StatusComplete {
			assessment.CriticalGaps = append(assessment.CriticalGaps, g)
		}
	}
	sort.Slice(assessment.CriticalGaps, func(i, j int) bool {
		return assessment.CriticalGaps[i].ID < assessment.CriticalGaps[j].ID
	})

	// Production readiness: overall completion penalized by critical gaps
	// and misleading documentation.
	readiness := assessment.Overall
	readiness -= float64(len(assessment.CriticalGaps)) * 10
	readiness -= (100 - assessment.DocAccuracy) * 0.2
	if readiness < 0 {
		readiness = 0
	}
	assessment.ProductionReadiness = readiness

	logging.Gap("Completeness: overall=%.1f%% readiness=%.1f critical=%d",
		assessment.Overall, assessment.ProductionReadiness, len(assessment.CriticalGaps))
	return assessment
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
