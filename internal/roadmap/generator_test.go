package roadmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnerd/internal/brainstorm"
	"roadnerd/internal/config"
	"roadnerd/internal/gap"
	"roadnerd/internal/scoring"
	"roadnerd/internal/types"
)

func testGenerator() *Generator {
	return NewGenerator(config.DefaultConfig())
}

func specGapInput(id string, prio types.Priority, status gap.GapStatus, hours float64) gap.SpecGap {
	return gap.SpecGap{
		ID:          id,
		Requirement: gap.Requirement{ID: id, Title: "Req " + id, Source: "spec.md", Line: 1},
		Status:      status,
		Confidence:  80,
		Priority:    prio,
		Effort:      types.HeuristicEffort(hours, 0.8),
	}
}

func scoredFeature(name string, category types.FeatureCategory, hours float64, deps ...string) scoring.ScoredFeature {
	return scoring.ScoredFeature{
		DesirableFeature: brainstorm.DesirableFeature{
			Category: category, Name: name, Description: "d",
			Effort: types.HeuristicEffort(hours, 0.7), Confidence: 0.7,
			Dependencies: deps,
		},
		ROI: 2,
	}
}

func TestGenerateConvertsGapsOneToOne(t *testing.T) {
	in := Input{
		Project: "demo",
		SpecGaps: []gap.SpecGap{
			specGapInput("FR1", types.PriorityP0, gap.StatusMissing, 16),
			specGapInput("FR2", types.PriorityP1, gap.StatusComplete, 0), // never an item
			{ID: "FR3", Status: gap.StatusMissing, Excluded: true},      // below threshold
		},
		FeatureGaps: []gap.FeatureGap{
			{Claim: "Cloud sync", Source: "README.md", Line: 4, Status: gap.ClaimFalse,
				Recommendation: gap.RecommendImplement, Effort: types.HeuristicEffort(6, 0.5)},
			{Claim: "Fine", Status: gap.ClaimAccurate, Recommendation: gap.RecommendNone},
		},
	}

	rm, err := testGenerator().Generate(in)
	require.NoError(t, err)
	require.Len(t, rm.Items, 2)

	byID := map[string]RoadmapItem{}
	for _, it := range rm.Items {
		byID[it.ID] = it
	}
	g, ok := byID["gap-FR1"]
	require.True(t, ok)
	assert.Equal(t, ItemSpecGap, g.Type)
	assert.Equal(t, types.PriorityP0, g.Priority)
	assert.Equal(t, "spec.md", g.Source)

	d, ok := byID["doc-001"]
	require.True(t, ok)
	assert.Equal(t, ItemFeatureGap, d.Type)
	assert.Equal(t, types.PriorityP0, d.Priority)
}

func TestGenerateFeatureDependenciesResolved(t *testing.T) {
	in := Input{
		Project: "demo",
		Features: []scoring.ScoredFeature{
			scoredFeature("Plugin API", types.CategoryCoreFunctionality, 20),
			scoredFeature("Marketplace", types.CategoryIntegration, 30, "Plugin API"),
		},
	}

	rm, err := testGenerator().Generate(in)
	require.NoError(t, err)
	require.Len(t, rm.Items, 2)

	// Dependency order holds in the flat item list.
	assert.Equal(t, "feat-plugin-api", rm.Items[0].ID)
	assert.Equal(t, "feat-marketplace", rm.Items[1].ID)
	assert.Equal(t, []string{"feat-plugin-api"}, rm.Items[1].Dependencies)
	assert.Equal(t, []string{"feat-marketplace"}, rm.Items[0].Blocks)
}

func TestGeneratePhasePackingRespectsCap(t *testing.T) {
	var gaps []gap.SpecGap
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		gaps = append(gaps, specGapInput("FR-"+id, types.PriorityP1, gap.StatusMissing, 10))
	}
	rm, err := testGenerator().Generate(Input{Project: "demo", SpecGaps: gaps})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(rm.Phases), 4)
	// Every item has a phase and phases are contiguous from 1.
	seen := map[int]bool{}
	for _, it := range rm.Items {
		assert.Greater(t, it.Phase, 0)
		seen[it.Phase] = true
	}
	for n := 1; n <= len(rm.Phases); n++ {
		assert.True(t, seen[n], "phase %d has items", n)
	}
}

func TestGeneratePhaseOrderingNeverViolated(t *testing.T) {
	heavy := specGapInput("FR1", types.PriorityP2, gap.StatusMissing, 100)
	light := specGapInput("FR2", types.PriorityP0, gap.StatusMissing, 1)
	rm, err := testGenerator().Generate(Input{Project: "demo", SpecGaps: []gap.SpecGap{heavy, light}})
	require.NoError(t, err)

	// The P0 item executes first regardless of effort balance.
	assert.Equal(t, "gap-FR2", rm.Items[0].ID)
	phaseOf := map[string]int{}
	for _, it := range rm.Items {
		phaseOf[it.ID] = it.Phase
	}
	assert.LessOrEqual(t, phaseOf["gap-FR2"], phaseOf["gap-FR1"])
}

func TestGeneratePhaseCountRelaxedWithWarning(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Roadmap.MaxPhases = 2
	gen := NewGenerator(cfg)

	// Three equal items cannot fit two phases within the overflow
	// tolerance (target 15h, limit 18.75h), so a third phase opens.
	var gaps []gap.SpecGap
	for _, id := range []string{"a", "b", "c"} {
		gaps = append(gaps, specGapInput("FR-"+id, types.PriorityP1, gap.StatusMissing, 10))
	}
	rm, err := gen.Generate(Input{Project: "demo", SpecGaps: gaps})
	require.NoError(t, err)

	assert.Len(t, rm.Phases, 3)
	require.Len(t, rm.Warnings, 1)
	assert.Contains(t, rm.Warnings[0], "phase-count cap relaxed")
	for _, ph := range rm.Phases {
		assert.LessOrEqual(t, ph.TotalEffort, 18.75)
	}
}

func TestGenerateExcludesPriorResolvedItems(t *testing.T) {
	in := Input{
		Project: "demo",
		SpecGaps: []gap.SpecGap{
			specGapInput("FR1", types.PriorityP0, gap.StatusMissing, 16),
			specGapInput("FR2", types.PriorityP1, gap.StatusMissing, 8),
		},
	}
	first, err := testGenerator().Generate(in)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)

	first.ItemByID("gap-FR1").Status = StatusWontDo
	first.ItemByID("gap-FR2").Status = StatusCompleted

	in.Previous = first
	second, err := testGenerator().Generate(in)
	require.NoError(t, err)
	assert.Empty(t, second.Items)

	// Reinstating brings the item back as fresh pending work.
	in.Reinstate = []string{"gap-FR1"}
	third, err := testGenerator().Generate(in)
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	assert.Equal(t, "gap-FR1", third.Items[0].ID)
	assert.Equal(t, StatusPending, third.Items[0].Status)
}

func TestGeneratePriorCompletionSatisfiesDependencies(t *testing.T) {
	in := Input{
		Project: "demo",
		Features: []scoring.ScoredFeature{
			scoredFeature("Plugin API", types.CategoryCoreFunctionality, 20),
			scoredFeature("Marketplace", types.CategoryIntegration, 30, "Plugin API"),
		},
	}
	first, err := testGenerator().Generate(in)
	require.NoError(t, err)
	first.ItemByID("feat-plugin-api").Status = StatusCompleted

	in.Previous = first
	second, err := testGenerator().Generate(in)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "feat-marketplace", second.Items[0].ID)
	assert.Empty(t, second.Items[0].Dependencies)
	assert.Empty(t, second.Warnings)
}

func TestGenerateSummaryTotals(t *testing.T) {
	rm, err := testGenerator().Generate(Input{
		Project: "demo",
		SpecGaps: []gap.SpecGap{
			specGapInput("FR1", types.PriorityP0, gap.StatusMissing, 16),
			specGapInput("FR2", types.PriorityP1, gap.StatusStub, 8),
		},
		Completeness: gap.CompletenessAssessment{Overall: 40, ProductionReadiness: 20, DocAccuracy: 90},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, rm.Summary.TotalItems)
	assert.Equal(t, 24.0, rm.Summary.TotalEffortHours)
	assert.Equal(t, 40.0, rm.Summary.Completeness)
	assert.Equal(t, 1, rm.Summary.ByPriority[types.PriorityP0])
	assert.NotEmpty(t, rm.Metadata.RunID)
	assert.False(t, rm.Metadata.Generated.IsZero())
}

func TestGenerateEmptyInputs(t *testing.T) {
	rm, err := testGenerator().Generate(Input{Project: "empty"})
	require.NoError(t, err)
	assert.Empty(t, rm.Items)
	assert.Empty(t, rm.Phases)
	assert.Equal(t, 0.0, rm.Timeline.TotalHours)
}
