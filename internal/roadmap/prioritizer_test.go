package roadmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnerd/internal/types"
)

func item(id string, deps ...string) RoadmapItem {
	return RoadmapItem{
		ID: id, Type: ItemSpecGap, Priority: types.PriorityP2,
		Effort: types.HeuristicEffort(8, 0.7), Status: StatusPending,
		Confidence: 80, Dependencies: deps,
	}
}

func TestAssignPriorityRules(t *testing.T) {
	fg := RoadmapItem{Type: ItemFeatureGap}
	AssignPriority(&fg, types.PriorityP3)
	assert.Equal(t, types.PriorityP0, fg.Priority, "false advertising escalates to P0")

	doc := RoadmapItem{Type: ItemDocumentation}
	AssignPriority(&doc, types.PriorityP3)
	assert.Equal(t, types.PriorityP2, doc.Priority)

	sg := RoadmapItem{Type: ItemSpecGap}
	AssignPriority(&sg, types.PriorityP0)
	assert.Equal(t, types.PriorityP0, sg.Priority, "declared P0 survives")

	enh := RoadmapItem{Type: ItemEnhancement}
	AssignPriority(&enh, types.PriorityP0)
	assert.Equal(t, types.PriorityP0, enh.Priority, "escalation only, never demotion")

	unk := RoadmapItem{Type: ItemSpecGap}
	AssignPriority(&unk, types.Priority(""))
	assert.Equal(t, types.PriorityP3, unk.Priority)
}

func TestBuildDependencyGraphFillsBlocks(t *testing.T) {
	items := []RoadmapItem{item("a"), item("b", "a"), item("c", "a", "b")}
	items, warnings := BuildDependencyGraph(items)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{"b", "c"}, items[0].Blocks)
	assert.Equal(t, []string{"c"}, items[1].Blocks)
	assert.Empty(t, items[2].Blocks)
}

func TestBuildDependencyGraphDropsUnknownAndSelfEdges(t *testing.T) {
	items := []RoadmapItem{item("a", "ghost", "a")}
	items, warnings := BuildDependencyGraph(items)
	assert.Empty(t, items[0].Dependencies)
	assert.Len(t, warnings, 2)
}

func TestDetectCyclesBreaksLowestConfidenceEdge(t *testing.T) {
	a := item("a", "b")
	b := item("b", "c")
	c := item("c", "a")
	a.Confidence = 90
	b.Confidence = 30 // weakest link
	c.Confidence = 70

	items, _ := BuildDependencyGraph([]RoadmapItem{a, b, c})
	items, risks := DetectCycles(items)

	require.Len(t, risks, 1)
	assert.Contains(t, risks[0].Description, "b -> c")
	assert.Equal(t, []string{"a", "b", "c"}, risks[0].ItemIDs)

	// The weakest item's outgoing edge is gone; the rest survive.
	byID := map[string]RoadmapItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.Empty(t, byID["b"].Dependencies)
	assert.Equal(t, []string{"b"}, byID["a"].Dependencies)
	assert.Equal(t, []string{"a"}, byID["c"].Dependencies)

	_, err := ResolveDependencies(items)
	assert.NoError(t, err, "graph must be acyclic after breaking")
}

func TestDetectCyclesAcyclicUntouched(t *testing.T) {
	items, _ := BuildDependencyGraph([]RoadmapItem{item("a"), item("b", "a")})
	items, risks := DetectCycles(items)
	assert.Empty(t, risks)
	assert.Equal(t, []string{"a"}, items[1].Dependencies)
}

func TestResolveDependenciesOrdering(t *testing.T) {
	low := item("low")
	low.Priority = types.PriorityP2
	high := item("high")
	high.Priority = types.PriorityP0
	roi := item("roi")
	roi.Priority = types.PriorityP2
	roi.ROI = 5.0
	dependent := item("dependent", "high")
	dependent.Priority = types.PriorityP0

	items, _ := BuildDependencyGraph([]RoadmapItem{low, high, roi, dependent})
	ordered, err := ResolveDependencies(items)
	require.NoError(t, err)

	ids := make([]string, len(ordered))
	for i, it := range ordered {
		ids[i] = it.ID
	}
	// P0 first, then its P0 dependent unblocks, then higher ROI among P2s.
	assert.Equal(t, []string{"high", "dependent", "roi", "low"}, ids)
}

func TestResolveDependenciesDeterministicTieBreak(t *testing.T) {
	items, _ := BuildDependencyGraph([]RoadmapItem{item("zeta"), item("alpha"), item("mid")})
	ordered, err := ResolveDependencies(items)
	require.NoError(t, err)
	assert.Equal(t, "alpha", ordered[0].ID)
	assert.Equal(t, "mid", ordered[1].ID)
	assert.Equal(t, "zeta", ordered[2].ID)
}

func TestResolveDependenciesReportsResidualCycle(t *testing.T) {
	// Hand-built cyclic graph that skipped DetectCycles.
	a := item("a", "b")
	b := item("b", "a")
	items, _ := BuildDependencyGraph([]RoadmapItem{a, b, item("free")})

	_, err := ResolveDependencies(items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
	assert.NotContains(t, err.Error(), "free")
}
