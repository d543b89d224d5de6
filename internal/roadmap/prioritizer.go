package roadmap

import (
	"fmt"
	"sort"

	"roadnerd/internal/gap"
	"roadnerd/internal/logging"
	"roadnerd/internal/types"
)

// AssignPriority applies the priority rule table to one item. Spec-declared
// priorities are respected but can only be escalated, never demoted:
// production blockers, security work, and false documentation claims are P0.
func AssignPriority(item *RoadmapItem, declared types.Priority) {
	assigned := declared
	if !assigned.Valid() {
		assigned = types.PriorityP3
	}

	switch item.Type {
	case ItemSpecGap:
		// A missing P0 requirement stays P0; everything else keeps its
		// declared tier.
	case ItemFeatureGap:
		// Advertised but absent functionality misleads users.
		assigned = types.PriorityP0
	case ItemDocumentation:
		if assigned.Rank() > types.PriorityP2.Rank() {
			assigned = types.PriorityP2
		}
	case ItemTesting, ItemTechnicalDebt:
		if assigned.Rank() < types.PriorityP2.Rank() {
			assigned = types.PriorityP2
		}
	case ItemEnhancement:
		if assigned.Rank() < types.PriorityP1.Rank() {
			assigned = types.PriorityP1
		}
	}

	// Escalation only: a declared-higher tier survives the table.
	if declared.Valid() && declared.Rank() < assigned.Rank() {
		assigned = declared
	}
	item.Priority = assigned
}

// BuildDependencyGraph resolves item dependency references, drops references
// to unknown IDs with a warning, and fills in the inverse Blocks lists.
func BuildDependencyGraph(items []RoadmapItem) ([]RoadmapItem, []string) {
	var warnings []string
	known := make(map[string]bool, len(items))
	for _, it := range items {
		known[it.ID] = true
	}

	blocks := make(map[string][]string)
	for i := range items {
		var resolved []string
		for _, dep := range items[i].Dependencies {
			if dep == items[i].ID {
				warnings = append(warnings, fmt.Sprintf("item %s depends on itself; edge dropped", dep))
				continue
			}
			if !known[dep] {
				warnings = append(warnings, fmt.Sprintf("item %s depends on unknown item %s; edge dropped", items[i].ID, dep))
				continue
			}
			resolved = append(resolved, dep)
			blocks[dep] = append(blocks[dep], items[i].ID)
		}
		sort.Strings(resolved)
		items[i].Dependencies = resolved
	}

	for i := range items {
		b := blocks[items[i].ID]
		sort.Strings(b)
		items[i].Blocks = b
	}
	return items, warnings
}

// DetectCycles finds dependency cycles with a three-color DFS. Each cycle is
// broken by removing the edge leaving the lowest-confidence item in the
// cycle, and exactly one Risk is recorded per broken cycle. Runs until the
// graph is acyclic.
func DetectCycles(items []RoadmapItem) ([]RoadmapItem, []Risk) {
	byID := make(map[string]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}

	var risks []Risk
	for n := 1; ; n++ {
		cycle := findCycle(items, byID)
		if cycle == nil {
			break
		}

		// Pick the edge to cut: the dependency edge leaving the item with
		// the lowest confidence (lexicographic ID breaks ties).
		cutIdx := cycle[0]
		for _, idx := range cycle[1:] {
			if items[idx].Confidence < items[cutIdx].Confidence ||
				(items[idx].Confidence == items[cutIdx].Confidence && items[idx].ID < items[cutIdx].ID) {
				cutIdx = idx
			}
		}

		// The cycle slice is ordered; the cut item's dependency within the
		// cycle is its successor.
		next := successorInCycle(cycle, cutIdx)
		removeDep(&items[cutIdx], items[next].ID)
		removeBlock(&items[next], items[cutIdx].ID)

		ids := make([]string, len(cycle))
		for i, idx := range cycle {
			ids[i] = items[idx].ID
		}
		sort.Strings(ids)
		risks = append(risks, Risk{
			ID:          fmt.Sprintf("risk-cycle-%d", n),
			Description: fmt.Sprintf("dependency cycle among %v broken by removing %s -> %s", ids, items[cutIdx].ID, items[next].ID),
			Severity:    "medium",
			Mitigation:  "review the removed dependency edge; ordering between these items is no longer guaranteed",
			ItemIDs:     ids,
		})
		logging.RoadmapWarn("cycle broken: removed edge %s -> %s", items[cutIdx].ID, items[next].ID)
	}
	return items, risks
}

// findCycle returns the indices of one cycle in dependency order, or nil.
func findCycle(items []RoadmapItem, byID map[string]int) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(items))
	parent := make([]int, len(items))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = gray
		for _, dep := range items[i].Dependencies {
			j := byID[dep]
			switch color[j] {
			case white:
				parent[j] = i
				if visit(j) {
					return true
				}
			case gray:
				// Back edge: walk parents from i to j to recover the cycle.
				cycle = []int{j}
				for k := i; k != j; k = parent[k] {
					cycle = append(cycle, k)
				}
				// Reverse into dependency order j <- ... <- i.
				for a, b := 0, len(cycle)-1; a < b; a, b = a+1, b-1 {
					cycle[a], cycle[b] = cycle[b], cycle[a]
				}
				return true
			}
		}
		color[i] = black
		return false
	}

	// Deterministic root order.
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return items[order[a]].ID < items[order[b]].ID })

	for _, i := range order {
		if color[i] == white && visit(i) {
			return cycle
		}
	}
	return nil
}

// successorInCycle returns the cycle index following idx. findCycle returns
// the cycle in dependency order, each element depending on the next with
// wraparound, so the successor is the dependency edge target.
func successorInCycle(cycle []int, idx int) int {
	for i, c := range cycle {
		if c == idx {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

func removeDep(item *RoadmapItem, dep string) {
	out := item.Dependencies[:0]
	for _, d := range item.Dependencies {
		if d != dep {
			out = append(out, d)
		}
	}
	item.Dependencies = out
}

func removeBlock(item *RoadmapItem, id string) {
	out := item.Blocks[:0]
	for _, b := range item.Blocks {
		if b != id {
			out = append(out, b)
		}
	}
	item.Blocks = out
}

// ResolveDependencies orders items with Kahn's algorithm. Among ready items
// the order is priority tier, then descending ROI, then lexicographic ID, so
// identical inputs always produce identical output. Residual in-degree after
// the sort means an undetected cycle and is a hard error naming the
// offending items.
func ResolveDependencies(items []RoadmapItem) ([]RoadmapItem, error) {
	byID := make(map[string]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}

	indegree := make([]int, len(items))
	for i, it := range items {
		indegree[i] = len(it.Dependencies)
	}

	var ready []int
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	less := func(a, b int) bool {
		ia, ib := items[a], items[b]
		if ia.Priority.Rank() != ib.Priority.Rank() {
			return ia.Priority.Rank() < ib.Priority.Rank()
		}
		if ia.ROI != ib.ROI {
			return ia.ROI > ib.ROI
		}
		return ia.ID < ib.ID
	}

	ordered := make([]RoadmapItem, 0, len(items))
	for len(ready) > 0 {
		sort.Slice(ready, less)
		i := ready[0]
		ready = ready[1:]
		ordered = append(ordered, items[i])

		for _, blocked := range items[i].Blocks {
			j := byID[blocked]
			indegree[j]--
			if indegree[j] == 0 {
				ready = append(ready, j)
			}
		}
	}

	if len(ordered) != len(items) {
		var stuck []string
		for i, d := range indegree {
			if d > 0 {
				stuck = append(stuck, items[i].ID)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("roadmap generation failed: unresolvable dependencies among %v", stuck)
	}

	logging.Roadmap("Resolved execution order for %d item(s)", len(ordered))
	return ordered, nil
}

// priorityForGapStatus maps a gap status to its minimum priority when the
// requirement declared none.
func priorityForGapStatus(status gap.GapStatus, declared types.Priority) types.Priority {
	if declared.Valid() {
		return declared
	}
	switch status {
	case gap.StatusMissing, gap.StatusStub:
		return types.PriorityP1
	default:
		return types.PriorityP2
	}
}
