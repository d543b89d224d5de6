package roadmap

import (
	"math"

	"roadnerd/internal/logging"
)

// hoursPerWeek is one developer-week.
const hoursPerWeek = 40

// teamMultipliers express coordination overhead: doubling the team does not
// halve the duration. Sizes beyond the table extrapolate from size 3.
var teamMultipliers = map[int]float64{
	1: 1.0,
	2: 0.55,
	3: 0.4,
}

// EstimateTimeline projects total duration per team size and computes the
// critical path, the dependency chain with the largest cumulative effort.
func EstimateTimeline(items []RoadmapItem, teamSizes []int) Timeline {
	total := 0.0
	for _, it := range items {
		total += it.Effort.Range.Realistic
	}

	tl := Timeline{TotalHours: total}
	for _, size := range teamSizes {
		if size < 1 {
			continue
		}
		mult, ok := teamMultipliers[size]
		if !ok {
			// Diminishing returns past three developers.
			mult = teamMultipliers[3] * 3 / float64(size) * 1.2
			if mult > teamMultipliers[3] {
				mult = teamMultipliers[3]
			}
		}
		weeks := total * mult / hoursPerWeek
		tl.ByTeamSize = append(tl.ByTeamSize, TeamEstimate{
			TeamSize:   size,
			Multiplier: mult,
			Weeks:      roundTenth(weeks),
		})
	}

	tl.CriticalPath = criticalPath(items)
	logging.Roadmap("Timeline: %.0fh total, critical path %d item(s)", total, len(tl.CriticalPath))
	return tl
}

// criticalPath finds the longest path through the dependency DAG weighted by
// realistic effort, via dynamic programming over items in execution order.
// Items arrive topologically sorted, so every dependency precedes its
// dependent.
func criticalPath(items []RoadmapItem) []string {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[string]int, len(items))
	for i, it := range items {
		byID[it.ID] = i
	}

	cost := make([]float64, len(items)) // cumulative effort ending at i
	prev := make([]int, len(items))     // predecessor on the best path
	for i := range items {
		prev[i] = -1
		cost[i] = items[i].Effort.Range.Realistic

		best := 0.0
		for _, dep := range items[i].Dependencies {
			j, ok := byID[dep]
			if !ok {
				continue
			}
			switch {
			case prev[i] == -1, cost[j] > best:
				best = cost[j]
				prev[i] = j
			case cost[j] == best && items[j].ID < items[prev[i]].ID:
				prev[i] = j
			}
		}
		cost[i] += best
	}

	end := 0
	for i := range items {
		if cost[i] > cost[end] || (cost[i] == cost[end] && items[i].ID < items[end].ID) {
			end = i
		}
	}

	var path []string
	for i := end; i != -1; i = prev[i] {
		path = append(path, items[i].ID)
	}
	// Reverse into execution order.
	for a, b := 0, len(path)-1; a < b; a, b = a+1, b-1 {
		path[a], path[b] = path[b], path[a]
	}
	return path
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}
