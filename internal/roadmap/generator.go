package roadmap

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"roadnerd/internal/config"
	"roadnerd/internal/gap"
	"roadnerd/internal/logging"
	"roadnerd/internal/scoring"
	"roadnerd/internal/types"
)

// Generator assembles roadmaps from analysis output.
type Generator struct {
	cfg config.RoadmapConfig
}

// NewGenerator creates a roadmap generator.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg.Roadmap}
}

// Input bundles everything the generator consumes. Previous is the roadmap
// from the last run, when one exists; items it marks completed or wont-do
// stay out of the new roadmap unless their IDs appear in Reinstate.
type Input struct {
	Project      string
	Version      string
	SpecGaps     []gap.SpecGap
	FeatureGaps  []gap.FeatureGap
	Features     []scoring.ScoredFeature
	Completeness gap.CompletenessAssessment
	Previous     *Roadmap
	Reinstate    []string
}

// Generate converts gaps and scored features into roadmap items one-to-one,
// assigns priorities, resolves dependencies, packs phases, and estimates the
// timeline. Completed requirements and excluded low-confidence gaps never
// become items; their records stay in the gap report.
func (g *Generator) Generate(in Input) (*Roadmap, error) {
	var warnings []string

	items := g.convertSpecGaps(in.SpecGaps)
	items = append(items, g.convertFeatureGaps(in.FeatureGaps)...)
	items = append(items, g.convertFeatures(in.Features)...)

	items = applyPriorState(items, in.Previous, in.Reinstate)

	items, graphWarnings := BuildDependencyGraph(items)
	warnings = append(warnings, graphWarnings...)

	items, risks := DetectCycles(items)

	ordered, err := ResolveDependencies(items)
	if err != nil {
		return nil, err
	}

	phases, phaseWarnings := g.packPhases(ordered)
	warnings = append(warnings, phaseWarnings...)

	teamSizes := g.cfg.TeamSizes
	if len(teamSizes) == 0 {
		teamSizes = []int{1, 2, 3}
	}
	timeline := EstimateTimeline(ordered, teamSizes)

	rm := &Roadmap{
		Metadata: Metadata{
			Generated: time.Now().UTC(),
			RunID:     uuid.NewString(),
			Project:   in.Project,
			Version:   in.Version,
		},
		Summary:  buildSummary(ordered, in.Completeness),
		Phases:   phases,
		Items:    ordered,
		Risks:    risks,
		Timeline: timeline,
		Warnings: warnings,
	}

	logging.Roadmap("Generated roadmap: %d item(s), %d phase(s), %d risk(s)",
		len(ordered), len(phases), len(risks))
	return rm, nil
}

// convertSpecGaps produces one item per actionable spec gap.
func (g *Generator) convertSpecGaps(gaps []gap.SpecGap) []RoadmapItem {
	var items []RoadmapItem
	for _, sg := range gaps {
		if sg.Status == gap.StatusComplete || sg.Excluded {
			continue
		}
		item := RoadmapItem{
			ID:           "gap-" + sg.ID,
			Type:         ItemSpecGap,
			Title:        sg.Requirement.Title,
			Description:  fmt.Sprintf("Requirement %s is %s", sg.Requirement.ID, sg.Status),
			Effort:       sg.Effort,
			Status:       StatusPending,
			Source:       sg.Requirement.Source,
			SourceLine:   sg.Requirement.Line,
			Confidence:   sg.Confidence,
			Criteria:     sg.Requirement.AcceptanceCriteria,
			Dependencies: nil,
		}
		AssignPriority(&item, priorityForGapStatus(sg.Status, sg.Priority))
		items = append(items, item)
	}
	return items
}

// convertFeatureGaps produces items for claims needing action. A false claim
// with small effort becomes implementation work; disclaimer and doc-update
// recommendations become documentation work.
func (g *Generator) convertFeatureGaps(gaps []gap.FeatureGap) []RoadmapItem {
	var items []RoadmapItem
	seq := 0
	for _, fg := range gaps {
		if fg.Recommendation == gap.RecommendNone {
			continue
		}
		seq++
		item := RoadmapItem{
			ID:         fmt.Sprintf("doc-%03d", seq),
			Title:      truncate(fg.Claim, 80),
			Effort:     fg.Effort,
			Status:     StatusPending,
			Source:     fg.Source,
			SourceLine: fg.Line,
			Confidence: fg.Accuracy,
		}
		switch fg.Recommendation {
		case gap.RecommendImplement:
			item.Type = ItemFeatureGap
			item.Description = "Advertised feature is absent; effort is small enough to implement"
		case gap.RecommendDisclaimer:
			item.Type = ItemDocumentation
			item.Description = "Claim overstates the implementation; add a disclaimer"
		default:
			item.Type = ItemDocumentation
			item.Description = "Claim does not match the code; update the documentation"
		}
		AssignPriority(&item, types.PriorityP2)
		items = append(items, item)
	}
	return items
}

// convertFeatures produces items for brainstormed features, typed by their
// category. Dependencies reference other feature items by derived ID.
func (g *Generator) convertFeatures(features []scoring.ScoredFeature) []RoadmapItem {
	idFor := make(map[string]string, len(features))
	for _, f := range features {
		idFor[f.Name] = "feat-" + slug(f.Name)
	}

	var items []RoadmapItem
	for _, f := range features {
		item := RoadmapItem{
			ID:          idFor[f.Name],
			Title:       f.Name,
			Description: f.Description,
			Effort:      f.Effort,
			Status:      StatusPending,
			Confidence:  int(f.Confidence * 100),
			ROI:         f.ROI,
		}
		switch f.Category {
		case types.CategoryTesting:
			item.Type = ItemTesting
		case types.CategoryDocumentation:
			item.Type = ItemDocumentation
		default:
			item.Type = ItemEnhancement
		}
		for _, dep := range f.Dependencies {
			if id, ok := idFor[dep]; ok {
				item.Dependencies = append(item.Dependencies, id)
			}
		}
		AssignPriority(&item, types.PriorityP2)
		items = append(items, item)
	}
	return items
}

// applyPriorState drops items already resolved in a previous run. An item
// whose prior status is completed or wont-do is excluded from regeneration
// unless its ID is reinstated; dependencies on an excluded item count as
// satisfied.
func applyPriorState(items []RoadmapItem, prev *Roadmap, reinstate []string) []RoadmapItem {
	if prev == nil {
		return items
	}
	reinstated := make(map[string]bool, len(reinstate))
	for _, id := range reinstate {
		reinstated[id] = true
	}
	resolved := make(map[string]ItemStatus)
	for _, it := range prev.Items {
		if (it.Status == StatusCompleted || it.Status == StatusWontDo) && !reinstated[it.ID] {
			resolved[it.ID] = it.Status
		}
	}
	if len(resolved) == 0 {
		return items
	}

	kept := items[:0]
	for _, it := range items {
		if st, ok := resolved[it.ID]; ok {
			logging.RoadmapDebug("Item %s already %s; excluded from regeneration", it.ID, st)
			continue
		}
		var deps []string
		for _, dep := range it.Dependencies {
			if _, ok := resolved[dep]; !ok {
				deps = append(deps, dep)
			}
		}
		it.Dependencies = deps
		kept = append(kept, it)
	}
	return kept
}

// packPhases bin-packs the ordered items into phases of roughly equal
// effort, targeting at most MaxPhases. A phase may exceed its target by the
// configured overflow tolerance before the next phase opens. When balancing
// needs more phases than the cap allows, the phase-count cap is relaxed
// with a warning; execution order is never violated to balance phases.
func (g *Generator) packPhases(ordered []RoadmapItem) ([]Phase, []string) {
	if len(ordered) == 0 {
		return nil, nil
	}
	maxPhases := g.cfg.MaxPhases
	if maxPhases <= 0 {
		maxPhases = 4
	}
	tolerance := g.cfg.PhaseOverflowTolerance
	if tolerance <= 0 {
		tolerance = 0.25
	}

	total := 0.0
	for _, it := range ordered {
		total += it.Effort.Range.Realistic
	}
	target := total / float64(maxPhases)
	limit := target * (1 + tolerance)

	var warnings []string
	var phases []Phase
	current := Phase{Number: 1}

	for i := range ordered {
		it := &ordered[i]
		effort := it.Effort.Range.Realistic

		if len(current.ItemIDs) > 0 && current.TotalEffort+effort > limit {
			if current.Number+1 > maxPhases && len(warnings) == 0 {
				warnings = append(warnings, fmt.Sprintf(
					"effort balancing needs more than %d phases; phase-count cap relaxed to preserve ordering", maxPhases))
			}
			phases = append(phases, current)
			current = Phase{Number: current.Number + 1}
		}

		it.Phase = current.Number
		current.ItemIDs = append(current.ItemIDs, it.ID)
		current.TotalEffort += effort
		current.SuccessCriteria = append(current.SuccessCriteria, it.Criteria...)
	}
	phases = append(phases, current)

	for i := range phases {
		phases[i].Name = phaseName(i+1, len(phases))
		phases[i].SuccessCriteria = dedupeStrings(phases[i].SuccessCriteria)
	}
	return phases, warnings
}

// phaseName gives a stable human label per phase position.
func phaseName(n, total int) string {
	switch {
	case n == 1:
		return "Phase 1: Critical Fixes"
	case n == total:
		return fmt.Sprintf("Phase %d: Polish", n)
	case n == 2:
		return "Phase 2: Core Work"
	default:
		return fmt.Sprintf("Phase %d: Enhancements", n)
	}
}

func buildSummary(items []RoadmapItem, assessment gap.CompletenessAssessment) Summary {
	s := Summary{
		TotalItems:          len(items),
		ByPriority:          make(map[types.Priority]int),
		ByType:              make(map[ItemType]int),
		Completeness:        assessment.Overall,
		ProductionReadiness: assessment.ProductionReadiness,
		DocAccuracy:         assessment.DocAccuracy,
	}
	for _, it := range items {
		s.ByPriority[it.Priority]++
		s.ByType[it.Type]++
		s.TotalEffortHours += it.Effort.Range.Realistic
	}
	return s
}

// slug derives a stable item ID fragment from a feature name.
func slug(s string) string {
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		case !lastDash:
			sb.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.Trim(sb.String(), "-")
	if len(out) > 40 {
		out = out[:40]
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
