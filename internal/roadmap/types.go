// Package roadmap turns detected gaps and scored features into a phased,
// dependency-ordered execution plan with timeline estimates.
package roadmap

import (
	"time"

	"roadnerd/internal/types"
)

// ItemType classifies where a roadmap item came from.
type ItemType string

const (
	ItemSpecGap       ItemType = "spec-gap"
	ItemFeatureGap    ItemType = "feature-gap"
	ItemEnhancement   ItemType = "enhancement"
	ItemTechnicalDebt ItemType = "technical-debt"
	ItemDocumentation ItemType = "documentation"
	ItemTesting       ItemType = "testing"
)

// ItemStatus is the execution state of an item.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusInProgress ItemStatus = "in-progress"
	StatusCompleted  ItemStatus = "completed"
	StatusWontDo     ItemStatus = "wont-do"
)

// RoadmapItem is one unit of planned work. Dependencies and Blocks hold
// item IDs; Blocks is always the exact inverse of Dependencies.
type RoadmapItem struct {
	ID          string               `json:"id"`
	Type        ItemType             `json:"type"`
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Priority    types.Priority       `json:"priority"`
	Effort      types.EffortEstimate `json:"effort"`
	Phase       int                  `json:"phase"` // 1-based, 0 before assignment
	Status      ItemStatus           `json:"status"`

	Dependencies []string `json:"dependencies,omitempty"`
	Blocks       []string `json:"blocks,omitempty"`

	// Provenance back to the analysis that produced the item.
	Source     string   `json:"source,omitempty"`
	SourceLine int      `json:"source_line,omitempty"`
	Confidence int      `json:"confidence,omitempty"` // 0-100
	ROI        float64  `json:"roi,omitempty"`
	Criteria   []string `json:"criteria,omitempty"`
}

// Phase groups items that can be delivered together.
type Phase struct {
	Number          int      `json:"number"` // 1-based
	Name            string   `json:"name"`
	ItemIDs         []string `json:"item_ids"`
	TotalEffort     float64  `json:"total_effort_hours"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`
}

// Risk records a planning hazard, such as a broken dependency cycle.
type Risk struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"` // low, medium, high
	Mitigation  string   `json:"mitigation,omitempty"`
	ItemIDs     []string `json:"item_ids,omitempty"`
}

// TeamEstimate is the projected duration for one team size.
type TeamEstimate struct {
	TeamSize   int     `json:"team_size"`
	Multiplier float64 `json:"multiplier"` // fraction of single-person duration
	Weeks      float64 `json:"weeks"`
}

// Timeline is the duration projection across team sizes.
type Timeline struct {
	TotalHours   float64        `json:"total_hours"`
	ByTeamSize   []TeamEstimate `json:"by_team_size"`
	CriticalPath []string       `json:"critical_path,omitempty"` // item IDs in order
}

// Metadata identifies a roadmap generation run. Generated is the only
// non-deterministic field in the whole document.
type Metadata struct {
	Generated time.Time `json:"generated"`
	RunID     string    `json:"run_id"`
	Project   string    `json:"project"`
	Version   string    `json:"version,omitempty"`
}

// Summary holds the headline numbers.
type Summary struct {
	TotalItems          int                    `json:"total_items"`
	ByPriority          map[types.Priority]int `json:"by_priority"`
	ByType              map[ItemType]int       `json:"by_type"`
	TotalEffortHours    float64                `json:"total_effort_hours"`
	Completeness        float64                `json:"completeness"`
	ProductionReadiness float64                `json:"production_readiness"`
	DocAccuracy         float64                `json:"doc_accuracy"`
}

// Roadmap is the complete generated plan.
type Roadmap struct {
	Metadata Metadata      `json:"metadata"`
	Summary  Summary       `json:"summary"`
	Phases   []Phase       `json:"phases"`
	Items    []RoadmapItem `json:"items"`
	Risks    []Risk        `json:"risks,omitempty"`
	Timeline Timeline      `json:"timeline"`
	Warnings []string      `json:"warnings,omitempty"`
}

// ItemByID returns the item with the given ID, or nil.
func (r *Roadmap) ItemByID(id string) *RoadmapItem {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return &r.Items[i]
		}
	}
	return nil
}
