// Package progress compares roadmap snapshots over time: per-item deltas
// between two roadmaps and completion velocity across a snapshot history.
package progress

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"roadnerd/internal/export"
	"roadnerd/internal/logging"
	"roadnerd/internal/roadmap"
)

// ErrInsufficientData means fewer than two usable snapshots exist. Velocity
// is never reported as zero when it is simply unknown.
var ErrInsufficientData = errors.New("velocity requires at least two snapshots")

// LoadProgress reads a previously exported roadmap.json for comparison.
func LoadProgress(path string) (*roadmap.Roadmap, error) {
	return export.LoadRoadmap(path)
}

// FieldChange is one field-level difference on an item.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ItemChange collects the field changes of one surviving item.
type ItemChange struct {
	ID      string        `json:"id"`
	Changes []FieldChange `json:"changes"`
}

// Delta is the difference between two roadmaps, keyed by item ID.
type Delta struct {
	Added     []string     `json:"added,omitempty"`
	Removed   []string     `json:"removed,omitempty"`
	Completed []string     `json:"completed,omitempty"`
	Changed   []ItemChange `json:"changed,omitempty"`
}

// Empty reports whether nothing moved between the snapshots.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Completed) == 0 && len(d.Changed) == 0
}

// CalculateDelta diffs two roadmaps by item ID. Completed lists items that
// transitioned to completed since the previous snapshot; such items also
// carry a status field change in Changed.
func CalculateDelta(previous, current *roadmap.Roadmap) Delta {
	var d Delta

	prevByID := make(map[string]roadmap.RoadmapItem, len(previous.Items))
	for _, it := range previous.Items {
		prevByID[it.ID] = it
	}
	currByID := make(map[string]roadmap.RoadmapItem, len(current.Items))
	for _, it := range current.Items {
		currByID[it.ID] = it
	}

	for id := range currByID {
		if _, ok := prevByID[id]; !ok {
			d.Added = append(d.Added, id)
		}
	}
	for id := range prevByID {
		if _, ok := currByID[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}

	for id, curr := range currByID {
		prev, ok := prevByID[id]
		if !ok {
			continue
		}
		changes := diffItem(prev, curr)
		if len(changes) > 0 {
			d.Changed = append(d.Changed, ItemChange{ID: id, Changes: changes})
		}
		if prev.Status != roadmap.StatusCompleted && curr.Status == roadmap.StatusCompleted {
			d.Completed = append(d.Completed, id)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Completed)
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].ID < d.Changed[j].ID })

	logging.Progress("Delta: +%d -%d ~%d done=%d",
		len(d.Added), len(d.Removed), len(d.Changed), len(d.Completed))
	return d
}

// diffItem reports field-level changes between two versions of an item.
func diffItem(prev, curr roadmap.RoadmapItem) []FieldChange {
	var changes []FieldChange
	add := func(field, old, new string) {
		if old != new {
			changes = append(changes, FieldChange{Field: field, Old: old, New: new})
		}
	}
	add("status", string(prev.Status), string(curr.Status))
	add("priority", string(prev.Priority), string(curr.Priority))
	add("phase", fmt.Sprintf("%d", prev.Phase), fmt.Sprintf("%d", curr.Phase))
	add("title", prev.Title, curr.Title)
	add("effort", fmt.Sprintf("%.1f", prev.Effort.Range.Realistic), fmt.Sprintf("%.1f", curr.Effort.Range.Realistic))
	return changes
}

// Velocity is the observed completion rate over a snapshot window.
type Velocity struct {
	HoursPerWeek  float64       `json:"hours_per_week"`
	ItemsPerWeek  float64       `json:"items_per_week"`
	Window        time.Duration `json:"window"`
	SnapshotCount int           `json:"snapshot_count"`
}

// CalculateVelocity derives completion velocity from an ordered snapshot
// history (oldest first). Fewer than two snapshots, or snapshots taken at
// the same instant, return ErrInsufficientData rather than a zero rate.
func CalculateVelocity(snapshots []Snapshot) (Velocity, error) {
	if len(snapshots) < 2 {
		return Velocity{}, ErrInsufficientData
	}

	first, last := snapshots[0], snapshots[len(snapshots)-1]
	window := last.Taken.Sub(first.Taken)
	if window <= 0 {
		return Velocity{}, ErrInsufficientData
	}

	weeks := window.Hours() / (7 * 24)
	completedItems := last.CompletedItems - first.CompletedItems
	completedHours := last.CompletedHours - first.CompletedHours
	if completedItems < 0 {
		completedItems = 0
	}
	if completedHours < 0 {
		completedHours = 0
	}

	v := Velocity{
		HoursPerWeek:  completedHours / weeks,
		ItemsPerWeek:  float64(completedItems) / weeks,
		Window:        window,
		SnapshotCount: len(snapshots),
	}
	logging.Progress("Velocity: %.1fh/week over %d snapshot(s)", v.HoursPerWeek, v.SnapshotCount)
	return v, nil
}
