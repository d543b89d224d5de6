package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"roadnerd/internal/roadmap"
)

// IssueRecord is one tracker-ready issue. The records are tracker-agnostic;
// a thin import script maps them onto GitHub, GitLab, or Jira.
type IssueRecord struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
}

// RenderIssues converts every roadmap item into an issue record. Labels
// always include the priority and the item type.
func RenderIssues(rm *roadmap.Roadmap) ([]byte, error) {
	records := make([]IssueRecord, 0, len(rm.Items))
	for _, it := range rm.Items {
		records = append(records, issueFor(it))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("marshal issues: %w", err)
	}
	return buf.Bytes(), nil
}

func issueFor(it roadmap.RoadmapItem) IssueRecord {
	var body strings.Builder
	if it.Description != "" {
		body.WriteString(it.Description)
		body.WriteString("\n\n")
	}
	fmt.Fprintf(&body, "Estimated effort: %.0fh (%.0f-%.0fh)\n",
		it.Effort.Range.Realistic, it.Effort.Range.Optimistic, it.Effort.Range.Pessimistic)
	fmt.Fprintf(&body, "Phase: %d\n", it.Phase)
	if it.Source != "" {
		fmt.Fprintf(&body, "Source: %s", it.Source)
		if it.SourceLine > 0 {
			fmt.Fprintf(&body, ":%d", it.SourceLine)
		}
		body.WriteString("\n")
	}
	if len(it.Dependencies) > 0 {
		fmt.Fprintf(&body, "Depends on: %s\n", strings.Join(it.Dependencies, ", "))
	}
	if len(it.Criteria) > 0 {
		body.WriteString("\nAcceptance criteria:\n")
		for _, c := range it.Criteria {
			fmt.Fprintf(&body, "- [ ] %s\n", c)
		}
	}

	labels := []string{
		"priority:" + strings.ToLower(string(it.Priority)),
		"type:" + string(it.Type),
	}
	if it.Phase > 0 {
		labels = append(labels, fmt.Sprintf("phase:%d", it.Phase))
	}

	return IssueRecord{
		Title:  fmt.Sprintf("[%s] %s", it.Priority, it.Title),
		Body:   body.String(),
		Labels: labels,
	}
}
