package export

import (
	"fmt"
	"strings"

	"roadnerd/internal/roadmap"
	"roadnerd/internal/types"
)

// RenderMarkdown produces the human-facing roadmap document. Output is
// byte-identical across runs for the same roadmap apart from the generated
// timestamp in the header.
func RenderMarkdown(rm *roadmap.Roadmap) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Roadmap: %s\n\n", rm.Metadata.Project)
	fmt.Fprintf(&sb, "Generated: %s  \n", rm.Metadata.Generated.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "Run: `%s`\n\n", rm.Metadata.RunID)

	writeSummary(&sb, rm)
	writePhases(&sb, rm)
	writeTimeline(&sb, rm)
	writeRisks(&sb, rm)
	writeWarnings(&sb, rm)

	return []byte(sb.String())
}

func writeSummary(sb *strings.Builder, rm *roadmap.Roadmap) {
	s := rm.Summary
	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(sb, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(sb, "| Items | %d |\n", s.TotalItems)
	fmt.Fprintf(sb, "| Total effort | %.0fh |\n", s.TotalEffortHours)
	fmt.Fprintf(sb, "| Completeness | %.1f%% |\n", s.Completeness)
	fmt.Fprintf(sb, "| Production readiness | %.1f |\n", s.ProductionReadiness)
	fmt.Fprintf(sb, "| Documentation accuracy | %.1f%% |\n", s.DocAccuracy)
	sb.WriteString("\n")

	if len(s.ByPriority) > 0 {
		sb.WriteString("| Priority | Count |\n|---|---|\n")
		for _, p := range []types.Priority{types.PriorityP0, types.PriorityP1, types.PriorityP2, types.PriorityP3} {
			if n, ok := s.ByPriority[p]; ok {
				fmt.Fprintf(sb, "| %s | %d |\n", p, n)
			}
		}
		sb.WriteString("\n")
	}
}

func writePhases(sb *strings.Builder, rm *roadmap.Roadmap) {
	for _, phase := range rm.Phases {
		fmt.Fprintf(sb, "## %s\n\n", phase.Name)
		fmt.Fprintf(sb, "Effort: %.0fh\n\n", phase.TotalEffort)

		sb.WriteString("| ID | Priority | Title | Effort | Type | Depends on |\n")
		sb.WriteString("|---|---|---|---|---|---|\n")
		for _, id := range phase.ItemIDs {
			it := rm.ItemByID(id)
			if it == nil {
				continue
			}
			deps := strings.Join(it.Dependencies, ", ")
			if deps == "" {
				deps = "-"
			}
			fmt.Fprintf(sb, "| %s | %s | %s | %.0fh | %s | %s |\n",
				it.ID, it.Priority, escapePipes(it.Title), it.Effort.Range.Realistic, it.Type, deps)
		}
		sb.WriteString("\n")

		if len(phase.SuccessCriteria) > 0 {
			sb.WriteString("Success criteria:\n\n")
			for _, c := range phase.SuccessCriteria {
				fmt.Fprintf(sb, "- %s\n", c)
			}
			sb.WriteString("\n")
		}
	}
}

func writeTimeline(sb *strings.Builder, rm *roadmap.Roadmap) {
	tl := rm.Timeline
	sb.WriteString("## Timeline\n\n")
	fmt.Fprintf(sb, "Total estimated effort: %.0fh\n\n", tl.TotalHours)

	if len(tl.ByTeamSize) > 0 {
		sb.WriteString("| Team size | Duration |\n|---|---|\n")
		for _, te := range tl.ByTeamSize {
			fmt.Fprintf(sb, "| %d | %.1f weeks |\n", te.TeamSize, te.Weeks)
		}
		sb.WriteString("\n")
	}

	if len(tl.CriticalPath) > 0 {
		fmt.Fprintf(sb, "Critical path: %s\n\n", strings.Join(tl.CriticalPath, " -> "))
	}
}

func writeRisks(sb *strings.Builder, rm *roadmap.Roadmap) {
	if len(rm.Risks) == 0 {
		return
	}
	sb.WriteString("## Risks\n\n")
	for _, r := range rm.Risks {
		fmt.Fprintf(sb, "- **%s** (%s): %s", r.ID, r.Severity, r.Description)
		if r.Mitigation != "" {
			fmt.Fprintf(sb, " Mitigation: %s", r.Mitigation)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func writeWarnings(sb *strings.Builder, rm *roadmap.Roadmap) {
	if len(rm.Warnings) == 0 {
		return
	}
	sb.WriteString("## Warnings\n\n")
	for _, w := range rm.Warnings {
		fmt.Fprintf(sb, "- %s\n", w)
	}
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
