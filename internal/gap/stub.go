package gap

import (
	"fmt"
	"strings"

	"roadnerd/internal/config"
	"roadnerd/internal/world"
)

// StubPredicate is one ordered stub-signature heuristic. Predicates are
// configuration data, not scattered conditionals, so new heuristics can be
// added without touching control flow.
type StubPredicate struct {
	Name  string
	Check func(sym world.Symbol) (bool, string)
}

// BuildStubPredicates materializes the configured predicate list.
// Unknown predicate names are ignored.
func BuildStubPredicates(cfgs []config.StubPredicateConfig) []StubPredicate {
	var preds []StubPredicate
	for _, c := range cfgs {
		switch c.Name {
		case "short_body":
			maxLines := c.MaxBodyLines
			if maxLines <= 0 {
				maxLines = 3
			}
			preds = append(preds, StubPredicate{
				Name: "short_body",
				Check: func(sym world.Symbol) (bool, string) {
					if sym.Body == "" {
						return false, ""
					}
					if sym.BodyLines <= maxLines && !sym.HasBranch {
						return true, fmt.Sprintf("body is %d line(s) with no control flow", sym.BodyLines)
					}
					return false, ""
				},
			})

		case "guidance_return":
			markers := c.Markers
			if len(markers) == 0 {
				markers = []string{"not implemented", "todo", "fixme", "placeholder"}
			}
			preds = append(preds, StubPredicate{
				Name: "guidance_return",
				Check: func(sym world.Symbol) (bool, string) {
					lower := strings.ToLower(sym.Body)
					for _, marker := range markers {
						if strings.Contains(lower, marker) {
							return true, fmt.Sprintf("body contains %q", marker)
						}
					}
					return false, ""
				},
			})

		case "no_branching":
			preds = append(preds, StubPredicate{
				Name: "no_branching",
				Check: func(sym world.Symbol) (bool, string) {
					// Only meaningful combined with a trivially small body;
					// a long branchless body is usually straight-line logic,
					// not a stub.
					if sym.Body != "" && !sym.HasBranch && sym.BodyLines <= 1 {
						return true, "single-statement body with no control flow"
					}
					return false, ""
				},
			})
		}
	}
	return preds
}

// DetectStub applies the ordered predicate list to a symbol.
// The first matching predicate wins.
func DetectStub(sym world.Symbol, preds []StubPredicate) (bool, string) {
	// Type-level symbols have no body to judge.
	if sym.Kind != world.KindFunction && sym.Kind != world.KindMethod {
		return false, ""
	}
	for _, p := range preds {
		if ok, reason := p.Check(sym); ok {
			return true, fmt.Sprintf("%s: %s", p.Name, reason)
		}
	}
	return false, ""
}
