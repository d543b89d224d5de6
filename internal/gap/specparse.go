package gap

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"roadnerd/internal/logging"
	"roadnerd/internal/types"
)

// specFrontMatter is the optional YAML header of a spec document.
type specFrontMatter struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	Priority string `yaml:"priority"`
}

var (
	// "## FR1: Title", "### REQ-2: Title", "## Requirement 3: Title"
	reqHeadingRe = regexp.MustCompile(`^#{1,6}\s+((?:FR|NFR|REQ)[-_ ]?\d+|Requirement\s+\d+)\s*[:.]\s*(.+)$`)
	// "- [x] FR1: Title" / "* [ ] Title" and unicode status glyphs
	reqBulletRe = regexp.MustCompile(`^[-*]\s+\[([ xX])\]\s*(?:((?:FR|NFR|REQ)[-_ ]?\d+)\s*[:.]\s*)?(.+)$`)
	glyphRe     = regexp.MustCompile(`^[-*]\s+(✅|❌|🚧)\s*(?:((?:FR|NFR|REQ)[-_ ]?\d+)\s*[:.]\s*)?(.+)$`)
	priorityRe  = regexp.MustCompile(`[\[(](P[0-3])[\])]`)
	criterionRe = regexp.MustCompile(`^\s{2,}[-*]\s+(.+)$`)
)

// DiscoverSpecs returns specification files under dir, recognized by
// extension and filename convention, sorted for determinism.
func DiscoverSpecs(dir string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = []string{".md", ".markdown", ".txt"}
	}
	extSet := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		extSet[strings.ToLower(e)] = true
	}

	var specs []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logging.GapDebug("spec discovery: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if extSet[strings.ToLower(filepath.Ext(path))] {
			specs = append(specs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(specs)
	return specs, nil
}

// ParseSpecFile extracts requirements from one specification document using
// heading and status-glyph conventions. A malformed file degrades to zero
// requirements; only the read error itself is returned.
func ParseSpecFile(path string) ([]Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec %s: %w", path, err)
	}

	content := string(data)
	defaultPriority := types.PriorityP2
	defaultCategory := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	// Optional YAML front matter between leading "---" fences.
	if strings.HasPrefix(content, "---\n") {
		if end := strings.Index(content[4:], "\n---"); end >= 0 {
			var fm specFrontMatter
			if err := yaml.Unmarshal([]byte(content[4:4+end]), &fm); err == nil {
				if p := types.Priority(strings.ToUpper(fm.Priority)); p.Valid() {
					defaultPriority = p
				}
				if fm.Category != "" {
					defaultCategory = fm.Category
				}
			} else {
				logging.GapWarn("malformed front matter in %s: %v", path, err)
			}
			content = content[4+end+4:]
		}
	}

	var reqs []Requirement
	seenIDs := make(map[string]int)
	var current *Requirement

	lines := strings.Split(content, "\n")
	for i, raw := range lines {
		line := strings.TrimRight(raw, " \t")
		lineNum := i + 1

		var id, title string
		declaredDone := false
		matched := false

		if m := reqHeadingRe.FindStringSubmatch(line); m != nil {
			id, title, matched = normalizeReqID(m[1]), strings.TrimSpace(m[2]), true
		} else if m := reqBulletRe.FindStringSubmatch(line); m != nil {
			declaredDone = m[1] == "x" || m[1] == "X"
			id, title, matched = normalizeReqID(m[2]), strings.TrimSpace(m[3]), true
		} else if m := glyphRe.FindStringSubmatch(line); m != nil {
			declaredDone = m[1] == "✅"
			id, title, matched = normalizeReqID(m[2]), strings.TrimSpace(m[3]), true
		}

		if matched {
			priority := defaultPriority
			if pm := priorityRe.FindStringSubmatch(title); pm != nil {
				priority = types.Priority(pm[1])
				title = strings.TrimSpace(priorityRe.ReplaceAllString(title, ""))
			}
			if title == "" {
				continue
			}
			if id == "" {
				id = slugID(title)
			}
			// id unique within a spec: suffix duplicates deterministically
			seenIDs[id]++
			if n := seenIDs[id]; n > 1 {
				id = fmt.Sprintf("%s-%d", id, n)
			}

			reqs = append(reqs, Requirement{
				ID:           id,
				Title:        title,
				Priority:     priority,
				Category:     defaultCategory,
				Source:       path,
				Line:         lineNum,
				DeclaredDone: declaredDone,
			})
			current = &reqs[len(reqs)-1]
			continue
		}

		// Indented bullets under the current requirement are acceptance criteria.
		if current != nil {
			if m := criterionRe.FindStringSubmatch(raw); m != nil {
				current.AcceptanceCriteria = append(current.AcceptanceCriteria, strings.TrimSpace(m[1]))
			} else if strings.HasPrefix(line, "#") {
				current = nil // new section closes the criteria block
			}
		}
	}

	logging.GapDebug("parsed %s: %d requirements", filepath.Base(path), len(reqs))
	return reqs, nil
}

// normalizeReqID canonicalizes "FR 1"/"fr-1"/"Requirement 1" to "FR1" form.
func normalizeReqID(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
	s = strings.Replace(s, "REQUIREMENT", "REQ", 1)
	return s
}

// slugID derives a stable requirement id from a title.
func slugID(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
