package world

import (
	"sort"
	"strings"
)

// Index is a read-only symbol index over a scanned codebase.
// Built once per run; safe for concurrent readers.
type Index struct {
	files   []*ParsedFile
	byName  map[string][]Symbol // key: lowercase symbol name
	symbols int
}

// NewIndex builds an index from parsed files. Input order does not matter;
// lookups are deterministic (entries sorted by file then line).
func NewIndex(files []*ParsedFile) *Index {
	idx := &Index{
		files:  files,
		byName: make(map[string][]Symbol),
	}
	for _, pf := range files {
		for _, sym := range pf.Symbols {
			key := strings.ToLower(sym.Name)
			idx.byName[key] = append(idx.byName[key], sym)
			idx.symbols++
		}
	}
	for key := range idx.byName {
		syms := idx.byName[key]
		sort.Slice(syms, func(i, j int) bool {
			if syms[i].File != syms[j].File {
				return syms[i].File < syms[j].File
			}
			return syms[i].Line < syms[j].Line
		})
	}
	return idx
}

// SymbolCount returns the total number of indexed symbols.
func (idx *Index) SymbolCount() int { return idx.symbols }

// FileCount returns the number of parsed files.
func (idx *Index) FileCount() int { return len(idx.files) }

// Languages returns the distinct languages seen across parsed files, sorted.
func (idx *Index) Languages() []string {
	seen := make(map[string]bool)
	for _, pf := range idx.files {
		if pf.Language != "" {
			seen[pf.Language] = true
		}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Lookup returns all symbols matching name (case-insensitive).
func (idx *Index) Lookup(name string) []Symbol {
	return idx.byName[strings.ToLower(name)]
}

// LookupVariants tries a symbol name and common casing/prefix variants:
// exact, camelCase/PascalCase, snake_case, and Get/Handle/New prefixes.
func (idx *Index) LookupVariants(name string) []Symbol {
	seen := make(map[string]bool)
	var out []Symbol
	add := func(candidate string) {
		for _, sym := range idx.Lookup(candidate) {
			key := sym.File + "|" + sym.Name
			if !seen[key] {
				seen[key] = true
				out = append(out, sym)
			}
		}
	}

	add(name)
	add(toSnakeCase(name))
	for _, prefix := range []string{"New", "Get", "Handle", "Create"} {
		add(prefix + name)
	}
	return out
}

// IsTestFile reports whether a path follows a test-file naming convention
// for any supported language.
func IsTestFile(path string) bool {
	lower := strings.ToLower(path)
	base := lower
	if i := strings.LastIndexByte(lower, '/'); i >= 0 {
		base = lower[i+1:]
	}
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasSuffix(base, "_test.py"),
		strings.HasPrefix(base, "test_"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."),
		strings.HasSuffix(base, "_test.rs"):
		return true
	}
	return false
}

// HasColocatedTest reports whether some test file declares a symbol
// referencing the given name (e.g. TestCreateBackup for createBackup).
func (idx *Index) HasColocatedTest(name string) bool {
	needle := strings.ToLower(name)
	for _, pf := range idx.files {
		if !IsTestFile(pf.Path) {
			continue
		}
		for _, sym := range pf.Symbols {
			if strings.Contains(strings.ToLower(sym.Name), needle) {
				return true
			}
		}
	}
	return false
}

// toSnakeCase converts CamelCase or camelCase to snake_case.
func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
