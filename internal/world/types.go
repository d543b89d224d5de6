// Package world builds codebase awareness for gap analysis: file discovery,
// tree-sitter AST parsing, and symbol-level signature verification.
// All state is scoped to a single run; nothing here is a process-wide singleton.
package world

import "strings"

// SymbolKind classifies an extracted symbol.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindEnum      SymbolKind = "enum"
)

// Symbol is one named declaration extracted from a source file.
type Symbol struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	Visibility string     `json:"visibility"` // public, protected, private
	File       string     `json:"file"`
	Line       int        `json:"line"`
	Signature  string     `json:"signature"`
	ParamCount int        `json:"param_count"`
	Body       string     `json:"body,omitempty"` // raw body text, used for stub detection
	BodyLines  int        `json:"body_lines"`
	HasBranch  bool       `json:"has_branch"` // body contains conditional or loop constructs
}

// ParsedFile is the parse result for one source file.
type ParsedFile struct {
	Path     string   `json:"path"`
	Language string   `json:"language"`
	Symbols  []Symbol `json:"symbols"`
}

// LanguageForPath maps a file path to a supported language name,
// or "" when the extension is not recognized.
func LanguageForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".go"):
		return "go"
	case strings.HasSuffix(lower, ".py"):
		return "python"
	case strings.HasSuffix(lower, ".rs"):
		return "rust"
	case strings.HasSuffix(lower, ".ts"), strings.HasSuffix(lower, ".tsx"):
		return "typescript"
	case strings.HasSuffix(lower, ".js"), strings.HasSuffix(lower, ".jsx"), strings.HasSuffix(lower, ".mjs"):
		return "javascript"
	default:
		return ""
	}
}
