package world

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"roadnerd/internal/logging"
)

// TreeSitterParser handles AST parsing using tree-sitter.
// One parser instance per language; not safe for concurrent use,
// so each worker owns its own TreeSitterParser.
type TreeSitterParser struct {
	goParser     *sitter.Parser
	pythonParser *sitter.Parser
	rustParser   *sitter.Parser
	jsParser     *sitter.Parser
	tsParser     *sitter.Parser
}

// NewTreeSitterParser creates a new tree-sitter parser.
func NewTreeSitterParser() *TreeSitterParser {
	logging.WorldDebug("Creating new TreeSitterParser")
	return &TreeSitterParser{
		goParser:     sitter.NewParser(),
		pythonParser: sitter.NewParser(),
		rustParser:   sitter.NewParser(),
		jsParser:     sitter.NewParser(),
		tsParser:     sitter.NewParser(),
	}
}

// Close releases resources held by the parser.
func (p *TreeSitterParser) Close() {
	p.goParser.Close()
	p.pythonParser.Close()
	p.rustParser.Close()
	p.jsParser.Close()
	p.tsParser.Close()
}

// Parse parses a source file into symbols, dispatching on language.
func (p *TreeSitterParser) Parse(ctx context.Context, path string, content []byte) (*ParsedFile, error) {
	lang := LanguageForPath(path)
	if lang == "" {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	start := time.Now()
	logging.WorldDebug("TreeSitter: parsing %s file: %s (%d bytes)", lang, filepath.Base(path), len(content))

	var parser *sitter.Parser
	switch lang {
	case "go":
		parser = p.goParser
		parser.SetLanguage(golang.GetLanguage())
	case "python":
		parser = p.pythonParser
		parser.SetLanguage(python.GetLanguage())
	case "rust":
		parser = p.rustParser
		parser.SetLanguage(rust.GetLanguage())
	case "javascript":
		parser = p.jsParser
		parser.SetLanguage(javascript.GetLanguage())
	case "typescript":
		parser = p.tsParser
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		logging.Get(logging.CategoryWorld).Error("TreeSitter: %s parse failed: %s - %v", lang, path, err)
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	pf := &ParsedFile{Path: path, Language: lang}
	root := tree.RootNode()

	switch lang {
	case "go":
		pf.Symbols = extractGoSymbols(root, path, content)
	case "python":
		pf.Symbols = extractPythonSymbols(root, path, content)
	case "rust":
		pf.Symbols = extractRustSymbols(root, path, content)
	case "javascript", "typescript":
		pf.Symbols = extractJSSymbols(root, path, content)
	}

	logging.WorldDebug("TreeSitter: parsed %s - %d symbols in %v", filepath.Base(path), len(pf.Symbols), time.Since(start))
	return pf, nil
}

// branchNodeTypes lists node types that count as control flow for stub detection.
var branchNodeTypes = map[string]bool{
	"if_statement": true, "for_statement": true, "while_statement": true,
	"switch_statement": true, "expression_switch_statement": true,
	"type_switch_statement": true, "select_statement": true,
	"match_expression": true, "loop_expression": true, "if_expression": true,
	"conditional_expression": true, "ternary_expression": true,
	"try_statement": true, "for_in_statement": true, "while_expression": true,
	"for_expression": true, "do_statement": true,
}

// hasBranchNode reports whether the subtree contains any control-flow node.
func hasBranchNode(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if branchNodeTypes[n.Type()] {
		return true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if hasBranchNode(n.Child(i)) {
			return true
		}
	}
	return false
}

// countLines counts non-empty lines in a body text, excluding the
// delimiter-only first/last brace lines.
func countLines(body string) int {
	count := 0
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "{" || trimmed == "}" {
			continue
		}
		count++
	}
	return count
}

// countParams counts the named parameter children of a parameters node.
// For Go a single parameter_declaration can declare several names.
func countParams(params *sitter.Node, content []byte) int {
	if params == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "comment":
			continue
		case "parameter_declaration":
			// count identifier names; unnamed parameter still counts as one
			names := 0
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if child.NamedChild(j).Type() == "identifier" {
					names++
				}
			}
			if names == 0 {
				names = 1
			}
			count += names
		default:
			// python "self"/"cls" receivers are not arity-significant
			text := child.Content(content)
			if text == "self" || text == "cls" {
				continue
			}
			count++
		}
	}
	return count
}

func visibilityFromCase(name string) string {
	if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
		return "public"
	}
	return "private"
}

// extractGoSymbols walks the Go AST and extracts symbols.
func extractGoSymbols(node *sitter.Node, path string, content []byte) []Symbol {
	var symbols []Symbol
	getText := func(n *sitter.Node) string { return n.Content(content) }

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_declaration", "method_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := getText(nameNode)
				paramsNode := n.ChildByFieldName("parameters")
				resultNode := n.ChildByFieldName("result")
				bodyNode := n.ChildByFieldName("body")

				signature := "func " + name
				kind := KindFunction
				if n.Type() == "method_declaration" {
					kind = KindMethod
					if recv := n.ChildByFieldName("receiver"); recv != nil {
						signature = fmt.Sprintf("func %s %s", getText(recv), name)
					}
				}
				if paramsNode != nil {
					signature += getText(paramsNode)
				}
				if resultNode != nil {
					signature += " " + getText(resultNode)
				}

				body := ""
				if bodyNode != nil {
					body = getText(bodyNode)
				}

				symbols = append(symbols, Symbol{
					Name:       name,
					Kind:       kind,
					Visibility: visibilityFromCase(name),
					File:       path,
					Line:       int(n.StartPoint().Row) + 1,
					Signature:  signature,
					ParamCount: countParams(paramsNode, content),
					Body:       body,
					BodyLines:  countLines(body),
					HasBranch:  hasBranchNode(bodyNode),
				})
			}

		case "type_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				spec := n.NamedChild(i)
				if spec.Type() != "type_spec" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				typeNode := spec.ChildByFieldName("type")
				if nameNode == nil {
					continue
				}
				name := getText(nameNode)
				kind := KindStruct
				if typeNode != nil && typeNode.Type() == "interface_type" {
					kind = KindInterface
				}
				symbols = append(symbols, Symbol{
					Name:       name,
					Kind:       kind,
					Visibility: visibilityFromCase(name),
					File:       path,
					Line:       int(spec.StartPoint().Row) + 1,
					Signature:  fmt.Sprintf("type %s %s", name, kind),
				})
			}
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}

	walk(node)
	return symbols
}

// extractPythonSymbols walks the Python AST and extracts symbols.
func extractPythonSymbols(node *sitter.Node, path string, content []byte) []Symbol {
	var symbols []Symbol
	getText := func(n *sitter.Node) string { return n.Content(content) }
	pyVisibility := func(name string) string {
		if strings.HasPrefix(name, "__") {
			return "private"
		}
		if strings.HasPrefix(name, "_") {
			return "protected"
		}
		return "public"
	}

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "class_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				symbols = append(symbols, Symbol{
					Name:       name,
					Kind:       KindClass,
					Visibility: pyVisibility(name),
					File:       path,
					Line:       int(n.StartPoint().Row) + 1,
					Signature:  "class " + name,
				})
			}
		case "function_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				paramsNode := n.ChildByFieldName("parameters")
				bodyNode := n.ChildByFieldName("body")
				signature := "def " + name
				if paramsNode != nil {
					signature += getText(paramsNode)
				}
				body := ""
				if bodyNode != nil {
					body = getText(bodyNode)
				}
				symbols = append(symbols, Symbol{
					Name:       name,
					Kind:       KindFunction,
					Visibility: pyVisibility(name),
					File:       path,
					Line:       int(n.StartPoint().Row) + 1,
					Signature:  signature,
					ParamCount: countParams(paramsNode, content),
					Body:       body,
					BodyLines:  countLines(body),
					HasBranch:  hasBranchNode(bodyNode),
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return symbols
}

// extractRustSymbols walks the Rust AST and extracts symbols.
func extractRustSymbols(node *sitter.Node, path string, content []byte) []Symbol {
	var symbols []Symbol
	getText := func(n *sitter.Node) string { return n.Content(content) }
	hasPub := func(n *sitter.Node) bool {
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "visibility_modifier" && strings.HasPrefix(getText(n.Child(i)), "pub") {
				return true
			}
		}
		return false
	}
	rustVisibility := func(n *sitter.Node) string {
		if hasPub(n) {
			return "public"
		}
		return "private"
	}

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "function_item":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				paramsNode := n.ChildByFieldName("parameters")
				bodyNode := n.ChildByFieldName("body")
				signature := "fn " + name
				if paramsNode != nil {
					signature += getText(paramsNode)
				}
				body := ""
				if bodyNode != nil {
					body = getText(bodyNode)
				}
				symbols = append(symbols, Symbol{
					Name:       name,
					Kind:       KindFunction,
					Visibility: rustVisibility(n),
					File:       path,
					Line:       int(n.StartPoint().Row) + 1,
					Signature:  signature,
					ParamCount: countParams(paramsNode, content),
					Body:       body,
					BodyLines:  countLines(body),
					HasBranch:  hasBranchNode(bodyNode),
				})
			}
		case "struct_item":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				symbols = append(symbols, Symbol{
					Name: name, Kind: KindStruct, Visibility: rustVisibility(n),
					File: path, Line: int(n.StartPoint().Row) + 1,
					Signature: "struct " + name,
				})
			}
		case "enum_item":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				symbols = append(symbols, Symbol{
					Name: name, Kind: KindEnum, Visibility: rustVisibility(n),
					File: path, Line: int(n.StartPoint().Row) + 1,
					Signature: "enum " + name,
				})
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return symbols
}

// extractJSSymbols walks a JavaScript or TypeScript AST and extracts symbols.
func extractJSSymbols(node *sitter.Node, path string, content []byte) []Symbol {
	var symbols []Symbol
	getText := func(n *sitter.Node) string { return n.Content(content) }
	hasExport := func(n *sitter.Node) bool {
		parent := n.Parent()
		return parent != nil && parent.Type() == "export_statement"
	}
	jsVisibility := func(n *sitter.Node) string {
		if hasExport(n) {
			return "public"
		}
		return "private"
	}

	addFunc := func(n *sitter.Node, name string, paramsNode, bodyNode *sitter.Node) {
		signature := "function " + name
		if paramsNode != nil {
			signature += getText(paramsNode)
		}
		body := ""
		if bodyNode != nil {
			body = getText(bodyNode)
		}
		symbols = append(symbols, Symbol{
			Name:       name,
			Kind:       KindFunction,
			Visibility: jsVisibility(n),
			File:       path,
			Line:       int(n.StartPoint().Row) + 1,
			Signature:  signature,
			ParamCount: countParams(paramsNode, content),
			Body:       body,
			BodyLines:  countLines(body),
			HasBranch:  hasBranchNode(bodyNode),
		})
	}

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "class_declaration":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				symbols = append(symbols, Symbol{
					Name: name, Kind: KindClass, Visibility: jsVisibility(n),
					File: path, Line: int(n.StartPoint().Row) + 1,
					Signature: "class " + name,
				})
			}
		case "interface_declaration":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				name := getText(nameNode)
				symbols = append(symbols, Symbol{
					Name: name, Kind: KindInterface, Visibility: jsVisibility(n),
					File: path, Line: int(n.StartPoint().Row) + 1,
					Signature: "interface " + name,
				})
			}
		case "function_declaration", "method_definition":
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				addFunc(n, getText(nameNode), n.ChildByFieldName("parameters"), n.ChildByFieldName("body"))
			}
		case "lexical_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				child := n.NamedChild(i)
				if child.Type() != "variable_declarator" {
					continue
				}
				nameNode := child.ChildByFieldName("name")
				valueNode := child.ChildByFieldName("value")
				if nameNode == nil || valueNode == nil {
					continue
				}
				if valueNode.Type() == "arrow_function" || valueNode.Type() == "function" || valueNode.Type() == "function_expression" {
					addFunc(n, getText(nameNode), valueNode.ChildByFieldName("parameters"), valueNode.ChildByFieldName("body"))
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return symbols
}
