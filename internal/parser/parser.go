// Package parser wraps tree-sitter's TSX grammar and exposes the typed
// queries the edit pipeline needs: functions, variable bindings, state
// hooks, imports and JSX event handlers.
package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// Dialect selects the grammar used for a file.
type Dialect int

const (
	// DialectTSX parses TypeScript with JSX (.ts, .tsx). The TSX grammar is
	// a superset suitable for plain TypeScript as well.
	DialectTSX Dialect = iota
	// DialectJS parses plain JavaScript (.js, .jsx, .mjs, .cjs).
	DialectJS
)

// DialectForPath picks the grammar by file extension.
func DialectForPath(path string) Dialect {
	for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs"} {
		if strings.HasSuffix(path, ext) {
			return DialectJS
		}
	}
	return DialectTSX
}

// ParseError reports malformed source. It is fatal for the file that
// produced it and carries the position of the first bad node.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// SyntaxTree is the parsed representation of one file's current text.
// It owns the underlying tree-sitter tree; node handles handed out by its
// query methods are only valid until the tree is closed or rebuilt.
type SyntaxTree struct {
	tree *sitter.Tree
	src  []byte
}

// Parser parses TSX/JSX source. One Parser can be reused for many files
// but is not safe for concurrent use; each apply pass owns its own.
type Parser struct {
	tsx *sitter.Parser
	js  *sitter.Parser
}

// New creates a parser with the TSX and JavaScript grammars loaded.
func New() *Parser {
	tp := sitter.NewParser()
	tp.SetLanguage(tsx.GetLanguage())
	jp := sitter.NewParser()
	jp.SetLanguage(javascript.GetLanguage())
	return &Parser{tsx: tp, js: jp}
}

// Close releases the underlying tree-sitter parsers.
func (p *Parser) Close() {
	p.tsx.Close()
	p.js.Close()
}

// Parse builds a SyntaxTree from source text. A tree containing error or
// missing nodes yields a *ParseError; leading directives such as
// "use client" are ordinary statements and parse cleanly.
func (p *Parser) Parse(ctx context.Context, src []byte, dialect Dialect) (*SyntaxTree, error) {
	sp := p.tsx
	if dialect == DialectJS {
		sp = p.js
	}

	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		bad := firstErrorNode(root)
		pe := &ParseError{Message: "syntax error"}
		if bad != nil {
			pe.Line = int(bad.StartPoint().Row) + 1
			pe.Column = int(bad.StartPoint().Column) + 1
			if bad.IsMissing() {
				pe.Message = fmt.Sprintf("missing %s", bad.Type())
			} else {
				pe.Message = fmt.Sprintf("unexpected %q", truncate(bad.Content(src), 40))
			}
		}
		tree.Close()
		return nil, pe
	}

	return &SyntaxTree{tree: tree, src: src}, nil
}

// Close releases the tree. Queries against a closed tree are invalid.
func (t *SyntaxTree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// Root returns the root node of the tree.
func (t *SyntaxTree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Source returns the text this tree was parsed from.
func (t *SyntaxTree) Source() []byte {
	return t.src
}

// Text returns the source text covered by a node of this tree.
func (t *SyntaxTree) Text(n *sitter.Node) string {
	return n.Content(t.src)
}

// firstErrorNode finds the first ERROR or missing node in document order.
func firstErrorNode(root *sitter.Node) *sitter.Node {
	var found *sitter.Node
	var walk func(*sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return true
		}
		if !n.HasError() {
			return false
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
