// Package advisor scans applied files for refactoring opportunities:
// oversized JSX blocks and repeated subtrees that are candidates for
// extraction into their own components. Suggestions are advisory only and
// never affect the outcome of an apply.
package advisor

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"reforge/internal/changeset"
	"reforge/internal/config"
	"reforge/internal/parser"
)

type Advisor struct {
	cfg config.AdvisorConfig
}

func New(cfg config.AdvisorConfig) *Advisor {
	return &Advisor{cfg: cfg}
}

// Scan walks the file's JSX elements and reports extraction candidates.
// The tree is the one produced by the pipeline's final validation pass.
func (a *Advisor) Scan(path string, t *parser.SyntaxTree) []changeset.Suggestion {
	if !a.cfg.Enabled || t == nil {
		return nil
	}

	var suggestions []changeset.Suggestion
	seen := map[string]*duplicate{}
	var order []string

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "jsx_element" {
			lines := int(n.EndPoint().Row-n.StartPoint().Row) + 1
			name := t.ElementName(n)

			if lines > a.cfg.OversizedJSXLines {
				suggestions = append(suggestions, changeset.Suggestion{
					File:    path,
					Element: name,
					Message: fmt.Sprintf("<%s> spans %d lines; consider extracting it into its own component", name, lines),
				})
			}

			if lines >= a.cfg.DuplicateMinLines {
				key := normalize(t.Text(n))
				if d, ok := seen[key]; ok {
					d.count++
				} else {
					seen[key] = &duplicate{element: name, lines: lines, count: 1}
					order = append(order, key)
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(t.Root())

	for _, key := range order {
		d := seen[key]
		if d.count < 2 {
			continue
		}
		suggestions = append(suggestions, changeset.Suggestion{
			File:    path,
			Element: d.element,
			Message: fmt.Sprintf("<%s> (%d lines) appears %d times; consider extracting a shared component", d.element, d.lines, d.count),
		})
	}
	return suggestions
}

type duplicate struct {
	element string
	lines   int
	count   int
}

// normalize collapses whitespace so indentation differences do not hide a
// repeated subtree.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
