package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// FunctionMatch is a read-only view of one function in the tree. For a
// const-bound arrow function, Declaration is the enclosing
// lexical_declaration so "insert before this component" targets the whole
// statement, not the anonymous function body.
type FunctionMatch struct {
	Name        string
	Node        *sitter.Node // the function node itself
	Declaration *sitter.Node // statement-level node (declaration or lexical_declaration)
	Body        *sitter.Node // statement_block, nil for expression-bodied arrows
	Exported    bool
	IsArrow     bool
}

// IsComponent reports whether the function looks like a React component:
// a PascalCase name and a JSX-bearing body.
func (f FunctionMatch) IsComponent(t *SyntaxTree) bool {
	if f.Name == "" || f.Name[0] < 'A' || f.Name[0] > 'Z' {
		return false
	}
	scope := f.Node
	if scope == nil {
		return false
	}
	return containsJSX(scope)
}

// VariableMatch is one bound name from a declaration, covering simple,
// array-destructure, object-destructure and renamed-object-destructure
// forms. Used to detect collisions before introducing a new binding.
type VariableMatch struct {
	Name        string
	Declaration *sitter.Node
}

// StateVariable is the two-element-array-destructure-from-a-call pattern
// used for useState declarations.
type StateVariable struct {
	Name         string
	Setter       string
	InitialValue string
	Declaration  *sitter.Node
}

// ImportInfo is the per-source view of an import statement.
type ImportInfo struct {
	Source  string
	Default string
	Named   []string
	Node    *sitter.Node
}

// Has reports whether the import already carries the given specifier,
// either as its default binding or as a named specifier.
func (i ImportInfo) Has(name string) bool {
	if i.Default == name {
		return true
	}
	for _, n := range i.Named {
		if n == name {
			return true
		}
	}
	return false
}

// EventHandler is an on* JSX attribute and its handler expression.
type EventHandler struct {
	Event   string // attribute name, e.g. onClick
	Element string // tag or component name carrying the attribute
	Handler string // handler expression text
	Node    *sitter.Node
}

// Functions returns every function in document order: declarations,
// const-bound arrows and function expressions.
func (t *SyntaxTree) Functions() []FunctionMatch {
	var out []FunctionMatch

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "function_declaration":
				fm := FunctionMatch{
					Name:        t.fieldText(child, "name"),
					Node:        child,
					Declaration: statementOf(child),
					Body:        child.ChildByFieldName("body"),
					Exported:    isExported(child),
				}
				out = append(out, fm)

			case "lexical_declaration", "variable_declaration":
				out = append(out, t.arrowBindings(child)...)

			case "export_statement":
				walk(child)
				continue
			}
			walk(child)
		}
	}
	walk(t.Root())
	return out
}

// arrowBindings extracts const-bound arrow functions and function
// expressions from one declaration.
func (t *SyntaxTree) arrowBindings(decl *sitter.Node) []FunctionMatch {
	var out []FunctionMatch
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		d := decl.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		name := d.ChildByFieldName("name")
		value := d.ChildByFieldName("value")
		if name == nil || value == nil || name.Type() != "identifier" {
			continue
		}
		vt := value.Type()
		if vt != "arrow_function" && vt != "function" && vt != "function_expression" {
			continue
		}
		body := value.ChildByFieldName("body")
		if body != nil && body.Type() != "statement_block" {
			body = nil // expression-bodied arrow
		}
		out = append(out, FunctionMatch{
			Name:        t.Text(name),
			Node:        value,
			Declaration: statementOf(decl),
			Body:        body,
			Exported:    isExported(decl),
			IsArrow:     vt == "arrow_function",
		})
	}
	return out
}

// VariableBindings returns every bound name in the file.
func (t *SyntaxTree) VariableBindings() []VariableMatch {
	var out []VariableMatch

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "lexical_declaration" || child.Type() == "variable_declaration" {
				decl := statementOf(child)
				for j := 0; j < int(child.NamedChildCount()); j++ {
					d := child.NamedChild(j)
					if d.Type() != "variable_declarator" {
						continue
					}
					pattern := d.ChildByFieldName("name")
					if pattern == nil {
						continue
					}
					for _, name := range t.patternNames(pattern) {
						out = append(out, VariableMatch{Name: name, Declaration: decl})
					}
				}
			}
			walk(child)
		}
	}
	walk(t.Root())
	return out
}

// patternNames flattens a binding pattern into the names it introduces.
func (t *SyntaxTree) patternNames(pattern *sitter.Node) []string {
	switch pattern.Type() {
	case "identifier":
		return []string{t.Text(pattern)}

	case "array_pattern":
		var names []string
		for i := 0; i < int(pattern.NamedChildCount()); i++ {
			names = append(names, t.patternNames(pattern.NamedChild(i))...)
		}
		return names

	case "object_pattern":
		var names []string
		for i := 0; i < int(pattern.NamedChildCount()); i++ {
			el := pattern.NamedChild(i)
			switch el.Type() {
			case "shorthand_property_identifier_pattern":
				names = append(names, t.Text(el))
			case "pair_pattern":
				// renamed destructure: { original: renamed }
				if v := el.ChildByFieldName("value"); v != nil {
					names = append(names, t.patternNames(v)...)
				}
			case "rest_pattern":
				names = append(names, t.patternNames(el)...)
			}
		}
		return names

	case "rest_pattern":
		if pattern.NamedChildCount() > 0 {
			return t.patternNames(pattern.NamedChild(0))
		}
	}
	return nil
}

// StateHooks returns useState declarations: a two-element array pattern
// destructured from a useState call.
func (t *SyntaxTree) StateHooks() []StateVariable {
	var out []StateVariable

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "variable_declarator" {
				if sv, ok := t.stateHookFrom(child); ok {
					out = append(out, sv)
				}
			}
			walk(child)
		}
	}
	walk(t.Root())
	return out
}

func (t *SyntaxTree) stateHookFrom(declarator *sitter.Node) (StateVariable, bool) {
	pattern := declarator.ChildByFieldName("name")
	value := declarator.ChildByFieldName("value")
	if pattern == nil || value == nil {
		return StateVariable{}, false
	}
	if pattern.Type() != "array_pattern" || pattern.NamedChildCount() != 2 {
		return StateVariable{}, false
	}
	if value.Type() != "call_expression" {
		return StateVariable{}, false
	}
	callee := value.ChildByFieldName("function")
	if callee == nil || t.Text(callee) != "useState" {
		return StateVariable{}, false
	}

	sv := StateVariable{
		Name:        t.Text(pattern.NamedChild(0)),
		Setter:      t.Text(pattern.NamedChild(1)),
		Declaration: statementOf(declarator),
	}
	if args := value.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
		sv.InitialValue = t.Text(args.NamedChild(0))
	}
	return sv, true
}

// Imports returns one ImportInfo per import statement in document order.
func (t *SyntaxTree) Imports() []ImportInfo {
	var out []ImportInfo
	root := t.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_statement" {
			continue
		}
		info := ImportInfo{Node: child}
		if src := child.ChildByFieldName("source"); src != nil {
			info.Source = strings.Trim(t.Text(src), `"'`)
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			clause := child.NamedChild(j)
			if clause.Type() != "import_clause" {
				continue
			}
			for k := 0; k < int(clause.NamedChildCount()); k++ {
				spec := clause.NamedChild(k)
				switch spec.Type() {
				case "identifier":
					info.Default = t.Text(spec)
				case "named_imports":
					for m := 0; m < int(spec.NamedChildCount()); m++ {
						is := spec.NamedChild(m)
						if is.Type() != "import_specifier" {
							continue
						}
						if name := is.ChildByFieldName("name"); name != nil {
							info.Named = append(info.Named, t.Text(name))
						}
					}
				case "namespace_import":
					if spec.NamedChildCount() > 0 {
						info.Default = t.Text(spec.NamedChild(int(spec.NamedChildCount()) - 1))
					}
				}
			}
		}
		out = append(out, info)
	}
	return out
}

// ImportOf returns the import for the given source module, if present.
func (t *SyntaxTree) ImportOf(source string) (ImportInfo, bool) {
	for _, imp := range t.Imports() {
		if imp.Source == source {
			return imp, true
		}
	}
	return ImportInfo{}, false
}

// EventHandlers returns every on* JSX attribute in document order.
func (t *SyntaxTree) EventHandlers() []EventHandler {
	var out []EventHandler

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "jsx_attribute" {
				name, value := t.AttributeParts(child)
				if strings.HasPrefix(name, "on") && len(name) > 2 {
					eh := EventHandler{Event: name, Node: child}
					if value != nil {
						eh.Handler = strings.TrimSpace(strings.Trim(t.Text(value), "{}"))
					}
					if owner := enclosingElement(child); owner != nil {
						eh.Element = t.ElementName(owner)
					}
					out = append(out, eh)
				}
			}
			walk(child)
		}
	}
	walk(t.Root())
	return out
}

// AttributeParts splits a jsx_attribute into its name and optional value
// node. The grammar exposes these as positional children.
func (t *SyntaxTree) AttributeParts(attr *sitter.Node) (string, *sitter.Node) {
	if attr.NamedChildCount() == 0 {
		return "", nil
	}
	name := t.Text(attr.NamedChild(0))
	if attr.NamedChildCount() > 1 {
		return name, attr.NamedChild(1)
	}
	return name, nil
}

// LeadingDirectiveEnd returns the byte offset just past any leading string
// directives ("use client", "use strict"), or 0 when there are none.
func (t *SyntaxTree) LeadingDirectiveEnd() int {
	end := 0
	root := t.Root()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "expression_statement" {
			break
		}
		if child.NamedChildCount() != 1 || child.NamedChild(0).Type() != "string" {
			break
		}
		end = int(child.EndByte())
	}
	return end
}

// fieldText returns the text of a named field child, or "".
func (t *SyntaxTree) fieldText(n *sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return t.Text(child)
}

// statementOf climbs from a node to its statement-level ancestor: the
// export_statement when exported, otherwise the declaration itself.
func statementOf(n *sitter.Node) *sitter.Node {
	stmt := n
	for p := stmt.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "export_statement", "lexical_declaration", "variable_declaration":
			stmt = p
		case "program", "statement_block":
			return stmt
		default:
			return stmt
		}
	}
	return stmt
}

func isExported(n *sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "export_statement" {
			return true
		}
		if p.Type() == "program" {
			return false
		}
	}
	return false
}

func containsJSX(n *sitter.Node) bool {
	switch n.Type() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if containsJSX(n.NamedChild(i)) {
			return true
		}
	}
	return false
}
