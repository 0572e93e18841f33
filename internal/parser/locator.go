package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// FindElement returns the first JSX element whose tag or component name
// matches the descriptor, in document order. First occurrence wins; there
// is no relevance scoring.
func (t *SyntaxTree) FindElement(name string) *sitter.Node {
	var found *sitter.Node

	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		switch n.Type() {
		case "jsx_element", "jsx_self_closing_element":
			if t.ElementName(n) == name {
				found = n
				return true
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if walk(n.NamedChild(i)) {
				return true
			}
		}
		return false
	}
	walk(t.Root())
	return found
}

// FindFunction returns the first function with the given name.
func (t *SyntaxTree) FindFunction(name string) (FunctionMatch, bool) {
	for _, f := range t.Functions() {
		if f.Name == name {
			return f, true
		}
	}
	return FunctionMatch{}, false
}

// FindComponent resolves the component a hook operation targets. An empty
// name selects the first React component in the file.
func (t *SyntaxTree) FindComponent(name string) (FunctionMatch, bool) {
	for _, f := range t.Functions() {
		if name != "" {
			if f.Name == name {
				return f, true
			}
			continue
		}
		if f.IsComponent(t) {
			return f, true
		}
	}
	return FunctionMatch{}, false
}

// OpeningTag returns the opening element of a JSX node: the
// jsx_opening_element for container elements, the node itself when
// self-closing.
func (t *SyntaxTree) OpeningTag(element *sitter.Node) *sitter.Node {
	if element.Type() == "jsx_self_closing_element" {
		return element
	}
	for i := 0; i < int(element.NamedChildCount()); i++ {
		child := element.NamedChild(i)
		if child.Type() == "jsx_opening_element" {
			return child
		}
	}
	return element
}

// Attribute returns the named attribute node of an element, or nil.
func (t *SyntaxTree) Attribute(element *sitter.Node, name string) *sitter.Node {
	tag := t.OpeningTag(element)
	for i := 0; i < int(tag.NamedChildCount()); i++ {
		child := tag.NamedChild(i)
		if child.Type() != "jsx_attribute" {
			continue
		}
		if attrName, _ := t.AttributeParts(child); attrName == name {
			return child
		}
	}
	return nil
}

// ElementName extracts the tag or component name of a JSX element.
func (t *SyntaxTree) ElementName(element *sitter.Node) string {
	tag := t.OpeningTag(element)
	if n := tag.ChildByFieldName("name"); n != nil {
		return t.Text(n)
	}
	// Older grammar revisions expose the name positionally.
	for i := 0; i < int(tag.NamedChildCount()); i++ {
		child := tag.NamedChild(i)
		switch child.Type() {
		case "identifier", "member_expression", "jsx_namespace_name":
			return t.Text(child)
		}
	}
	return ""
}

// enclosingElement climbs to the nearest JSX element containing a node.
func enclosingElement(n *sitter.Node) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == "jsx_element" || p.Type() == "jsx_self_closing_element" {
			return p
		}
	}
	return nil
}
