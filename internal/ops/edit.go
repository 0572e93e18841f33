package ops

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"reforge/internal/parser"
)

// hookCallRe matches a statement that starts or binds a React hook call,
// e.g. `useEffect(...)` or `const [x, setX] = useState(...)`.
var hookCallRe = regexp.MustCompile(`\buse[A-Z]\w*\s*\(`)

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := start
	for end < len(text) && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}

// indentBlock prefixes every non-empty line of s with indent.
func indentBlock(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// insertStatement splices a statement into a component body: after the
// last existing hook call, else before the first statement, else into the
// empty block. The new statement lands on its own line at the block's
// indentation.
func insertStatement(f *File, body *sitter.Node, stmt string) {
	var lastHook, firstStmt *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		s := body.NamedChild(i)
		if firstStmt == nil {
			firstStmt = s
		}
		switch s.Type() {
		case "expression_statement", "lexical_declaration", "variable_declaration":
			head := f.Tree.Text(s)
			if idx := strings.IndexByte(head, '\n'); idx >= 0 {
				head = head[:idx]
			}
			if hookCallRe.MatchString(head) {
				lastHook = s
			}
		}
	}

	switch {
	case lastHook != nil:
		offset := int(lastHook.EndByte())
		indent := lineIndent(f.Text, int(lastHook.StartByte()))
		f.splice(offset, offset, "\n"+indent+stmt)

	case firstStmt != nil:
		offset := int(firstStmt.StartByte())
		indent := lineIndent(f.Text, offset)
		f.splice(offset, offset, stmt+"\n"+indent)

	default:
		baseIndent := lineIndent(f.Text, int(body.StartByte()))
		open := int(body.StartByte()) + 1
		f.splice(open, open, "\n"+baseIndent+"  "+stmt+"\n"+baseIndent)
	}
}

// capitalize upper-cases the first byte of an ASCII identifier.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-32) + s[1:]
	}
	return s
}

// bindingExists reports whether any binding in the file already uses the
// name. Hook insertions fail with a conflict instead of shadowing.
func bindingExists(t *parser.SyntaxTree, name string) bool {
	for _, b := range t.VariableBindings() {
		if b.Name == name {
			return true
		}
	}
	return false
}

// exportExists reports whether the file already exports the name.
func exportExists(t *parser.SyntaxTree, name string) bool {
	for _, fn := range t.Functions() {
		if fn.Exported && fn.Name == name {
			return true
		}
	}
	for _, b := range t.VariableBindings() {
		if b.Name == name && b.Declaration != nil && b.Declaration.Type() == "export_statement" {
			return true
		}
	}
	return false
}
