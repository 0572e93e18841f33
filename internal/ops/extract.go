package ops

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"reforge/internal/parser"
)

// jsGlobals are identifiers that never become props when a subtree is
// lifted into its own component.
var jsGlobals = map[string]bool{
	"undefined": true, "null": true, "true": true, "false": true,
	"console": true, "window": true, "document": true, "localStorage": true,
	"sessionStorage": true, "navigator": true, "location": true,
	"Math": true, "JSON": true, "Object": true, "Array": true,
	"String": true, "Number": true, "Boolean": true, "Date": true,
	"Promise": true, "Error": true, "Map": true, "Set": true,
	"fetch": true, "setTimeout": true, "setInterval": true,
	"clearTimeout": true, "clearInterval": true, "parseInt": true,
	"parseFloat": true, "isNaN": true, "encodeURIComponent": true,
	"decodeURIComponent": true, "React": true,
}

// ExtractComponent lifts a JSX element out of its file into a new sibling
// component file. Identifiers the subtree references but does not define
// become props; the original site is replaced with a usage of the new
// component and an import for it.
type ExtractComponent struct {
	TargetElement string `json:"targetElement"`
	NewName       string `json:"newName"`
}

func (o *ExtractComponent) Kind() Kind { return KindExtractComponent }

func (o *ExtractComponent) Apply(ctx context.Context, f *File) error {
	if o.NewName == "" || o.NewName[0] < 'A' || o.NewName[0] > 'Z' {
		return conflict(o.NewName, "extract_component needs a PascalCase newName, got %q", o.NewName)
	}
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	if exportExists(f.Tree, o.NewName) || bindingExists(f.Tree, o.NewName) {
		return conflict(o.NewName, "name %q already exists in %s", o.NewName, f.Path)
	}

	el := f.Tree.FindElement(o.TargetElement)
	if el == nil {
		return notFound(o.TargetElement, "element <%s> not found in %s", o.TargetElement, f.Path)
	}

	subtree := f.Tree.Text(el)
	props := o.inferProps(f, el)

	newPath := o.componentPath(f)
	content := o.renderComponent(f.Dialect, subtree, props)
	f.Created = append(f.Created, CreatedFile{Path: newPath, Content: content})

	usage := o.renderUsage(props)
	start, end := int(el.StartByte()), int(el.EndByte())
	f.splice(start, end, usage)

	importPath := "./" + strings.TrimSuffix(path.Base(newPath), path.Ext(newPath))
	return ensureImport(ctx, f, importPath, o.NewName, false)
}

// inferProps collects identifiers the subtree reads but does not bind.
// Parameters of inline functions and attribute names never qualify.
func (o *ExtractComponent) inferProps(f *File, el *sitter.Node) []string {
	defined := map[string]bool{}
	used := map[string]bool{}

	var walk func(n *sitter.Node, inParams bool)
	walk = func(n *sitter.Node, inParams bool) {
		switch n.Type() {
		case "identifier", "shorthand_property_identifier", "shorthand_property_identifier_pattern":
			name := f.Tree.Text(n)
			if inParams {
				defined[name] = true
			} else {
				used[name] = true
			}
			return
		case "jsx_opening_element", "jsx_self_closing_element":
			// Tag names parse as plain identifiers but are never free
			// variables. Attributes and spreads still are.
			for i := 0; i < int(n.NamedChildCount()); i++ {
				c := n.NamedChild(i)
				if c.Type() == "jsx_attribute" || c.Type() == "jsx_expression" {
					walk(c, inParams)
				}
			}
			return
		case "jsx_closing_element":
			return
		case "formal_parameters", "array_pattern", "object_pattern":
			inParams = true
		case "arrow_function":
			// Single unparenthesized param is a bare identifier child.
			if p := n.ChildByFieldName("parameter"); p != nil {
				walk(p, true)
			}
		case "variable_declarator":
			if name := n.ChildByFieldName("name"); name != nil {
				walk(name, true)
			}
			if value := n.ChildByFieldName("value"); value != nil {
				walk(value, false)
			}
			return
		case "member_expression":
			// Only the object position can be a free variable.
			if obj := n.ChildByFieldName("object"); obj != nil {
				walk(obj, inParams)
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i), inParams)
		}
	}
	walk(el, false)

	props := make([]string, 0, len(used))
	for name := range used {
		if defined[name] || jsGlobals[name] {
			continue
		}
		// PascalCase names are components resolved by import, not props.
		if name[0] >= 'A' && name[0] <= 'Z' {
			continue
		}
		props = append(props, name)
	}
	sort.Strings(props)
	return props
}

func (o *ExtractComponent) componentPath(f *File) string {
	ext := ".jsx"
	if f.Dialect == parser.DialectTSX {
		ext = ".tsx"
	}
	return path.Join(path.Dir(f.Path), o.NewName+ext)
}

func (o *ExtractComponent) renderComponent(dialect parser.Dialect, subtree string, props []string) string {
	var b strings.Builder

	body := indentBlock(dedent(subtree), "    ")

	if dialect == parser.DialectTSX && len(props) > 0 {
		fmt.Fprintf(&b, "interface %sProps {\n", o.NewName)
		for _, p := range props {
			fmt.Fprintf(&b, "  %s: any;\n", p)
		}
		b.WriteString("}\n\n")
	}

	params := ""
	if len(props) > 0 {
		params = "{ " + strings.Join(props, ", ") + " }"
		if dialect == parser.DialectTSX {
			params += ": " + o.NewName + "Props"
		}
	}
	fmt.Fprintf(&b, "export function %s(%s) {\n  return (\n%s\n  );\n}\n", o.NewName, params, body)
	return b.String()
}

func (o *ExtractComponent) renderUsage(props []string) string {
	if len(props) == 0 {
		return "<" + o.NewName + " />"
	}
	var b strings.Builder
	b.WriteString("<" + o.NewName)
	for _, p := range props {
		fmt.Fprintf(&b, " %s={%s}", p, p)
	}
	b.WriteString(" />")
	return b.String()
}

// dedent strips the common leading indentation that the subtree carried at
// its original site so it can be re-indented cleanly.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	common := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := 0
		for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
			n++
		}
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return s
	}
	for i, line := range lines[1:] {
		if len(line) >= common {
			lines[i+1] = line[common:]
		}
	}
	return strings.Join(lines, "\n")
}
