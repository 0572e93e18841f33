package ops

import (
	"context"
	"fmt"
	"strings"
)

// AddImport merges a specifier into the existing import for its source, or
// inserts a new import statement after any leading directive. Idempotent:
// re-adding an identical (source, specifier) pair is a no-op.
type AddImport struct {
	Source    string `json:"source"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

func (o *AddImport) Kind() Kind { return KindAddImport }

func (o *AddImport) Apply(ctx context.Context, f *File) error {
	if o.Source == "" || o.Name == "" {
		return conflict(o.Source, "add_import needs both source and name")
	}
	return ensureImport(ctx, f, o.Source, o.Name, o.IsDefault)
}

// ensureImport is shared by AddImport, the hook insertions and
// WrapElement. It checks the import list of the text as it stands right
// now, so an import added earlier in the same operation list is seen.
func ensureImport(ctx context.Context, f *File, source, name string, isDefault bool) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}

	imp, found := f.Tree.ImportOf(source)
	if found && imp.Has(name) {
		return nil
	}

	if found && imp.Default == "" && len(imp.Named) == 0 {
		// Side-effect import of the same source: give it a clause.
		stmt := f.Tree.Text(imp.Node)
		if strings.HasPrefix(stmt, "import") {
			rest := strings.TrimLeft(stmt[len("import"):], " \t")
			if strings.HasPrefix(rest, `'`) || strings.HasPrefix(rest, `"`) {
				clause := " { " + name + " } from"
				if isDefault {
					clause = " " + name + " from"
				}
				insert := int(imp.Node.StartByte()) + len("import")
				f.splice(insert, insert, clause)
				return nil
			}
		}
	}

	if found && !isDefault {
		// Merge into the existing named-import list.
		stmt := f.Tree.Text(imp.Node)
		if brace := strings.LastIndex(stmt, "}"); brace >= 0 {
			lead := strings.TrimRight(stmt[:brace], " \t")
			insert := int(imp.Node.StartByte()) + len(lead)
			repl := ", " + name
			if strings.HasSuffix(lead, "{") {
				repl = " " + name + " "
			}
			f.splice(insert, insert, repl)
			return nil
		}
		// Default-only import of the same source: append a named group.
		if src := strings.LastIndexAny(stmt, `"'`); src >= 0 {
			from := strings.LastIndex(stmt, " from ")
			if from > 0 {
				insert := int(imp.Node.StartByte()) + from
				f.splice(insert, insert, ", { "+name+" }")
				return nil
			}
		}
		return conflict(source, "cannot merge %q into import of %q", name, source)
	}

	if found && isDefault {
		if imp.Default != "" && imp.Default != name {
			return conflict(source, "import of %q already has default binding %q", source, imp.Default)
		}
		stmt := f.Tree.Text(imp.Node)
		after := len("import")
		if !strings.HasPrefix(stmt, "import") {
			return conflict(source, "unrecognized import statement for %q", source)
		}
		insert := int(imp.Node.StartByte()) + after
		f.splice(insert, insert, " "+name+",")
		return nil
	}

	// No import of this source yet: insert a new statement after the last
	// import, else after any leading directive, else at the top.
	var stmt string
	if isDefault {
		stmt = fmt.Sprintf("import %s from '%s';", name, source)
	} else {
		stmt = fmt.Sprintf("import { %s } from '%s';", name, source)
	}

	insert := 0
	if imports := f.Tree.Imports(); len(imports) > 0 {
		last := imports[len(imports)-1]
		insert = int(last.Node.EndByte())
		f.splice(insert, insert, "\n"+stmt)
		return nil
	}
	if end := f.Tree.LeadingDirectiveEnd(); end > 0 {
		insert = end
		// Skip the directive's trailing semicolon if the grammar left it
		// outside the statement span.
		if insert < len(f.Text) && f.Text[insert] == ';' {
			insert++
		}
		f.splice(insert, insert, "\n\n"+stmt)
		return nil
	}
	f.splice(0, 0, stmt+"\n")
	return nil
}

// ensureReactImport adds a hook name to the react import if absent. Called
// after the hook statement is already in the text, so the check runs
// against the import list as of that point in the sequence.
func ensureReactImport(ctx context.Context, f *File, hook string) error {
	return ensureImport(ctx, f, "react", hook, false)
}
