package ops

import (
	"context"
	"strings"
)

// JSX insertion positions relative to the target element.
const (
	PosBefore      = "before"
	PosAfter       = "after"
	PosInsideStart = "inside_start"
	PosInsideEnd   = "inside_end"
)

// InsertJSX splices a JSX fragment into the children list of the target
// element, or as a sibling before/after it. Sibling indentation is
// preserved. Deliberately not idempotent: inserting the same fragment
// twice yields two copies.
type InsertJSX struct {
	TargetElement string `json:"targetElement"`
	Position      string `json:"position"`
	JSX           string `json:"jsx"`
}

func (o *InsertJSX) Kind() Kind { return KindInsertJSX }

func (o *InsertJSX) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}

	element := f.Tree.FindElement(o.TargetElement)
	if element == nil {
		return notFound(o.TargetElement, "no <%s> element in %s", o.TargetElement, f.Path)
	}

	fragment := strings.TrimRight(o.JSX, "\n")
	indent := lineIndent(f.Text, int(element.StartByte()))

	switch o.Position {
	case PosBefore:
		offset := int(element.StartByte())
		f.splice(offset, offset, indentBlockTail(fragment, indent)+"\n"+indent)
		return nil

	case PosAfter:
		offset := int(element.EndByte())
		f.splice(offset, offset, "\n"+indentBlock(fragment, indent))
		return nil

	case PosInsideStart, PosInsideEnd:
		if element.Type() == "jsx_self_closing_element" {
			return conflict(o.TargetElement,
				"<%s/> is self-closing; cannot insert children", o.TargetElement)
		}
		inner := indent + "  "
		if o.Position == PosInsideStart {
			tag := f.Tree.OpeningTag(element)
			offset := int(tag.EndByte())
			f.splice(offset, offset, "\n"+indentBlock(fragment, inner))
		} else {
			closing := int(element.EndByte()) - len("</"+o.TargetElement+">")
			// Anchor on the actual closing tag rather than assuming its width.
			if idx := strings.LastIndex(f.Text[:element.EndByte()], "</"); idx >= int(element.StartByte()) {
				closing = idx
			}
			head := strings.TrimRight(f.Text[:closing], " \t\n")
			offset := len(head)
			f.splice(offset, closing, "\n"+indentBlock(fragment, inner)+"\n"+indent)
		}
		return nil
	}

	return conflict(o.TargetElement, "unknown insert position %q", o.Position)
}

// indentBlockTail indents every line except the first; used when the
// fragment lands at an already-indented offset.
func indentBlockTail(s, indent string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
