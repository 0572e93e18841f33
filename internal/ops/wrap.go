package ops

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// WrapElement replaces the target element with
// `<Wrapper ...props>{original}</Wrapper>` and auto-adds the wrapper's
// import when a source is given.
type WrapElement struct {
	TargetElement string            `json:"targetElement"`
	Wrapper       string            `json:"wrapper"`
	WrapperProps  map[string]string `json:"wrapperProps,omitempty"`
	ImportSource  string            `json:"importSource,omitempty"`
	ImportDefault bool              `json:"importDefault,omitempty"`
}

func (o *WrapElement) Kind() Kind { return KindWrapElement }

func (o *WrapElement) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	if o.Wrapper == "" {
		return conflict(o.TargetElement, "wrap_element needs a wrapper name")
	}

	element := f.Tree.FindElement(o.TargetElement)
	if element == nil {
		return notFound(o.TargetElement, "no <%s> element in %s", o.TargetElement, f.Path)
	}

	start, end := int(element.StartByte()), int(element.EndByte())
	original := f.Text[start:end]
	indent := lineIndent(f.Text, start)

	var props strings.Builder
	for _, name := range sortedKeys(o.WrapperProps) {
		value := o.WrapperProps[name]
		if strings.HasPrefix(value, "{") {
			fmt.Fprintf(&props, " %s=%s", name, value)
		} else {
			fmt.Fprintf(&props, " %s=%q", name, value)
		}
	}

	// Shift the original block two spaces right; its inner lines already
	// carry their absolute indentation.
	wrapped := fmt.Sprintf("<%s%s>\n%s%s\n%s</%s>",
		o.Wrapper, props.String(),
		indent+"  ", indentBlockTail(original, "  "),
		indent, o.Wrapper)
	f.splice(start, end, wrapped)

	if o.ImportSource != "" {
		return ensureImport(ctx, f, o.ImportSource, o.Wrapper, o.ImportDefault)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
