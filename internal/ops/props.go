package ops

import (
	"context"
	"fmt"
)

// Prop actions.
const (
	PropAdd    = "add"
	PropUpdate = "update"
	PropRemove = "remove"
)

// ModifyProp adds, updates or removes one prop on the target element's
// opening tag. Literal values render as `name="value"`, expressions as
// `name={value}`. Conflicting actions (adding a prop that exists,
// updating or removing one that does not) are structural conflicts.
type ModifyProp struct {
	TargetElement string `json:"targetElement"`
	Action        string `json:"action"`
	Name          string `json:"name"`
	Value         string `json:"value,omitempty"`
	IsExpression  bool   `json:"isExpression,omitempty"`
}

func (o *ModifyProp) Kind() Kind { return KindModifyProp }

func (o *ModifyProp) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}

	element := f.Tree.FindElement(o.TargetElement)
	if element == nil {
		return notFound(o.TargetElement, "no <%s> element in %s", o.TargetElement, f.Path)
	}
	attr := f.Tree.Attribute(element, o.Name)

	switch o.Action {
	case PropAdd:
		if attr != nil {
			return conflict(o.TargetElement,
				"prop %q already present on <%s>; use update", o.Name, o.TargetElement)
		}
		tag := f.Tree.OpeningTag(element)
		end := int(tag.EndByte()) - 1
		if tag.Type() == "jsx_self_closing_element" {
			end-- // land before "/>"
			for end > 0 && f.Text[end-1] == ' ' {
				end--
			}
		}
		f.splice(end, end, " "+o.rendered())
		return nil

	case PropUpdate:
		if attr == nil {
			return conflict(o.TargetElement,
				"prop %q not present on <%s>; use add", o.Name, o.TargetElement)
		}
		f.splice(int(attr.StartByte()), int(attr.EndByte()), o.rendered())
		return nil

	case PropRemove:
		if attr == nil {
			return conflict(o.TargetElement,
				"prop %q not present on <%s>; nothing to remove", o.Name, o.TargetElement)
		}
		start := int(attr.StartByte())
		for start > 0 && (f.Text[start-1] == ' ' || f.Text[start-1] == '\t') {
			start--
		}
		f.splice(start, int(attr.EndByte()), "")
		return nil
	}

	return conflict(o.TargetElement, "unknown prop action %q", o.Action)
}

func (o *ModifyProp) rendered() string {
	if o.Value == "" {
		return o.Name // boolean shorthand
	}
	if o.IsExpression {
		return fmt.Sprintf("%s={%s}", o.Name, o.Value)
	}
	return fmt.Sprintf("%s=%q", o.Name, o.Value)
}
