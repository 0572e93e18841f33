package ops

import (
	"context"
	"fmt"
	"strings"
)

// ClassTemplate describes a conditional class expression. With
// operator "?" the rendered fragment is `variable ? 'trueValue' :
// 'falseValue'`; with "&&" it is `variable && 'trueValue'`.
type ClassTemplate struct {
	Variable   string `json:"variable"`
	TrueValue  string `json:"trueValue"`
	FalseValue string `json:"falseValue,omitempty"`
	Operator   string `json:"operator,omitempty"`
}

func (t ClassTemplate) render() string {
	switch t.Operator {
	case "", "?":
		return fmt.Sprintf("%s ? '%s' : '%s'", t.Variable, t.TrueValue, t.FalseValue)
	case "&&":
		return fmt.Sprintf("%s && '%s'", t.Variable, t.TrueValue)
	}
	return fmt.Sprintf("%s ? '%s' : '%s'", t.Variable, t.TrueValue, t.FalseValue)
}

// ModifyClassName replaces a static className string with a template
// literal that keeps the static classes and appends a conditional one.
//
//	<div className="container">  →  <div className={`container ${dark ? 'dark-mode' : ''}`}>
type ModifyClassName struct {
	TargetElement string        `json:"targetElement"`
	StaticClasses []string      `json:"staticClasses,omitempty"`
	Template      ClassTemplate `json:"template"`
}

func (o *ModifyClassName) Kind() Kind { return KindModifyClassName }

func (o *ModifyClassName) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}

	element := f.Tree.FindElement(o.TargetElement)
	if element == nil {
		return notFound(o.TargetElement, "no <%s> element in %s", o.TargetElement, f.Path)
	}

	static := strings.Join(o.StaticClasses, " ")

	attr := f.Tree.Attribute(element, "className")
	if attr == nil {
		// No className yet: add one to the opening tag.
		tag := f.Tree.OpeningTag(element)
		end := int(tag.EndByte()) - 1 // before '>'
		if tag.Type() == "jsx_self_closing_element" {
			end-- // before '/>'
		}
		expr := fmt.Sprintf(" className={`%s ${%s}`}", static, o.Template.render())
		if static == "" {
			expr = fmt.Sprintf(" className={%s}", o.Template.render())
		}
		f.splice(end, end, expr)
		return nil
	}

	// Preserve classes already present when the caller did not restate them.
	_, value := f.Tree.AttributeParts(attr)
	if value != nil && value.Type() == "string" && static == "" {
		static = strings.Trim(f.Tree.Text(value), `"'`)
	}

	repl := fmt.Sprintf("className={`%s ${%s}`}", static, o.Template.render())
	if static == "" {
		repl = fmt.Sprintf("className={%s}", o.Template.render())
	}
	f.splice(int(attr.StartByte()), int(attr.EndByte()), repl)
	return nil
}
