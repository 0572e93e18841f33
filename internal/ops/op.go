// Package ops implements the operation catalog: every structural, textual
// and composite edit the engine can apply to one file. Each operation is a
// pure function from the file's current text (plus its fresh syntax tree)
// to new text; the pipeline owns reparsing and validation around it.
package ops

import (
	"context"
	"encoding/json"
	"fmt"

	"reforge/internal/changeset"
	"reforge/internal/parser"
)

// Kind discriminates operation variants on the wire.
type Kind string

const (
	KindAddState           Kind = "add_state"
	KindAddEffect          Kind = "add_effect"
	KindAddRef             Kind = "add_ref"
	KindAddMemo            Kind = "add_memo"
	KindAddCallback        Kind = "add_callback"
	KindAddReducer         Kind = "add_reducer"
	KindAddImport          Kind = "add_import"
	KindModifyClassName    Kind = "modify_class_name"
	KindInsertJSX          Kind = "insert_jsx"
	KindModifyProp         Kind = "modify_prop"
	KindWrapElement        Kind = "wrap_element"
	KindAddContextProvider Kind = "add_context_provider"
	KindAddZustandStore    Kind = "add_zustand_store"
	KindAddAuthentication  Kind = "add_authentication"
	KindExtractComponent   Kind = "extract_component"
	KindInsertBefore       Kind = "insert_before"
	KindInsertAfter        Kind = "insert_after"
	KindReplace            Kind = "replace"
	KindDelete             Kind = "delete"
	KindAppend             Kind = "append"
)

// Operation is one atomic edit. Apply rewrites f.Text (and may add created
// files); any returned error is file-fatal and must leave no partial state
// behind that the pipeline could publish.
type Operation interface {
	Kind() Kind
	Apply(ctx context.Context, f *File) error
}

// CreatedFile is a new file synthesized by an operation (ExtractComponent).
type CreatedFile struct {
	Path    string
	Content string
}

// File is the mutable apply context for one file. Tree is parsed from the
// current Text; operations that rewrite Text call invalidate so the
// pipeline rebuilds the tree before the next structural step.
type File struct {
	Path    string
	Text    string
	Tree    *parser.SyntaxTree
	Parser  *parser.Parser
	Dialect parser.Dialect
	Created []CreatedFile
}

// invalidate drops the tree after a text rewrite. Node handles derived
// from the old tree must not be used past this point.
func (f *File) invalidate() {
	if f.Tree != nil {
		f.Tree.Close()
		f.Tree = nil
	}
}

// EnsureTree rebuilds the tree from the current text when a prior edit
// invalidated it.
func (f *File) EnsureTree(ctx context.Context) error {
	if f.Tree != nil {
		return nil
	}
	t, err := f.Parser.Parse(ctx, []byte(f.Text), f.Dialect)
	if err != nil {
		return err
	}
	f.Tree = t
	return nil
}

// splice replaces f.Text[start:end] with repl and invalidates the tree.
func (f *File) splice(start, end int, repl string) {
	f.Text = f.Text[:start] + repl + f.Text[end:]
	f.invalidate()
}

// envelope sniffs the discriminator before full decoding.
type envelope struct {
	Type Kind `json:"type"`
}

// DecodeOne parses a single operation by its "type" discriminator. The
// switch is the single registration point for the catalog; an unknown
// kind is a decode error, never a silent no-op.
func DecodeOne(raw json.RawMessage) (Operation, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("operation envelope: %w", err)
	}

	var op Operation
	switch env.Type {
	case KindAddState:
		op = &AddState{}
	case KindAddEffect:
		op = &AddEffect{}
	case KindAddRef:
		op = &AddRef{}
	case KindAddMemo:
		op = &AddMemo{}
	case KindAddCallback:
		op = &AddCallback{}
	case KindAddReducer:
		op = &AddReducer{}
	case KindAddImport:
		op = &AddImport{}
	case KindModifyClassName:
		op = &ModifyClassName{}
	case KindInsertJSX:
		op = &InsertJSX{}
	case KindModifyProp:
		op = &ModifyProp{}
	case KindWrapElement:
		op = &WrapElement{}
	case KindAddContextProvider:
		op = &AddContextProvider{}
	case KindAddZustandStore:
		op = &AddZustandStore{}
	case KindAddAuthentication:
		op = &AddAuthentication{}
	case KindExtractComponent:
		op = &ExtractComponent{}
	case KindInsertBefore:
		op = &InsertBefore{}
	case KindInsertAfter:
		op = &InsertAfter{}
	case KindReplace:
		op = &Replace{}
	case KindDelete:
		op = &Delete{}
	case KindAppend:
		op = &Append{}
	default:
		return nil, fmt.Errorf("unknown operation type %q", env.Type)
	}

	if err := json.Unmarshal(raw, op); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return op, nil
}

// Decode parses an ordered operation list. Order is preserved exactly as
// submitted; each operation sees the text produced by the previous one.
func Decode(changes []json.RawMessage) ([]Operation, error) {
	out := make([]Operation, 0, len(changes))
	for i, raw := range changes {
		op, err := DecodeOne(raw)
		if err != nil {
			return nil, fmt.Errorf("change %d: %w", i, err)
		}
		out = append(out, op)
	}
	return out, nil
}

// IsStructural reports whether the operation needs a parsed tree. Textual
// operations search the raw in-progress text instead; composite generators
// render templates but still consult the tree for collision checks.
func IsStructural(op Operation) bool {
	switch op.Kind() {
	case KindInsertBefore, KindInsertAfter, KindReplace, KindDelete, KindAppend:
		return false
	}
	return true
}

// notFound and conflict keep call sites terse.
func notFound(descriptor, format string, args ...any) *changeset.OpError {
	return changeset.NotFound(descriptor, format, args...)
}

func conflict(descriptor, format string, args ...any) *changeset.OpError {
	return changeset.Conflict(descriptor, format, args...)
}
