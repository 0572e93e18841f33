package ops

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// componentBody resolves the component a hook operation targets and
// returns its statement block. An empty component name selects the first
// React component in the file.
func componentBody(f *File, component string) (*sitter.Node, error) {
	fn, ok := f.Tree.FindComponent(component)
	if !ok {
		desc := component
		if desc == "" {
			desc = "<first component>"
		}
		return nil, notFound(desc, "component not found in %s", f.Path)
	}
	if fn.Body == nil {
		return nil, conflict(fn.Name, "component %s has an expression body; cannot insert a hook statement", fn.Name)
	}
	return fn.Body, nil
}

// insertHook places the rendered hook statement and then links the hook
// name into the react import. The import check runs against the text as it
// stands after the insertion, which is what makes operation order within a
// file significant.
func insertHook(ctx context.Context, f *File, component, hookName, stmt string) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	body, err := componentBody(f, component)
	if err != nil {
		return err
	}
	insertStatement(f, body, stmt)
	return ensureReactImport(ctx, f, hookName)
}

// AddState inserts `const [name, setter] = useState(initial);` after the
// component's existing hooks and before its return.
type AddState struct {
	Component    string `json:"component,omitempty"`
	Name         string `json:"name"`
	Setter       string `json:"setter"`
	InitialValue string `json:"initialValue"`
}

func (o *AddState) Kind() Kind { return KindAddState }

func (o *AddState) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	if bindingExists(f.Tree, o.Name) {
		return conflict(o.Name, "binding %q already exists", o.Name)
	}
	setter := o.Setter
	if setter == "" {
		setter = "set" + capitalize(o.Name)
	}
	initial := o.InitialValue
	if initial == "" {
		initial = "null"
	}
	stmt := fmt.Sprintf("const [%s, %s] = useState(%s);", o.Name, setter, initial)
	return insertHook(ctx, f, o.Component, "useState", stmt)
}

// AddEffect inserts a useEffect call with the given body and dependency
// list.
type AddEffect struct {
	Component    string   `json:"component,omitempty"`
	Body         string   `json:"body"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func (o *AddEffect) Kind() Kind { return KindAddEffect }

func (o *AddEffect) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	body, err := componentBody(f, o.Component)
	if err != nil {
		return err
	}
	indent := lineIndent(f.Text, int(body.StartByte()))
	inner := indent + "  "
	stmt := fmt.Sprintf("useEffect(() => {\n%s\n%s}, [%s]);",
		indentBlock(strings.TrimRight(o.Body, "\n"), inner+"  "),
		inner,
		strings.Join(o.Dependencies, ", "))
	insertStatement(f, body, stmt)
	return ensureReactImport(ctx, f, "useEffect")
}

// AddRef inserts `const name = useRef(initial);`.
type AddRef struct {
	Component    string `json:"component,omitempty"`
	Name         string `json:"name"`
	InitialValue string `json:"initialValue,omitempty"`
}

func (o *AddRef) Kind() Kind { return KindAddRef }

func (o *AddRef) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	if bindingExists(f.Tree, o.Name) {
		return conflict(o.Name, "binding %q already exists", o.Name)
	}
	initial := o.InitialValue
	if initial == "" {
		initial = "null"
	}
	stmt := fmt.Sprintf("const %s = useRef(%s);", o.Name, initial)
	return insertHook(ctx, f, o.Component, "useRef", stmt)
}

// AddMemo inserts `const name = useMemo(() => expr, [deps]);`.
type AddMemo struct {
	Component    string   `json:"component,omitempty"`
	Name         string   `json:"name"`
	Expression   string   `json:"expression"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func (o *AddMemo) Kind() Kind { return KindAddMemo }

func (o *AddMemo) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	if bindingExists(f.Tree, o.Name) {
		return conflict(o.Name, "binding %q already exists", o.Name)
	}
	stmt := fmt.Sprintf("const %s = useMemo(() => %s, [%s]);",
		o.Name, o.Expression, strings.Join(o.Dependencies, ", "))
	return insertHook(ctx, f, o.Component, "useMemo", stmt)
}

// AddCallback inserts `const name = useCallback((params) => { body }, [deps]);`.
type AddCallback struct {
	Component    string   `json:"component,omitempty"`
	Name         string   `json:"name"`
	Params       string   `json:"params,omitempty"`
	Body         string   `json:"body"`
	Dependencies []string `json:"dependencies,omitempty"`
}

func (o *AddCallback) Kind() Kind { return KindAddCallback }

func (o *AddCallback) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	if bindingExists(f.Tree, o.Name) {
		return conflict(o.Name, "binding %q already exists", o.Name)
	}
	body, err := componentBody(f, o.Component)
	if err != nil {
		return err
	}
	indent := lineIndent(f.Text, int(body.StartByte()))
	inner := indent + "  "
	stmt := fmt.Sprintf("const %s = useCallback((%s) => {\n%s\n%s}, [%s]);",
		o.Name, o.Params,
		indentBlock(strings.TrimRight(o.Body, "\n"), inner+"  "),
		inner,
		strings.Join(o.Dependencies, ", "))
	insertStatement(f, body, stmt)
	return ensureReactImport(ctx, f, "useCallback")
}

// AddReducer inserts `const [state, dispatch] = useReducer(reducer, initial);`.
type AddReducer struct {
	Component    string `json:"component,omitempty"`
	StateName    string `json:"stateName"`
	DispatchName string `json:"dispatchName"`
	Reducer      string `json:"reducer"`
	InitialState string `json:"initialState"`
}

func (o *AddReducer) Kind() Kind { return KindAddReducer }

func (o *AddReducer) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	state := o.StateName
	if state == "" {
		state = "state"
	}
	dispatch := o.DispatchName
	if dispatch == "" {
		dispatch = "dispatch"
	}
	if bindingExists(f.Tree, state) {
		return conflict(state, "binding %q already exists", state)
	}
	stmt := fmt.Sprintf("const [%s, %s] = useReducer(%s, %s);",
		state, dispatch, o.Reducer, o.InitialState)
	return insertHook(ctx, f, o.Component, "useReducer", stmt)
}
