package ops

import (
	"context"
	"fmt"
	"strings"
	"text/template"
)

// Composite operations are a templating subsystem, deliberately separate
// from the tree-mutation catalog: they render a self-contained block from
// declared parameters and append it to the file. The rendered text is not
// structurally validated against the existing tree here; the pipeline's
// final reparse is what vets the combination. Name collisions with
// existing exports are flagged as conflicts, never resolved silently.

// StateField declares one piece of state a composite template manages.
type StateField struct {
	Name    string `json:"name"`
	Initial string `json:"initial"`
}

var contextProviderTmpl = template.Must(template.New("context_provider").Parse(
	`const {{.Name}}Context = createContext(null);

export function {{.Name}}Provider({ children }) {
{{- range .Fields}}
  const [{{.Name}}, set{{.Cap}}] = useState({{.Initial}});
{{- end}}

  const value = {
{{- range .Fields}}
    {{.Name}},
    set{{.Cap}},
{{- end}}
  };

  return (
    <{{.Name}}Context.Provider value={value}>
      {children}
    </{{.Name}}Context.Provider>
  );
}

export function use{{.Name}}() {
  const context = useContext({{.Name}}Context);
  if (!context) {
    throw new Error('use{{.Name}} must be used within a {{.Name}}Provider');
  }
  return context;
}
`))

var zustandStoreTmpl = template.Must(template.New("zustand_store").Parse(
	`export const use{{.Name}}Store = create((set) => ({
{{- range .Fields}}
  {{.Name}}: {{.Initial}},
  set{{.Cap}}: ({{.Name}}) => set({ {{.Name}} }),
{{- end}}
}));
`))

var authenticationTmpl = template.Must(template.New("authentication").Parse(
	`const AuthContext = createContext(null);

export function AuthProvider({ children }) {
  const [user, setUser] = useState(null);
  const [loading, setLoading] = useState(true);

  useEffect(() => {
    const stored = localStorage.getItem('{{.StorageKey}}');
    if (stored) {
      setUser(JSON.parse(stored));
    }
    setLoading(false);
  }, []);

  const login = async (credentials) => {
    const response = await fetch('{{.LoginEndpoint}}', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(credentials),
    });
    if (!response.ok) {
      throw new Error('Login failed');
    }
    const data = await response.json();
    localStorage.setItem('{{.StorageKey}}', JSON.stringify(data.user));
    setUser(data.user);
    return data.user;
  };

  const logout = () => {
    localStorage.removeItem('{{.StorageKey}}');
    setUser(null);
  };

  return (
    <AuthContext.Provider value={{"{{"}} user, loading, login, logout {{"}}"}}>
      {children}
    </AuthContext.Provider>
  );
}

export function useAuth() {
  const context = useContext(AuthContext);
  if (!context) {
    throw new Error('useAuth must be used within an AuthProvider');
  }
  return context;
}
`))

// templateField adapts a StateField for template rendering.
type templateField struct {
	Name    string
	Cap     string
	Initial string
}

func templateFields(fields []StateField) []templateField {
	out := make([]templateField, 0, len(fields))
	for _, f := range fields {
		initial := f.Initial
		if initial == "" {
			initial = "null"
		}
		out = append(out, templateField{Name: f.Name, Cap: capitalize(f.Name), Initial: initial})
	}
	return out
}

// appendBlock adds a rendered block to the end of the file, separated by
// one blank line.
func appendBlock(f *File, block string) {
	text := strings.TrimRight(f.Text, "\n")
	if text == "" {
		f.Text = block
	} else {
		f.Text = text + "\n\n" + block
	}
	f.invalidate()
}

// AddContextProvider renders a React context, its provider component and
// the matching accessor hook.
type AddContextProvider struct {
	Name   string       `json:"name"`
	Fields []StateField `json:"fields,omitempty"`
}

func (o *AddContextProvider) Kind() Kind { return KindAddContextProvider }

func (o *AddContextProvider) Apply(ctx context.Context, f *File) error {
	if o.Name == "" {
		return conflict("", "add_context_provider needs a name")
	}
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	providerName := o.Name + "Provider"
	if exportExists(f.Tree, providerName) {
		return conflict(providerName, "export %q already exists in %s", providerName, f.Path)
	}

	var buf strings.Builder
	err := contextProviderTmpl.Execute(&buf, struct {
		Name   string
		Fields []templateField
	}{Name: o.Name, Fields: templateFields(o.Fields)})
	if err != nil {
		return fmt.Errorf("render context provider: %w", err)
	}

	appendBlock(f, buf.String())
	for _, hook := range []string{"createContext", "useContext", "useState"} {
		if err := ensureReactImport(ctx, f, hook); err != nil {
			return err
		}
	}
	return nil
}

// AddZustandStore renders a zustand store with one setter per field and
// imports `create` from zustand.
type AddZustandStore struct {
	Name   string       `json:"name"`
	Fields []StateField `json:"fields,omitempty"`
}

func (o *AddZustandStore) Kind() Kind { return KindAddZustandStore }

func (o *AddZustandStore) Apply(ctx context.Context, f *File) error {
	if o.Name == "" {
		return conflict("", "add_zustand_store needs a name")
	}
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	storeName := "use" + o.Name + "Store"
	if exportExists(f.Tree, storeName) {
		return conflict(storeName, "export %q already exists in %s", storeName, f.Path)
	}

	var buf strings.Builder
	err := zustandStoreTmpl.Execute(&buf, struct {
		Name   string
		Fields []templateField
	}{Name: o.Name, Fields: templateFields(o.Fields)})
	if err != nil {
		return fmt.Errorf("render zustand store: %w", err)
	}

	appendBlock(f, buf.String())
	return ensureImport(ctx, f, "zustand", "create", false)
}

// AddAuthentication renders a localStorage-backed auth provider scaffold
// with login/logout and a useAuth hook.
type AddAuthentication struct {
	LoginEndpoint string `json:"loginEndpoint,omitempty"`
	StorageKey    string `json:"storageKey,omitempty"`
}

func (o *AddAuthentication) Kind() Kind { return KindAddAuthentication }

func (o *AddAuthentication) Apply(ctx context.Context, f *File) error {
	if err := f.EnsureTree(ctx); err != nil {
		return err
	}
	if exportExists(f.Tree, "AuthProvider") {
		return conflict("AuthProvider", "export AuthProvider already exists in %s", f.Path)
	}

	endpoint := o.LoginEndpoint
	if endpoint == "" {
		endpoint = "/api/auth/login"
	}
	key := o.StorageKey
	if key == "" {
		key = "auth_user"
	}

	var buf strings.Builder
	err := authenticationTmpl.Execute(&buf, struct {
		LoginEndpoint string
		StorageKey    string
	}{LoginEndpoint: endpoint, StorageKey: key})
	if err != nil {
		return fmt.Errorf("render authentication scaffold: %w", err)
	}

	appendBlock(f, buf.String())
	for _, hook := range []string{"createContext", "useContext", "useState", "useEffect"} {
		if err := ensureReactImport(ctx, f, hook); err != nil {
			return err
		}
	}
	return nil
}
