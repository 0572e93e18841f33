package ops

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reforge/internal/changeset"
	"reforge/internal/parser"
)

const counterSrc = `import { useState } from 'react';

function Counter() {
  const [count, setCount] = useState(0);
  return (
    <div className="counter">
      <span>{count}</span>
      <button onClick={() => setCount(count + 1)}>+</button>
    </div>
  );
}

export default Counter;
`

func newTestFile(t *testing.T, path, src string) *File {
	t.Helper()
	p := parser.New()
	t.Cleanup(p.Close)

	f := &File{
		Path:    path,
		Text:    src,
		Parser:  p,
		Dialect: parser.DialectForPath(path),
	}
	require.NoError(t, f.EnsureTree(context.Background()))
	t.Cleanup(f.invalidate)
	return f
}

func apply(t *testing.T, f *File, op Operation) error {
	t.Helper()
	return op.Apply(context.Background(), f)
}

func requireParses(t *testing.T, f *File) {
	t.Helper()
	f.invalidate()
	require.NoError(t, f.EnsureTree(context.Background()), "result no longer parses:\n%s", f.Text)
}

func opErrKind(t *testing.T, err error) changeset.ErrorKind {
	t.Helper()
	var oe *changeset.OpError
	require.ErrorAs(t, err, &oe)
	return oe.Kind
}

func TestAddState(t *testing.T) {
	t.Run("inserts after existing hooks", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &AddState{Name: "open", InitialValue: "false"})
		require.NoError(t, err)
		requireParses(t, f)

		assert.Contains(t, f.Text, "const [open, setOpen] = useState(false);")
		// Placed after the existing useState line.
		assert.Greater(t,
			indexOf(f.Text, "const [open"),
			indexOf(f.Text, "const [count"))
	})

	t.Run("hookless component gets it as the first statement", func(t *testing.T) {
		src := "function Banner() {\n  const label = 'hi';\n  return <p>{label}</p>;\n}\n"
		f := newTestFile(t, "Banner.tsx", src)
		err := apply(t, f, &AddState{Name: "count", Setter: "setCount", InitialValue: "0"})
		require.NoError(t, err)
		requireParses(t, f)

		assert.Contains(t, f.Text, "const [count, setCount] = useState(0);\n  const label")
		assert.Contains(t, f.Text, "import { useState } from 'react';")
	})

	t.Run("derives setter name", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		require.NoError(t, apply(t, f, &AddState{Name: "userProfile"}))
		assert.Contains(t, f.Text, "const [userProfile, setUserProfile] = useState(null);")
	})

	t.Run("colliding binding is a conflict", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &AddState{Name: "count"})
		assert.Equal(t, changeset.KindStructuralConflict, opErrKind(t, err))
	})

	t.Run("missing component is not found", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &AddState{Component: "Missing", Name: "x"})
		assert.Equal(t, changeset.KindPatternNotFound, opErrKind(t, err))
	})
}

func TestAddEffectImportLinkage(t *testing.T) {
	f := newTestFile(t, "Counter.tsx", counterSrc)
	err := apply(t, f, &AddEffect{
		Body:         "document.title = `Count: ${count}`;",
		Dependencies: []string{"count"},
	})
	require.NoError(t, err)
	requireParses(t, f)

	assert.Contains(t, f.Text, "import { useState, useEffect } from 'react';")
	assert.Contains(t, f.Text, "}, [count]);")
	// Effect lands after the state hook.
	assert.Greater(t, indexOf(f.Text, "useEffect(() => {"), indexOf(f.Text, "useState(0)"))
}

func TestImportEffectOrderInsensitive(t *testing.T) {
	// The import check runs after the hook statement is inserted, against
	// the text as of that point, so either ordering of add_import and
	// add_effect yields exactly one useEffect specifier.
	for name, sequence := range map[string][]Operation{
		"import first": {
			&AddImport{Source: "react", Name: "useEffect"},
			&AddEffect{Body: "console.log(count);"},
		},
		"effect first": {
			&AddEffect{Body: "console.log(count);"},
			&AddImport{Source: "react", Name: "useEffect"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newTestFile(t, "Counter.tsx", counterSrc)
			for _, op := range sequence {
				require.NoError(t, apply(t, f, op))
			}
			requireParses(t, f)

			assert.Contains(t, f.Text, "import { useState, useEffect } from 'react';")
			assert.Equal(t, 1, countOf(f.Text, "from 'react'"))
		})
	}
}

func TestAddImport(t *testing.T) {
	t.Run("idempotent per source and specifier", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		op := &AddImport{Source: "clsx", Name: "clsx", IsDefault: true}
		require.NoError(t, apply(t, f, op))
		require.NoError(t, apply(t, f, op))
		requireParses(t, f)
		assert.Equal(t, 1, countOf(f.Text, "import clsx from 'clsx';"))
	})

	t.Run("new import lands after the last one", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		require.NoError(t, apply(t, f, &AddImport{Source: "./api", Name: "fetchUser"}))
		requireParses(t, f)
		assert.Contains(t, f.Text,
			"import { useState } from 'react';\nimport { fetchUser } from './api';")
	})

	t.Run("merges into existing named list", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		require.NoError(t, apply(t, f, &AddImport{Source: "react", Name: "useRef"}))
		assert.Contains(t, f.Text, "import { useState, useRef } from 'react';")
	})

	t.Run("adds default alongside named", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		require.NoError(t, apply(t, f, &AddImport{Source: "react", Name: "React", IsDefault: true}))
		requireParses(t, f)
		assert.Contains(t, f.Text, "import React, { useState } from 'react';")
	})

	t.Run("respects use client directive", func(t *testing.T) {
		src := "'use client';\n\nexport function Page() {\n  return <div />;\n}\n"
		f := newTestFile(t, "page.tsx", src)
		require.NoError(t, apply(t, f, &AddImport{Source: "react", Name: "useState"}))
		requireParses(t, f)
		assert.Contains(t, f.Text, "'use client';\n\nimport { useState } from 'react';")
	})

	t.Run("side-effect import gains a named clause", func(t *testing.T) {
		src := "import './styles.css';\n\nexport function Page() {\n  return <div />;\n}\n"
		f := newTestFile(t, "page.tsx", src)
		require.NoError(t, apply(t, f, &AddImport{Source: "./styles.css", Name: "styles"}))
		requireParses(t, f)
		assert.Contains(t, f.Text, "import { styles } from './styles.css';")
	})

	t.Run("side-effect import gains a default clause", func(t *testing.T) {
		src := "import './theme.css';\n\nexport function Page() {\n  return <div />;\n}\n"
		f := newTestFile(t, "page.tsx", src)
		require.NoError(t, apply(t, f, &AddImport{Source: "./theme.css", Name: "theme", IsDefault: true}))
		requireParses(t, f)
		assert.Contains(t, f.Text, "import theme from './theme.css';")
	})
}

func TestModifyClassName(t *testing.T) {
	t.Run("preserves existing static classes", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyClassName{
			TargetElement: "div",
			Template:      ClassTemplate{Variable: "dark", TrueValue: "dark-mode"},
		})
		require.NoError(t, err)
		requireParses(t, f)
		assert.Contains(t, f.Text, "className={`counter ${dark ? 'dark-mode' : ''}`}")
	})

	t.Run("adds className when absent", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyClassName{
			TargetElement: "span",
			StaticClasses: []string{"value"},
			Template:      ClassTemplate{Variable: "big", TrueValue: "lg", Operator: "&&"},
		})
		require.NoError(t, err)
		requireParses(t, f)
		assert.Contains(t, f.Text, "<span className={`value ${big && 'lg'}`}>")
	})

	t.Run("missing element is not found", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyClassName{TargetElement: "nav"})
		assert.Equal(t, changeset.KindPatternNotFound, opErrKind(t, err))
	})
}

func TestInsertJSX(t *testing.T) {
	t.Run("positions", func(t *testing.T) {
		for _, tc := range []struct {
			position string
			target   string
			jsx      string
			want     string
		}{
			{PosBefore, "span", "<h1>Counter</h1>", "<h1>Counter</h1>\n      <span>"},
			{PosAfter, "span", "<p>done</p>", "</span>\n      <p>done</p>"},
			{PosInsideStart, "div", "<label>count</label>", "counter\">\n      <label>count</label>"},
			{PosInsideEnd, "div", "<hr />", "</button>\n      <hr />\n    </div>"},
		} {
			t.Run(tc.position, func(t *testing.T) {
				f := newTestFile(t, "Counter.tsx", counterSrc)
				err := apply(t, f, &InsertJSX{TargetElement: tc.target, Position: tc.position, JSX: tc.jsx})
				require.NoError(t, err)
				requireParses(t, f)
				assert.Contains(t, f.Text, tc.want)
			})
		}
	})

	t.Run("not idempotent", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		op := &InsertJSX{TargetElement: "div", Position: PosInsideEnd, JSX: "<hr />"}
		require.NoError(t, apply(t, f, op))
		require.NoError(t, apply(t, f, op))
		requireParses(t, f)
		assert.Equal(t, 2, countOf(f.Text, "<hr />"))
	})

	t.Run("self closing rejects children", func(t *testing.T) {
		src := "function Page() {\n  return <input />;\n}\n"
		f := newTestFile(t, "page.tsx", src)
		err := apply(t, f, &InsertJSX{TargetElement: "input", Position: PosInsideEnd, JSX: "<b/>"})
		assert.Equal(t, changeset.KindStructuralConflict, opErrKind(t, err))
	})
}

func TestModifyProp(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyProp{
			TargetElement: "button", Action: PropAdd,
			Name: "disabled", Value: "count > 9", IsExpression: true,
		})
		require.NoError(t, err)
		requireParses(t, f)
		assert.Contains(t, f.Text, "disabled={count > 9}>")
	})

	t.Run("add existing prop conflicts", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyProp{
			TargetElement: "div", Action: PropAdd, Name: "className", Value: "x",
		})
		assert.Equal(t, changeset.KindStructuralConflict, opErrKind(t, err))
	})

	t.Run("update", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyProp{
			TargetElement: "div", Action: PropUpdate, Name: "className", Value: "widget",
		})
		require.NoError(t, err)
		requireParses(t, f)
		assert.Contains(t, f.Text, `<div className="widget">`)
	})

	t.Run("remove missing prop conflicts", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyProp{TargetElement: "span", Action: PropRemove, Name: "id"})
		assert.Equal(t, changeset.KindStructuralConflict, opErrKind(t, err))
	})

	t.Run("remove", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &ModifyProp{TargetElement: "div", Action: PropRemove, Name: "className"})
		require.NoError(t, err)
		requireParses(t, f)
		assert.Contains(t, f.Text, "<div>")
	})
}

func TestWrapElement(t *testing.T) {
	f := newTestFile(t, "Counter.tsx", counterSrc)
	err := apply(t, f, &WrapElement{
		TargetElement: "div",
		Wrapper:       "ErrorBoundary",
		WrapperProps:  map[string]string{"fallback": "{<p>failed</p>}"},
		ImportSource:  "./ErrorBoundary",
	})
	require.NoError(t, err)
	requireParses(t, f)

	assert.Contains(t, f.Text, "<ErrorBoundary fallback={<p>failed</p>}>")
	assert.Contains(t, f.Text, "</ErrorBoundary>")
	assert.Contains(t, f.Text, "import { ErrorBoundary } from './ErrorBoundary';")
	// The original element is intact inside the wrapper.
	assert.Contains(t, f.Text, `<div className="counter">`)
}

func TestTextualOps(t *testing.T) {
	t.Run("replace first occurrence", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		require.NoError(t, apply(t, f, &Replace{SearchFor: "count + 1", ReplaceWith: "count + step"}))
		assert.Contains(t, f.Text, "setCount(count + step)")
	})

	t.Run("missing pattern reports descriptor", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		err := apply(t, f, &Delete{SearchFor: "no such text"})
		var oe *changeset.OpError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, changeset.KindPatternNotFound, oe.Kind)
		assert.Equal(t, "no such text", oe.Descriptor)
	})

	t.Run("insert before and after", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		require.NoError(t, apply(t, f, &InsertBefore{SearchFor: "export default", Content: "// exported below\n"}))
		require.NoError(t, apply(t, f, &InsertAfter{SearchFor: "useState(0);", Content: "\n  const step = 1;"}))
		requireParses(t, f)
		assert.Contains(t, f.Text, "// exported below\nexport default")
		assert.Contains(t, f.Text, "useState(0);\n  const step = 1;")
	})

	t.Run("append", func(t *testing.T) {
		f := newTestFile(t, "Counter.tsx", counterSrc)
		require.NoError(t, apply(t, f, &Append{Content: "export const VERSION = 1;\n"}))
		requireParses(t, f)
		assert.Contains(t, f.Text, "export default Counter;\nexport const VERSION = 1;\n")
	})
}

func TestTextualSeesTextAtItsOwnIndex(t *testing.T) {
	// A structural edit earlier in the list rewrites the substring a later
	// textual op targets; the textual op matches against the updated text.
	f := newTestFile(t, "Counter.tsx", counterSrc)
	require.NoError(t, apply(t, f, &ModifyProp{
		TargetElement: "div", Action: PropUpdate, Name: "className", Value: "widget",
	}))
	err := apply(t, f, &Delete{SearchFor: `className="counter"`})
	assert.Equal(t, changeset.KindPatternNotFound, opErrKind(t, err))
	require.NoError(t, apply(t, f, &Replace{
		SearchFor: `className="widget"`, ReplaceWith: `className="panel"`,
	}))
	assert.Contains(t, f.Text, `className="panel"`)
}

func TestAddContextProvider(t *testing.T) {
	t.Run("renders provider and hook", func(t *testing.T) {
		f := newTestFile(t, "theme.tsx", "export {};\n")
		err := apply(t, f, &AddContextProvider{
			Name:   "Theme",
			Fields: []StateField{{Name: "theme", Initial: "'light'"}},
		})
		require.NoError(t, err)
		requireParses(t, f)

		assert.Contains(t, f.Text, "const ThemeContext = createContext(null);")
		assert.Contains(t, f.Text, "export function ThemeProvider({ children })")
		assert.Contains(t, f.Text, "const [theme, setTheme] = useState('light');")
		assert.Contains(t, f.Text, "export function useTheme()")
		assert.Contains(t, f.Text, "import { createContext, useContext, useState } from 'react';")
	})

	t.Run("colliding export conflicts", func(t *testing.T) {
		src := "export function ThemeProvider() {\n  return null;\n}\n"
		f := newTestFile(t, "theme.tsx", src)
		err := apply(t, f, &AddContextProvider{Name: "Theme"})
		assert.Equal(t, changeset.KindStructuralConflict, opErrKind(t, err))
	})
}

func TestAddZustandStore(t *testing.T) {
	f := newTestFile(t, "store.ts", "export {};\n")
	err := apply(t, f, &AddZustandStore{
		Name:   "Cart",
		Fields: []StateField{{Name: "items", Initial: "[]"}},
	})
	require.NoError(t, err)
	requireParses(t, f)

	assert.Contains(t, f.Text, "import { create } from 'zustand';")
	assert.Contains(t, f.Text, "export const useCartStore = create((set) => ({")
	assert.Contains(t, f.Text, "items: [],")
	assert.Contains(t, f.Text, "setItems: (items) => set({ items }),")
}

func TestAddAuthentication(t *testing.T) {
	f := newTestFile(t, "auth.tsx", "export {};\n")
	err := apply(t, f, &AddAuthentication{})
	require.NoError(t, err)
	requireParses(t, f)

	assert.Contains(t, f.Text, "export function AuthProvider({ children })")
	assert.Contains(t, f.Text, "export function useAuth()")
	assert.Contains(t, f.Text, "fetch('/api/auth/login'")
	assert.Contains(t, f.Text, "localStorage.getItem('auth_user')")
	assert.Contains(t, f.Text,
		"import { createContext, useContext, useState, useEffect } from 'react';")
}

func TestExtractComponent(t *testing.T) {
	src := `function Page({ user }) {
  const [open, setOpen] = useState(false);
  return (
    <main>
      <header className="top">
        <h1>{user.name}</h1>
        <button onClick={() => setOpen(!open)}>menu</button>
      </header>
    </main>
  );
}
`
	t.Run("lifts subtree and infers props", func(t *testing.T) {
		f := newTestFile(t, "src/Page.tsx", src)
		err := apply(t, f, &ExtractComponent{TargetElement: "header", NewName: "PageHeader"})
		require.NoError(t, err)
		requireParses(t, f)

		require.Len(t, f.Created, 1)
		created := f.Created[0]
		assert.Equal(t, "src/PageHeader.tsx", created.Path)
		assert.Contains(t, created.Content, "interface PageHeaderProps {")
		assert.Contains(t, created.Content, "export function PageHeader({ open, setOpen, user }: PageHeaderProps)")
		assert.Contains(t, created.Content, `<header className="top">`)

		assert.Contains(t, f.Text, "<PageHeader open={open} setOpen={setOpen} user={user} />")
		assert.Contains(t, f.Text, "import { PageHeader } from './PageHeader';")
		assert.NotContains(t, f.Text, "<header")

		// The lifted subtree's lowercase tags must not leak into the
		// prop list.
		for _, tag := range []string{"header", "h1", "button"} {
			assert.NotContains(t, created.Content, tag+": any")
			assert.NotContains(t, f.Text, tag+"={"+tag+"}")
		}

		// The usage keeps the original site's indentation and the new
		// file opens with the lifted element directly under return.
		assert.Contains(t, f.Text, "<main>\n      <PageHeader")
		assert.Contains(t, created.Content, "return (\n    <header")
	})

	t.Run("lowercase name conflicts", func(t *testing.T) {
		f := newTestFile(t, "src/Page.tsx", src)
		err := apply(t, f, &ExtractComponent{TargetElement: "header", NewName: "pageHeader"})
		assert.Equal(t, changeset.KindStructuralConflict, opErrKind(t, err))
	})

	t.Run("missing element is not found", func(t *testing.T) {
		f := newTestFile(t, "src/Page.tsx", src)
		err := apply(t, f, &ExtractComponent{TargetElement: "footer", NewName: "PageFooter"})
		assert.Equal(t, changeset.KindPatternNotFound, opErrKind(t, err))
	})
}

func TestDecode(t *testing.T) {
	t.Run("dispatches on type", func(t *testing.T) {
		raws := []json.RawMessage{
			json.RawMessage(`{"type":"add_state","name":"open","initialValue":"false"}`),
			json.RawMessage(`{"type":"replace","searchFor":"a","replaceWith":"b"}`),
		}
		decoded, err := Decode(raws)
		require.NoError(t, err)
		require.Len(t, decoded, 2)

		st, ok := decoded[0].(*AddState)
		require.True(t, ok)
		assert.Equal(t, "open", st.Name)
		assert.True(t, IsStructural(decoded[0]))
		assert.False(t, IsStructural(decoded[1]))
	})

	t.Run("unknown type fails", func(t *testing.T) {
		_, err := DecodeOne(json.RawMessage(`{"type":"rename_symbol"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown operation type")
	})
}

func indexOf(s, sub string) int { return strings.Index(s, sub) }

func countOf(s, sub string) int { return strings.Count(s, sub) }
