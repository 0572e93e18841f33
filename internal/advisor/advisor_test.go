package advisor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reforge/internal/config"
	"reforge/internal/parser"
)

func parse(t *testing.T, src string) *parser.SyntaxTree {
	t.Helper()
	p := parser.New()
	t.Cleanup(p.Close)
	tree, err := p.Parse(context.Background(), []byte(src), parser.DialectTSX)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func TestScanOversized(t *testing.T) {
	var rows []string
	for i := 0; i < 12; i++ {
		rows = append(rows, "      <p>row</p>")
	}
	src := "function Big() {\n  return (\n    <section>\n" +
		strings.Join(rows, "\n") + "\n    </section>\n  );\n}\n"

	a := New(config.AdvisorConfig{Enabled: true, OversizedJSXLines: 10, DuplicateMinLines: 100})
	got := a.Scan("Big.tsx", parse(t, src))

	require.Len(t, got, 1)
	assert.Equal(t, "Big.tsx", got[0].File)
	assert.Equal(t, "section", got[0].Element)
	assert.Contains(t, got[0].Message, "consider extracting")
}

func TestScanDuplicates(t *testing.T) {
	card := "<div className=\"card\">\n        <h2>title</h2>\n        <p>body</p>\n      </div>"
	src := "function List() {\n  return (\n    <main>\n      " + card + "\n      " + card + "\n    </main>\n  );\n}\n"

	a := New(config.AdvisorConfig{Enabled: true, OversizedJSXLines: 100, DuplicateMinLines: 3})
	got := a.Scan("List.tsx", parse(t, src))

	require.Len(t, got, 1)
	assert.Equal(t, "div", got[0].Element)
	assert.Contains(t, got[0].Message, "appears 2 times")
}

func TestScanDisabled(t *testing.T) {
	a := New(config.AdvisorConfig{Enabled: false})
	assert.Nil(t, a.Scan("x.tsx", parse(t, "function X() {\n  return <div />;\n}\n")))
}
