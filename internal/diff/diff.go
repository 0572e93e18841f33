// Package diff computes line-level change summaries with the sergi/go-diff
// engine.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Summary counts the lines a rewrite added and removed.
type Summary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// Engine wraps a diff-match-patch instance tuned for source text. One
// Engine can be shared; the underlying library is stateless per call.
type Engine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewEngine creates a diff engine with the timeout disabled so large
// files still diff exactly.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// Summarize counts added and removed lines between two versions of a
// file. The line-level reduction avoids newline boundary artifacts.
func (e *Engine) Summarize(oldContent, newContent string) Summary {
	if oldContent == newContent {
		return Summary{}
	}

	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	var s Summary
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			s.Added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			s.Removed += countLines(d.Text)
		}
	}
	return s
}

// Unified renders a compact diff for verbose output: changed lines only,
// prefixed with + or -.
func (e *Engine) Unified(oldContent, newContent string) string {
	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range splitLines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func countLines(text string) int {
	return len(splitLines(text))
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
