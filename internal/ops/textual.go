package ops

import (
	"context"
	"strings"
)

// Textual operations search the current in-progress text, not the tree.
// A structural edit earlier in the same operation list can shift or remove
// the substring a later textual operation depends on; each textual op sees
// the text exactly as of immediately before its own index.

// InsertBefore places content immediately before the first occurrence of
// SearchFor.
type InsertBefore struct {
	SearchFor string `json:"searchFor"`
	Content   string `json:"content"`
}

func (o *InsertBefore) Kind() Kind { return KindInsertBefore }

func (o *InsertBefore) Apply(ctx context.Context, f *File) error {
	idx := strings.Index(f.Text, o.SearchFor)
	if idx < 0 {
		return notFound(o.SearchFor, "text %q not found in %s", truncateDescriptor(o.SearchFor), f.Path)
	}
	f.splice(idx, idx, o.Content)
	return nil
}

// InsertAfter places content immediately after the first occurrence of
// SearchFor.
type InsertAfter struct {
	SearchFor string `json:"searchFor"`
	Content   string `json:"content"`
}

func (o *InsertAfter) Kind() Kind { return KindInsertAfter }

func (o *InsertAfter) Apply(ctx context.Context, f *File) error {
	idx := strings.Index(f.Text, o.SearchFor)
	if idx < 0 {
		return notFound(o.SearchFor, "text %q not found in %s", truncateDescriptor(o.SearchFor), f.Path)
	}
	at := idx + len(o.SearchFor)
	f.splice(at, at, o.Content)
	return nil
}

// Replace substitutes the first occurrence of SearchFor with ReplaceWith.
type Replace struct {
	SearchFor   string `json:"searchFor"`
	ReplaceWith string `json:"replaceWith"`
}

func (o *Replace) Kind() Kind { return KindReplace }

func (o *Replace) Apply(ctx context.Context, f *File) error {
	idx := strings.Index(f.Text, o.SearchFor)
	if idx < 0 {
		return notFound(o.SearchFor, "text %q not found in %s", truncateDescriptor(o.SearchFor), f.Path)
	}
	f.splice(idx, idx+len(o.SearchFor), o.ReplaceWith)
	return nil
}

// Delete removes the first occurrence of SearchFor.
type Delete struct {
	SearchFor string `json:"searchFor"`
}

func (o *Delete) Kind() Kind { return KindDelete }

func (o *Delete) Apply(ctx context.Context, f *File) error {
	idx := strings.Index(f.Text, o.SearchFor)
	if idx < 0 {
		return notFound(o.SearchFor, "text %q not found in %s", truncateDescriptor(o.SearchFor), f.Path)
	}
	f.splice(idx, idx+len(o.SearchFor), "")
	return nil
}

// Append adds content at the end of the file, separated by a newline when
// the file does not already end with one.
type Append struct {
	Content string `json:"content"`
}

func (o *Append) Kind() Kind { return KindAppend }

func (o *Append) Apply(ctx context.Context, f *File) error {
	if f.Text != "" && !strings.HasSuffix(f.Text, "\n") {
		f.Text += "\n"
	}
	f.Text += o.Content
	f.invalidate()
	return nil
}

func truncateDescriptor(s string) string {
	if len(s) <= 60 {
		return s
	}
	return s[:60] + "..."
}
