// Package changeset defines the wire contracts between the proposal
// generator upstream and the diff-preview / history consumers downstream:
// the ChangeSet request, the ApplyResult response and the error taxonomy.
package changeset

import (
	"encoding/json"

	"github.com/google/uuid"
)

// FileAction says what happens to a file as a whole.
type FileAction string

const (
	ActionCreate FileAction = "CREATE"
	ActionModify FileAction = "MODIFY"
	ActionDelete FileAction = "DELETE"
)

// FileChange is one file's ordered operation list. Changes stay as raw
// JSON here; the ops package decodes them by their "type" discriminator.
type FileChange struct {
	Path    string            `json:"path"`
	Action  FileAction        `json:"action"`
	Changes []json.RawMessage `json:"changes"`
}

// ChangeSet is a batch of per-file edits submitted as one logical change.
// Immutable once submitted; consumed exactly once.
type ChangeSet struct {
	ID      string       `json:"id"`
	Summary string       `json:"summary"`
	Files   []FileChange `json:"files"`
}

// Decode parses a ChangeSet from JSON, assigning an ID when the producer
// did not set one.
func Decode(data []byte) (*ChangeSet, error) {
	var cs ChangeSet
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, err
	}
	if cs.ID == "" {
		cs.ID = uuid.NewString()
	}
	return &cs, nil
}

// DiffSummary is the per-file change footprint carried alongside the new
// content for the preview and history consumers.
type DiffSummary struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// ModifiedFile is one successfully rewritten (or created) file.
type ModifiedFile struct {
	Path    string       `json:"path"`
	Content string       `json:"content"`
	Diff    *DiffSummary `json:"diff,omitempty"`
}

// ApplyError is one file-scoped failure. OpIndex is -1 for failures not
// attributable to a single operation (e.g. the initial parse).
type ApplyError struct {
	File    string    `json:"file"`
	OpIndex int       `json:"opIndex"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Suggestion is an advisory extraction hint. Never affects Success.
type Suggestion struct {
	File    string `json:"file"`
	Element string `json:"element,omitempty"`
	Message string `json:"message"`
}

// ApplyResult is the outcome of applying one ChangeSet. Success is true
// only when every file applied cleanly; failed files keep their original
// content and appear in Errors only.
type ApplyResult struct {
	Success               bool           `json:"success"`
	ModifiedFiles         []ModifiedFile `json:"modifiedFiles"`
	DeletedFiles          []string       `json:"deletedFiles,omitempty"`
	Errors                []ApplyError   `json:"errors"`
	ExtractionSuggestions []Suggestion   `json:"extractionSuggestions,omitempty"`
}

// Source supplies current file contents to the engine. The engine has no
// knowledge of storage; callers back this with whatever they own.
type Source interface {
	// Read returns the file's current UTF-8 text. ok is false when the
	// file does not exist.
	Read(path string) (content string, ok bool, err error)
}
