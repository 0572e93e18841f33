// Package pipeline drives a change set through parse, apply and
// revalidate. Files fan out concurrently; the operations within one file
// run strictly in order, and a file either applies completely or not at
// all.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"reforge/internal/changeset"
	"reforge/internal/ops"
	"reforge/internal/parser"
)

// State tracks where a file is in its apply pass. Transitions are linear:
// Pending → Parsing → Applying → Validating → Applied | Failed.
type State int

const (
	StatePending State = iota
	StateParsing
	StateApplying
	StateValidating
	StateApplied
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateParsing:
		return "parsing"
	case StateApplying:
		return "applying"
	case StateValidating:
		return "validating"
	case StateApplied:
		return "applied"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// FileResult is the outcome of one file's apply pass. Exactly one of
// Err or Content is meaningful: a failed file keeps its original content
// and reports nothing but the error.
type FileResult struct {
	Path    string
	State   State
	Content string
	Created []ops.CreatedFile

	// Tree is the validated tree of the final content, handed to the
	// advisor. The caller owns closing it.
	Tree *parser.SyntaxTree

	Err *changeset.ApplyError
}

// fileRun is one file's pass through the state machine.
type fileRun struct {
	path    string
	cache   *ParseCache
	log     *zap.Logger
	state   State
	opIndex int
}

func (r *fileRun) transition(s State) {
	r.state = s
	r.log.Debug("state transition",
		zap.String("file", r.path),
		zap.String("state", s.String()),
		zap.Int("op_index", r.opIndex))
}

func (r *fileRun) fail(opIndex int, kind changeset.ErrorKind, msg string) FileResult {
	r.transition(StateFailed)
	if kind == changeset.KindPatternNotFound {
		msg = msg + "; " + changeset.RetryGuidance
	}
	return FileResult{
		Path:  r.path,
		State: StateFailed,
		Err: &changeset.ApplyError{
			File:    r.path,
			OpIndex: opIndex,
			Kind:    kind,
			Message: msg,
		},
	}
}

// ApplyFile runs one file's ordered operation list. original is ignored
// for created files, which start from empty text and have no parse
// precondition.
func ApplyFile(ctx context.Context, log *zap.Logger, p *parser.Parser, cache *ParseCache, fc FileRequest) FileResult {
	r := &fileRun{
		path:    fc.Path,
		cache:   cache,
		log:     log,
		opIndex: -1,
	}

	f := &ops.File{
		Path:    fc.Path,
		Text:    fc.Original,
		Parser:  p,
		Dialect: parser.DialectForPath(fc.Path),
		Created: nil,
	}
	// The validated tree returned to the caller is a fresh parse; the
	// working tree is always released here.
	defer func() {
		if f.Tree != nil {
			f.Tree.Close()
			f.Tree = nil
		}
	}()

	if !fc.Create {
		r.transition(StateParsing)
		if res, failed := r.initialParse(ctx, f); failed {
			return res
		}
	}

	r.transition(StateApplying)
	for i, op := range fc.Operations {
		r.opIndex = i
		if err := ctx.Err(); err != nil {
			return r.fail(i, changeset.KindParseError, fmt.Sprintf("apply aborted: %v", err))
		}
		if err := op.Apply(ctx, f); err != nil {
			return r.opFailure(i, op, err)
		}
	}

	r.opIndex = -1
	r.transition(StateValidating)
	tree, res, failed := r.validate(ctx, f)
	if failed {
		return res
	}

	r.transition(StateApplied)
	return FileResult{
		Path:    fc.Path,
		State:   StateApplied,
		Content: f.Text,
		Created: f.Created,
		Tree:    tree,
	}
}

// FileRequest is the pipeline's unit of work for one file.
type FileRequest struct {
	Path       string
	Original   string
	Create     bool
	Operations []ops.Operation
}

func (r *fileRun) initialParse(ctx context.Context, f *ops.File) (FileResult, bool) {
	if valid, perr, hit := r.cache.Lookup(f.Path, f.Text); hit && !valid {
		return r.fail(-1, changeset.KindParseError, perr.Error()), true
	}

	err := f.EnsureTree(ctx)
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		r.cache.Record(f.Path, f.Text, perr)
		return r.fail(-1, changeset.KindParseError, perr.Error()), true
	}
	if err != nil {
		return r.fail(-1, changeset.KindParseError, err.Error()), true
	}
	r.cache.Record(f.Path, f.Text, nil)
	return FileResult{}, false
}

// opFailure classifies an operation error into the taxonomy. Typed
// OpErrors pass through; a parse failure mid-sequence means an earlier op
// in this same list produced text the next one cannot read, which is a
// postcondition problem, not a bad input file.
func (r *fileRun) opFailure(i int, op ops.Operation, err error) FileResult {
	var oe *changeset.OpError
	if errors.As(err, &oe) {
		res := r.fail(i, oe.Kind, oe.Message)
		res.Err.Message = fmt.Sprintf("%s: %s", op.Kind(), res.Err.Message)
		if oe.Descriptor != "" {
			res.Err.Message = fmt.Sprintf("%s (target %q)", res.Err.Message, oe.Descriptor)
		}
		return res
	}
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return r.fail(i, changeset.KindPostconditionViolated,
			fmt.Sprintf("%s: intermediate text no longer parses: %v", op.Kind(), perr))
	}
	return r.fail(i, changeset.KindStructuralConflict, fmt.Sprintf("%s: %v", op.Kind(), err))
}

// validate reparses the final text, and every file the pass created, so
// operations that are individually valid but jointly broken surface as
// PostconditionViolated rather than as corrupt output.
func (r *fileRun) validate(ctx context.Context, f *ops.File) (*parser.SyntaxTree, FileResult, bool) {
	tree, err := f.Parser.Parse(ctx, []byte(f.Text), f.Dialect)
	if err != nil {
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			r.cache.Record(f.Path, f.Text, perr)
		}
		return nil, r.fail(-1, changeset.KindPostconditionViolated,
			fmt.Sprintf("combined result does not parse: %v", err)), true
	}
	r.cache.Record(f.Path, f.Text, nil)

	for _, created := range f.Created {
		ct, cerr := f.Parser.Parse(ctx, []byte(created.Content), parser.DialectForPath(created.Path))
		if cerr != nil {
			tree.Close()
			return nil, r.fail(-1, changeset.KindPostconditionViolated,
				fmt.Sprintf("created file %s does not parse: %v", created.Path, cerr)), true
		}
		ct.Close()
	}
	return tree, FileResult{}, false
}
