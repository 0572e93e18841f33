package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"reforge/internal/advisor"
	"reforge/internal/changeset"
	"reforge/internal/config"
	"reforge/internal/diff"
	"reforge/internal/ops"
	"reforge/internal/parser"
)

// Engine applies change sets. One Engine is safe for concurrent use; each
// file apply owns its own parser instance.
type Engine struct {
	cfg     *config.Config
	log     *zap.Logger
	cache   *ParseCache
	differ  *diff.Engine
	advisor *advisor.Advisor
}

// New builds an engine from configuration.
func New(cfg *config.Config, log *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := NewParseCache(cfg.Apply.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	return &Engine{
		cfg:     cfg,
		log:     log,
		cache:   cache,
		differ:  diff.NewEngine(),
		advisor: advisor.New(cfg.Advisor),
	}, nil
}

// fileOutcome pairs one FileChange's result with its advisory findings,
// kept per input index so output order is deterministic.
type fileOutcome struct {
	modified    []changeset.ModifiedFile
	deleted     string
	err         *changeset.ApplyError
	suggestions []changeset.Suggestion
}

// Apply runs every file of the change set. Files fan out concurrently up
// to the configured parallelism; one file's failure never blocks the
// rest. The returned error reports engine-level problems only; per-file
// failures live in the result.
func (e *Engine) Apply(ctx context.Context, src changeset.Source, cs *changeset.ChangeSet) (*changeset.ApplyResult, error) {
	log := e.log.With(zap.String("changeset_id", cs.ID))
	log.Info("applying change set",
		zap.String("summary", cs.Summary),
		zap.Int("files", len(cs.Files)))

	outcomes := make([]fileOutcome, len(cs.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Apply.Parallelism)
	for i, fc := range cs.Files {
		i, fc := i, fc
		g.Go(func() error {
			outcomes[i] = e.applyOne(gctx, log, src, fc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &changeset.ApplyResult{Success: true}
	var suggestions []changeset.Suggestion
	for _, o := range outcomes {
		result.ModifiedFiles = append(result.ModifiedFiles, o.modified...)
		if o.deleted != "" {
			result.DeletedFiles = append(result.DeletedFiles, o.deleted)
		}
		if o.err != nil {
			result.Success = false
			result.Errors = append(result.Errors, *o.err)
		}
		suggestions = append(suggestions, o.suggestions...)
	}
	// Advisory findings only accompany a fully successful change set; a
	// partially failed batch is going to be retried anyway.
	if result.Success {
		result.ExtractionSuggestions = suggestions
	}

	log.Info("change set applied",
		zap.Bool("success", result.Success),
		zap.Int("modified", len(result.ModifiedFiles)),
		zap.Int("deleted", len(result.DeletedFiles)),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (e *Engine) applyOne(ctx context.Context, log *zap.Logger, src changeset.Source, fc changeset.FileChange) fileOutcome {
	fail := func(opIndex int, kind changeset.ErrorKind, format string, args ...any) fileOutcome {
		return fileOutcome{err: &changeset.ApplyError{
			File:    fc.Path,
			OpIndex: opIndex,
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		}}
	}

	content, exists, err := src.Read(fc.Path)
	if err != nil {
		return fail(-1, changeset.KindParseError, "read %s: %v", fc.Path, err)
	}

	switch fc.Action {
	case changeset.ActionDelete:
		if !exists {
			return fail(-1, changeset.KindPatternNotFound, "cannot delete %s: file does not exist", fc.Path)
		}
		return fileOutcome{deleted: fc.Path}

	case changeset.ActionCreate:
		if exists {
			return fail(-1, changeset.KindStructuralConflict, "cannot create %s: file already exists", fc.Path)
		}
		content = ""

	case changeset.ActionModify:
		if !exists {
			return fail(-1, changeset.KindPatternNotFound, "cannot modify %s: file does not exist", fc.Path)
		}
		if len(content) > e.cfg.Apply.MaxFileBytes {
			return fail(-1, changeset.KindParseError,
				"%s is %d bytes, over the %d byte limit", fc.Path, len(content), e.cfg.Apply.MaxFileBytes)
		}

	default:
		return fail(-1, changeset.KindStructuralConflict, "unknown action %q for %s", fc.Action, fc.Path)
	}

	decoded, err := ops.Decode(fc.Changes)
	if err != nil {
		return fail(-1, changeset.KindStructuralConflict, "invalid operation list for %s: %v", fc.Path, err)
	}

	fctx, cancel := context.WithTimeout(ctx, e.cfg.TimeoutPerFile())
	defer cancel()

	p := parser.New()
	defer p.Close()

	res := ApplyFile(fctx, log, p, e.cache, FileRequest{
		Path:       fc.Path,
		Original:   content,
		Create:     fc.Action == changeset.ActionCreate,
		Operations: decoded,
	})
	if res.Err != nil {
		log.Warn("file failed",
			zap.String("file", fc.Path),
			zap.String("kind", string(res.Err.Kind)),
			zap.Int("op_index", res.Err.OpIndex),
			zap.String("message", res.Err.Message))
		return fileOutcome{err: res.Err}
	}
	defer res.Tree.Close()

	var out fileOutcome
	summary := e.differ.Summarize(content, res.Content)
	out.modified = append(out.modified, changeset.ModifiedFile{
		Path:    fc.Path,
		Content: res.Content,
		Diff:    &changeset.DiffSummary{Added: summary.Added, Removed: summary.Removed},
	})
	out.suggestions = e.advisor.Scan(fc.Path, res.Tree)

	for _, created := range res.Created {
		cd := e.differ.Summarize("", created.Content)
		out.modified = append(out.modified, changeset.ModifiedFile{
			Path:    created.Path,
			Content: created.Content,
			Diff:    &changeset.DiffSummary{Added: cd.Added, Removed: cd.Removed},
		})
	}

	log.Debug("file applied",
		zap.String("file", fc.Path),
		zap.Int("lines_added", summary.Added),
		zap.Int("lines_removed", summary.Removed),
		zap.Int("created_files", len(res.Created)))
	return out
}
