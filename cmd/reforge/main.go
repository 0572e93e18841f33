package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reforge/internal/changeset"
	"reforge/internal/config"
	"reforge/internal/diff"
	"reforge/internal/logging"
	"reforge/internal/pipeline"
)

var (
	// Global flags
	verbose    bool
	configPath string
	rootDir    string
	dryRun     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "reforge",
	Short: "reforge - structural JSX/TSX transformation engine",
	Long: `reforge applies structured change sets to JSX/TSX source files.

A change set is a JSON batch of per-file operation lists: hook insertions,
className templating, JSX splices, prop edits, component extraction and
plain text edits. Each file is parsed, transformed and re-validated; a file
either applies completely or is reported as a typed failure with its
original content untouched.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply [changeset.json]",
	Short: "Apply a change set to the project",
	Long: `Reads a ChangeSet JSON document from the given file, or from stdin
when no argument is passed, applies it to the files under --root and prints
the ApplyResult as JSON.

Example:
  reforge apply changes.json --root ./src
  generate-changes | reforge apply --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "reforge.yaml", "path to config file")

	applyCmd.Flags().StringVar(&rootDir, "root", ".", "project root the change set paths are relative to")
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the result without writing files")
	rootCmd.AddCommand(applyCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runApply(cmd *cobra.Command, args []string) error {
	raw, err := readChangeSet(args)
	if err != nil {
		return err
	}

	cs, err := changeset.Decode(raw)
	if err != nil {
		return fmt.Errorf("invalid change set: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	engine, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}

	src := dirSource{root: rootDir}
	result, err := engine.Apply(context.Background(), src, cs)
	if err != nil {
		return err
	}

	if dryRun || verbose {
		printDiffs(src, result)
	}

	if !dryRun {
		if err := writeResult(result); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func readChangeSet(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read change set: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read change set from stdin: %w", err)
	}
	return data, nil
}

// dirSource reads project files relative to the root directory.
type dirSource struct {
	root string
}

func (s dirSource) Read(path string) (string, bool, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(resolved)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// resolve keeps change set paths inside the project root.
func (s dirSource) resolve(path string) (string, error) {
	resolved := filepath.Join(s.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", path)
	}
	return resolved, nil
}

// printDiffs renders per-file unified diffs on stderr so the JSON result
// on stdout stays machine-readable. Diffs run against the on-disk
// content, so this must happen before writeResult.
func printDiffs(src dirSource, result *changeset.ApplyResult) {
	differ := diff.NewEngine()
	for _, mf := range result.ModifiedFiles {
		before, _, err := src.Read(mf.Path)
		if err != nil {
			logger.Warn("cannot diff file", zap.String("path", mf.Path), zap.Error(err))
			continue
		}
		fmt.Fprintf(os.Stderr, "--- %s\n%s", mf.Path, differ.Unified(before, mf.Content))
	}
	for _, path := range result.DeletedFiles {
		before, ok, err := src.Read(path)
		if err != nil || !ok {
			continue
		}
		fmt.Fprintf(os.Stderr, "--- %s (deleted)\n%s", path, differ.Unified(before, ""))
	}
}

func writeResult(result *changeset.ApplyResult) error {
	src := dirSource{root: rootDir}
	for _, mf := range result.ModifiedFiles {
		resolved, err := src.resolve(mf.Path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", mf.Path, err)
		}
		if err := os.WriteFile(resolved, []byte(mf.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", mf.Path, err)
		}
		logger.Info("wrote file", zap.String("path", mf.Path))
	}
	for _, path := range result.DeletedFiles {
		resolved, err := src.resolve(path)
		if err != nil {
			return err
		}
		if err := os.Remove(resolved); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", path, err)
		}
		logger.Info("deleted file", zap.String("path", path))
	}
	return nil
}
