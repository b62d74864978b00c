package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
)

// Runtime embeds a Risor VM that runs a user-supplied hook script once per
// source unit. The script sees the unit's path, language and collected
// members as globals, and its final expression decides whether the unit's
// rewrite is kept: a falsy value vetoes it.
type Runtime struct {
	scriptPath string
	fsys       fs.FS
	logger     *slog.Logger

	loadOnce sync.Once
	source   string
	loadErr  error
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load the hook script from an fs.FS
// instead of from disk.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithRuntimeLogger sets the logger behind the script's `log` global.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime for the hook script at scriptPath.
// The script is loaded lazily on first use and cached for the Runtime's
// lifetime; a Runtime may be shared by concurrent workers since every
// evaluation gets a fresh VM.
func NewRuntime(scriptPath string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		scriptPath: scriptPath,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HookInput is what a hook script learns about one unit.
type HookInput struct {
	Path     string
	Language string
	Values   []string
	Types    []string
	Rewrites int
}

// Allow runs the hook script for one unit and reports whether its rewrite
// should be kept.
//
// Globals visible to the script:
//
//	file_path     string
//	language      string
//	value_members list of strings, first-seen order
//	type_members  list of strings, first-seen order
//	rewrite_count int
//	log           log.Info / log.Warn / log.Error
func (r *Runtime) Allow(ctx context.Context, in HookInput) (bool, error) {
	src, err := r.Script()
	if err != nil {
		return false, err
	}
	globals := map[string]any{
		"file_path":     in.Path,
		"language":      in.Language,
		"value_members": stringList(in.Values),
		"type_members":  stringList(in.Types),
		"rewrite_count": int64(in.Rewrites),
		"log":           mustProxy(&logObject{logger: r.logger, path: in.Path}),
	}
	result, err := r.eval(ctx, src, r.scriptPath, globals)
	if err != nil {
		return false, err
	}
	return result.IsTruthy(), nil
}

// RunSource executes Risor source code directly with the given globals and
// returns the value of its final expression. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, source string, globals map[string]any) (object.Object, error) {
	return r.eval(ctx, source, "<inline>", globals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, globals map[string]any) (object.Object, error) {
	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Hooks may import helper modules that sit next to them.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

// buildImporter returns a Risor importer rooted at the hook script's
// directory, or at the configured fs.FS. Returns nil for a Runtime with no
// script path and no fs.FS.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptPath != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   filepath.Dir(r.scriptPath),
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// Script returns the hook script source, loading it on first call.
func (r *Runtime) Script() (string, error) {
	r.loadOnce.Do(func() {
		r.source, r.loadErr = r.LoadScript(r.scriptPath)
	})
	return r.source, r.loadErr
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on that filesystem.
// Otherwise, uses os.ReadFile.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		// fs.FS paths are slash-separated and relative
		// (e.g., "/hooks/only-tsx.risor" -> "hooks/only-tsx.risor").
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", path, err)
	}
	return string(data), nil
}
