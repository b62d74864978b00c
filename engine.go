package unqualify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/jward/unqualify/internal/diff"
	"github.com/jward/unqualify/internal/runtime"
	"github.com/jward/unqualify/internal/store"
	"github.com/jward/unqualify/internal/transform"
)

// StatusCached marks a file skipped because the ledger already holds a
// converged outcome for its current content. Cached results are never
// recorded; the stored outcome stands.
const StatusCached Status = "cached"

// Engine orchestrates the unqualify pipeline: file discovery, change
// detection, the per-file transform, the optional hook veto, write-back and
// the run ledger.
type Engine struct {
	transformer *transform.Transformer
	store       *store.Store // nil without a cache
	hook        *runtime.Runtime

	cfg       transform.Config
	cachePath string
	hookPath  string
	hookFS    fs.FS
	languages map[string]bool // nil means all languages
	patterns  []string
	exclude   []glob.Glob
	logger    *slog.Logger

	// write enables writing rewritten files back to disk.
	write bool
	// useParallel enables the parallel transform pipeline.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the namespace, module and import style. Empty fields take
// their defaults.
func WithConfig(cfg transform.Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithWrite controls write-back. When false (default) rewrites are only
// reported and recorded as pending.
func WithWrite(write bool) Option {
	return func(e *Engine) {
		e.write = write
	}
}

// WithParallel controls the parallel pipeline. When true (default),
// TransformFiles uses a worker pool for parsing, rewriting and hooks, with
// a single goroutine writing files and committing the ledger. Set to false
// for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithCache records outcomes in a SQLite ledger at path so later runs skip
// files whose content has not changed since they converged.
func WithCache(path string) Option {
	return func(e *Engine) {
		e.cachePath = path
	}
}

// WithHook runs the Risor script at path for every file with a rewrite; a
// falsy result vetoes that file.
func WithHook(path string) Option {
	return func(e *Engine) {
		e.hookPath = path
	}
}

// WithHookFS loads the hook script, and the modules it imports, from fsys
// instead of from disk.
func WithHookFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.hookFS = fsys
	}
}

// WithLanguages restricts which languages the Engine will process.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, lang := range languages {
			e.languages[lang] = true
		}
	}
}

// WithExclude skips files matching any of the glob patterns. Patterns use
// '/' as separator and are matched against the slash-separated path and
// against the base name.
func WithExclude(patterns ...string) Option {
	return func(e *Engine) {
		e.patterns = append(e.patterns, patterns...)
	}
}

// WithLogger sets the logger for per-file progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine. Without WithCache nothing is persisted between
// runs.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:         transform.DefaultConfig(),
		useParallel: true, // default to parallel transforms
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	t, err := transform.New(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("unqualify: %w", err)
	}
	e.transformer = t
	e.cfg = t.Config()

	for _, p := range e.patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("unqualify: exclude pattern %q: %w", p, err)
		}
		e.exclude = append(e.exclude, g)
	}

	var hookSource string
	if e.hookPath != "" {
		var rtOpts []runtime.RuntimeOption
		if e.hookFS != nil {
			rtOpts = append(rtOpts, runtime.WithRuntimeFS(e.hookFS))
		}
		rtOpts = append(rtOpts, runtime.WithRuntimeLogger(e.logger))
		e.hook = runtime.NewRuntime(e.hookPath, rtOpts...)
		if hookSource, err = e.hook.Script(); err != nil {
			return nil, fmt.Errorf("unqualify: hook: %w", err)
		}
	}

	if e.cachePath != "" {
		s, err := store.NewStore(e.cachePath)
		if err != nil {
			return nil, fmt.Errorf("unqualify: create store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("unqualify: migrate: %w", err)
		}
		e.store = s
		if err := e.checkConfigHash(hookSource); err != nil {
			s.Close()
			return nil, err
		}
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store, or nil without a cache.
func (e *Engine) Store() *Store {
	return e.store
}

// Config returns the effective transform configuration.
func (e *Engine) Config() transform.Config {
	return e.cfg
}

// configHash identifies everything that decides a file's outcome besides its
// content.
func (e *Engine) configHash(hookSource string) string {
	return store.ConfigHash(e.cfg.Namespace, e.cfg.Module, e.cfg.Quote, e.cfg.Semicolons, hookSource)
}

// checkConfigHash resets the ledger when the configuration differs from the
// one its outcomes were recorded under.
func (e *Engine) checkConfigHash(hookSource string) error {
	current := e.configHash(hookSource)
	stored, err := e.store.GetMetadata(store.MetaConfigHash)
	if err != nil {
		return fmt.Errorf("unqualify: %w", err)
	}
	if stored != "" && stored != current {
		e.logger.Info("configuration changed, discarding cached outcomes", "cache", e.cachePath)
		if err := e.store.Reset(); err != nil {
			return fmt.Errorf("unqualify: %w", err)
		}
	}
	if err := e.store.SetMetadata(store.MetaConfigHash, current); err != nil {
		return fmt.Errorf("unqualify: %w", err)
	}
	return nil
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	Language string
	Status   Status

	Values   []string
	Types    []string
	Rewrites []transform.Rewrite

	// KeptImport is set when the namespace import stayed because the file
	// still uses the namespace in a shape that is not rewritten.
	KeptImport bool

	// Original and Output hold the text before and after the rewrite.
	// Output equals Original unless Status is written or pending.
	Original []byte
	Output   []byte

	Err error
}

// Changed reports whether the file has a rewrite, on disk or pending.
func (r *FileResult) Changed() bool {
	return r.Status == StatusWritten || r.Status == StatusPending
}

// Diff renders the rewrite as a unified diff, nil when nothing changed.
func (r *FileResult) Diff() ([]byte, error) {
	if !r.Changed() {
		return nil, nil
	}
	name := filepath.ToSlash(r.Path)
	return diff.Diff("a/"+name, r.Original, "b/"+name, r.Output)
}

// record converts r into the ledger's record for it.
func (r *FileResult) record() *store.FileRecord {
	hash := store.ContentHash(r.Original)
	if r.Status == StatusWritten {
		hash = store.ContentHash(r.Output)
	}
	rec := &store.FileRecord{
		File: store.File{
			Path:     r.Path,
			Language: r.Language,
			Hash:     hash,
			Status:   r.Status,
			LastRun:  time.Now(),
		},
	}
	if r.Err != nil {
		rec.File.Error = r.Err.Error()
	}
	if !r.Changed() {
		return rec
	}
	for i, name := range r.Values {
		rec.Members = append(rec.Members, store.Member{Name: name, Kind: store.KindValue, Ordinal: i})
	}
	for i, name := range r.Types {
		rec.Members = append(rec.Members, store.Member{Name: name, Kind: store.KindType, Ordinal: i})
	}
	for _, rw := range r.Rewrites {
		rec.Rewrites = append(rec.Rewrites, store.Rewrite{
			Member:   rw.Member,
			Category: rw.Kind.String(),
			Line:     rw.Line,
			Col:      rw.Column,
		})
	}
	return rec
}

// TransformSource rewrites src as if read from path, without touching the
// disk or the ledger. The language comes from path's extension.
func (e *Engine) TransformSource(ctx context.Context, path string, src []byte) (*FileResult, error) {
	lang, ok := runtime.LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, runtime.ErrUnsupportedLanguage)
	}
	res := e.transformFile(ctx, workItem{path: path, lang: lang, content: src})
	if res.Err != nil {
		return res, res.Err
	}
	if res.Status == StatusWritten {
		res.Status = StatusPending
	}
	return res, nil
}

// TransformFiles rewrites the given file paths. When WithParallel is
// enabled, uses a worker pool for the per-file work with a single goroutine
// writing files and committing the ledger. Otherwise falls back to the
// serial path.
//
// For each file:
//  1. Detect language from extension
//  2. Skip unsupported, filtered-out or excluded files
//  3. Skip files whose recorded outcome still holds (same content hash)
//  4. Parse and rewrite
//  5. Ask the hook, if any
//  6. Write back (WithWrite) and record the outcome
//
// Errors on individual files are logged and collected; processing
// continues. Results are sorted by path; skipped files are not included.
func (e *Engine) TransformFiles(ctx context.Context, paths []string) ([]*FileResult, error) {
	var (
		results []*FileResult
		err     error
	)
	if e.useParallel {
		results, err = e.TransformFilesParallel(ctx, paths)
	} else {
		results, err = e.transformFilesSerial(ctx, paths)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	if e.store != nil && err == nil {
		_ = e.store.SetMetadata(store.MetaLastRun, time.Now().UTC().Format(time.RFC3339))
	}
	return results, err
}

func (e *Engine) transformFilesSerial(ctx context.Context, paths []string) ([]*FileResult, error) {
	var (
		results []*FileResult
		errs    []error
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		item, res, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			if res != nil {
				results = append(results, res)
			}
			continue
		}

		res = e.transformFile(ctx, item)
		if err := e.commitFile(res, e.dataStore()); err != nil {
			errs = append(errs, err)
		}
		results = append(results, res)
	}
	return results, aggregate(errs)
}

// dataStore returns where serial runs record outcomes.
func (e *Engine) dataStore() store.DataStore {
	if e.store == nil {
		return nil
	}
	return e.store
}

// aggregate folds per-file errors into one, keeping the first for errors.Is.
func aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("transform had %d error(s): %w", len(errs), errs[0])
}

// workItem holds everything a transform worker needs.
type workItem struct {
	path    string
	lang    string
	content []byte
}

// prepareFile does the serial pre-work for one file: language detection,
// filters, reading and the ledger lookup. skip=true means the file needs no
// transform; res is then non-nil for a cache hit.
func (e *Engine) prepareFile(path string) (item workItem, res *FileResult, skip bool, err error) {
	lang, ok := runtime.LanguageForFile(path)
	if !ok {
		return workItem{}, nil, true, nil
	}
	if e.languages != nil && !e.languages[lang] {
		return workItem{}, nil, true, nil
	}
	if e.excluded(path) {
		e.logger.Debug("excluded", "path", path)
		return workItem{}, nil, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, nil, false, fmt.Errorf("read file: %w", err)
	}

	if e.store != nil {
		existing, err := e.store.FileByPath(path)
		if err != nil {
			return workItem{}, nil, false, fmt.Errorf("lookup file: %w", err)
		}
		if existing != nil && existing.Status.Converged() && existing.Hash == store.ContentHash(content) {
			e.logger.Debug("unchanged since last run", "path", path, "status", existing.Status)
			return workItem{}, &FileResult{
				Path:     path,
				Language: lang,
				Status:   StatusCached,
				Original: content,
				Output:   content,
			}, true, nil
		}
	}
	return workItem{path: path, lang: lang, content: content}, nil, false, nil
}

// excluded reports whether path matches an exclude pattern.
func (e *Engine) excluded(path string) bool {
	if len(e.exclude) == 0 {
		return false
	}
	slash := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, g := range e.exclude {
		if g.Match(slash) || g.Match(base) {
			return true
		}
	}
	return false
}

// transformFile runs the pure part of the pipeline for one file: parse,
// rewrite and hook. It touches neither the disk nor the ledger, so workers
// may call it concurrently. A rewrite the hook accepts comes back as
// StatusWritten; commitFile downgrades it to pending without WithWrite.
func (e *Engine) transformFile(ctx context.Context, item workItem) *FileResult {
	res := &FileResult{
		Path:     item.path,
		Language: item.lang,
		Status:   StatusUnchanged,
		Original: item.content,
		Output:   item.content,
	}
	fail := func(err error) *FileResult {
		res.Status = StatusFailed
		res.Err = err
		res.Output = item.content
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	out, err := e.transformer.Transform(ctx, item.lang, item.content)
	if err != nil {
		return fail(err)
	}
	res.Values = out.Members.Values()
	res.Types = out.Members.Types()
	res.Rewrites = out.Rewrites
	res.KeptImport = out.KeptImport
	if !out.Changed {
		return res
	}
	res.Output = out.Output

	if e.hook != nil {
		ok, err := e.hook.Allow(ctx, runtime.HookInput{
			Path:     item.path,
			Language: item.lang,
			Values:   res.Values,
			Types:    res.Types,
			Rewrites: len(res.Rewrites),
		})
		if err != nil {
			return fail(fmt.Errorf("hook: %w", err))
		}
		if !ok {
			res.Status = StatusVetoed
			res.Output = item.content
			return res
		}
	}
	res.Status = StatusWritten
	return res
}

// commitFile writes res back when enabled and records it in ds (nil: no
// ledger). Must be called from a single goroutine.
func (e *Engine) commitFile(res *FileResult, ds store.DataStore) error {
	if res.Status == StatusWritten {
		if !e.write {
			res.Status = StatusPending
		} else if err := writeFileAtomic(res.Path, res.Output); err != nil {
			res.Status = StatusFailed
			res.Err = fmt.Errorf("write: %w", err)
		}
	}

	switch res.Status {
	case StatusFailed:
		e.logger.Warn("transform failed", "path", res.Path, "err", res.Err)
	case StatusWritten:
		e.logger.Info("rewritten", "path", res.Path, "rewrites", len(res.Rewrites))
	case StatusVetoed:
		e.logger.Info("vetoed by hook", "path", res.Path)
	default:
		e.logger.Debug(string(res.Status), "path", res.Path)
	}

	var errs []error
	if res.Err != nil {
		errs = append(errs, fmt.Errorf("transform %s: %w", res.Path, res.Err))
	}
	if ds != nil {
		if err := ds.RecordFile(res.record()); err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", res.Path, err))
		}
	}
	return errors.Join(errs...)
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory, keeping the original permissions.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".unqualify-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// skipDirs are directory names never descended into by the walk fallback.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

// TransformDirectory discovers and rewrites all supported files under root.
// If root is inside a git repository, uses git ls-files to respect
// .gitignore. Falls back to a filesystem walk (skipping hidden dirs,
// node_modules, vendor and build output) if git is unavailable. Exclude
// patterns are also matched against paths relative to root. Ledger entries
// for files under root that no longer exist are dropped first.
func (e *Engine) TransformDirectory(ctx context.Context, root string) ([]*FileResult, error) {
	paths, err := e.gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available; fall back to walk.
		paths, err = e.walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}
	if err := e.pruneMissing(root); err != nil {
		return nil, err
	}
	return e.TransformFiles(ctx, paths)
}

// pruneMissing removes the ledger entries of files under root that are gone
// from disk.
func (e *Engine) pruneMissing(root string) error {
	if e.store == nil {
		return nil
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	for _, f := range files {
		if !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		if _, err := os.Stat(f.Path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		e.logger.Debug("file removed, dropping ledger entry", "path", f.Path)
		if err := e.store.DeleteFileData(f.ID); err != nil {
			return fmt.Errorf("prune %s: %w", f.Path, err)
		}
	}
	return nil
}

// keep reports whether a discovered file at rel (relative to the walk root)
// is a candidate.
func (e *Engine) keep(rel string) bool {
	if _, ok := runtime.LanguageForFile(rel); !ok {
		return false
	}
	return !e.excluded(rel)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !e.keep(line) {
			continue
		}
		paths = append(paths, filepath.Join(root, line))
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if e.keep(filepath.ToSlash(rel)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
