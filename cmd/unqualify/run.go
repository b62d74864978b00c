package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/unqualify"
)

type runFlags struct {
	write         bool
	diff          bool
	list          bool
	stdinFilename string
	namespace     string
	module        string
	hook          string
	languages     string
	exclude       string
	serial        bool
}

func (c *cli) runCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [path...]",
		Short: "Rewrite qualified references in files or directories",
		Long: "Rewrites every supported file under the given paths (default: the current directory). " +
			"Without --write nothing is changed on disk and rewrites are reported as pending.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd, f, args)
		},
	}
	cmd.Flags().BoolVarP(&f.write, "write", "w", false, "write rewritten files back to disk")
	cmd.Flags().BoolVarP(&f.diff, "diff", "d", false, "print a unified diff for each rewritten file")
	cmd.Flags().BoolVarP(&f.list, "list", "l", false, "print only the paths of files with a rewrite")
	cmd.Flags().StringVar(&f.stdinFilename, "stdin-filename", "", "read one unit from stdin, naming it for language detection, and print the result")
	cmd.Flags().StringVar(&f.namespace, "namespace", "", "namespace identifier to unqualify (default React)")
	cmd.Flags().StringVar(&f.module, "module", "", "module specifier for synthesized imports (default react)")
	cmd.Flags().StringVar(&f.hook, "hook", "", "Risor script deciding whether a rewrite is applied")
	cmd.Flags().StringVar(&f.languages, "languages", "", "comma-separated language filter (e.g. tsx,typescript)")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "comma-separated glob patterns to skip")
	cmd.Flags().BoolVar(&f.serial, "serial", false, "process files one at a time")
	return cmd
}

func (c *cli) runRun(cmd *cobra.Command, f *runFlags, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return c.outputError(cmd, "run", err)
	}

	// Flags override the file.
	if f.namespace != "" {
		cfg.Namespace = f.namespace
	}
	if f.module != "" {
		cfg.Module = f.module
	}
	if f.hook != "" {
		if cfg.Hook, err = filepath.Abs(f.hook); err != nil {
			return c.outputError(cmd, "run", err)
		}
	}
	if f.languages != "" {
		cfg.Languages = splitList(f.languages)
	}
	if f.exclude != "" {
		cfg.Exclude = append(cfg.Exclude, splitList(f.exclude)...)
	}
	if f.serial {
		parallel := false
		cfg.Parallel = &parallel
	}
	if err := cfg.Validate(); err != nil {
		return c.outputError(cmd, "run", err)
	}

	if f.stdinFilename != "" {
		if len(args) > 0 {
			return c.outputError(cmd, "run", errors.New("--stdin-filename takes no path arguments"))
		}
		return c.runStdin(cmd, cfg.Transform(), f)
	}

	opts := append(c.engineOptions(cfg), unqualify.WithWrite(f.write))
	engine, err := unqualify.New(opts...)
	if err != nil {
		return c.outputError(cmd, "run", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	results, runErr := transformPaths(cmd.Context(), engine, args)

	w := cmd.OutOrStdout()
	switch {
	case f.list:
		for _, r := range results {
			if r.Changed() {
				fmt.Fprintln(w, displayPath(r.Path))
			}
		}
	case f.diff:
		for _, r := range results {
			d, err := r.Diff()
			if err != nil {
				return c.outputError(cmd, "run", err)
			}
			w.Write(d)
		}
	default:
		out := make([]CLIFileResult, 0, len(results))
		for _, r := range results {
			out = append(out, toCLIFileResult(r, displayPath))
		}
		result := CLIResult{Command: "run", Results: out}
		if runErr != nil {
			result.Error = runErr.Error()
		}
		if err := c.outputResult(w, result, func(w io.Writer) {
			formatRunText(w, out, f.write)
		}); err != nil {
			return err
		}
		if runErr != nil && c.format == "json" {
			// Already reported in the envelope.
			c.errorHandled = true
			return runErr
		}
	}
	return runErr
}

// runStdin rewrites one unit read from stdin and prints the result, or its
// diff with --diff.
func (c *cli) runStdin(cmd *cobra.Command, cfg unqualify.Config, f *runFlags) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return c.outputError(cmd, "run", fmt.Errorf("reading stdin: %w", err))
	}
	engine, err := unqualify.New(unqualify.WithConfig(cfg), unqualify.WithLogger(c.logger))
	if err != nil {
		return c.outputError(cmd, "run", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	res, err := engine.TransformSource(cmd.Context(), f.stdinFilename, src)
	if err != nil {
		return c.outputError(cmd, "run", err)
	}

	w := cmd.OutOrStdout()
	switch {
	case f.diff:
		d, err := res.Diff()
		if err != nil {
			return c.outputError(cmd, "run", err)
		}
		_, err = w.Write(d)
		return err
	case f.list:
		if res.Changed() {
			fmt.Fprintln(w, f.stdinFilename)
		}
		return nil
	default:
		_, err = w.Write(res.Output)
		return err
	}
}

// transformPaths runs the engine over each argument: directories are
// walked, files are collected and transformed together. Errors from each
// batch are joined.
func transformPaths(ctx context.Context, engine *unqualify.Engine, args []string) ([]*unqualify.FileResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	var (
		results []*unqualify.FileResult
		files   []string
		errs    []error
	)
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolving path %q: %w", arg, err))
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			errs = append(errs, fmt.Errorf("path not found: %s: %w", arg, err))
			continue
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}
		res, err := engine.TransformDirectory(ctx, abs)
		results = append(results, res...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(files) > 0 {
		res, err := engine.TransformFiles(ctx, files)
		results = append(results, res...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
