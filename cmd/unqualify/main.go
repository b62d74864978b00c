package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/unqualify"
	"github.com/jward/unqualify/internal/config"
)

// cli holds the global flags and per-invocation state shared by the
// subcommands.
type cli struct {
	configPath string
	cache      string
	noCache    bool
	format     string
	verbose    bool

	logger *slog.Logger

	// errorHandled is set by outputError so main() doesn't double-print.
	errorHandled bool
}

func main() {
	c := &cli{}
	if err := c.rootCmd().Execute(); err != nil {
		if !c.errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "unqualify",
		Short: "Rewrite React.X references into named imports",
		Long: "Unqualify rewrites qualified references such as React.useState or React.FC " +
			"into individually imported bindings, consolidating them into one value import " +
			"and one type-only import per file.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(c.format); err != nil {
				return err
			}
			level := slog.LevelWarn
			if c.verbose {
				level = slog.LevelDebug
			}
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(c.logger)
			return nil
		},
		// No Run; prints help by default.
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultFile, "configuration file")
	root.PersistentFlags().StringVar(&c.cache, "cache", "", "ledger database path (default: from config, else "+config.DefaultCache+")")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "do not read or record the ledger")
	root.PersistentFlags().StringVar(&c.format, "format", "text", "output format: json|text")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log per-file progress to stderr")

	root.AddCommand(c.runCmd())
	root.AddCommand(c.reportCmd())
	return root
}

// loadConfig reads the configuration file and applies the global overrides.
// An explicitly named file must exist; the default one is optional.
func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(c.configPath)
	} else {
		cfg, err = config.LoadOptional(c.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.cache != "" {
		cfg.Cache = c.cache
	}
	return cfg, nil
}

// outputResult writes result to w in the selected format. text renders the
// results with textFn.
func (c *cli) outputResult(w io.Writer, result CLIResult, textFn func(io.Writer)) error {
	if c.format == "text" {
		textFn(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func (c *cli) outputError(cmd *cobra.Command, command string, err error) error {
	c.errorHandled = true
	if c.format == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// engineOptions translates cfg into Engine options.
func (c *cli) engineOptions(cfg *config.Config) []unqualify.Option {
	opts := []unqualify.Option{
		unqualify.WithConfig(cfg.Transform()),
		unqualify.WithParallel(cfg.IsParallel()),
		unqualify.WithLanguages(cfg.Languages...),
		unqualify.WithExclude(cfg.Exclude...),
		unqualify.WithLogger(c.logger),
	}
	if !c.noCache && cfg.Cache != "" {
		opts = append(opts, unqualify.WithCache(cfg.Cache))
	}
	if cfg.Hook != "" {
		opts = append(opts, unqualify.WithHook(cfg.Hook))
	}
	return opts
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// displayPath shows path relative to the working directory when it lies
// below it, else as given.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
