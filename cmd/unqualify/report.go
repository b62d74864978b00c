package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/unqualify"
)

func (c *cli) reportCmd() *cobra.Command {
	var (
		flagFile   string
		flagStatus string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the ledger of past runs",
		Long: "Prints file counts per status, the members imported across files and the files " +
			"whose last run failed. --file shows one file's recorded rewrites; --status lists files.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.noCache {
				return c.outputError(cmd, "report", unqualify.ErrNoCache)
			}
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return c.outputError(cmd, "report", err)
			}
			engine, err := unqualify.New(c.engineOptions(cfg)...)
			if err != nil {
				return c.outputError(cmd, "report", fmt.Errorf("creating engine: %w", err))
			}
			defer engine.Close()

			q, err := engine.Report()
			if err != nil {
				return c.outputError(cmd, "report", err)
			}

			w := cmd.OutOrStdout()
			switch {
			case flagFile != "":
				return c.reportFile(cmd, w, q, flagFile)
			case flagStatus != "":
				return c.reportStatus(cmd, w, q, flagStatus)
			}

			r, err := q.Summary()
			if err != nil {
				return c.outputError(cmd, "report", err)
			}
			out := toCLIReport(r, displayPath)
			return c.outputResult(w, CLIResult{Command: "report", Results: out}, func(w io.Writer) {
				formatReportText(w, out)
			})
		},
	}
	cmd.Flags().StringVar(&flagFile, "file", "", "show the recorded rewrites of one file")
	cmd.Flags().StringVar(&flagStatus, "status", "", "list files in a status (written, pending, unchanged, vetoed, failed)")
	return cmd
}

func (c *cli) reportFile(cmd *cobra.Command, w io.Writer, q *unqualify.ReportBuilder, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return c.outputError(cmd, "report", err)
	}
	d, err := q.File(abs)
	if err != nil {
		return c.outputError(cmd, "report", err)
	}
	if d == nil {
		return c.outputError(cmd, "report", fmt.Errorf("no record for %s", path))
	}
	out := toCLIFileDetail(d, displayPath)
	return c.outputResult(w, CLIResult{Command: "report", Results: out}, func(w io.Writer) {
		formatFileDetailText(w, out)
	})
}

func (c *cli) reportStatus(cmd *cobra.Command, w io.Writer, q *unqualify.ReportBuilder, status string) error {
	st := unqualify.Status(status)
	switch st {
	case unqualify.StatusWritten, unqualify.StatusPending, unqualify.StatusUnchanged,
		unqualify.StatusVetoed, unqualify.StatusFailed:
	default:
		return c.outputError(cmd, "report", fmt.Errorf("invalid status %q", status))
	}
	files, err := q.Files(st)
	if err != nil {
		return c.outputError(cmd, "report", err)
	}
	out := make([]CLIFile, 0, len(files))
	for _, f := range files {
		out = append(out, toCLIFile(f, displayPath))
	}
	return c.outputResult(w, CLIResult{Command: "report", Results: out}, func(w io.Writer) {
		formatFilesText(w, out)
	})
}
