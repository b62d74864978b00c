package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatRunText formats CLIFileResult rows as aligned columns followed by a
// one-line tally.
func formatRunText(w io.Writer, results []CLIFileResult, write bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSTATUS\tREWRITES\tMEMBERS")
	var changed, failed int
	for _, r := range results {
		switch r.Status {
		case "written", "pending":
			changed++
		case "failed":
			failed++
		}
		members := joinMembers(r.Values, r.Types)
		if r.Error != "" {
			members = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Path, r.Status, r.Rewrites, members)
	}
	tw.Flush()

	verb := "to rewrite"
	if write {
		verb = "rewritten"
	}
	fmt.Fprintf(w, "\n%d files, %d %s, %d failed\n", len(results), changed, verb, failed)
}

// joinMembers renders values then types, types marked with "type ".
func joinMembers(values, types []string) string {
	parts := make([]string, 0, len(values)+len(types))
	parts = append(parts, values...)
	for _, t := range types {
		parts = append(parts, "type "+t)
	}
	return strings.Join(parts, ", ")
}

// formatReportText formats CLIReport as readable text.
func formatReportText(w io.Writer, r CLIReport) {
	fmt.Fprintln(w, "Ledger Summary")
	fmt.Fprintln(w, "==============")
	fmt.Fprintf(w, "Files: %d\n", r.Files)
	fmt.Fprintf(w, "Rewrites: %d\n", r.TotalRewrites)
	if r.LastRun != "" {
		fmt.Fprintf(w, "Last run: %s\n", r.LastRun)
	}
	fmt.Fprintln(w)

	if len(r.Statuses) > 0 {
		fmt.Fprintln(w, "Statuses:")
		for _, s := range r.Statuses {
			fmt.Fprintf(w, "  %s: %d\n", s.Status, s.Files)
		}
		fmt.Fprintln(w)
	}

	if len(r.Members) > 0 {
		fmt.Fprintln(w, "Members:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tKIND\tFILES\tREWRITES")
		for _, m := range r.Members {
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\n", m.Name, m.Kind, m.Files, m.Rewrites)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	if len(r.Failed) > 0 {
		fmt.Fprintln(w, "Failed:")
		for _, f := range r.Failed {
			fmt.Fprintf(w, "  %s: %s\n", f.Path, f.Error)
		}
	}
}

// formatFileDetailText formats one file's record and its rewrite sites.
func formatFileDetailText(w io.Writer, d CLIFileDetail) {
	fmt.Fprintf(w, "File: %s\n", d.File.Path)
	fmt.Fprintf(w, "Language: %s\n", d.File.Language)
	fmt.Fprintf(w, "Status: %s\n", d.File.Status)
	if d.File.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", d.File.Error)
	}
	if d.File.LastRun != "" {
		fmt.Fprintf(w, "Last run: %s\n", d.File.LastRun)
	}
	if len(d.Values) > 0 {
		fmt.Fprintf(w, "Values: %s\n", strings.Join(d.Values, ", "))
	}
	if len(d.Types) > 0 {
		fmt.Fprintf(w, "Types: %s\n", strings.Join(d.Types, ", "))
	}
	if len(d.Rewrites) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCOL\tMEMBER\tCATEGORY")
	for _, r := range d.Rewrites {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", r.Line, r.Col, r.Member, r.Category)
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tLANGUAGE\tSTATUS\tLAST RUN")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Path, f.Language, f.Status, f.LastRun)
	}
	tw.Flush()
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
