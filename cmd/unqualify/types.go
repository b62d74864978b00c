package main

import (
	"time"

	"github.com/jward/unqualify"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIFileResult is a JSON-friendly per-file outcome of a run.
type CLIFileResult struct {
	Path       string   `json:"path"`
	Language   string   `json:"language"`
	Status     string   `json:"status"`
	Values     []string `json:"values,omitempty"`
	Types      []string `json:"types,omitempty"`
	Rewrites   int      `json:"rewrites"`
	KeptImport bool     `json:"kept_import,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// CLIFile is a JSON-friendly ledger entry.
type CLIFile struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	LastRun  string `json:"last_run"`
}

// CLIStatusCount is the number of files in one status.
type CLIStatusCount struct {
	Status string `json:"status"`
	Files  int    `json:"files"`
}

// CLIMemberUsage is a JSON-friendly member usage row.
type CLIMemberUsage struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Files    int    `json:"files"`
	Rewrites int    `json:"rewrites"`
}

// CLIReport is a JSON-friendly ledger summary.
type CLIReport struct {
	Files         int              `json:"files"`
	Statuses      []CLIStatusCount `json:"statuses"`
	TotalRewrites int              `json:"total_rewrites"`
	Members       []CLIMemberUsage `json:"members"`
	Failed        []CLIFile        `json:"failed,omitempty"`
	LastRun       string           `json:"last_run,omitempty"`
}

// CLIRewrite is one recorded rewrite site.
type CLIRewrite struct {
	Member   string `json:"member"`
	Category string `json:"category"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
}

// CLIFileDetail is one ledger entry with its members and rewrites.
type CLIFileDetail struct {
	File     CLIFile      `json:"file"`
	Values   []string     `json:"values"`
	Types    []string     `json:"types"`
	Rewrites []CLIRewrite `json:"rewrites"`
}

// --- Conversion helpers ---

func toCLIFileResult(r *unqualify.FileResult, display func(string) string) CLIFileResult {
	out := CLIFileResult{
		Path:       display(r.Path),
		Language:   r.Language,
		Status:     string(r.Status),
		Values:     r.Values,
		Types:      r.Types,
		Rewrites:   len(r.Rewrites),
		KeptImport: r.KeptImport,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func toCLIFile(f *unqualify.File, display func(string) string) CLIFile {
	out := CLIFile{
		Path:     display(f.Path),
		Language: f.Language,
		Status:   string(f.Status),
		Error:    f.Error,
	}
	if !f.LastRun.IsZero() {
		out.LastRun = f.LastRun.UTC().Format(time.RFC3339)
	}
	return out
}

func toCLIReport(r *unqualify.Report, display func(string) string) CLIReport {
	out := CLIReport{
		Files:         r.Files,
		Statuses:      make([]CLIStatusCount, 0, len(r.Statuses)),
		TotalRewrites: r.TotalRewrites,
		Members:       make([]CLIMemberUsage, 0, len(r.Members)),
		LastRun:       r.LastRun,
	}
	for _, s := range r.Statuses {
		out.Statuses = append(out.Statuses, CLIStatusCount{Status: string(s.Status), Files: s.Files})
	}
	for _, m := range r.Members {
		out.Members = append(out.Members, CLIMemberUsage(m))
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, toCLIFile(f, display))
	}
	return out
}

func toCLIFileDetail(d *unqualify.FileDetail, display func(string) string) CLIFileDetail {
	out := CLIFileDetail{
		File:     toCLIFile(d.File, display),
		Values:   []string{},
		Types:    []string{},
		Rewrites: make([]CLIRewrite, 0, len(d.Rewrites)),
	}
	for _, m := range d.Members {
		if m.Kind == unqualify.KindType {
			out.Types = append(out.Types, m.Name)
		} else {
			out.Values = append(out.Values, m.Name)
		}
	}
	for _, r := range d.Rewrites {
		out.Rewrites = append(out.Rewrites, CLIRewrite{
			Member:   r.Member,
			Category: r.Category,
			Line:     r.Line,
			Col:      r.Col,
		})
	}
	return out
}
