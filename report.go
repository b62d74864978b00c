package unqualify

import (
	"errors"
	"fmt"

	"github.com/jward/unqualify/internal/store"
)

// ErrNoCache is returned by Report for an Engine created without WithCache.
var ErrNoCache = errors.New("no cache configured")

// Report summarizes the ledger: file counts per status, member usage across
// files with a rewrite, and the files whose last run failed.
type Report struct {
	Files         int
	Statuses      []StatusCount
	TotalRewrites int
	Members       []MemberUsage
	Failed        []*File
	LastRun       string
}

// ReportBuilder provides read access to the ledger.
type ReportBuilder struct {
	store *store.Store
}

// Report returns a ReportBuilder over the Engine's ledger.
func (e *Engine) Report() (*ReportBuilder, error) {
	if e.store == nil {
		return nil, ErrNoCache
	}
	return &ReportBuilder{store: e.store}, nil
}

// Summary builds the full Report.
func (q *ReportBuilder) Summary() (*Report, error) {
	r := &Report{}

	statuses, err := q.store.StatusCounts()
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	r.Statuses = statuses
	for _, s := range statuses {
		r.Files += s.Files
	}

	if r.TotalRewrites, err = q.store.TotalRewrites(store.StatusWritten, store.StatusPending); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if r.Members, err = q.MemberUsage(); err != nil {
		return nil, err
	}
	if r.Failed, err = q.Files(store.StatusFailed); err != nil {
		return nil, err
	}
	if r.LastRun, err = q.store.GetMetadata(store.MetaLastRun); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return r, nil
}

// MemberUsage lists imported members, most widely used first.
func (q *ReportBuilder) MemberUsage() ([]MemberUsage, error) {
	usage, err := q.store.MemberUsage()
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return usage, nil
}

// Files lists recorded files in the given statuses, or all files when none
// are given.
func (q *ReportBuilder) Files(statuses ...Status) ([]*File, error) {
	var (
		files []*File
		err   error
	)
	if len(statuses) == 0 {
		files, err = q.store.Files()
	} else {
		files, err = q.store.FilesByStatus(statuses...)
	}
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return files, nil
}

// FileDetail is one file's record together with its members and rewrites.
type FileDetail struct {
	File     *File
	Members  []*store.Member
	Rewrites []*store.Rewrite
}

// File returns the record for path, or nil if it was never seen.
func (q *ReportBuilder) File(path string) (*FileDetail, error) {
	f, err := q.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	d := &FileDetail{File: f}
	if d.Members, err = q.store.MembersByFile(f.ID); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if d.Rewrites, err = q.store.RewritesByFile(f.ID); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return d, nil
}
