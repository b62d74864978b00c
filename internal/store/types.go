package store

import "time"

// Status is the outcome recorded for a file on its last run.
type Status string

const (
	// StatusWritten: the rewrite was written back to disk.
	StatusWritten Status = "written"
	// StatusPending: a rewrite exists but was only reported (dry run).
	StatusPending Status = "pending"
	// StatusUnchanged: the file had nothing to rewrite.
	StatusUnchanged Status = "unchanged"
	// StatusVetoed: the hook script rejected the rewrite.
	StatusVetoed Status = "vetoed"
	// StatusFailed: parsing or rewriting failed.
	StatusFailed Status = "failed"
)

// Converged reports whether a file in status st needs no further work as
// long as its content hash is unchanged.
func (st Status) Converged() bool {
	switch st {
	case StatusWritten, StatusUnchanged, StatusVetoed:
		return true
	}
	return false
}

// Member kinds.
const (
	KindValue = "value"
	KindType  = "type"
)

type File struct {
	ID       int64
	Path     string
	Language string
	// Hash is the SHA-256 of the file content as left on disk after the run.
	Hash    string
	Status  Status
	Error   string
	LastRun time.Time
}

type Member struct {
	ID      int64
	FileID  int64
	Name    string
	Kind    string
	Ordinal int
}

type Rewrite struct {
	ID       int64
	FileID   int64
	Member   string
	Category string
	Line     int
	Col      int
}

// FileRecord is everything recorded for one file in one run. Members and
// Rewrites carry no IDs until committed.
type FileRecord struct {
	File     File
	Members  []Member
	Rewrites []Rewrite
}

// Report types

// StatusCount is the number of files in one status.
type StatusCount struct {
	Status Status
	Files  int
}

// MemberUsage aggregates one imported member across all files.
type MemberUsage struct {
	Name     string
	Kind     string
	Files    int
	Rewrites int
}
