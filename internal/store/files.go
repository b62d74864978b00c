package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

const fileColumns = "id, path, language, hash, status, error, last_run"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var (
		status string
		hash   sql.NullString
		errMsg sql.NullString
	)
	if err := scanner.Scan(&f.ID, &f.Path, &f.Language, &hash, &status, &errMsg, &f.LastRun); err != nil {
		return nil, err
	}
	f.Hash = hash.String
	f.Status = Status(status)
	f.Error = errMsg.String
	return f, nil
}

// FileByPath returns the record for path, or nil if the path was never seen.
func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) queryFiles(query string, args ...any) ([]*File, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Files returns every recorded file ordered by path.
func (s *Store) Files() ([]*File, error) {
	return s.queryFiles("SELECT " + fileColumns + " FROM files ORDER BY path")
}

// FilesByStatus returns the files in any of the given statuses, ordered by
// path.
func (s *Store) FilesByStatus(statuses ...Status) ([]*File, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = string(st)
	}
	return s.queryFiles(
		"SELECT "+fileColumns+" FROM files WHERE status IN ("+placeholderList(len(statuses))+") ORDER BY path",
		args...,
	)
}

// --- Member operations ---

// MembersByFile returns a file's members, values before types, each in
// first-seen order.
func (s *Store) MembersByFile(fileID int64) ([]*Member, error) {
	rows, err := s.db.Query(
		"SELECT id, file_id, name, kind, ordinal FROM members WHERE file_id = ? ORDER BY kind DESC, ordinal",
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("members by file: %w", err)
	}
	defer rows.Close()
	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.ID, &m.FileID, &m.Name, &m.Kind, &m.Ordinal); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// --- Rewrite operations ---

// RewritesByFile returns a file's rewrites in source order.
func (s *Store) RewritesByFile(fileID int64) ([]*Rewrite, error) {
	rows, err := s.db.Query(
		"SELECT id, file_id, member, category, line, col FROM rewrites WHERE file_id = ? ORDER BY line, col",
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("rewrites by file: %w", err)
	}
	defer rows.Close()
	var rewrites []*Rewrite
	for rows.Next() {
		r := &Rewrite{}
		if err := rows.Scan(&r.ID, &r.FileID, &r.Member, &r.Category, &r.Line, &r.Col); err != nil {
			return nil, fmt.Errorf("scan rewrite: %w", err)
		}
		rewrites = append(rewrites, r)
	}
	return rewrites, rows.Err()
}

// RecordFile replaces whatever was recorded for rec.File.Path with rec, in
// one transaction. IDs are assigned on rec in place.
func (s *Store) RecordFile(rec *FileRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("record file: begin: %w", err)
	}
	defer tx.Rollback()

	if err := recordFileTx(tx, rec); err != nil {
		return err
	}
	return tx.Commit()
}

func recordFileTx(tx *sql.Tx, rec *FileRecord) error {
	var oldID int64
	err := tx.QueryRow("SELECT id FROM files WHERE path = ?", rec.File.Path).Scan(&oldID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("record file %s: %w", rec.File.Path, err)
	default:
		if err := deleteFileTx(tx, oldID); err != nil {
			return fmt.Errorf("record file %s: %w", rec.File.Path, err)
		}
	}

	fileID, err := insertFileTx(tx, &rec.File)
	if err != nil {
		return fmt.Errorf("record file %s: %w", rec.File.Path, err)
	}
	for i := range rec.Members {
		m := &rec.Members[i]
		m.FileID = fileID
		if _, err := insertMemberTx(tx, m); err != nil {
			return fmt.Errorf("record file %s: member %q: %w", rec.File.Path, m.Name, err)
		}
	}
	for i := range rec.Rewrites {
		r := &rec.Rewrites[i]
		r.FileID = fileID
		if _, err := insertRewriteTx(tx, r); err != nil {
			return fmt.Errorf("record file %s: rewrite %q: %w", rec.File.Path, r.Member, err)
		}
	}
	return nil
}

// --- Transaction-scoped insert helpers ---

func insertFileTx(tx *sql.Tx, f *File) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO files (path, language, hash, status, error, last_run) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, string(f.Status), f.Error, f.LastRun,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

func insertMemberTx(tx *sql.Tx, m *Member) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO members (file_id, name, kind, ordinal) VALUES (?, ?, ?, ?)",
		m.FileID, m.Name, m.Kind, m.Ordinal,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

func insertRewriteTx(tx *sql.Tx, r *Rewrite) (int64, error) {
	res, err := tx.Exec(
		"INSERT INTO rewrites (file_id, member, category, line, col) VALUES (?, ?, ?, ?, ?)",
		r.FileID, r.Member, r.Category, r.Line, r.Col,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}
