package store

import (
	"database/sql"
	"fmt"
)

// Metadata keys.
const (
	// MetaConfigHash identifies the transform configuration the recorded
	// outcomes were produced under.
	MetaConfigHash = "config_hash"
	// MetaLastRun is the RFC 3339 time of the last completed run.
	MetaLastRun = "last_run"
)

// GetMetadata returns the value for key, or "" if unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
