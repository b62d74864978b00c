package store

import "fmt"

// CommitBatch writes all buffered records from a BatchedStore into SQLite
// within a single transaction. Each record replaces what was stored for its
// path before, member and rewrite rows included.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	if len(batch.Records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	for i := range batch.Records {
		if err := recordFileTx(tx, &batch.Records[i]); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	batch.Records = nil
	return nil
}
