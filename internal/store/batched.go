package store

import "sync"

// BatchedStore buffers file records in memory so parallel workers can
// record outcomes without touching SQLite. CommitBatch writes the buffer in
// one transaction.
//
// Thread safety: the mutex protects the Records slice. FileByPath is passed
// through to the underlying Store, which is safe for concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	Records []FileRecord
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s}
}

// RecordFile buffers rec. A later record for the same path supersedes an
// earlier one at commit time.
func (b *BatchedStore) RecordFile(rec *FileRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Records = append(b.Records, *rec)
	return nil
}

// FileByPath passes through to the underlying Store; buffered records are
// not visible until committed.
func (b *BatchedStore) FileByPath(path string) (*File, error) {
	return b.store.FileByPath(path)
}

// Len reports the number of buffered records.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Records)
}
