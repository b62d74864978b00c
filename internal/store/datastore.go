package store

// DataStore is the interface for recording run outcomes. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// runs) implement this interface.
type DataStore interface {
	RecordFile(rec *FileRecord) error

	// FileByPath looks up the committed record for a path, or nil.
	FileByPath(path string) (*File, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
