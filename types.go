package unqualify

import (
	"github.com/jward/unqualify/internal/store"
	"github.com/jward/unqualify/internal/transform"
)

// Public type aliases for internal types used in the Engine and report API.
// These are Go type aliases (=), identical to the internal types at compile
// time. External consumers use these names; no conversion is needed.

type Store = store.Store
type Status = store.Status
type File = store.File
type StatusCount = store.StatusCount
type MemberUsage = store.MemberUsage
type Config = transform.Config
type Rewrite = transform.Rewrite

// File statuses, as recorded in the ledger.
const (
	StatusWritten   = store.StatusWritten
	StatusPending   = store.StatusPending
	StatusUnchanged = store.StatusUnchanged
	StatusVetoed    = store.StatusVetoed
	StatusFailed    = store.StatusFailed
)

// Member kinds, as recorded in the ledger.
const (
	KindValue = store.KindValue
	KindType  = store.KindType
)

// DefaultConfig returns the configuration for React.
func DefaultConfig() Config {
	return transform.DefaultConfig()
}
