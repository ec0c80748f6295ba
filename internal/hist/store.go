package hist

import "time"

// VersionStore is the read contract the hierarchy builder consumes. The
// HistoryService implements it on top of the database and vault, but anything
// that can enumerate files and hand back newest-first version content works —
// tests use a map-backed store.
type VersionStore interface {
	// AllVersionedFiles returns the identities of every tracked file, in the
	// store's native enumeration order.
	AllVersionedFiles() ([]string, error)

	// AllVersions returns the content of every version of a file, newest
	// first (index 0 = most recent). An untracked file yields an empty slice,
	// not an error.
	AllVersions(file string) ([]string, error)

	// VersionTimestamp returns when the version at the given index was
	// captured. Indices follow AllVersions: 0 = newest.
	VersionTimestamp(file string, index int) (time.Time, error)
}
