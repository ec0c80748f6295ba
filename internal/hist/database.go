package hist

import "lth-go/internal/model"

// Database provides an interface for metadata storage operations. "Not found"
// is represented as a nil record with a nil error, never as an error value.
type Database interface {
	// File operations

	// FindFileByPath returns the file with an exact path match.
	FindFileByPath(path string) (*model.File, error)

	// FindOrCreateFile finds an existing file or creates a new one.
	FindOrCreateFile(path string) (*model.File, error)

	// ListFiles returns all tracked files in insertion order.
	ListFiles() ([]*model.File, error)

	// Version operations

	// ListVersions returns all versions of a file, newest first.
	ListVersions(fileID string) ([]*model.Version, error)

	// LatestVersion returns the most recent version of a file.
	LatestVersion(fileID string) (*model.Version, error)

	// CreateVersion appends a new version row.
	CreateVersion(version *model.Version) error

	// PruneVersions deletes all but the newest keep versions of a file and
	// returns the number of rows removed.
	PruneVersions(fileID string, keep int) (int, error)

	// Watch root operations

	// FindWatchRootByPath returns a watch root with an exact path match.
	FindWatchRootByPath(path string) (*model.WatchRoot, error)

	// CreateWatchRoot registers a directory for watching.
	CreateWatchRoot(path string, recursive bool) (*model.WatchRoot, error)

	// ListWatchRoots returns all registered watch roots in insertion order.
	ListWatchRoots() ([]*model.WatchRoot, error)

	// Close closes the database connection.
	Close() error
}
