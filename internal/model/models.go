package model

import "time"

// File represents a text file with tracked version history. The path is the
// canonical absolute path and doubles as the file's identity everywhere a
// version lookup is keyed.
type File struct {
	ID        string // UUID
	Path      string // Canonical absolute path on host
	CreatedAt time.Time
}

// Version represents one immutable snapshot of a file's content. Versions are
// append-only: they are never mutated, and only pruning of the oldest entries
// ever deletes them.
type Version struct {
	ID        string // UUID
	FileID    string // Foreign key to File
	ContentID string // SHA-256 checksum of the plaintext content
	Size      int64  // Plaintext size in bytes
	CreatedAt time.Time
}

// WatchRoot represents a directory whose text files are captured on change.
type WatchRoot struct {
	ID        string // UUID
	Path      string // Absolute path on host
	Recursive bool   // Whether subdirectories are watched too
	CreatedAt time.Time
}
