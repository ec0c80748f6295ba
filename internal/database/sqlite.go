package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lth-go/internal/database/migrations"
	"lth-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the hist.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens (and migrates) a SQLite database.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" gets its own empty database, so
	// the pool must stay at a single connection for the schema to be visible.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// File operations

func (s *SQLiteDatabase) FindFileByPath(path string) (*model.File, error) {
	row := s.db.QueryRow(`SELECT id, path, created_at FROM files WHERE path = ?`, path)

	var f model.File
	if err := row.Scan(&f.ID, &f.Path, &f.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by path: %w", err)
	}
	return &f, nil
}

func (s *SQLiteDatabase) FindOrCreateFile(path string) (*model.File, error) {
	existing, err := s.FindFileByPath(path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	f := &model.File{
		ID:        uuid.New().String(),
		Path:      path,
		CreatedAt: time.Now(),
	}
	_, err = s.db.Exec(
		`INSERT INTO files (id, path, created_at) VALUES (?, ?, ?)`,
		f.ID, f.Path, f.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting file: %w", err)
	}
	return f, nil
}

func (s *SQLiteDatabase) ListFiles() ([]*model.File, error) {
	// rowid order = insertion order; this is the store's stable enumeration
	// order that the hierarchy preserves inside buckets.
	rows, err := s.db.Query(`SELECT id, path, created_at FROM files ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []*model.File
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.Path, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		files = append(files, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file rows: %w", err)
	}
	return files, nil
}

// Version operations

func (s *SQLiteDatabase) ListVersions(fileID string) ([]*model.Version, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, content_id, size, created_at
		 FROM versions WHERE file_id = ?
		 ORDER BY created_at DESC, rowid DESC`, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	defer rows.Close()

	var versions []*model.Version
	for rows.Next() {
		var v model.Version
		if err := rows.Scan(&v.ID, &v.FileID, &v.ContentID, &v.Size, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning version row: %w", err)
		}
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating version rows: %w", err)
	}
	return versions, nil
}

func (s *SQLiteDatabase) LatestVersion(fileID string) (*model.Version, error) {
	row := s.db.QueryRow(
		`SELECT id, file_id, content_id, size, created_at
		 FROM versions WHERE file_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`, fileID)

	var v model.Version
	if err := row.Scan(&v.ID, &v.FileID, &v.ContentID, &v.Size, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No versions yet
		}
		return nil, fmt.Errorf("finding latest version: %w", err)
	}
	return &v, nil
}

func (s *SQLiteDatabase) CreateVersion(version *model.Version) error {
	_, err := s.db.Exec(
		`INSERT INTO versions (id, file_id, content_id, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		version.ID, version.FileID, version.ContentID, version.Size, version.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting version: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) PruneVersions(fileID string, keep int) (int, error) {
	result, err := s.db.Exec(
		`DELETE FROM versions WHERE file_id = ? AND id NOT IN (
		   SELECT id FROM versions WHERE file_id = ?
		   ORDER BY created_at DESC, rowid DESC LIMIT ?
		 )`, fileID, fileID, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning versions: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned versions: %w", err)
	}
	return int(affected), nil
}

// Watch root operations

func (s *SQLiteDatabase) FindWatchRootByPath(path string) (*model.WatchRoot, error) {
	row := s.db.QueryRow(`SELECT id, path, recursive, created_at FROM watch_roots WHERE path = ?`, path)

	var r model.WatchRoot
	if err := row.Scan(&r.ID, &r.Path, &r.Recursive, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding watch root by path: %w", err)
	}
	return &r, nil
}

func (s *SQLiteDatabase) CreateWatchRoot(path string, recursive bool) (*model.WatchRoot, error) {
	r := &model.WatchRoot{
		ID:        uuid.New().String(),
		Path:      path,
		Recursive: recursive,
		CreatedAt: time.Now(),
	}
	_, err := s.db.Exec(
		`INSERT INTO watch_roots (id, path, recursive, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Path, r.Recursive, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting watch root: %w", err)
	}
	return r, nil
}

func (s *SQLiteDatabase) ListWatchRoots() ([]*model.WatchRoot, error) {
	rows, err := s.db.Query(`SELECT id, path, recursive, created_at FROM watch_roots ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing watch roots: %w", err)
	}
	defer rows.Close()

	var roots []*model.WatchRoot
	for rows.Next() {
		var r model.WatchRoot
		if err := rows.Scan(&r.ID, &r.Path, &r.Recursive, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning watch root row: %w", err)
		}
		roots = append(roots, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating watch root rows: %w", err)
	}
	return roots, nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}
