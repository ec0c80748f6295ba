package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lth-go/internal/config"
	"lth-go/internal/database"
	"lth-go/internal/encryption"
	"lth-go/internal/hist"
	"lth-go/internal/vault"
	"lth-go/internal/watch"
)

// App is the application layer between the CLI and the HistoryService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the DB lifecycle on Close.
type App struct {
	cfg       *config.Config
	db        hist.Database
	vault     hist.Vault
	encryptor hist.Encryptor
	service   *hist.HistoryService
	hierarchy *hist.Hierarchy
	logger    hist.Logger
	logFile   *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Track", "Watch").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	if cfg.Encryption.Enabled && !enc.IsConfigured() {
		db.Close()
		return nil, fmt.Errorf("encryption enabled but keys missing: run `lth keys init`")
	}

	opID := time.Now().UTC().Format("20060102T150405Z") + "-" + operation
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapted := &slogAdapter{l: logger}
	svc := hist.NewHistoryService(db, v, enc, adapted, hist.RealClock{}, hist.UUIDGenerator{},
		cfg.History.MaxVersions, cfg.Encryption.Enabled)

	return &App{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   svc,
		hierarchy: hist.NewHierarchy(svc, hist.RealClock{}),
		logger:    adapted,
		logFile:   logFile,
	}, nil
}

// Track resolves the given path and registers it as a watch root.
func (a *App) Track(rawPath string, recursive bool) (string, error) {
	abs, err := resolveDir(rawPath)
	if err != nil {
		return "", err
	}
	return abs, a.service.TrackRoot(abs, recursive)
}

// SaveFile reads the file at the given path and captures a version of it now.
// Returns false when the content matches the latest stored version.
func (a *App) SaveFile(rawPath string) (bool, error) {
	abs, err := resolveFile(rawPath)
	if err != nil {
		return false, err
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return false, fmt.Errorf("reading file: %w", err)
	}
	return a.service.Capture(abs, content)
}

// Watch runs the change watcher over all tracked roots until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	roots, err := a.service.WatchRoots()
	if err != nil {
		return err
	}
	w := watch.New(a.service, a.logger, a.cfg.History.Ignore)
	return w.Run(ctx, roots)
}

// RootGroups returns the recency-grouped browsing structure.
func (a *App) RootGroups() ([]hist.DateGroup, error) {
	return a.hierarchy.RootGroups()
}

// VersionList returns annotated version descriptors for a file, newest first.
func (a *App) VersionList(rawPath string) ([]hist.VersionDescriptor, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.hierarchy.VersionList(abs)
}

// VersionContent returns the stored content of one version of a file.
func (a *App) VersionContent(rawPath string, index int) ([]byte, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.VersionContent(abs, index)
}

// DiffStats estimates the line changes of one version against its
// predecessor, independent of the full version list.
func (a *App) DiffStats(rawPath string, index int) (hist.DiffStats, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return hist.DiffStats{}, fmt.Errorf("resolving path: %w", err)
	}
	current, err := a.service.VersionContent(abs, index)
	if err != nil {
		return hist.DiffStats{}, err
	}
	previous, err := a.service.VersionContent(abs, index+1)
	if err != nil {
		return hist.DiffStats{}, err
	}
	return hist.Estimate(hist.SplitLines(string(current)), hist.SplitLines(string(previous))), nil
}

// Restore writes the stored content of a version back over the file on disk.
// The file may no longer exist; its parent directory must.
func (a *App) Restore(rawPath string, index int) (string, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	content, err := a.service.VersionContent(abs, index)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, content, 0644); err != nil {
		return "", fmt.Errorf("writing restored content: %w", err)
	}
	a.logger.Info("version restored", "path", abs, "index", index)
	return abs, nil
}

// NeedsUnlock reports whether reads require a passphrase first.
func (a *App) NeedsUnlock() bool { return a.service.NeedsUnlock() }

// Unlock unlocks the private key for the rest of this invocation.
func (a *App) Unlock(passphrase string) error { return a.service.Unlock(passphrase) }

// SetupKeys generates the encryption key pair. Called by `lth keys init`.
func (a *App) SetupKeys(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// Close closes all resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// resolveDir resolves rawPath and verifies it is a directory.
func resolveDir(rawPath string) (string, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

// resolveFile resolves rawPath and verifies it is a regular file.
func resolveFile(rawPath string) (string, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat path: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("path is not a regular file: %s", abs)
	}
	return abs, nil
}
