package hist

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"lth-go/internal/model"
)

// HistoryService is the orchestration layer that coordinates the database,
// vault, and encryptor to capture and read back file versions. It also
// implements VersionStore, so a Hierarchy can be built directly on top of it.
type HistoryService struct {
	database    Database
	vault       Vault
	encryptor   Encryptor
	logger      Logger
	clock       Clock
	idgen       IDGenerator
	maxVersions int
	encrypt     bool
	dec         DecryptionContext
}

var _ VersionStore = (*HistoryService)(nil)

// NewHistoryService creates a new HistoryService with the provided
// dependencies. maxVersions bounds the history kept per file (0 = unlimited).
// When encryptContent is true, content is encrypted before it reaches the
// vault and read operations require Unlock first.
func NewHistoryService(database Database, vault Vault, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator, maxVersions int, encryptContent bool) *HistoryService {
	return &HistoryService{
		database:    database,
		vault:       vault,
		encryptor:   encryptor,
		logger:      logger,
		clock:       clock,
		idgen:       idgen,
		maxVersions: maxVersions,
		encrypt:     encryptContent,
	}
}

// TrackRoot registers a directory for watching.
// If the directory is already tracked, this is a no-op.
func (s *HistoryService) TrackRoot(path string, recursive bool) error {
	existing, err := s.database.FindWatchRootByPath(path)
	if err != nil {
		return fmt.Errorf("checking for existing watch root: %w", err)
	}
	if existing != nil {
		// Already tracked, nothing to do
		return nil
	}

	if _, err := s.database.CreateWatchRoot(path, recursive); err != nil {
		return fmt.Errorf("creating watch root: %w", err)
	}

	s.logger.Info("directory tracked", "path", path, "recursive", recursive)
	return nil
}

// WatchRoots returns all registered watch roots.
func (s *HistoryService) WatchRoots() ([]*model.WatchRoot, error) {
	roots, err := s.database.ListWatchRoots()
	if err != nil {
		return nil, fmt.Errorf("listing watch roots: %w", err)
	}
	return roots, nil
}

// Capture appends a new version of the file at path holding content.
// Returns false without storing anything when the content is byte-identical
// to the latest stored version, so noisy save events cost nothing.
//
// The version's ContentID is the SHA-256 of the plaintext even when
// encryption is on: identity has to survive a nondeterministic cipher, and
// the vault key follows the identity.
func (s *HistoryService) Capture(path string, content []byte) (bool, error) {
	file, err := s.database.FindOrCreateFile(path)
	if err != nil {
		return false, fmt.Errorf("finding or creating file: %w", err)
	}

	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	latest, err := s.database.LatestVersion(file.ID)
	if err != nil {
		return false, fmt.Errorf("reading latest version: %w", err)
	}
	if latest != nil && latest.ContentID == checksum {
		s.logger.Debug("content unchanged", "path", path)
		return false, nil
	}

	payload := content
	if s.encrypt {
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(content), &buf); err != nil {
			return false, fmt.Errorf("encrypting content: %w", err)
		}
		payload = buf.Bytes()
	}

	// Vault first (idempotent by checksum), database second. If the version
	// insert fails the worst outcome is an orphaned blob, which is harmless.
	if err := s.vault.PutContent(checksum, bytes.NewReader(payload), int64(len(payload))); err != nil {
		return false, fmt.Errorf("storing content: %w", err)
	}

	version := &model.Version{
		ID:        s.idgen.New(),
		FileID:    file.ID,
		ContentID: checksum,
		Size:      int64(len(content)),
		CreatedAt: s.clock.Now(),
	}
	if err := s.database.CreateVersion(version); err != nil {
		return false, fmt.Errorf("recording version: %w", err)
	}

	if s.maxVersions > 0 {
		pruned, err := s.database.PruneVersions(file.ID, s.maxVersions)
		if err != nil {
			return false, fmt.Errorf("pruning versions: %w", err)
		}
		if pruned > 0 {
			s.logger.Debug("old versions pruned", "path", path, "count", pruned)
		}
	}

	s.logger.Info("version captured", "path", path, "size", len(content))
	return true, nil
}

// VersionContent returns the stored content of one version of a file,
// addressed by its newest-first index.
func (s *HistoryService) VersionContent(path string, index int) ([]byte, error) {
	versions, err := s.versionsForPath(path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(versions) {
		return nil, fmt.Errorf("version index %d out of range for %s (%d versions)", index, path, len(versions))
	}
	return s.contentByChecksum(versions[index].ContentID)
}

// Unlock prepares the service for reading encrypted content. A no-op when
// encryption is off.
func (s *HistoryService) Unlock(passphrase string) error {
	if !s.encrypt {
		return nil
	}
	dec, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}
	s.dec = dec
	return nil
}

// NeedsUnlock reports whether content reads will fail until Unlock succeeds.
func (s *HistoryService) NeedsUnlock() bool {
	return s.encrypt && s.dec == nil
}

// AllVersionedFiles implements VersionStore: paths of all tracked files in
// insertion order.
func (s *HistoryService) AllVersionedFiles() ([]string, error) {
	files, err := s.database.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// AllVersions implements VersionStore: newest-first content of every version
// of the file at path. An untracked path yields an empty slice.
func (s *HistoryService) AllVersions(path string) ([]string, error) {
	versions, err := s.versionsForPath(path)
	if err != nil {
		return nil, err
	}
	contents := make([]string, 0, len(versions))
	for _, v := range versions {
		data, err := s.contentByChecksum(v.ContentID)
		if err != nil {
			return nil, err
		}
		contents = append(contents, string(data))
	}
	return contents, nil
}

// VersionTimestamp implements VersionStore.
func (s *HistoryService) VersionTimestamp(path string, index int) (time.Time, error) {
	versions, err := s.versionsForPath(path)
	if err != nil {
		return time.Time{}, err
	}
	if index < 0 || index >= len(versions) {
		return time.Time{}, fmt.Errorf("version index %d out of range for %s (%d versions)", index, path, len(versions))
	}
	return versions[index].CreatedAt, nil
}

// versionsForPath returns the newest-first version rows of the file at path,
// or an empty slice when the path is not tracked.
func (s *HistoryService) versionsForPath(path string) ([]*model.Version, error) {
	file, err := s.database.FindFileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if file == nil {
		return nil, nil
	}
	versions, err := s.database.ListVersions(file.ID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return versions, nil
}

// contentByChecksum fetches a blob from the vault and decrypts it if content
// encryption is on.
func (s *HistoryService) contentByChecksum(checksum string) ([]byte, error) {
	var stored bytes.Buffer
	if err := s.vault.GetContent(checksum, &stored); err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if !s.encrypt {
		return stored.Bytes(), nil
	}
	if s.dec == nil {
		return nil, fmt.Errorf("history is encrypted: unlock required")
	}
	var plain bytes.Buffer
	if err := s.dec.Decrypt(&stored, &plain); err != nil {
		return nil, fmt.Errorf("decrypting content: %w", err)
	}
	return plain.Bytes(), nil
}
