package testutil

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"lth-go/internal/hist"
	"lth-go/internal/model"
)

// MemoryDatabase is a map-backed hist.Database for tests. It mirrors the
// SQLite implementation's ordering contracts: files and watch roots enumerate
// in insertion order, versions list newest first.
type MemoryDatabase struct {
	mu       sync.Mutex
	files    []*model.File
	versions map[string][]*model.Version // fileID -> oldest..newest
	roots    []*model.WatchRoot
}

var _ hist.Database = (*MemoryDatabase)(nil)

// NewMemoryDatabase creates an empty MemoryDatabase.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{versions: make(map[string][]*model.Version)}
}

func (d *MemoryDatabase) FindFileByPath(path string) (*model.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.files {
		if f.Path == path {
			copied := *f
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *MemoryDatabase) FindOrCreateFile(path string) (*model.File, error) {
	if existing, _ := d.FindFileByPath(path); existing != nil {
		return existing, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f := &model.File{ID: uuid.New().String(), Path: path, CreatedAt: time.Now()}
	d.files = append(d.files, f)
	copied := *f
	return &copied, nil
}

func (d *MemoryDatabase) ListFiles() ([]*model.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*model.File, 0, len(d.files))
	for _, f := range d.files {
		copied := *f
		out = append(out, &copied)
	}
	return out, nil
}

func (d *MemoryDatabase) ListVersions(fileID string) ([]*model.Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := d.versions[fileID]
	out := make([]*model.Version, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		copied := *stored[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (d *MemoryDatabase) LatestVersion(fileID string) (*model.Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := d.versions[fileID]
	if len(stored) == 0 {
		return nil, nil
	}
	copied := *stored[len(stored)-1]
	return &copied, nil
}

func (d *MemoryDatabase) CreateVersion(version *model.Version) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := *version
	d.versions[version.FileID] = append(d.versions[version.FileID], &copied)
	return nil
}

func (d *MemoryDatabase) PruneVersions(fileID string, keep int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored := d.versions[fileID]
	if len(stored) <= keep {
		return 0, nil
	}
	pruned := len(stored) - keep
	d.versions[fileID] = append([]*model.Version{}, stored[pruned:]...)
	return pruned, nil
}

func (d *MemoryDatabase) FindWatchRootByPath(path string) (*model.WatchRoot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.roots {
		if r.Path == path {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

func (d *MemoryDatabase) CreateWatchRoot(path string, recursive bool) (*model.WatchRoot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := &model.WatchRoot{ID: uuid.New().String(), Path: path, Recursive: recursive, CreatedAt: time.Now()}
	d.roots = append(d.roots, r)
	copied := *r
	return &copied, nil
}

func (d *MemoryDatabase) ListWatchRoots() ([]*model.WatchRoot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*model.WatchRoot, 0, len(d.roots))
	for _, r := range d.roots {
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (d *MemoryDatabase) Close() error { return nil }
