package database_test

import (
	"testing"
	"time"

	"lth-go/internal/database"
	"lth-go/internal/model"
)

func newTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteDatabase_Files(t *testing.T) {
	t.Run("find returns nil for unknown path", func(t *testing.T) {
		t.Parallel()
		db := newTestDatabase(t)

		f, err := db.FindFileByPath("/nope")
		if err != nil {
			t.Fatalf("FindFileByPath() error = %v", err)
		}
		if f != nil {
			t.Errorf("got %+v, want nil", f)
		}
	})

	t.Run("find or create is idempotent", func(t *testing.T) {
		t.Parallel()
		db := newTestDatabase(t)

		first, err := db.FindOrCreateFile("/tmp/a.txt")
		if err != nil {
			t.Fatalf("FindOrCreateFile() error = %v", err)
		}
		second, err := db.FindOrCreateFile("/tmp/a.txt")
		if err != nil {
			t.Fatalf("second FindOrCreateFile() error = %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("IDs differ: %s vs %s", first.ID, second.ID)
		}
	})

	t.Run("list preserves insertion order", func(t *testing.T) {
		t.Parallel()
		db := newTestDatabase(t)

		paths := []string{"/z.txt", "/a.txt", "/m.txt"}
		for _, p := range paths {
			if _, err := db.FindOrCreateFile(p); err != nil {
				t.Fatal(err)
			}
		}

		files, err := db.ListFiles()
		if err != nil {
			t.Fatalf("ListFiles() error = %v", err)
		}
		if len(files) != 3 {
			t.Fatalf("got %d files, want 3", len(files))
		}
		for i, p := range paths {
			if files[i].Path != p {
				t.Errorf("file %d = %s, want %s", i, files[i].Path, p)
			}
		}
	})
}

func TestSQLiteDatabase_Versions(t *testing.T) {
	addVersion := func(t *testing.T, db *database.SQLiteDatabase, fileID, id, checksum string, at time.Time) {
		t.Helper()
		err := db.CreateVersion(&model.Version{
			ID:        id,
			FileID:    fileID,
			ContentID: checksum,
			Size:      1,
			CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("CreateVersion(%s) error = %v", id, err)
		}
	}

	t.Run("list returns newest first", func(t *testing.T) {
		t.Parallel()
		db := newTestDatabase(t)
		f, err := db.FindOrCreateFile("/f")
		if err != nil {
			t.Fatal(err)
		}

		base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
		addVersion(t, db, f.ID, "v1", "c1", base)
		addVersion(t, db, f.ID, "v2", "c2", base.Add(time.Minute))
		addVersion(t, db, f.ID, "v3", "c3", base.Add(2*time.Minute))

		versions, err := db.ListVersions(f.ID)
		if err != nil {
			t.Fatalf("ListVersions() error = %v", err)
		}
		want := []string{"v3", "v2", "v1"}
		if len(versions) != 3 {
			t.Fatalf("got %d versions, want 3", len(versions))
		}
		for i, id := range want {
			if versions[i].ID != id {
				t.Errorf("version %d = %s, want %s", i, versions[i].ID, id)
			}
		}
	})

	t.Run("equal timestamps fall back to insertion order", func(t *testing.T) {
		t.Parallel()
		db := newTestDatabase(t)
		f, err := db.FindOrCreateFile("/f")
		if err != nil {
			t.Fatal(err)
		}

		at := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
		addVersion(t, db, f.ID, "v1", "c1", at)
		addVersion(t, db, f.ID, "v2", "c2", at)

		versions, err := db.ListVersions(f.ID)
		if err != nil {
			t.Fatal(err)
		}
		if versions[0].ID != "v2" || versions[1].ID != "v1" {
			t.Errorf("order = [%s, %s], want [v2, v1]", versions[0].ID, versions[1].ID)
		}
	})

	t.Run("latest version", func(t *testing.T) {
		t.Parallel()
		db := newTestDatabase(t)
		f, err := db.FindOrCreateFile("/f")
		if err != nil {
			t.Fatal(err)
		}

		latest, err := db.LatestVersion(f.ID)
		if err != nil {
			t.Fatalf("LatestVersion() error = %v", err)
		}
		if latest != nil {
			t.Errorf("got %+v, want nil for empty history", latest)
		}

		base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
		addVersion(t, db, f.ID, "v1", "c1", base)
		addVersion(t, db, f.ID, "v2", "c2", base.Add(time.Minute))

		latest, err = db.LatestVersion(f.ID)
		if err != nil {
			t.Fatal(err)
		}
		if latest == nil || latest.ID != "v2" {
			t.Errorf("latest = %+v, want v2", latest)
		}
	})

	t.Run("prune keeps the newest versions", func(t *testing.T) {
		t.Parallel()
		db := newTestDatabase(t)
		f, err := db.FindOrCreateFile("/f")
		if err != nil {
			t.Fatal(err)
		}

		base := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			addVersion(t, db, f.ID, string(rune('a'+i)), "c", base.Add(time.Duration(i)*time.Minute))
		}

		pruned, err := db.PruneVersions(f.ID, 2)
		if err != nil {
			t.Fatalf("PruneVersions() error = %v", err)
		}
		if pruned != 3 {
			t.Errorf("pruned = %d, want 3", pruned)
		}

		versions, err := db.ListVersions(f.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(versions) != 2 || versions[0].ID != "e" || versions[1].ID != "d" {
			t.Errorf("kept %+v, want [e, d]", versions)
		}
	})
}

func TestSQLiteDatabase_WatchRoots(t *testing.T) {
	t.Parallel()
	db := newTestDatabase(t)

	found, err := db.FindWatchRootByPath("/nope")
	if err != nil {
		t.Fatalf("FindWatchRootByPath() error = %v", err)
	}
	if found != nil {
		t.Errorf("got %+v, want nil", found)
	}

	if _, err := db.CreateWatchRoot("/home/user/notes", true); err != nil {
		t.Fatalf("CreateWatchRoot() error = %v", err)
	}
	if _, err := db.CreateWatchRoot("/home/user/code", false); err != nil {
		t.Fatal(err)
	}

	roots, err := db.ListWatchRoots()
	if err != nil {
		t.Fatalf("ListWatchRoots() error = %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	if roots[0].Path != "/home/user/notes" || !roots[0].Recursive {
		t.Errorf("first root = %+v", roots[0])
	}
	if roots[1].Path != "/home/user/code" || roots[1].Recursive {
		t.Errorf("second root = %+v", roots[1])
	}
}
