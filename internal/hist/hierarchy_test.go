package hist_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"lth-go/internal/hist"
	"lth-go/internal/testutil"
)

// stubStore is a fixed-content VersionStore for hierarchy tests.
type stubStore struct {
	files    []string
	versions map[string][]stubVersion
}

type stubVersion struct {
	content string
	ts      time.Time
}

func (s *stubStore) AllVersionedFiles() ([]string, error) {
	return s.files, nil
}

func (s *stubStore) AllVersions(file string) ([]string, error) {
	var contents []string
	for _, v := range s.versions[file] {
		contents = append(contents, v.content)
	}
	return contents, nil
}

func (s *stubStore) VersionTimestamp(file string, index int) (time.Time, error) {
	versions := s.versions[file]
	if index < 0 || index >= len(versions) {
		return time.Time{}, fmt.Errorf("index %d out of range", index)
	}
	return versions[index].ts, nil
}

func TestHierarchy_RootGroups(t *testing.T) {
	// All cases run against "now" = 2024-06-15 12:00 UTC.
	clock := testutil.FixedClock()

	t.Run("classifies files into calendar-day buckets", func(t *testing.T) {
		t.Parallel()
		store := &stubStore{
			files: []string{"/today", "/yesterday", "/week", "/month", "/old"},
			versions: map[string][]stubVersion{
				"/today":     {{content: "a", ts: time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)}},
				"/yesterday": {{content: "a", ts: time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC)}},
				"/week":      {{content: "a", ts: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)}},
				"/month":     {{content: "a", ts: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)}},
				"/old":       {{content: "a", ts: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}},
			},
		}

		groups, err := hist.NewHierarchy(store, clock).RootGroups()
		if err != nil {
			t.Fatalf("RootGroups() error = %v", err)
		}

		want := []hist.DateGroup{
			{Label: hist.BucketToday, Files: []string{"/today"}},
			{Label: hist.BucketYesterday, Files: []string{"/yesterday"}},
			{Label: hist.BucketWeek, Files: []string{"/week"}},
			{Label: hist.BucketMonth, Files: []string{"/month"}},
			{Label: hist.BucketMore, Files: []string{"/old"}},
		}
		if !reflect.DeepEqual(groups, want) {
			t.Errorf("RootGroups() = %+v, want %+v", groups, want)
		}
	})

	t.Run("omits empty buckets and keeps fixed order", func(t *testing.T) {
		t.Parallel()
		store := &stubStore{
			files: []string{"/old", "/today"},
			versions: map[string][]stubVersion{
				"/old":   {{content: "a", ts: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)}},
				"/today": {{content: "a", ts: time.Date(2024, 6, 15, 1, 0, 0, 0, time.UTC)}},
			},
		}

		groups, err := hist.NewHierarchy(store, clock).RootGroups()
		if err != nil {
			t.Fatalf("RootGroups() error = %v", err)
		}

		if len(groups) != 2 {
			t.Fatalf("got %d groups, want 2", len(groups))
		}
		if groups[0].Label != hist.BucketToday || groups[1].Label != hist.BucketMore {
			t.Errorf("group order = [%s, %s], want [Today, More]", groups[0].Label, groups[1].Label)
		}
	})

	t.Run("seven day boundary belongs to the week bucket", func(t *testing.T) {
		t.Parallel()
		store := &stubStore{
			files: []string{"/boundary"},
			versions: map[string][]stubVersion{
				"/boundary": {{content: "a", ts: time.Date(2024, 6, 8, 23, 59, 0, 0, time.UTC)}},
			},
		}

		groups, err := hist.NewHierarchy(store, clock).RootGroups()
		if err != nil {
			t.Fatalf("RootGroups() error = %v", err)
		}
		if len(groups) != 1 || groups[0].Label != hist.BucketWeek {
			t.Errorf("got %+v, want one %q group", groups, hist.BucketWeek)
		}
	})

	t.Run("file without versions lands in More", func(t *testing.T) {
		t.Parallel()
		store := &stubStore{
			files:    []string{"/empty"},
			versions: map[string][]stubVersion{},
		}

		groups, err := hist.NewHierarchy(store, clock).RootGroups()
		if err != nil {
			t.Fatalf("RootGroups() error = %v", err)
		}
		if len(groups) != 1 || groups[0].Label != hist.BucketMore {
			t.Errorf("got %+v, want one %q group", groups, hist.BucketMore)
		}
	})

	t.Run("bucket keeps store enumeration order", func(t *testing.T) {
		t.Parallel()
		ts := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
		store := &stubStore{
			files: []string{"/z", "/a", "/m"},
			versions: map[string][]stubVersion{
				"/z": {{content: "a", ts: ts}},
				"/a": {{content: "a", ts: ts}},
				"/m": {{content: "a", ts: ts}},
			},
		}

		groups, err := hist.NewHierarchy(store, clock).RootGroups()
		if err != nil {
			t.Fatalf("RootGroups() error = %v", err)
		}
		want := []string{"/z", "/a", "/m"}
		if len(groups) != 1 || !reflect.DeepEqual(groups[0].Files, want) {
			t.Errorf("got %+v, want files %v", groups, want)
		}
	})
}

func TestHierarchy_VersionList(t *testing.T) {
	clock := testutil.FixedClock()

	t.Run("annotates versions against their predecessors", func(t *testing.T) {
		t.Parallel()
		store := &stubStore{
			files: []string{"/f"},
			versions: map[string][]stubVersion{
				"/f": {
					{content: "a\nb\nc", ts: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)},
					{content: "a\nx\nc", ts: time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC)},
					{content: "a", ts: time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC)},
				},
			},
		}

		list, err := hist.NewHierarchy(store, clock).VersionList("/f")
		if err != nil {
			t.Fatalf("VersionList() error = %v", err)
		}
		if len(list) != 3 {
			t.Fatalf("got %d descriptors, want 3", len(list))
		}

		// Newest first, display numbers count from the oldest.
		for i, wantNumber := range []int{3, 2, 1} {
			if list[i].Index != i {
				t.Errorf("descriptor %d: Index = %d, want %d", i, list[i].Index, i)
			}
			if list[i].Number != wantNumber {
				t.Errorf("descriptor %d: Number = %d, want %d", i, list[i].Number, wantNumber)
			}
		}

		if list[0].Stats == nil || list[0].Stats.Added != 1 || list[0].Stats.Removed != 1 {
			t.Errorf("newest stats = %+v, want {Added:1 Removed:1}", list[0].Stats)
		}
		if list[1].Stats == nil || list[1].Stats.Added != 2 || list[1].Stats.Removed != 0 {
			t.Errorf("middle stats = %+v, want {Added:2 Removed:0}", list[1].Stats)
		}
		if list[2].Stats != nil {
			t.Errorf("oldest stats = %+v, want nil", list[2].Stats)
		}
	})

	t.Run("single version has nil stats", func(t *testing.T) {
		t.Parallel()
		store := &stubStore{
			files: []string{"/f"},
			versions: map[string][]stubVersion{
				"/f": {{content: "a", ts: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}},
			},
		}

		list, err := hist.NewHierarchy(store, clock).VersionList("/f")
		if err != nil {
			t.Fatalf("VersionList() error = %v", err)
		}
		if len(list) != 1 || list[0].Stats != nil || list[0].Number != 1 {
			t.Errorf("got %+v, want single descriptor with nil stats and Number 1", list)
		}
	})

	t.Run("untracked file yields empty list", func(t *testing.T) {
		t.Parallel()
		store := &stubStore{versions: map[string][]stubVersion{}}

		list, err := hist.NewHierarchy(store, clock).VersionList("/missing")
		if err != nil {
			t.Fatalf("VersionList() error = %v", err)
		}
		if len(list) != 0 {
			t.Errorf("got %d descriptors, want 0", len(list))
		}
	})
}
