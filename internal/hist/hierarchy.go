package hist

import (
	"fmt"
	"time"
)

// Recency bucket labels, in the fixed order groups are emitted.
const (
	BucketToday     = "Today"
	BucketYesterday = "Yesterday"
	BucketWeek      = "Last 7 Days"
	BucketMonth     = "Last 30 Days"
	BucketMore      = "More"
)

var bucketLabels = []string{BucketToday, BucketYesterday, BucketWeek, BucketMonth, BucketMore}

// DateGroup is one recency bucket of the root hierarchy: a label and the
// files whose latest version falls into it. Files keep the store's
// enumeration order; groups are never empty.
type DateGroup struct {
	Label string
	Files []string
}

// VersionDescriptor is the per-version view built for a file's history list.
// Number counts from the oldest version ("Version 1") so it stays stable as
// new versions are appended. Stats is nil exactly for the oldest version,
// which has nothing to diff against.
type VersionDescriptor struct {
	File      string
	Index     int
	Number    int
	Timestamp time.Time
	Stats     *DiffStats
}

// Hierarchy builds the time-grouped browsing structure over a VersionStore.
// It holds no state between calls: every query re-reads the store and
// re-derives diff stats from scratch. At UI scale that is cheaper than an
// invalidation protocol.
type Hierarchy struct {
	store VersionStore
	clock Clock
}

// NewHierarchy creates a Hierarchy over the given store. The clock supplies
// "now" for recency bucketing.
func NewHierarchy(store VersionStore, clock Clock) *Hierarchy {
	return &Hierarchy{store: store, clock: clock}
}

// RootGroups classifies every tracked file into exactly one recency bucket
// based on the timestamp of its latest version, and returns the non-empty
// buckets in fixed order. Files with no versions at all sort under "More".
func (h *Hierarchy) RootGroups() ([]DateGroup, error) {
	files, err := h.store.AllVersionedFiles()
	if err != nil {
		return nil, fmt.Errorf("listing versioned files: %w", err)
	}

	now := h.clock.Now()
	buckets := make([][]string, len(bucketLabels))

	for _, file := range files {
		versions, err := h.store.AllVersions(file)
		if err != nil {
			return nil, fmt.Errorf("listing versions of %s: %w", file, err)
		}

		var lastModified time.Time
		if len(versions) > 0 {
			lastModified, err = h.store.VersionTimestamp(file, 0)
			if err != nil {
				return nil, fmt.Errorf("reading latest timestamp of %s: %w", file, err)
			}
		}

		b := bucketFor(now, lastModified)
		buckets[b] = append(buckets[b], file)
	}

	var groups []DateGroup
	for b, files := range buckets {
		if len(files) == 0 {
			continue
		}
		groups = append(groups, DateGroup{Label: bucketLabels[b], Files: files})
	}
	return groups, nil
}

// VersionList returns descriptors for every version of a file, newest first,
// each annotated with estimated diff stats against its immediate predecessor.
// An untracked file yields an empty list.
func (h *Hierarchy) VersionList(file string) ([]VersionDescriptor, error) {
	versions, err := h.store.AllVersions(file)
	if err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", file, err)
	}

	total := len(versions)
	descriptors := make([]VersionDescriptor, 0, total)

	for index, content := range versions {
		ts, err := h.store.VersionTimestamp(file, index)
		if err != nil {
			return nil, fmt.Errorf("reading timestamp of %s version %d: %w", file, index, err)
		}

		d := VersionDescriptor{
			File:      file,
			Index:     index,
			Number:    total - index,
			Timestamp: ts,
		}
		if index < total-1 {
			stats := Estimate(SplitLines(content), SplitLines(versions[index+1]))
			d.Stats = &stats
		}
		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

// bucketFor maps a last-modified instant to a bucket index. Both instants are
// truncated to midnight so the comparison is calendar-day granular. The zero
// instant (no versions) lands in "More".
func bucketFor(now, lastModified time.Time) int {
	if lastModified.IsZero() {
		return len(bucketLabels) - 1
	}

	days := int(midnight(now).Sub(midnight(lastModified)).Hours() / 24)
	switch {
	case days <= 0:
		return 0
	case days == 1:
		return 1
	case days <= 7:
		return 2
	case days <= 30:
		return 3
	default:
		return len(bucketLabels) - 1
	}
}

func midnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
