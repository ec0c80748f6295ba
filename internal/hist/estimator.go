package hist

import "strings"

// DiffStats summarizes a line-level comparison of two versions.
type DiffStats struct {
	Added   int
	Removed int
}

// lookahead is the number of positions scanned past a mismatch when trying to
// re-synchronize the two sides. Small on purpose: the estimator feeds a UI
// badge, not a patch.
const lookahead = 4

// Estimate classifies lines as matched, added, or removed between the current
// and previous version of a text, using a greedy two-pointer scan with a
// bounded lookahead window. It is an approximation: the counts are not a
// minimal edit script, but the scan runs in O(len(current)+len(previous)) with
// a constant factor of lookahead, which is what a per-version badge needs.
//
// On a mismatch the current side is probed first. When both sides would
// re-synchronize at the same offset this attributes the change to an added
// block rather than a removed one. Existing stats depend on that bias, so it
// is kept even though it makes swapped-line attribution asymmetric.
func Estimate(current, previous []string) DiffStats {
	var stats DiffStats
	i, j := 0, 0

	for i < len(current) || j < len(previous) {
		switch {
		case i >= len(current):
			// Current is exhausted: everything left in previous was removed.
			stats.Removed += len(previous) - j
			return stats
		case j >= len(previous):
			// Previous is exhausted: everything left in current was added.
			stats.Added += len(current) - i
			return stats
		case current[i] == previous[j]:
			i++
			j++
		default:
			if k, ok := scanAhead(current, i, previous[j]); ok {
				// current[i:k] are new lines; the match itself is consumed
				// by the equality case on the next iteration.
				stats.Added += k - i
				i = k
			} else if k, ok := scanAhead(previous, j, current[i]); ok {
				stats.Removed += k - j
				j = k
			} else {
				// No re-sync point within the window: one-for-one substitution.
				stats.Added++
				stats.Removed++
				i++
				j++
			}
		}
	}

	return stats
}

// scanAhead searches lines[from+1 : from+1+lookahead] for target and returns
// its index. The window is clamped to the end of the slice.
func scanAhead(lines []string, from int, target string) (int, bool) {
	limit := from + 1 + lookahead
	if limit > len(lines) {
		limit = len(lines)
	}
	for k := from + 1; k < limit; k++ {
		if lines[k] == target {
			return k, true
		}
	}
	return 0, false
}

// SplitLines is the single line-splitting convention used on both sides of
// every comparison. An empty blob yields one empty line, and a trailing
// newline yields a trailing empty line; as long as both versions go through
// here the scan matches those away.
func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}
