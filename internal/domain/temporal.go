package domain

import (
	"fmt"
	"sort"
	"time"
)

// TemporalRange is an immutable, media-relative time interval.
// Start and End are offsets from the beginning of the referenced item;
// a valid range always satisfies Start <= End.
type TemporalRange struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// NewTemporalRange constructs a range, normalizing inverted bounds so that
// Start <= End always holds.
func NewTemporalRange(start, end time.Duration) TemporalRange {
	if end < start {
		start, end = end, start
	}
	return TemporalRange{Start: start, End: end}
}

// Duration returns the length of the range.
func (r TemporalRange) Duration() time.Duration { return r.End - r.Start }

// Contains reports whether the point p lies within the range (inclusive).
func (r TemporalRange) Contains(p time.Duration) bool {
	return p >= r.Start && p <= r.End
}

// ContainsRange reports whether other lies entirely within r (inclusive).
func (r TemporalRange) ContainsRange(other TemporalRange) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Overlaps reports whether the two ranges share at least one point.
func (r TemporalRange) Overlaps(other TemporalRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Center returns the midpoint of the range.
func (r TemporalRange) Center() time.Duration {
	return r.Start + (r.End-r.Start)/2
}

// Merge returns the smallest range covering both r and other.
func (r TemporalRange) Merge(other TemporalRange) TemporalRange {
	merged := r
	if other.Start < merged.Start {
		merged.Start = other.Start
	}
	if other.End > merged.End {
		merged.End = other.End
	}
	return merged
}

// String formats the range in milliseconds for logs and rejection reasons.
func (r TemporalRange) String() string {
	return fmt.Sprintf("[%d,%d]ms", r.Start.Milliseconds(), r.End.Milliseconds())
}

// MergeRanges collapses a set of ranges into the minimal set of distinct
// ranges, treating ranges whose gap is at most tolerance as adjacent.
// The input slice is not modified; the result is sorted by start offset.
//
// This is the "distinct correct ranges" primitive used by pooled scoring:
// each returned range represents one distinct region of the item that at
// least one merged input covered.
func MergeRanges(ranges []TemporalRange, tolerance time.Duration) []TemporalRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]TemporalRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := make([]TemporalRange, 0, len(sorted))
	current := sorted[0]
	for _, r := range sorted[1:] {
		if r.Start <= current.End+tolerance {
			current = current.Merge(r)
			continue
		}
		merged = append(merged, current)
		current = r
	}
	return append(merged, current)
}
