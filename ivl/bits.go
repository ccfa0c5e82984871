package ivl

import "sort"

// BITS is Binary Interval Search: intervals sorted by (start, end) with a
// single running-maximum-end array over the whole sorted list. It favors
// tightly clustered data and sequential queries over AIList's sublist
// decomposition.
type BITS[I Unsigned, T any] struct {
	starts  []I
	ends    []I
	maxEnds []I
	vals    []T
}

var _ Overlapper[uint32, uint32] = (*BITS[uint32, uint32])(nil)

// BuildBITS builds a BITS index, taking ownership of (and reordering)
// intervals.
func BuildBITS[I Unsigned, T any](intervals []Interval[I, T]) *BITS[I, T] {
	sort.Slice(intervals, func(i, j int) bool {
		return compareIntervals(intervals[i], intervals[j]) < 0
	})

	b := &BITS[I, T]{
		starts: make([]I, len(intervals)),
		ends:   make([]I, len(intervals)),
		vals:   make([]T, len(intervals)),
	}
	var maxEnd I
	for i, iv := range intervals {
		b.starts[i] = iv.Start
		b.ends[i] = iv.End
		b.vals[i] = iv.Val
		if iv.End > maxEnd {
			maxEnd = iv.End
		}
		b.maxEnds = append(b.maxEnds, maxEnd)
	}
	return b
}

// Len reports the number of intervals in the index.
func (b *BITS[I, T]) Len() int { return len(b.starts) }

// Find returns every interval overlapping [start, end).
func (b *BITS[I, T]) Find(start, end I) []Interval[I, T] {
	if start >= end {
		return nil
	}
	var results []Interval[I, T]
	i := sort.Search(len(b.starts), func(i int) bool { return b.starts[i] >= end })
	for i > 0 {
		i--
		if start >= b.ends[i] {
			if start > b.maxEnds[i] {
				break
			}
			continue
		}
		results = append(results, Interval[I, T]{Start: b.starts[i], End: b.ends[i], Val: b.vals[i]})
	}
	return results
}

// FindIter is the lazy variant of Find.
func (b *BITS[I, T]) FindIter(start, end I) func(yield func(Interval[I, T]) bool) {
	return func(yield func(Interval[I, T]) bool) {
		if start >= end {
			return
		}
		i := sort.Search(len(b.starts), func(i int) bool { return b.starts[i] >= end })
		for i > 0 {
			i--
			if start >= b.ends[i] {
				if start > b.maxEnds[i] {
					return
				}
				continue
			}
			if !yield(Interval[I, T]{Start: b.starts[i], End: b.ends[i], Val: b.vals[i]}) {
				return
			}
		}
	}
}
