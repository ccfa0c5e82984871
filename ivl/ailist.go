package ivl

import "sort"

// DefaultMinCoverageLen is the "L" parameter from the decomposition rule:
// an interval is promoted to the next sublist when, among the next 2*L
// intervals, more than L of them end before it does. Ported from the
// literal 10 hardcoded in gtars/src/overlap/ailist.rs; exposed here since
// the spec calls out that implementations may want to tune it.
const DefaultMinCoverageLen = 10

// AIList is the Augmented Interval List: a decomposition of an interval
// set into "sublists", each sorted by start and each carrying a running
// maximum-end array, so that high-coverage regions (which would force long
// linear scans in a plain interval tree) get hoisted into their own level
// instead of blowing up every query's scan length.
type AIList[I Unsigned, T any] struct {
	starts     []I
	ends       []I
	maxEnds    []I
	vals       []T
	headerList []int // sublist boundaries into the parallel slices above
}

var _ Overlapper[uint32, uint32] = (*AIList[uint32, uint32])(nil)

// BuildAIList builds an AIList using DefaultMinCoverageLen.
func BuildAIList[I Unsigned, T any](intervals []Interval[I, T]) *AIList[I, T] {
	return BuildAIListWithL(intervals, DefaultMinCoverageLen)
}

// BuildAIListWithL builds an AIList using an explicit decomposition
// threshold L, taking ownership of (and reordering) intervals.
func BuildAIListWithL[I Unsigned, T any](intervals []Interval[I, T], l int) *AIList[I, T] {
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})

	al := &AIList[I, T]{headerList: []int{0}}
	for {
		var remainder []Interval[I, T]
		remainder = al.decompose(intervals, l)
		intervals = remainder
		if len(intervals) == 0 {
			break
		}
		al.headerList = append(al.headerList, len(al.starts))
	}
	return al
}

// decompose scans intervals in start order, appending "short" intervals
// (those that don't enclose too many of their neighbors) directly to the
// engine's parallel arrays and returning the "long-tail" intervals that
// must be decomposed again at the next level.
func (al *AIList[I, T]) decompose(intervals []Interval[I, T], l int) []Interval[I, T] {
	var next []Interval[I, T]
	var maxEnd I // unsigned zero value is <= every real End

	for idx, iv := range intervals {
		count := 0
		for i := 1; i <= l*2; i++ {
			j := idx + i
			if j >= len(intervals) {
				break
			}
			if iv.End > intervals[j].End {
				count++
			}
		}
		if count > l {
			next = append(next, iv)
			continue
		}
		al.starts = append(al.starts, iv.Start)
		al.ends = append(al.ends, iv.End)
		al.vals = append(al.vals, iv.Val)
		if iv.End > maxEnd {
			maxEnd = iv.End
		}
		al.maxEnds = append(al.maxEnds, maxEnd)
	}
	return next
}

// Len reports the total number of intervals stored across every sublist.
func (al *AIList[I, T]) Len() int { return len(al.starts) }

// Find returns every interval overlapping [start, end).
func (al *AIList[I, T]) Find(start, end I) []Interval[I, T] {
	if start >= end {
		return nil
	}
	var results []Interval[I, T]
	for i := 0; i < len(al.headerList); i++ {
		lo := al.headerList[i]
		hi := len(al.starts)
		if i+1 < len(al.headerList) {
			hi = al.headerList[i+1]
		}
		results = append(results, querySublist(start, end,
			al.starts[lo:hi], al.ends[lo:hi], al.maxEnds[lo:hi], al.vals[lo:hi])...)
	}
	return results
}

// FindIter is the lazy variant of Find.
func (al *AIList[I, T]) FindIter(start, end I) func(yield func(Interval[I, T]) bool) {
	return func(yield func(Interval[I, T]) bool) {
		if start >= end {
			return
		}
		for i := 0; i < len(al.headerList); i++ {
			lo := al.headerList[i]
			hi := len(al.starts)
			if i+1 < len(al.headerList) {
				hi = al.headerList[i+1]
			}
			if !yieldSublist(start, end,
				al.starts[lo:hi], al.ends[lo:hi], al.maxEnds[lo:hi], al.vals[lo:hi], yield) {
				return
			}
		}
	}
}

// querySublist walks one AIList sublist backward from the partition point
// "first start >= end", the same algorithm as gtars's AiList::query_slice.
func querySublist[I Unsigned, T any](start, end I, starts, ends, maxEnds []I, vals []T) []Interval[I, T] {
	var results []Interval[I, T]
	i := sort.Search(len(starts), func(i int) bool { return starts[i] >= end })
	for i > 0 {
		i--
		if start >= ends[i] {
			if start > maxEnds[i] {
				return results
			}
			continue
		}
		results = append(results, Interval[I, T]{Start: starts[i], End: ends[i], Val: vals[i]})
	}
	return results
}

func yieldSublist[I Unsigned, T any](start, end I, starts, ends, maxEnds []I, vals []T, yield func(Interval[I, T]) bool) bool {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] >= end })
	for i > 0 {
		i--
		if start >= ends[i] {
			if start > maxEnds[i] {
				return true
			}
			continue
		}
		if !yield(Interval[I, T]{Start: starts[i], End: ends[i], Val: vals[i]}) {
			return false
		}
	}
	return true
}
