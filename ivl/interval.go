// Package ivl implements the two interchangeable interval-overlap engines
// at the core of this toolkit — AIList and BITS — plus the
// MultiChromOverlapper that fans either of them out over a set of
// chromosomes. Ported from gtars-overlaprs (gtars/src/overlap/ailist.rs and
// the BITS description in the project's design notes), generalized from a
// single concrete element type to Go generics.
package ivl

import "cmp"

// Unsigned is the set of integer types an Interval's coordinates may use.
// gtars-overlaprs bounds this the same way (num_traits::Unsigned); Go has
// no equivalent in the standard constraints yet, so it's spelled out here
// rather than pulling in golang.org/x/exp/constraints for three lines.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Interval is a half-open [Start, End) range carrying an application
// payload Val. Equality and comparison consider Start and End only, per
// the data model: two intervals with the same coordinates and different
// Val are still "equal" for sorting purposes.
type Interval[I Unsigned, T any] struct {
	Start I
	End   I
	Val   T
}

// Overlap reports whether the interval overlaps the half-open query range
// [start, end). Adjacent intervals ([0,10) and [10,20)) never overlap.
// The check is the bare predicate with no special case for empty ranges:
// a zero-length interval [p,p) overlaps any query with start < p < end.
func (iv Interval[I, T]) Overlap(start, end I) bool {
	return iv.Start < end && iv.End > start
}

// Less orders intervals by (Start, End), matching gtars's Ord impl for
// Interval<I,T>.
func (iv Interval[I, T]) Less(other Interval[I, T]) bool {
	if iv.Start != other.Start {
		return iv.Start < other.Start
	}
	return iv.End < other.End
}

func compareIntervals[I Unsigned, T any](a, b Interval[I, T]) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.End, b.End)
}

// Overlapper is the common contract shared by AIList and BITS: build once
// from an owned slice of intervals, then answer overlap queries against
// it. Both implementations are immutable and safe for concurrent read-only
// use once built.
type Overlapper[I Unsigned, T any] interface {
	// Find returns every stored interval whose range overlaps the
	// half-open query [start, end). An empty query range (start >= end)
	// always returns nil. Result order is implementation-defined.
	Find(start, end I) []Interval[I, T]

	// FindIter is the lazy variant of Find: callers may stop ranging over
	// the returned sequence early without paying for unconsumed hits.
	FindIter(start, end I) func(yield func(Interval[I, T]) bool)

	// Len reports the number of intervals the engine was built from.
	Len() int
}
