package ivl

import (
	"runtime"
	"sync"
)

// Kind selects which Overlapper implementation MultiChromOverlapper builds
// per chromosome.
type Kind int

const (
	// KindBITS selects the BITS engine (default; favors sequential queries).
	KindBITS Kind = iota
	// KindAIList selects the AIList engine (favors high-coverage data).
	KindAIList
)

func build(kind Kind, intervals []Interval[uint32, uint32]) Overlapper[uint32, uint32] {
	switch kind {
	case KindAIList:
		return BuildAIList(intervals)
	default:
		return BuildBITS(intervals)
	}
}

// MultiChromOverlapper dispatches overlap queries to a per-chromosome
// Overlapper. Chromosome keys are stored and compared verbatim: "chr1" and
// "1" are different keys, and an unrecognized chromosome yields an empty
// result rather than an error.
type MultiChromOverlapper struct {
	byChrom map[string]Overlapper[uint32, uint32]
}

// Build partitions the given intervals by chromosome and builds one engine
// of the requested kind per chromosome. Each chromosome's engine is built
// on its own worker, bounded by GOMAXPROCS, the same channel-plus-WaitGroup
// shape grailbio/bio's shard writers use (encoding/converter.ConvertToBAM).
func Build(byChrom map[string][]Interval[uint32, uint32], kind Kind) *MultiChromOverlapper {
	m := &MultiChromOverlapper{byChrom: make(map[string]Overlapper[uint32, uint32], len(byChrom))}
	if len(byChrom) == 0 {
		return m
	}

	type job struct {
		chr       string
		intervals []Interval[uint32, uint32]
	}
	jobs := make(chan job, len(byChrom))
	for chr, ivs := range byChrom {
		jobs <- job{chr, ivs}
	}
	close(jobs)

	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := runtime.GOMAXPROCS(0)
	if workers > len(byChrom) {
		workers = len(byChrom)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				eng := build(kind, j.intervals)
				mu.Lock()
				m.byChrom[j.chr] = eng
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return m
}

// Find dispatches to chr's engine, returning nil (not an error) for an
// unrecognized chromosome.
func (m *MultiChromOverlapper) Find(chr string, start, end uint32) []Interval[uint32, uint32] {
	eng, ok := m.byChrom[chr]
	if !ok {
		return nil
	}
	return eng.Find(start, end)
}

// ChromRegion is the minimal (chromosome, half-open range) pair
// MultiChromOverlapper needs to stream queries across a whole region set.
type ChromRegion struct {
	Chr        string
	Start, End uint32
}

// FindAll streams (query index, hit) pairs across every region, in region
// order, dispatching each region to its chromosome's engine and skipping
// unrecognized chromosomes silently.
func (m *MultiChromOverlapper) FindAll(regions []ChromRegion) func(yield func(int, Interval[uint32, uint32]) bool) {
	return func(yield func(int, Interval[uint32, uint32]) bool) {
		for i, r := range regions {
			eng, ok := m.byChrom[r.Chr]
			if !ok {
				continue
			}
			cont := true
			eng.FindIter(r.Start, r.End)(func(iv Interval[uint32, uint32]) bool {
				cont = yield(i, iv)
				return cont
			})
			if !cont {
				return
			}
		}
	}
}

// Len reports the number of chromosomes with a built engine.
func (m *MultiChromOverlapper) Len() int { return len(m.byChrom) }
