// Package region defines the Region value type: a half-open genomic
// interval tagged with a chromosome name, plus the small set of BED-file
// I/O helpers built on top of it.
package region

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/databio/gtars-go/internal/ioutil"
)

// Region is a 0-based, half-open interval [Start, End) on chromosome Chr.
// Rest preserves any BED columns beyond the third, verbatim. A Region is
// immutable once constructed.
type Region struct {
	Chr   string
	Start uint32
	End   uint32
	Rest  string // empty when there were no extra columns
}

// String renders the canonical "chr:start-end" form used as a universe
// vocabulary entry.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chr, r.Start, r.End)
}

// Empty reports whether the region has zero (or negative) length. Used as
// a query range, such a region gets no hits from the overlap engines.
func (r Region) Empty() bool {
	return r.End <= r.Start
}

// ParseRegionString parses the canonical "chr:start-end" rendering (and,
// leniently, a bare "chr" or "chr:pos" form) back into a Region. It is the
// inverse of String for the two-field case.
func ParseRegionString(s string) (Region, error) {
	if s == "" {
		return Region{}, fmt.Errorf("region: empty region string")
	}
	colon := strings.IndexByte(s, ':')
	if colon == -1 {
		return Region{Chr: s}, nil
	}
	if colon == 0 {
		return Region{}, fmt.Errorf("region: empty chromosome in %q", s)
	}
	chr := s[:colon]
	rng := s[colon+1:]
	dash := strings.IndexByte(rng, '-')
	if dash == -1 {
		pos, err := strconv.ParseUint(rng, 10, 32)
		if err != nil {
			return Region{}, fmt.Errorf("region: invalid position in %q: %w", s, err)
		}
		return Region{Chr: chr, Start: uint32(pos), End: uint32(pos) + 1}, nil
	}
	start, err := strconv.ParseUint(rng[:dash], 10, 32)
	if err != nil {
		return Region{}, fmt.Errorf("region: invalid start in %q: %w", s, err)
	}
	end, err := strconv.ParseUint(rng[dash+1:], 10, 32)
	if err != nil {
		return Region{}, fmt.Errorf("region: invalid end in %q: %w", s, err)
	}
	if end < start {
		return Region{}, fmt.Errorf("region: end before start in %q", s)
	}
	return Region{Chr: chr, Start: uint32(start), End: uint32(end)}, nil
}

// Set is an ordered collection of Regions, e.g. the contents of a BED file,
// preserved in file order.
type Set []Region

// ParseLineError reports a malformed BED content line, carrying the
// originating line number the way the universe and fragment loaders do.
type ParseLineError struct {
	Line int
	Msg  string
}

func (e *ParseLineError) Error() string {
	return fmt.Sprintf("region: line %d: %s", e.Line, e.Msg)
}

// ReadBED loads a Set from a plain-text or gzip-compressed BED-like file.
// Lines beginning with '#' are comments. Each content line must have at
// least 3 whitespace-separated columns; any columns beyond the third are
// kept in Rest, joined by single tabs.
func ReadBED(path string) (Set, error) {
	r, closer, err := ioutil.DynamicReader(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return readBED(r)
}

func readBED(r io.Reader) (Set, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var set Set
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, &ParseLineError{Line: lineNo, Msg: "fewer than 3 columns"}
		}
		start, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, &ParseLineError{Line: lineNo, Msg: "invalid start: " + err.Error()}
		}
		end, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, &ParseLineError{Line: lineNo, Msg: "invalid end: " + err.Error()}
		}
		if end < start {
			return nil, &ParseLineError{Line: lineNo, Msg: "end before start"}
		}
		reg := Region{Chr: fields[0], Start: uint32(start), End: uint32(end)}
		if len(fields) > 3 {
			reg.Rest = strings.Join(fields[3:], "\t")
		}
		set = append(set, reg)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// WriteBED writes the set to path as a plain-text BED file, one region per
// line, in set order.
func (s Set) WriteBED(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.writeBED(f)
}

// WriteBEDGz writes the set to path as a gzip-compressed BED file.
func (s Set) WriteBEDGz(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	if err := s.writeBED(gz); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func (s Set) writeBED(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, r := range s {
		line := fmt.Sprintf("%s\t%d\t%d", r.Chr, r.Start, r.End)
		if r.Rest != "" {
			line += "\t" + r.Rest
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}
