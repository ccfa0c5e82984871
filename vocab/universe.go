// Package vocab implements Universe, the insertion-ordered bidirectional
// vocabulary of region strings that backs the tokenizer. Ported from
// gtars-tokenizers/src/universe/mod.rs.
package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/databio/gtars-go/internal/ioutil"
	"github.com/grailbio/base/log"
)

// Universe is an insertion-ordered vocabulary: region strings on one side,
// dense integer ids on the other. Ids are assigned in strictly increasing
// order starting at 0. If SpecialTokens is non-empty, those entries occupy
// the tail of Regions. A Universe is immutable once built; "updating" it
// (AddToken, AddSpecialTokens) returns mutations on the same value only
// because Go lacks persistent collections — callers that need sharing
// across goroutines should treat a built Universe as read-only.
type Universe struct {
	Regions       []string
	RegionToID    map[string]uint32
	IDToRegion    map[uint32]string
	Names         map[string]string  // optional; nil unless the source had a name column
	Scores        map[string]float64 // optional; nil unless the source had a score column
	SpecialTokens []string           // optional; nil until AddSpecialTokens is called
}

// New returns an empty Universe ready to receive tokens.
func New() *Universe {
	return &Universe{
		RegionToID: make(map[string]uint32),
		IDToRegion: make(map[uint32]string),
	}
}

// AddToken appends region with id Len(). region must not already be
// present; callers that need that invariant checked should call Contains
// first.
func (u *Universe) AddToken(region string) {
	id := uint32(len(u.Regions))
	u.RegionToID[region] = id
	u.IDToRegion[id] = region
	u.Regions = append(u.Regions, region)
}

// ID looks up a region string's id.
func (u *Universe) ID(region string) (uint32, bool) {
	id, ok := u.RegionToID[region]
	return id, ok
}

// Token looks up the region string for an id.
func (u *Universe) Token(id uint32) (string, bool) {
	s, ok := u.IDToRegion[id]
	return s, ok
}

// Contains reports whether region is already registered.
func (u *Universe) Contains(region string) bool {
	_, ok := u.RegionToID[region]
	return ok
}

// Len reports the number of registered entries, special tokens included.
func (u *Universe) Len() int { return len(u.Regions) }

// IsEmpty reports whether the universe has no entries.
func (u *Universe) IsEmpty() bool { return len(u.Regions) == 0 }

// AddSpecialTokens appends the seven reserved literals, in the fixed order
// unk, pad, mask, cls, eos, bos, sep. It is an error to call this on a
// universe that already has special tokens registered.
func (u *Universe) AddSpecialTokens(st SpecialTokens) error {
	if u.SpecialTokens != nil {
		return fmt.Errorf("vocab: special tokens already registered")
	}
	values := map[string]string{
		"unk": st.Unk, "pad": st.Pad, "mask": st.Mask, "cls": st.Cls,
		"eos": st.Eos, "bos": st.Bos, "sep": st.Sep,
	}
	ordered := make([]string, 0, len(orderedNames))
	for _, name := range orderedNames {
		tok := values[name]
		if u.Contains(tok) {
			return fmt.Errorf("vocab: special token %q (%s) collides with an existing entry", tok, name)
		}
		ordered = append(ordered, tok)
	}
	u.SpecialTokens = ordered
	for _, tok := range ordered {
		u.AddToken(tok)
	}
	return nil
}

// ParseError reports a malformed universe content line.
type ParseError struct {
	Line int
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vocab: malformed universe line %d: %q", e.Line, e.Text)
}

// NewFromBED builds a Universe from a BED-like universe file (plain or
// gzip-compressed, auto-detected by magic bytes). A 3-column file builds
// an unscored universe, one entry per line; a 5-or-more-column file
// builds a scored universe (column 4 is name, column 5 is score). Mixed
// arity within one file is rejected.
func NewFromBED(path string) (*Universe, error) {
	r, closer, err := ioutil.DynamicReader(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return newFromBEDReader(r)
}

func newFromBEDReader(r io.Reader) (*Universe, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	u := New()
	arity := 0 // 0 = undetermined, 3 or 5 once seen
	scoreMap := make(map[string]float64)
	nameMap := make(map[string]string)
	totBases := 0
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			fields = strings.Fields(line)
		}
		if len(fields) == 3 {
			if arity == 0 {
				arity = 3
			} else if arity != 3 {
				return nil, &ParseError{Line: lineNo, Text: line}
			}
			region, start, end, err := regionString(fields)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Text: line}
			}
			u.AddToken(region)
			totBases += int(end - start)
			continue
		}
		if len(fields) >= 5 {
			if arity == 0 {
				arity = 5
			} else if arity != 5 {
				return nil, &ParseError{Line: lineNo, Text: line}
			}
			region, start, end, err := regionString(fields)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Text: line}
			}
			score, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Text: line}
			}
			u.AddToken(region)
			nameMap[region] = fields[3]
			scoreMap[region] = score
			totBases += int(end - start)
			continue
		}
		return nil, &ParseError{Line: lineNo, Text: line}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if arity == 5 {
		u.Names = nameMap
		u.Scores = scoreMap
	}
	log.Printf("universe loaded, %d region(s), %d base(s) covered", u.Len(), totBases)
	return u, nil
}

func regionString(fields []string) (region string, start, end uint64, err error) {
	start, err = strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return "", 0, 0, err
	}
	end, err = strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return "", 0, 0, err
	}
	if end < start {
		return "", 0, 0, fmt.Errorf("end before start")
	}
	return fmt.Sprintf("%s:%d-%d", fields[0], start, end), start, end, nil
}
