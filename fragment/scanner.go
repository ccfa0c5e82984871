// Package fragment scans ATAC-seq-style fragment files (chr, start, end,
// barcode, read_support) and aggregates their overlaps against a
// tokenize.Tokenizer, either into a per-barcode token stream or a sparse
// per-barcode feature count. Ported from
// gtars-tokenizers/src/utils/fragments.rs (parse_fragment_line,
// tokenize_fragment_file, count_fragments_by_barcode).
package fragment

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/databio/gtars-go/internal/ioutil"
	"github.com/databio/gtars-go/region"
	"github.com/databio/gtars-go/tokenize"
)

// Line is one parsed fragment record. ReadSupport is validated for presence
// only: per spec.md §4.7 it is "ignored by the core" for counting purposes.
type Line struct {
	Chr         string
	Start, End  uint32
	Barcode     string
	ReadSupport string
}

// ParseError reports a malformed fragment file line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return "fragment: line " + strconv.Itoa(e.Line) + ": " + e.Msg
}

// ParseLine parses one fragment line: chr, start, end, barcode, and
// read_support, the five whitespace-separated columns a fragment file
// carries (any columns beyond the fifth are ignored). Per spec, the
// read_support column is only validated for presence; its value is not
// interpreted by the core.
func ParseLine(line string) (Line, error) {
	fields := ioutil.Fields(line, 5)
	if len(fields) < 5 {
		return Line{}, errors.New("fewer than 5 columns")
	}
	start, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return Line{}, errors.Wrap(err, "invalid start")
	}
	end, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return Line{}, errors.Wrap(err, "invalid end")
	}
	if end < start {
		return Line{}, errors.New("end before start")
	}
	return Line{
		Chr:         fields[0],
		Start:       uint32(start),
		End:         uint32(end),
		Barcode:     fields[3],
		ReadSupport: fields[4],
	}, nil
}

// ScanFile parses every content line of a plain or gzip-compressed fragment
// file, in file order. Blank lines and '#'-comments are skipped.
func ScanFile(path string) ([]Line, error) {
	r, closer, err := ioutil.DynamicReader(path)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return scan(r)
}

func scan(r io.Reader) ([]Line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []Line
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if text == "" || text[0] == '#' {
			continue
		}
		parsed, err := ParseLine(text)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Msg: err.Error()}
		}
		lines = append(lines, parsed)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// TokenizeFile scans one fragment file and returns, per barcode, the
// concatenated token ids its fragments overlap, in fragment order.
// Fragments with zero hits contribute nothing.
func TokenizeFile(path string, tok *tokenize.Tokenizer) (map[string][]uint32, error) {
	lines, err := ScanFile(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]uint32)
	for _, ln := range lines {
		ids, err := tok.Encode([]region.Region{{Chr: ln.Chr, Start: ln.Start, End: ln.End}})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			continue
		}
		out[ln.Barcode] = append(out[ln.Barcode], ids...)
	}
	log.Printf("fragment: tokenized %s, %d barcode(s)", path, len(out))
	return out, nil
}

// CountByBarcode scans one fragment file and returns a sparse
// barcode -> (feature id -> count) map; each fragment-hit pair increments
// its count by one. Barcode/id pairs with zero count are never
// materialized.
func CountByBarcode(path string, tok *tokenize.Tokenizer) (map[string]map[uint32]uint32, error) {
	lines, err := ScanFile(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[uint32]uint32)
	for _, ln := range lines {
		ids, err := tok.Encode([]region.Region{{Chr: ln.Chr, Start: ln.Start, End: ln.End}})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			continue
		}
		counts, ok := out[ln.Barcode]
		if !ok {
			counts = make(map[uint32]uint32)
			out[ln.Barcode] = counts
		}
		for _, id := range ids {
			counts[id]++
		}
	}
	log.Printf("fragment: counted %s, %d barcode(s)", path, len(out))
	return out, nil
}

// listFragmentFiles returns the fragment files under dir, sorted for
// deterministic merge order. A plain file path is returned as a
// single-element list.
func listFragmentFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".gz") {
			name = strings.TrimSuffix(name, ".gz")
		}
		if filepath.Ext(name) == "" {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// runPerFile fans work out across a worker pool bounded by GOMAXPROCS,
// the same channel-plus-WaitGroup shape ivl.Build uses to build one engine
// per chromosome; fn's results are collected in the same order as files.
func runPerFile[T any](files []string, fn func(string) (T, error)) ([]T, error) {
	results := make([]T, len(files))
	errs := make([]error, len(files))

	type job struct {
		idx  int
		file string
	}
	jobs := make(chan job, len(files))
	for i, f := range files {
		jobs <- job{i, f}
	}
	close(jobs)

	workers := runtime.GOMAXPROCS(0)
	if workers > len(files) {
		workers = len(files)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx], errs[j.idx] = fn(j.file)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// TokenizeDir tokenizes every fragment file under path (path itself, if it
// names a single file) and merges the per-file barcode->ids maps by
// per-barcode append, file list order, matching TokenizeFile's semantics
// for a lone file.
func TokenizeDir(path string, tok *tokenize.Tokenizer) (map[string][]uint32, error) {
	files, err := listFragmentFiles(path)
	if err != nil {
		return nil, err
	}
	perFile, err := runPerFile(files, func(f string) (map[string][]uint32, error) {
		return TokenizeFile(f, tok)
	})
	if err != nil {
		return nil, err
	}

	merged := make(map[string][]uint32)
	for _, m := range perFile {
		for barcode, ids := range m {
			merged[barcode] = append(merged[barcode], ids...)
		}
	}
	return merged, nil
}

// CountDir counts every fragment file under path and merges the per-file
// sparse counts by per-(barcode,id) sum, commutative regardless of file
// processing order.
func CountDir(path string, tok *tokenize.Tokenizer) (map[string]map[uint32]uint32, error) {
	files, err := listFragmentFiles(path)
	if err != nil {
		return nil, err
	}
	perFile, err := runPerFile(files, func(f string) (map[string]map[uint32]uint32, error) {
		return CountByBarcode(f, tok)
	})
	if err != nil {
		return nil, err
	}

	merged := make(map[string]map[uint32]uint32)
	for _, m := range perFile {
		for barcode, counts := range m {
			dst, ok := merged[barcode]
			if !ok {
				dst = make(map[uint32]uint32)
				merged[barcode] = dst
			}
			for id, c := range counts {
				dst[id] += c
			}
		}
	}
	return merged, nil
}
