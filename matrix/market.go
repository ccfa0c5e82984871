// Package matrix writes (and, as a supplement, reads) sparse barcode-by-
// feature count matrices in the Matrix Market coordinate format. Ported
// 1:1 from gtars-scoring/src/matrix_market.rs::write_sparse_counts_to_mtx.
package matrix

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const marketHeader = "%%MatrixMarket matrix coordinate integer general"

type triplet struct {
	row, col int
	value    uint32
}

// WriteSparseCounts writes barcodeCounts (barcode -> feature id -> count)
// to three gzip-compressed files under outputPrefix:
//
//	{prefix}_matrix.mtx.gz    sparse (row, col, value) triplets, 1-indexed
//	{prefix}_barcodes.tsv.gz  one barcode per line, sorted, row order
//	{prefix}_features.tsv.gz  "peak_<i>" for i in [0, numFeatures)
//
// Triplets are sorted by (row, col) for Matrix Market compliance and to
// match what scipy and other sparse-matrix readers expect. Rows never
// materialize a dense matrix: only present (barcode, id) pairs are
// written.
func WriteSparseCounts(barcodeCounts map[string]map[uint32]uint32, numFeatures int, outputPrefix string) error {
	barcodes := make([]string, 0, len(barcodeCounts))
	for b := range barcodeCounts {
		barcodes = append(barcodes, b)
	}
	sort.Strings(barcodes)

	var triplets []triplet
	for row, barcode := range barcodes {
		for id, count := range barcodeCounts[barcode] {
			triplets = append(triplets, triplet{row: row, col: int(id), value: count})
		}
	}
	sort.Slice(triplets, func(i, j int) bool {
		if triplets[i].row != triplets[j].row {
			return triplets[i].row < triplets[j].row
		}
		return triplets[i].col < triplets[j].col
	})

	if err := writeMTX(outputPrefix+"_matrix.mtx.gz", len(barcodes), numFeatures, triplets); err != nil {
		return err
	}
	if err := writeLines(outputPrefix+"_barcodes.tsv.gz", barcodes); err != nil {
		return err
	}
	features := make([]string, numFeatures)
	for i := range features {
		features[i] = fmt.Sprintf("peak_%d", i)
	}
	return writeLines(outputPrefix+"_features.tsv.gz", features)
}

func writeMTX(path string, numBarcodes, numFeatures int, triplets []triplet) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "matrix: creating %s", path)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	bw := bufio.NewWriter(gz)

	if _, err := fmt.Fprintln(bw, marketHeader); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "%d %d %d\n", numBarcodes, numFeatures, len(triplets)); err != nil {
		return err
	}
	for _, t := range triplets {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", t.row+1, t.col+1, t.value); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return gz.Close()
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "matrix: creating %s", path)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	bw := bufio.NewWriter(gz)
	for _, line := range lines {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return gz.Close()
}

// Market is the decoded form of a WriteSparseCounts triplet written to
// *_matrix.mtx.gz: dimensions plus the sparse (row, col, value) entries,
// 0-indexed (the 1-indexing in the on-disk format is undone on read).
type Market struct {
	NumRows, NumCols int
	Entries          []Entry
}

// Entry is one 0-indexed (row, col, value) triplet.
type Entry struct {
	Row, Col int
	Value    uint32
}

// Result bundles a decoded Market with the barcode and feature labels read
// back from the accompanying .tsv.gz sidecars, in on-disk (row/column)
// order.
type Result struct {
	Market   Market
	Barcodes []string
	Features []string
}

// ToBarcodeCounts reconstructs the sparse barcode -> feature id -> count
// map WriteSparseCounts was given, the inverse of its row/col encoding.
func (r Result) ToBarcodeCounts() map[string]map[uint32]uint32 {
	out := make(map[string]map[uint32]uint32, len(r.Barcodes))
	for _, e := range r.Market.Entries {
		barcode := r.Barcodes[e.Row]
		counts, ok := out[barcode]
		if !ok {
			counts = make(map[uint32]uint32)
			out[barcode] = counts
		}
		counts[uint32(e.Col)] += e.Value
	}
	return out
}

// ReadMarketFiles reads back the three files WriteSparseCounts wrote,
// supplementing the write-only Rust original so the round-trip law
// ("write then read reproduces an equivalent sparse map") is directly
// testable.
func ReadMarketFiles(inputPrefix string) (Result, error) {
	barcodes, err := readLines(inputPrefix + "_barcodes.tsv.gz")
	if err != nil {
		return Result{}, err
	}
	features, err := readLines(inputPrefix + "_features.tsv.gz")
	if err != nil {
		return Result{}, err
	}
	mkt, err := readMTX(inputPrefix + "_matrix.mtx.gz")
	if err != nil {
		return Result{}, err
	}
	return Result{Market: mkt, Barcodes: barcodes, Features: features}, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "matrix: opening %s", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "matrix: opening gzip stream %s", path)
	}
	defer gz.Close()

	var lines []string
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func readMTX(path string) (Market, error) {
	f, err := os.Open(path)
	if err != nil {
		return Market{}, errors.Wrapf(err, "matrix: opening %s", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return Market{}, errors.Wrapf(err, "matrix: opening gzip stream %s", path)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	if !scanner.Scan() {
		return Market{}, errors.Errorf("matrix: %s: missing header line", path)
	}
	if strings.TrimSpace(scanner.Text()) != marketHeader {
		return Market{}, errors.Errorf("matrix: %s: unexpected header %q", path, scanner.Text())
	}

	if !scanner.Scan() {
		return Market{}, errors.Errorf("matrix: %s: missing dimension line", path)
	}
	dims := strings.Fields(scanner.Text())
	if len(dims) != 3 {
		return Market{}, errors.Errorf("matrix: %s: malformed dimension line %q", path, scanner.Text())
	}
	numRows, err := strconv.Atoi(dims[0])
	if err != nil {
		return Market{}, errors.Wrapf(err, "matrix: %s: invalid row count", path)
	}
	numCols, err := strconv.Atoi(dims[1])
	if err != nil {
		return Market{}, errors.Wrapf(err, "matrix: %s: invalid column count", path)
	}
	numEntries, err := strconv.Atoi(dims[2])
	if err != nil {
		return Market{}, errors.Wrapf(err, "matrix: %s: invalid entry count", path)
	}

	entries := make([]Entry, 0, numEntries)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			return Market{}, errors.Errorf("matrix: %s: malformed triplet %q", path, scanner.Text())
		}
		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return Market{}, errors.Wrapf(err, "matrix: %s: invalid row", path)
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return Market{}, errors.Wrapf(err, "matrix: %s: invalid col", path)
		}
		value, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return Market{}, errors.Wrapf(err, "matrix: %s: invalid value", path)
		}
		entries = append(entries, Entry{Row: row - 1, Col: col - 1, Value: uint32(value)})
	}
	if err := scanner.Err(); err != nil {
		return Market{}, err
	}
	if len(entries) != numEntries {
		return Market{}, errors.Errorf("matrix: %s: header promised %d entries, found %d", path, numEntries, len(entries))
	}

	return Market{NumRows: numRows, NumCols: numCols, Entries: entries}, nil
}
