package fragment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/databio/gtars-go/tokenize"
)

func writeUniverse(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "universe.bed")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeFragments(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseLineRequiresReadSupportColumn(t *testing.T) {
	ln, err := ParseLine("chr1\t10\t20\tAACCGGTT\t3")
	require.NoError(t, err)
	require.Equal(t, Line{Chr: "chr1", Start: 10, End: 20, Barcode: "AACCGGTT", ReadSupport: "3"}, ln)
}

func TestParseLineRejectsTooFewColumns(t *testing.T) {
	_, err := ParseLine("chr1\t10\t20\tAACCGGTT")
	require.Error(t, err, "read_support is a required fifth column")
}

func TestScanFileSkipsCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := writeFragments(t, dir, "frags.tsv", "# header\n\nchr1\t10\t20\tBC1\t2\n")

	lines, err := ScanFile(path)
	require.NoError(t, err)
	require.Equal(t, []Line{{Chr: "chr1", Start: 10, End: 20, Barcode: "BC1", ReadSupport: "2"}}, lines)
}

func TestTokenizeFileIgnoresReadSupportValue(t *testing.T) {
	universe := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := tokenize.FromBED(universe)
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeFragments(t, dir, "frags.tsv", "chr1\t10\t20\tBC1\t3\nchr1\t1000\t1001\tBC1\t1\n")

	out, err := TokenizeFile(path, tok)
	require.NoError(t, err)
	require.Len(t, out["BC1"], 1, "the zero-hit fragment contributes nothing, read_support is not a multiplier")
}

func TestCountByBarcodeCountsOnePerFragmentHit(t *testing.T) {
	universe := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := tokenize.FromBED(universe)
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeFragments(t, dir, "frags.tsv", "chr1\t10\t20\tBC1\t2\nchr1\t30\t40\tBC1\t3\n")

	counts, err := CountByBarcode(path, tok)
	require.NoError(t, err)

	id, ok := tok.ConvertTokenToID("chr1:0-100")
	require.True(t, ok)
	require.Equal(t, uint32(2), counts["BC1"][id])
}

func TestCountByBarcodeNeverMaterializesZeroCounts(t *testing.T) {
	universe := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := tokenize.FromBED(universe)
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeFragments(t, dir, "frags.tsv", "chr1\t1000\t1001\tBC1\t1\n")

	counts, err := CountByBarcode(path, tok)
	require.NoError(t, err)
	_, ok := counts["BC1"]
	require.False(t, ok)
}

func TestTokenizeDirMergesAcrossFiles(t *testing.T) {
	universe := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := tokenize.FromBED(universe)
	require.NoError(t, err)

	dir := t.TempDir()
	writeFragments(t, dir, "a.tsv", "chr1\t10\t20\tBC1\t1\n")
	writeFragments(t, dir, "b.tsv", "chr1\t30\t40\tBC1\t1\n")

	out, err := TokenizeDir(dir, tok)
	require.NoError(t, err)
	require.Len(t, out["BC1"], 2)
}

func TestCountDirMergesCommutatively(t *testing.T) {
	universe := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := tokenize.FromBED(universe)
	require.NoError(t, err)

	dir := t.TempDir()
	writeFragments(t, dir, "a.tsv", "chr1\t10\t20\tBC1\t2\n")
	writeFragments(t, dir, "b.tsv", "chr1\t30\t40\tBC1\t3\n")

	counts, err := CountDir(dir, tok)
	require.NoError(t, err)

	id, ok := tok.ConvertTokenToID("chr1:0-100")
	require.True(t, ok)
	require.Equal(t, uint32(2), counts["BC1"][id])
}
