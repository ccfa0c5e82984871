package matrix

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteSparseCountsThenReadMarketFilesRoundTrips(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "out")

	counts := map[string]map[uint32]uint32{
		"BC2": {0: 5, 2: 1},
		"BC1": {1: 3},
	}

	require.NoError(t, WriteSparseCounts(counts, 3, prefix))

	result, err := ReadMarketFiles(prefix)
	require.NoError(t, err)

	require.Equal(t, []string{"BC1", "BC2"}, result.Barcodes, "barcodes are sorted, deterministic row order")
	require.Equal(t, []string{"peak_0", "peak_1", "peak_2"}, result.Features)
	require.Equal(t, 2, result.Market.NumRows)
	require.Equal(t, 3, result.Market.NumCols)
	require.Len(t, result.Market.Entries, 3)

	require.Equal(t, counts, result.ToBarcodeCounts())
}

func TestWriteSparseCountsTripletsSortedByRowThenCol(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "out")

	counts := map[string]map[uint32]uint32{
		"BC1": {5: 1, 1: 2, 3: 3},
	}
	require.NoError(t, WriteSparseCounts(counts, 10, prefix))

	result, err := ReadMarketFiles(prefix)
	require.NoError(t, err)

	require.Len(t, result.Market.Entries, 3)
	for i := 1; i < len(result.Market.Entries); i++ {
		prev, cur := result.Market.Entries[i-1], result.Market.Entries[i]
		require.True(t, prev.Row < cur.Row || (prev.Row == cur.Row && prev.Col < cur.Col))
	}
}

func TestWriteSparseCountsEmptyInput(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "empty")

	require.NoError(t, WriteSparseCounts(map[string]map[uint32]uint32{}, 0, prefix))

	result, err := ReadMarketFiles(prefix)
	require.NoError(t, err)
	require.Empty(t, result.Barcodes)
	require.Empty(t, result.Features)
	require.Empty(t, result.Market.Entries)
}
