package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegionStringRoundTrip(t *testing.T) {
	r := Region{Chr: "chr1", Start: 100, End: 200}
	require.Equal(t, "chr1:100-200", r.String())

	parsed, err := ParseRegionString(r.String())
	require.NoError(t, err)
	require.Equal(t, r, parsed)
}

func TestParseRegionStringLenientForms(t *testing.T) {
	r, err := ParseRegionString("chr2:50")
	require.NoError(t, err)
	require.Equal(t, Region{Chr: "chr2", Start: 50, End: 51}, r)

	r, err = ParseRegionString("chr3")
	require.NoError(t, err)
	require.Equal(t, Region{Chr: "chr3"}, r)

	_, err = ParseRegionString("")
	require.Error(t, err)

	_, err = ParseRegionString("chr1:200-100")
	require.Error(t, err, "end before start is rejected")
}

func TestEmpty(t *testing.T) {
	require.True(t, Region{Chr: "chr1", Start: 10, End: 10}.Empty())
	require.True(t, Region{Chr: "chr1", Start: 10, End: 5}.Empty())
	require.False(t, Region{Chr: "chr1", Start: 10, End: 11}.Empty())
}

func TestReadBEDSkipsCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regions.bed")
	content := "# comment\n\nchr1\t10\t20\nchr2\t30\t40\textra\tcols\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	set, err := ReadBED(path)
	require.NoError(t, err)
	require.Equal(t, Set{
		{Chr: "chr1", Start: 10, End: 20},
		{Chr: "chr2", Start: 30, End: 40, Rest: "extra\tcols"},
	}, set)
}

func TestReadBEDRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bed")
	require.NoError(t, os.WriteFile(path, []byte("chr1\t20\t10\n"), 0o644))

	_, err := ReadBED(path)
	require.Error(t, err)
	var lineErr *ParseLineError
	require.ErrorAs(t, err, &lineErr)
	require.Equal(t, 1, lineErr.Line)
}

func TestWriteBEDThenReadBEDIsIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bed")

	set := Set{
		{Chr: "chr1", Start: 0, End: 100},
		{Chr: "chr2", Start: 50, End: 75, Rest: "name1"},
	}
	require.NoError(t, set.WriteBED(path))

	got, err := ReadBED(path)
	require.NoError(t, err)
	require.Equal(t, set, got)
}

func TestWriteBEDGzThenReadBEDIsIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bed.gz")

	set := Set{{Chr: "chrX", Start: 1, End: 2}}
	require.NoError(t, set.WriteBEDGz(path))

	got, err := ReadBED(path)
	require.NoError(t, err)
	require.Equal(t, set, got)
}
