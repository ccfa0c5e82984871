package tokenize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/databio/gtars-go/region"
)

func writeUniverse(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "universe.bed")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFromBEDTokenizesOverlappingRegions(t *testing.T) {
	path := writeUniverse(t, "chr1\t0\t100\nchr1\t200\t300\nchr2\t0\t50\n")

	tok, err := FromBED(path)
	require.NoError(t, err)
	require.Equal(t, 10, tok.GetVocabSize()) // 3 regions + 7 special tokens

	toks, err := tok.Tokenize([]region.Region{
		{Chr: "chr1", Start: 10, End: 20},
		{Chr: "chr1", Start: 250, End: 260},
	})
	require.NoError(t, err)
	require.Len(t, toks, 2)
	require.Equal(t, "chr1:0-100", toks[0].Value)
	require.Equal(t, "chr1:200-300", toks[1].Value)
}

func TestFromBEDSurfacesMalformedUniverseLineAsParseError(t *testing.T) {
	path := writeUniverse(t, "chr1\t0\t100\nchr1\t200\t100\n")

	_, err := FromBED(path)
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 2, parseErr.Line)
}

func TestTokenizeEmitsNothingForZeroHits(t *testing.T) {
	path := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := FromBED(path)
	require.NoError(t, err)

	toks, err := tok.Tokenize([]region.Region{
		{Chr: "chr1", Start: 1000, End: 2000}, // no overlap
		{Chr: "chrZ", Start: 0, End: 10},       // unknown chromosome
	})
	require.NoError(t, err)
	require.Empty(t, toks)
}

func TestTokenizeStableSortsByDescendingScore(t *testing.T) {
	path := writeUniverse(t, "chr1\t0\t50\tlow\t0.1\nchr1\t50\t100\thigh\t0.9\n")
	tok, err := FromBED(path)
	require.NoError(t, err)

	toks, err := tok.Tokenize([]region.Region{{Chr: "chr1", Start: 0, End: 100}})
	require.NoError(t, err)
	require.Len(t, toks, 2)
	require.Equal(t, "chr1:50-100", toks[0].Value, "higher-scored entry sorts first")
	require.Equal(t, "chr1:0-50", toks[1].Value)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	path := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := FromBED(path)
	require.NoError(t, err)

	ids, err := tok.Encode([]region.Region{{Chr: "chr1", Start: 10, End: 20}})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	decoded := tok.Decode(ids)
	require.Equal(t, []string{"chr1:0-100"}, decoded)
}

func TestDecodeUnknownIDFallsBackToUnk(t *testing.T) {
	path := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := FromBED(path)
	require.NoError(t, err)

	decoded := tok.Decode([]uint32{9999})
	require.Equal(t, []string{tok.UnkToken()}, decoded)
}

func TestSpecialTokenAccessors(t *testing.T) {
	path := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := FromBED(path)
	require.NoError(t, err)

	id, ok := tok.UnkID()
	require.True(t, ok)
	value, ok := tok.ConvertIDToToken(id)
	require.True(t, ok)
	require.Equal(t, tok.UnkToken(), value)
}

func TestFromConfigAppliesSpecialTokenOverride(t *testing.T) {
	universePath := writeUniverse(t, "chr1\t0\t100\n")
	dir := filepath.Dir(universePath)
	cfgPath := filepath.Join(dir, "config.toml")

	cfg := `
universe = "` + universePath + `"
tokenizer_type = "ailist"

[[special_tokens]]
name = "pad"
token = "[PAD]"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	tok, err := FromConfig(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "[PAD]", tok.PadToken())
}

func TestFromConfigRejectsUnknownSpecialTokenSlot(t *testing.T) {
	universePath := writeUniverse(t, "chr1\t0\t100\n")
	dir := filepath.Dir(universePath)
	cfgPath := filepath.Join(dir, "config.toml")

	cfg := `
universe = "` + universePath + `"

[[special_tokens]]
name = "bogus"
token = "[X]"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	_, err := FromConfig(cfgPath)
	require.Error(t, err)
	var specialErr *ErrInvalidSpecialTokenConfig
	require.ErrorAs(t, err, &specialErr)
}

func TestFromConfigRejectsDuplicateSpecialTokenSlot(t *testing.T) {
	universePath := writeUniverse(t, "chr1\t0\t100\n")
	dir := filepath.Dir(universePath)
	cfgPath := filepath.Join(dir, "config.toml")

	cfg := `
universe = "` + universePath + `"

[[special_tokens]]
name = "pad"
token = "[PAD1]"

[[special_tokens]]
name = "pad"
token = "[PAD2]"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	_, err := FromConfig(cfgPath)
	require.Error(t, err)
	var specialErr *ErrInvalidSpecialTokenConfig
	require.ErrorAs(t, err, &specialErr)
}

func TestFromAutoDispatchesOnExtension(t *testing.T) {
	bedPath := writeUniverse(t, "chr1\t0\t100\n")
	tok, err := FromAuto(bedPath)
	require.NoError(t, err)
	require.Equal(t, 8, tok.GetVocabSize())

	_, err = FromAuto(bedPath + ".unknownext")
	require.Error(t, err)
}
