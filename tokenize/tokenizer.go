// Package tokenize composes a vocabulary (vocab.Universe) with an overlap
// engine (ivl.MultiChromOverlapper) to convert ordered lists of query
// regions into ordered lists of vocabulary tokens or ids. Ported from
// gtars-tokenizers (tokenizer construction, config handling) and
// gtars-tokenizers/src/utils/mod.rs (create_tokenize_core_from_universe).
package tokenize

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/databio/gtars-go/ivl"
	"github.com/databio/gtars-go/region"
	"github.com/databio/gtars-go/vocab"
)

// Token is a vocabulary entry together with its integer id.
type Token struct {
	Value string
	ID    uint32
}

// Tokenizer converts Regions to Tokens (and back) using a fixed vocabulary
// and overlap engine. A Tokenizer is immutable after construction and safe
// for concurrent use.
type Tokenizer struct {
	universe *vocab.Universe
	core     *ivl.MultiChromOverlapper
	special  vocab.SpecialTokens
}

// FromBED builds a Tokenizer directly from a BED-like universe file,
// attaching the default special tokens and a BITS overlap engine.
func FromBED(path string) (*Tokenizer, error) {
	return fromBED(path, vocab.DefaultSpecialTokens(), KindBits)
}

// FromConfig builds a Tokenizer from a TOML configuration file: the
// universe path, overlap engine choice, and any special token overrides.
func FromConfig(path string) (*Tokenizer, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	special := vocab.DefaultSpecialTokens()
	seen := make(map[string]bool, len(cfg.SpecialTokens))
	for _, ov := range cfg.SpecialTokens {
		name := strings.ToLower(ov.Name)
		if seen[name] {
			return nil, &ErrInvalidSpecialTokenConfig{Name: ov.Name}
		}
		seen[name] = true
		var ok bool
		special, ok = special.WithOverride(name, ov.Token)
		if !ok {
			return nil, &ErrInvalidSpecialTokenConfig{Name: ov.Name}
		}
	}

	kind := cfg.TokenizerType
	if kind == "" {
		kind = KindBits
	}
	return fromBED(cfg.Universe, special, kind)
}

// FromAuto infers the constructor to use from path's extension: ".toml"
// loads a config, ".bed"/".bed.gz" loads a universe directly with default
// special tokens.
func FromAuto(path string) (*Tokenizer, error) {
	switch classifyInput(path) {
	case inputToml:
		return FromConfig(path)
	case inputBed, inputBedGz:
		return FromBED(path)
	default:
		return nil, fmt.Errorf("tokenize: cannot infer tokenizer input type from %q", path)
	}
}

func fromBED(path string, special vocab.SpecialTokens, kind OverlapperKind) (*Tokenizer, error) {
	universe, err := vocab.NewFromBED(path)
	if err != nil {
		var parseErr *vocab.ParseError
		if errors.As(err, &parseErr) {
			return nil, &ParseError{Line: parseErr.Line, Msg: parseErr.Text}
		}
		return nil, &IOError{Cause: err}
	}
	if err := universe.AddSpecialTokens(special); err != nil {
		return nil, &IOError{Cause: err}
	}

	engineKind := ivl.KindBITS
	if kind == KindAIList {
		engineKind = ivl.KindAIList
	}

	byChrom := make(map[string][]ivl.Interval[uint32, uint32])
	for _, r := range universe.Regions {
		if universe.SpecialTokens != nil && contains(universe.SpecialTokens, r) {
			continue
		}
		reg, err := region.ParseRegionString(r)
		if err != nil {
			continue
		}
		id, _ := universe.ID(r)
		byChrom[reg.Chr] = append(byChrom[reg.Chr], ivl.Interval[uint32, uint32]{
			Start: reg.Start, End: reg.End, Val: id,
		})
	}

	return &Tokenizer{
		universe: universe,
		core:     ivl.Build(byChrom, engineKind),
		special:  special,
	}, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// Tokenize converts an ordered batch of query regions into the ordered
// list of tokens they overlap. Regions with zero hits, or on an
// unrecognized chromosome, contribute no tokens — this is not an error.
// If the underlying universe carries scores, the returned slice is
// stably sorted by descending score; otherwise tokens appear in region
// order, with per-region hits in engine order.
func (t *Tokenizer) Tokenize(regions []region.Region) ([]Token, error) {
	perRegion := t.dispatch(regions)

	var out []Token
	for _, toks := range perRegion {
		out = append(out, toks...)
	}

	if t.universe.Scores != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return t.universe.Scores[out[i].Value] > t.universe.Scores[out[j].Value]
		})
	}
	return out, nil
}

// dispatch looks up each region's overlap hits, splitting the batch across
// a worker pool of size GOMAXPROCS; each worker owns a disjoint slice of
// the output so no merge step or locking is needed afterward.
func (t *Tokenizer) dispatch(regions []region.Region) [][]Token {
	perRegion := make([][]Token, len(regions))
	if len(regions) == 0 {
		return perRegion
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(regions) {
		workers = len(regions)
	}
	chunk := (len(regions) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(regions) {
			hi = len(regions)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				perRegion[i] = t.tokenizeOne(regions[i])
			}
		}(lo, hi)
	}
	wg.Wait()
	return perRegion
}

func (t *Tokenizer) tokenizeOne(r region.Region) []Token {
	hits := t.core.Find(r.Chr, r.Start, r.End)
	if len(hits) == 0 {
		return nil
	}
	toks := make([]Token, len(hits))
	for i, h := range hits {
		value, _ := t.universe.Token(h.Val)
		toks[i] = Token{Value: value, ID: h.Val}
	}
	return toks
}

// Encode is Tokenize, returning ids instead of Tokens.
func (t *Tokenizer) Encode(regions []region.Region) ([]uint32, error) {
	toks, err := t.Tokenize(regions)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, len(toks))
	for i, tok := range toks {
		ids[i] = tok.ID
	}
	return ids, nil
}

// Decode maps each id back to its vocabulary string; an id with no entry
// decodes to the unk literal.
func (t *Tokenizer) Decode(ids []uint32) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if s, ok := t.universe.Token(id); ok {
			out[i] = s
		} else {
			out[i] = t.special.Unk
		}
	}
	return out
}

// ConvertTokenToID is a direct Universe passthrough.
func (t *Tokenizer) ConvertTokenToID(token string) (uint32, bool) { return t.universe.ID(token) }

// ConvertIDToToken is a direct Universe passthrough.
func (t *Tokenizer) ConvertIDToToken(id uint32) (string, bool) { return t.universe.Token(id) }

// GetVocabSize reports the universe's total entry count, special tokens
// included.
func (t *Tokenizer) GetVocabSize() int { return t.universe.Len() }

// GetUniverse exposes the tokenizer's backing vocabulary.
func (t *Tokenizer) GetUniverse() *vocab.Universe { return t.universe }

// SpecialTokens returns the tokenizer's special token literals.
func (t *Tokenizer) SpecialTokens() vocab.SpecialTokens { return t.special }

// UnkToken, PadToken, MaskToken, ClsToken, EosToken, BosToken, and SepToken
// return the literal for each reserved slot; the *ID variants return its
// registered id (false if the special tokens were never added to the
// universe, which cannot happen for a Tokenizer built via this package's
// constructors).
func (t *Tokenizer) UnkToken() string  { return t.special.Unk }
func (t *Tokenizer) PadToken() string  { return t.special.Pad }
func (t *Tokenizer) MaskToken() string { return t.special.Mask }
func (t *Tokenizer) ClsToken() string  { return t.special.Cls }
func (t *Tokenizer) EosToken() string  { return t.special.Eos }
func (t *Tokenizer) BosToken() string  { return t.special.Bos }
func (t *Tokenizer) SepToken() string  { return t.special.Sep }

func (t *Tokenizer) UnkID() (uint32, bool)  { return t.universe.ID(t.special.Unk) }
func (t *Tokenizer) PadID() (uint32, bool)  { return t.universe.ID(t.special.Pad) }
func (t *Tokenizer) MaskID() (uint32, bool) { return t.universe.ID(t.special.Mask) }
func (t *Tokenizer) ClsID() (uint32, bool)  { return t.universe.ID(t.special.Cls) }
func (t *Tokenizer) EosID() (uint32, bool)  { return t.universe.ID(t.special.Eos) }
func (t *Tokenizer) BosID() (uint32, bool)  { return t.universe.ID(t.special.Bos) }
func (t *Tokenizer) SepID() (uint32, bool)  { return t.universe.ID(t.special.Sep) }
