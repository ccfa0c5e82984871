package vocab

// SpecialTokens holds the seven reserved out-of-band vocabulary entries.
// Every field must be a valid vocabulary string; once registered in a
// Universe, each owns a stable id. Ported from
// gtars-tokenizers/src/utils/special_tokens.rs.
type SpecialTokens struct {
	Unk  string
	Pad  string
	Mask string
	Cls  string
	Eos  string
	Bos  string
	Sep  string
}

// DefaultSpecialTokens returns the default literal for every slot.
func DefaultSpecialTokens() SpecialTokens {
	return SpecialTokens{
		Unk:  "<unk>",
		Pad:  "<pad>",
		Mask: "<mask>",
		Cls:  "<cls>",
		Eos:  "<eos>",
		Bos:  "<bos>",
		Sep:  "<sep>",
	}
}

// orderedNames is the fixed registration order from the data model:
// unk, pad, mask, cls, eos, bos, sep.
var orderedNames = [...]string{"unk", "pad", "mask", "cls", "eos", "bos", "sep"}

// Slice returns the seven literals in their fixed registration order.
func (s SpecialTokens) Slice() []string {
	return []string{s.Unk, s.Pad, s.Mask, s.Cls, s.Eos, s.Bos, s.Sep}
}

// Map returns the seven literals keyed by slot name.
func (s SpecialTokens) Map() map[string]string {
	return map[string]string{
		"unk": s.Unk, "pad": s.Pad, "mask": s.Mask, "cls": s.Cls,
		"eos": s.Eos, "bos": s.Bos, "sep": s.Sep,
	}
}

// WithOverride returns a copy of s with the named slot replaced by token.
// name must be one of the seven lower-case slot names (matched
// case-sensitively); an unknown name is reported via ok=false so callers
// can surface
// ErrInvalidSpecialTokenConfig.
func (s SpecialTokens) WithOverride(name, token string) (SpecialTokens, bool) {
	switch name {
	case "unk":
		s.Unk = token
	case "pad":
		s.Pad = token
	case "mask":
		s.Mask = token
	case "cls":
		s.Cls = token
	case "eos":
		s.Eos = token
	case "bos":
		s.Bos = token
	case "sep":
		s.Sep = token
	default:
		return s, false
	}
	return s, true
}
