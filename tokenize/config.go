package tokenize

import (
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// OverlapperKind names which overlap engine a tokenizer should build.
type OverlapperKind string

const (
	KindBits   OverlapperKind = "bits"
	KindAIList OverlapperKind = "ailist"
)

// SpecialTokenOverride maps one reserved slot name to an override literal,
// mirroring a single `[[special_tokens]]` TOML block.
type SpecialTokenOverride struct {
	Name  string `toml:"name"`
	Token string `toml:"token"`
}

// Config is the decoded form of a tokenizer TOML configuration file: the
// path to a universe file, the overlap engine to build, and any special
// token overrides.
type Config struct {
	Universe      string                 `toml:"universe"`
	TokenizerType OverlapperKind         `toml:"tokenizer_type"`
	SpecialTokens []SpecialTokenOverride `toml:"special_tokens"`
}

// LoadConfig reads and decodes a tokenizer configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, &ConfigError{Cause: err}
	}
	if cfg.Universe == "" {
		return Config{}, &ConfigError{Cause: errMissingUniverse}
	}
	if cfg.TokenizerType == "" {
		cfg.TokenizerType = KindBits
	}
	return cfg, nil
}

// inputKind classifies a tokenizer input path by extension, the same
// three-way split gtars-tokenizers/src/config.rs::TokenizerInputFileType
// draws: a TOML config, a plain BED, or a gzipped BED.
type inputKind int

const (
	inputUnknown inputKind = iota
	inputToml
	inputBed
	inputBedGz
)

func classifyInput(path string) inputKind {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".toml"):
		return inputToml
	case strings.HasSuffix(lower, ".bed.gz"):
		return inputBedGz
	case strings.HasSuffix(lower, ".bed"):
		return inputBed
	case filepath.Ext(lower) == ".gz":
		return inputUnknown
	default:
		return inputUnknown
	}
}
