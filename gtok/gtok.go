// Package gtok reads and writes the ".gtok" binary token stream format: a
// 4-byte magic header, a 1-byte size flag, and an append-only run of
// little-endian fixed-width token ids. Ported from
// original_source/io/src/gtok.rs (write_tokens_to_gtok,
// read_tokens_from_gtok, init_gtok_file, append_tokens_to_gtok_file).
//
// Appending does not re-derive the size flag: a file initialized (or
// written) with the u16 flag that later receives a token above 0xFFFF
// silently truncates its high bits on append, exactly as the Rust
// original does. This is a fidelity choice, not an oversight — see
// DESIGN.md.
package gtok

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Header is the 4-byte magic literal every .gtok file begins with.
var Header = [4]byte{'G', 'T', 'O', 'K'}

// Size flags, one byte wide, immediately following Header.
const (
	U16Flag byte = 0x01
	U32Flag byte = 0x02
)

// ErrBadHeader is returned when a file's leading bytes do not match Header.
var ErrBadHeader = errors.New("gtok: not a valid .gtok file")

// ErrBadFlag is returned when a file's size-flag byte is neither U16Flag
// nor U32Flag.
var ErrBadFlag = errors.New("gtok: invalid size flag")

func flagFor(tokens []uint32) byte {
	for _, t := range tokens {
		if t > 0xFFFF {
			return U32Flag
		}
	}
	return U16Flag
}

// WriteFile writes tokens to path as a new .gtok file, choosing the
// narrowest size flag (u16 unless any token exceeds 0xFFFF) that fits the
// whole slice. Parent directories are created as needed.
func WriteFile(path string, tokens []uint32) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "gtok: creating parent directories")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "gtok: creating file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	flag := flagFor(tokens)
	if err := writeHeader(w, flag); err != nil {
		return err
	}
	if err := writeTokens(w, flag, tokens); err != nil {
		return err
	}
	return w.Flush()
}

// InitFile creates an empty .gtok file with the u32 size flag — the Rust
// original's conservative default for a file whose eventual token range is
// not yet known.
func InitFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "gtok: creating parent directories")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "gtok: creating file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeHeader(w, U32Flag); err != nil {
		return err
	}
	return w.Flush()
}

// AppendFile appends tokens to the end of an existing .gtok file, encoding
// them with whatever size flag the file was created with. It does not
// check whether tokens still fit that flag.
func AppendFile(path string, tokens []uint32) error {
	flag, err := readFlag(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return errors.Wrap(err, "gtok: opening file for append")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeTokens(w, flag, tokens); err != nil {
		return err
	}
	return w.Flush()
}

// ReadFile reads every token from a .gtok file, in file order.
func ReadFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "gtok: opening file")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	flag, err := readHeaderFlag(r)
	if err != nil {
		return nil, err
	}

	var tokens []uint32
	switch flag {
	case U16Flag:
		var buf [2]byte
		for {
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				if err == io.EOF {
					break
				}
				return nil, errors.Wrap(err, "gtok: reading token")
			}
			tokens = append(tokens, uint32(binary.LittleEndian.Uint16(buf[:])))
		}
	case U32Flag:
		var buf [4]byte
		for {
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				if err == io.EOF {
					break
				}
				return nil, errors.Wrap(err, "gtok: reading token")
			}
			tokens = append(tokens, binary.LittleEndian.Uint32(buf[:]))
		}
	default:
		return nil, ErrBadFlag
	}
	return tokens, nil
}

func writeHeader(w io.Writer, flag byte) error {
	if _, err := w.Write(Header[:]); err != nil {
		return errors.Wrap(err, "gtok: writing header")
	}
	if _, err := w.Write([]byte{flag}); err != nil {
		return errors.Wrap(err, "gtok: writing size flag")
	}
	return nil
}

func writeTokens(w io.Writer, flag byte, tokens []uint32) error {
	switch flag {
	case U16Flag:
		var buf [2]byte
		for _, t := range tokens {
			binary.LittleEndian.PutUint16(buf[:], uint16(t))
			if _, err := w.Write(buf[:]); err != nil {
				return errors.Wrap(err, "gtok: writing token")
			}
		}
	case U32Flag:
		var buf [4]byte
		for _, t := range tokens {
			binary.LittleEndian.PutUint32(buf[:], t)
			if _, err := w.Write(buf[:]); err != nil {
				return errors.Wrap(err, "gtok: writing token")
			}
		}
	default:
		return ErrBadFlag
	}
	return nil
}

func readHeaderFlag(r io.Reader) (byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, errors.Wrap(err, "gtok: reading header")
	}
	if header != Header {
		return 0, ErrBadHeader
	}
	var flag [1]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return 0, errors.Wrap(err, "gtok: reading size flag")
	}
	return flag[0], nil
}

// readFlag reads just enough of path to recover its size flag, for
// AppendFile's use.
func readFlag(path string) (byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "gtok: opening file")
	}
	defer f.Close()
	return readHeaderFlag(bufio.NewReader(f))
}
