// Package ioutil holds the small set of file-reading helpers shared by the
// universe loader, the fragment scanner, and region BED I/O: gzip
// auto-detection by magic bytes, and a reusable whitespace tokenizer for
// BED-and-fragment-style lines.
package ioutil

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// gzipMagic is the two leading bytes of every gzip stream (RFC 1952 §2.3.1).
var gzipMagic = [2]byte{0x1f, 0x8b}

// DynamicReader opens path and, if its first two bytes match the gzip magic
// number, wraps it in a streaming gzip decompressor. The returned closer
// must be closed by the caller; closing it also closes the underlying file.
func DynamicReader(path string) (io.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "ioutil: opening %s", path)
	}

	br := bufio.NewReader(f)
	peek, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, nil, errors.Wrapf(err, "ioutil: peeking %s", path)
	}

	if len(peek) == 2 && peek[0] == gzipMagic[0] && peek[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, nil, errors.Wrapf(err, "ioutil: opening gzip stream %s", path)
		}
		return gz, multiCloser{gz, f}, nil
	}
	return br, f, nil
}

// multiCloser closes every entry, returning the first error encountered.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Fields splits line on runs of whitespace (anything <= ' '), mirroring the
// token-scraping loop grailbio/bio/interval uses for BED columns: it is
// faster than strings.Fields for the handful of columns BED and fragment
// lines carry, and avoids allocating a throwaway []string for the common
// case of "do we have at least N tokens".
func Fields(line string, max int) []string {
	fields := make([]string, 0, max)
	i, n := 0, len(line)
	for i < n && len(fields) < max {
		for i < n && line[i] <= ' ' {
			i++
		}
		if i == n {
			break
		}
		start := i
		for i < n && line[i] > ' ' {
			i++
		}
		fields = append(fields, line[start:i])
	}
	return fields
}
