// Transcript input: files or stdin, optionally zstd or gzip compressed.
package gdbhelper

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

type input struct {
	io.Reader
	closers []func() error
}

// Close may be called more than once.
func (in *input) Close() error {
	var first error
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	in.closers = nil
	return first
}

// openInput opens path ("" or "-" is stdin) and decompresses it when it
// starts with a zstd or gzip header.
func openInput(path string) (*input, error) {
	in := &input{}
	var r io.Reader
	if path == "" || path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		in.closers = append(in.closers, f.Close)
		r = f
	}

	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(head, zstdMagic):
		d, err := zstd.NewReader(br)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("zstd input: %w", err)
		}
		in.closers = append(in.closers, func() error { d.Close(); return nil })
		in.Reader = d
	case bytes.HasPrefix(head, gzipMagic):
		z, err := gzip.NewReader(br)
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("gzip input: %w", err)
		}
		in.closers = append(in.closers, z.Close)
		in.Reader = z
	default:
		in.Reader = br
	}
	return in, nil
}
