package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"

	"github.com/Neumenon/unserial/stream"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// openInput opens path for reading, or stdin for "" and "-".
// gzip and zstd input is decompressed transparently.
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return decompress(stdin, nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	rc, err := decompress(f, f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rc, nil
}

// decompress sniffs the first bytes of r and wraps it in the matching
// decompressor. owner, if set, is closed along with the result.
func decompress(r io.Reader, owner io.Closer) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read input: %w", err)
	}

	rc := &multiCloser{Reader: br}
	if owner != nil {
		rc.closers = append(rc.closers, owner)
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		rc.Reader = zr
		rc.closers = append([]io.Closer{zr}, rc.closers...)
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		dec := zr.IOReadCloser()
		rc.Reader = dec
		rc.closers = append([]io.Closer{dec}, rc.closers...)
	}
	return rc, nil
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var err error
	for _, c := range m.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// readInputs reads every path in full. No paths means stdin.
func readInputs(paths []string, stdin io.Reader) ([]stream.Input, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	inputs := make([]stream.Input, 0, len(paths))
	for _, path := range paths {
		rc, err := openInput(path, stdin)
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		err = multierr.Append(err, rc.Close())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", displayName(path), err)
		}
		inputs = append(inputs, stream.Input{Name: displayName(path), Data: data})
	}
	return inputs, nil
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "<stdin>"
	}
	return path
}
