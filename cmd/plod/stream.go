package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/term"
)

type compression string

const (
	compressNone compression = "none"
	compressZstd compression = "zstd"
	compressLZ4  compression = "lz4"
	// compressAuto sniffs the frame magic on input and writes plain output.
	compressAuto compression = "auto"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

func parseCompression(name string) (compression, error) {
	switch c := compression(name); c {
	case compressNone, compressZstd, compressLZ4, compressAuto:
		return c, nil
	}
	return "", fmt.Errorf("unknown compression %q (want none, zstd, lz4 or auto)", name)
}

// sniff resolves auto to the frame format found at the head of br.
func sniff(br *bufio.Reader) compression {
	head, _ := br.Peek(4)
	switch {
	case bytes.Equal(head, zstdMagic):
		return compressZstd
	case bytes.Equal(head, lz4Magic):
		return compressLZ4
	}
	return compressNone
}

// decompress wraps r so that reads return the uncompressed stream. The
// returned func releases the decompressor.
func decompress(r io.Reader, c compression) (*bufio.Reader, func(), error) {
	br := bufio.NewReader(r)
	if c == compressAuto {
		c = sniff(br)
	}
	switch c {
	case compressZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return bufio.NewReader(zr), zr.Close, nil
	case compressLZ4:
		return bufio.NewReader(lz4.NewReader(br)), func() {}, nil
	}
	return br, func() {}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// compress wraps w in a compressing writer. Close flushes the final frame
// but leaves w open.
func compress(w io.Writer, c compression) (io.WriteCloser, error) {
	switch c {
	case compressZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return zw, nil
	case compressLZ4:
		return lz4.NewWriter(w), nil
	}
	return nopCloser{w}, nil
}

// openInput opens path for reading, "" and "-" meaning r.
func openInput(path string, r io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(r), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// openOutput creates path for writing, "" and "-" meaning w.
func openOutput(path string, w io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{w}, nil
	}
	return os.Create(path)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// guardBinary refuses to write binary output to a terminal unless forced.
func guardBinary(w io.Writer, force bool) error {
	if !force && isTerminal(w) {
		return fmt.Errorf("refusing to write binary output to a terminal (use --output or --force)")
	}
	return nil
}
