// Package fileio opens the pipeline's line-oriented input and output files.
// Inputs may be plain or compressed with gzip, zstd, lz4 (frame format) or
// xz; the codec is detected from the leading magic bytes. Outputs pick a
// codec from the file extension. The path "-" means stdin or stdout.
package fileio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Codec identifies the compression applied to a stream.
type Codec string

const (
	CodecPlain Codec = "plain"
	CodecGzip  Codec = "gzip"
	CodecZstd  Codec = "zstd"
	CodecLZ4   Codec = "lz4"
	CodecXZ    Codec = "xz"
)

var magics = []struct {
	codec Codec
	magic []byte
}{
	{CodecGzip, []byte{0x1f, 0x8b}},
	{CodecZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{CodecLZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
	{CodecXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
}

// Sniff reports the codec whose magic prefixes header.
func Sniff(header []byte) Codec {
	for _, m := range magics {
		if bytes.HasPrefix(header, m.magic) {
			return m.codec
		}
	}
	return CodecPlain
}

// CodecForPath picks an output codec from the file extension.
func CodecForPath(path string) Codec {
	switch filepath.Ext(path) {
	case ".gz":
		return CodecGzip
	case ".zst":
		return CodecZstd
	case ".lz4":
		return CodecLZ4
	case ".xz":
		return CodecXZ
	default:
		return CodecPlain
	}
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading and transparently decompresses it.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" || path == "" {
		return NewReader(io.NopCloser(os.Stdin))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	rc, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return rc, nil
}

// NewReader wraps src with the decompressor matching its magic bytes.
// Closing the result closes src.
func NewReader(src io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(src, 64*1024)
	header, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	rc := &readCloser{closers: []func() error{src.Close}}
	switch Sniff(header) {
	case CodecGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		rc.Reader = gz
		rc.closers = append([]func() error{gz.Close}, rc.closers...)
	case CodecZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc.Reader = dec
		rc.closers = append([]func() error{func() error { dec.Close(); return nil }}, rc.closers...)
	case CodecLZ4:
		rc.Reader = lz4.NewReader(br)
	case CodecXZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		rc.Reader = xr
	default:
		rc.Reader = br
	}
	return rc, nil
}

type writeCloser struct {
	*bufio.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	first := w.Flush()
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create opens path for writing, compressing by extension. The returned
// writer is buffered; Close flushes and finalises the stream.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return NewWriter(nopWriteCloser{os.Stdout}, CodecPlain)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	wc, err := NewWriter(f, CodecForPath(path))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return wc, nil
}

// NewWriter wraps dst with the compressor for codec. Closing the result
// closes dst.
func NewWriter(dst io.WriteCloser, codec Codec) (io.WriteCloser, error) {
	var (
		inner   io.Writer
		closers []func() error
	)
	switch codec {
	case CodecGzip:
		gz := gzip.NewWriter(dst)
		inner, closers = gz, []func() error{gz.Close}
	case CodecZstd:
		enc, err := zstd.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		inner, closers = enc, []func() error{enc.Close}
	case CodecLZ4:
		lw := lz4.NewWriter(dst)
		inner, closers = lw, []func() error{lw.Close}
	case CodecXZ:
		xw, err := xz.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		inner, closers = xw, []func() error{xw.Close}
	case CodecPlain, "":
		inner = dst
	default:
		return nil, fmt.Errorf("unsupported codec %q", codec)
	}
	closers = append(closers, dst.Close)
	return &writeCloser{Writer: bufio.NewWriterSize(inner, 64*1024), closers: closers}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
