package gzbuf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// sliceWriter writes into a fixed byte slice and reports ErrShortBuffer once
// the slice is full. It lets the deflate stream land directly in the output
// buffer's payload region without an intermediate copy.
type sliceWriter struct {
	buf []byte
	n   int
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	n := copy(w.buf[w.n:], p)
	w.n += n
	if n < len(p) {
		return n, ErrShortBuffer
	}
	return n, nil
}

// deflateTo compresses src into dst at the given level and returns the
// number of bytes written. Returns ErrShortBuffer if dst cannot hold the
// compressed stream.
func deflateTo(dst, src []byte, level int) (int, error) {
	sw := &sliceWriter{buf: dst}
	fw, err := flate.NewWriter(sw, level)
	if err != nil {
		return 0, err
	}
	if _, err := fw.Write(src); err != nil {
		return 0, err
	}
	if err := fw.Close(); err != nil {
		return 0, err
	}
	return sw.n, nil
}

// inflateExact decompresses src, which must inflate to exactly size bytes.
// A stream that ends early fails with ErrShortPayload, one that holds more
// than size bytes fails with ErrCorrupt.
func inflateExact(src []byte, size uint32) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(src))
	defer fr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(fr, out); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrShortPayload
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var tail [1]byte
	switch n, err := fr.Read(tail[:]); {
	case n != 0:
		return nil, fmt.Errorf("%w: payload exceeds declared size", ErrCorrupt)
	case err != nil && err != io.EOF:
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}
