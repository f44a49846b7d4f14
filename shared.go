// Package gzbuf encodes and decodes complete gzip streams held in memory.
//
// Unlike compress/gzip, which wraps an io.Reader or io.Writer, this package
// operates on fully buffered byte slices: the whole stream is parsed or
// produced in a single call, header metadata is returned as subslices of the
// input buffer without copying, and the encode path can write directly into
// a caller-provided buffer sized by [MaxEncodedLen].
package gzbuf

import (
	"encoding/binary"
	"errors"
)

const (
	gzip_id1     = 0x1f
	gzip_id2     = 0x8b
	gzip_deflate = 8

	flag_text    = 1 << 0
	flag_hcrc    = 1 << 1
	flag_extra   = 1 << 2
	flag_name    = 1 << 3
	flag_comment = 1 << 4

	header_size  = 10
	trailer_size = 8
	stream_min   = header_size + 2 + trailer_size // empty payload is 2 bytes

	extra_max  = 65535 // XLEN is a 16-bit field
	os_unknown = 255
)

var le = binary.LittleEndian

// Errors reported by Decode, Encode, and EncodeBuffer. Callers should match
// them with errors.Is; the deflate errors may wrap additional detail.
var (
	ErrTooShort       = errors.New("gzbuf: input too short")
	ErrBadMagic       = errors.New("gzbuf: not a gzip stream")
	ErrNotDeflate     = errors.New("gzbuf: unknown compression method")
	ErrNoTerminator   = errors.New("gzbuf: header string is not null-terminated")
	ErrNullInString   = errors.New("gzbuf: null byte in header string")
	ErrHeaderChecksum = errors.New("gzbuf: header checksum mismatch")
	ErrChecksum       = errors.New("gzbuf: checksum mismatch")
	ErrExtraTooLong   = errors.New("gzbuf: extra data too long")
	ErrExtraFraming   = errors.New("gzbuf: malformed extra subfield")
	ErrSizeLimit      = errors.New("gzbuf: decoded size exceeds limit")
	ErrShortBuffer    = errors.New("gzbuf: short buffer")
	ErrCorrupt        = errors.New("gzbuf: corrupt deflate payload")
	ErrShortPayload   = errors.New("gzbuf: deflate payload ended early")
)
