package gzbuf

import (
	"bytes"
	"hash/crc32"
)

// Field is one subfield of the extra data in a gzip header, as laid out in
// RFC 1952 section 2.3.1.1: a two-byte subfield ID followed by a 16-bit
// little-endian length and that many bytes of data.
type Field struct {
	ID   [2]byte
	Data []byte
}

// Result is the outcome of a successful Decode.
//
// Name, Comment, and the Data of every extra Field are subslices of the
// buffer passed to Decode; they are not copied. Mutating that buffer after
// the call mutates them too. A nil Name, Comment, or Extra means the
// corresponding header flag was not set; a present but empty field is
// returned as a non-nil empty slice.
type Result struct {
	Size    uint32 // decompressed payload length (ISIZE)
	Data    []byte // decompressed payload, owned by the Result
	ModTime uint32 // MTIME header field, seconds since the Unix epoch
	Name    []byte
	Comment []byte
	Extra   []Field
}

// Decode parses and decompresses the complete gzip stream held in src.
// maxSize bounds the decompressed size a stream may declare; a negative
// maxSize means no bound. Any framing, checksum, or payload violation
// aborts with one of the package error values, never a partial Result.
func Decode(src []byte, maxSize int) (*Result, error) {
	if len(src) < stream_min {
		return nil, ErrTooShort
	}
	if src[0] != gzip_id1 || src[1] != gzip_id2 {
		return nil, ErrBadMagic
	}
	if src[2] != gzip_deflate {
		return nil, ErrNotDeflate
	}

	flg := src[3]
	r := &Result{ModTime: le.Uint32(src[4:8])}
	// XFL and OS (src[8], src[9]) carry nothing the caller can rely on.

	off := header_size
	end := len(src) - trailer_size

	if flg&flag_extra != 0 {
		if off+2 > end {
			return nil, ErrTooShort
		}
		xlen := int(le.Uint16(src[off:]))
		off += 2
		if off+xlen > end {
			return nil, ErrTooShort
		}
		fields, err := parseExtra(src[off : off+xlen])
		if err != nil {
			return nil, err
		}
		r.Extra = fields
		off += xlen
	}

	if flg&flag_name != 0 {
		i := nullIndex(src[:end], off)
		if i < 0 {
			return nil, ErrNoTerminator
		}
		r.Name = src[off:i]
		off = i + 1
	}

	if flg&flag_comment != 0 {
		i := nullIndex(src[:end], off)
		if i < 0 {
			return nil, ErrNoTerminator
		}
		r.Comment = src[off:i]
		off = i + 1
	}

	if flg&flag_hcrc != 0 {
		if off+2 > end {
			return nil, ErrTooShort
		}
		if uint16(crc32.ChecksumIEEE(src[:off])) != le.Uint16(src[off:]) {
			return nil, ErrHeaderChecksum
		}
		off += 2
	}

	crc := le.Uint32(src[end:])
	isize := le.Uint32(src[end+4:])
	if maxSize >= 0 && uint64(isize) > uint64(maxSize) {
		return nil, ErrSizeLimit
	}

	data, err := inflateExact(src[off:end], isize)
	if err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(data) != crc {
		return nil, ErrChecksum
	}

	r.Size = isize
	r.Data = data
	return r, nil
}

// parseExtra decodes the subfield list held in the FEXTRA region. The list
// must consume the region exactly; leftover bytes, a truncated preamble, a
// reserved zero SI2, or a subfield length overrunning the region all fail
// with ErrExtraFraming.
func parseExtra(extra []byte) ([]Field, error) {
	fields := []Field{}
	for len(extra) > 0 {
		if len(extra) < 4 {
			return nil, ErrExtraFraming
		}
		if extra[1] == 0 {
			return nil, ErrExtraFraming
		}
		n := int(le.Uint16(extra[2:]))
		if 4+n > len(extra) {
			return nil, ErrExtraFraming
		}
		fields = append(fields, Field{
			ID:   [2]byte{extra[0], extra[1]},
			Data: extra[4 : 4+n],
		})
		extra = extra[4+n:]
	}
	return fields, nil
}

// nullIndex returns the index of the first null byte in p at or after from,
// or -1 if p holds none.
func nullIndex(p []byte, from int) int {
	if i := bytes.IndexByte(p[from:], 0); i >= 0 {
		return from + i
	}
	return -1
}
