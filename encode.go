package gzbuf

import (
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// DEFLATE can fall back to stored blocks for incompressible input, paying
// stored_cost bytes of block overhead per started chunk of stored_chunk
// input bytes. The deflate writer also terminates every stream with an
// empty stored block, hence one extra stored_cost in the bound.
const (
	stored_chunk = 16383
	stored_cost  = 5
)

// A final fixed-Huffman block holding only the end-of-block code, the
// shortest complete deflate stream. Matches what zlib emits for empty input.
var empty_deflate = []byte{0x03, 0x00}

type config struct {
	level      int
	name       string
	comment    string
	extra      []byte
	hasName    bool
	hasComment bool
	hasExtra   bool
	hdrCRC     bool
	mtime      uint32
	hasMtime   bool
}

// Option configures the encode path.
type Option func(*config)

// WithLevel sets the deflate compression level, in the range accepted by
// flate.NewWriter. The default is flate.DefaultCompression.
func WithLevel(level int) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithName records name in the header as a null-terminated string and sets
// the FNAME flag. The name must not contain a null byte.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
		c.hasName = true
	}
}

// WithComment records comment in the header as a null-terminated string and
// sets the FCOMMENT flag. The comment must not contain a null byte.
func WithComment(comment string) Option {
	return func(c *config) {
		c.comment = comment
		c.hasComment = true
	}
}

// WithExtra records extra in the header as the FEXTRA field. The bytes are
// written as-is behind a 16-bit length; use [AppendField] to build a blob of
// well-formed subfields. At most 65535 bytes.
func WithExtra(extra []byte) Option {
	return func(c *config) {
		c.extra = extra
		c.hasExtra = true
	}
}

// WithHeaderChecksum sets the FHCRC flag and stores the low 16 bits of the
// CRC-32 over the header at its end.
func WithHeaderChecksum() Option {
	return func(c *config) {
		c.hdrCRC = true
	}
}

// WithModTime records t as the MTIME header field instead of the current
// time.
func WithModTime(t time.Time) Option {
	return func(c *config) {
		c.mtime = uint32(t.Unix())
		c.hasMtime = true
	}
}

func newConfig(opts []Option) config {
	cfg := config{level: flate.DefaultCompression}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// MaxEncodedLen returns the largest number of bytes Encode can produce for
// an input of n bytes with the given options. It assumes the deflate worst
// case of all-stored blocks; actual output is usually much smaller.
func MaxEncodedLen(n int, opts ...Option) int {
	cfg := newConfig(opts)
	return maxEncodedLen(n, &cfg)
}

func maxEncodedLen(n int, cfg *config) int {
	max := header_size + trailer_size + n + (n/stored_chunk+2)*stored_cost
	if cfg.hasExtra {
		max += len(cfg.extra) + 2
	}
	if cfg.hasName {
		max += len(cfg.name) + 1
	}
	if cfg.hasComment {
		max += len(cfg.comment) + 1
	}
	if cfg.hdrCRC {
		max += 2
	}
	return max
}

// Encode compresses src into a freshly allocated gzip stream. The returned
// slice is truncated to the bytes actually written.
func Encode(src []byte, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)
	dst := make([]byte, maxEncodedLen(len(src), &cfg))
	n, err := encode(dst, src, &cfg)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// EncodeBuffer compresses src into dst and returns the number of bytes
// written. dst should be at least MaxEncodedLen(len(src), opts...) bytes;
// a smaller buffer fails with ErrShortBuffer once space runs out. dst must
// not alias src.
func EncodeBuffer(dst, src []byte, opts ...Option) (int, error) {
	cfg := newConfig(opts)
	return encode(dst, src, &cfg)
}

func encode(dst, src []byte, cfg *config) (int, error) {
	// Validate before writing anything.
	if cfg.hasExtra && len(cfg.extra) > extra_max {
		return 0, ErrExtraTooLong
	}
	if cfg.hasName && strings.IndexByte(cfg.name, 0) >= 0 {
		return 0, ErrNullInString
	}
	if cfg.hasComment && strings.IndexByte(cfg.comment, 0) >= 0 {
		return 0, ErrNullInString
	}
	if cfg.level < flate.HuffmanOnly || cfg.level > flate.BestCompression {
		return 0, fmt.Errorf("gzbuf: invalid compression level: %d", cfg.level)
	}

	need := header_size
	if cfg.hasExtra {
		need += 2 + len(cfg.extra)
	}
	if cfg.hasName {
		need += len(cfg.name) + 1
	}
	if cfg.hasComment {
		need += len(cfg.comment) + 1
	}
	if cfg.hdrCRC {
		need += 2
	}
	if need+trailer_size > len(dst) {
		return 0, ErrShortBuffer
	}

	var flg byte
	if cfg.hdrCRC {
		flg |= flag_hcrc
	}
	if cfg.hasExtra {
		flg |= flag_extra
	}
	if cfg.hasName {
		flg |= flag_name
	}
	if cfg.hasComment {
		flg |= flag_comment
	}

	mtime := cfg.mtime
	if !cfg.hasMtime {
		mtime = uint32(time.Now().Unix())
	}

	dst[0], dst[1], dst[2], dst[3] = gzip_id1, gzip_id2, gzip_deflate, flg
	le.PutUint32(dst[4:], mtime)
	dst[8] = 0 // XFL
	dst[9] = os_unknown

	off := header_size
	if cfg.hasExtra {
		le.PutUint16(dst[off:], uint16(len(cfg.extra)))
		off += 2
		off += copy(dst[off:], cfg.extra)
	}
	if cfg.hasName {
		off += copy(dst[off:], cfg.name)
		dst[off] = 0
		off++
	}
	if cfg.hasComment {
		off += copy(dst[off:], cfg.comment)
		dst[off] = 0
		off++
	}
	if cfg.hdrCRC {
		le.PutUint16(dst[off:], uint16(crc32.ChecksumIEEE(dst[:off])))
		off += 2
	}

	payload := dst[off : len(dst)-trailer_size]
	if len(src) == 0 {
		// The compressor would end an empty stream with its stored-block
		// terminator; emit the canonical two-byte stream instead.
		if len(payload) < len(empty_deflate) {
			return 0, ErrShortBuffer
		}
		off += copy(payload, empty_deflate)
	} else {
		n, err := deflateTo(payload, src, cfg.level)
		if err != nil {
			return 0, err
		}
		off += n
	}

	le.PutUint32(dst[off:], crc32.ChecksumIEEE(src))
	le.PutUint32(dst[off+4:], uint32(len(src)))
	return off + trailer_size, nil
}

// AppendField appends one extra subfield to blob and returns the extended
// blob, for use with [WithExtra]. The second ID byte must not be zero
// (reserved), and data must fit the subfield's 16-bit length.
func AppendField(blob []byte, id [2]byte, data []byte) ([]byte, error) {
	if id[1] == 0 {
		return nil, ErrExtraFraming
	}
	if len(data) > extra_max {
		return nil, ErrExtraTooLong
	}
	blob = append(blob, id[0], id[1], byte(len(data)), byte(len(data)>>8))
	return append(blob, data...), nil
}
