package gzbuf

import (
	"bytes"
	"compress/gzip"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/nfam/pool/buffer"
	pgzip "github.com/nfam/pool/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBytes(n int) []byte {
	rng := rand.New(rand.NewSource(42))
	p := make([]byte, n)
	rng.Read(p)
	return p
}

func TestRoundTrip(t *testing.T) {
	extra, err := AppendField(nil, [2]byte{'R', 'T'}, []byte("subfield"))
	require.NoError(t, err)

	payloads := map[string][]byte{
		"empty":          nil,
		"hello":          []byte("hello"),
		"text":           bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 512),
		"zeros":          make([]byte, 1<<16),
		"incompressible": randomBytes(100_000),
	}
	variants := map[string][]Option{
		"plain":        nil,
		"name":         {WithName("a.txt")},
		"comment":      {WithComment("kept for later")},
		"name+comment": {WithName("a.txt"), WithComment("kept for later")},
		"extra":        {WithName("a.txt"), WithComment("kept for later"), WithExtra(extra)},
		"hcrc":         {WithName("a.txt"), WithComment("kept for later"), WithExtra(extra), WithHeaderChecksum()},
	}
	levels := []int{0, 1, 6, 9, -1}

	for pname, payload := range payloads {
		for vname, opts := range variants {
			for _, level := range levels {
				opts := append([]Option{WithLevel(level)}, opts...)

				enc, err := Encode(payload, opts...)
				require.NoError(t, err, "%s/%s/%d", pname, vname, level)
				assert.LessOrEqual(t, len(enc), MaxEncodedLen(len(payload), opts...),
					"%s/%s/%d", pname, vname, level)

				r, err := Decode(enc, -1)
				require.NoError(t, err, "%s/%s/%d", pname, vname, level)
				assert.Equal(t, uint32(len(payload)), r.Size)
				assert.Equal(t, string(payload), string(r.Data))
			}
		}
	}
}

func TestRoundTripMetadata(t *testing.T) {
	extra, err := AppendField(nil, [2]byte{'R', 'T'}, []byte("subfield"))
	require.NoError(t, err)

	enc := mustEncode(t, []byte("payload"),
		WithName("a.txt"),
		WithComment("kept for later"),
		WithExtra(extra),
		WithHeaderChecksum(),
	)

	r, err := Decode(enc, -1)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", string(r.Name))
	assert.Equal(t, "kept for later", string(r.Comment))
	require.Len(t, r.Extra, 1)
	assert.Equal(t, [2]byte{'R', 'T'}, r.Extra[0].ID)
	assert.Equal(t, "subfield", string(r.Extra[0].Data))
}

// The stdlib gzip writer produces streams this package must accept.
func TestReadStdlibStream(t *testing.T) {
	payload := bytes.Repeat([]byte("written by compress/gzip "), 64)
	extra, err := AppendField(nil, [2]byte{'S', 'L'}, []byte("std"))
	require.NoError(t, err)

	var b bytes.Buffer
	zw := gzip.NewWriter(&b)
	zw.Name = "std.txt"
	zw.Comment = "from stdlib"
	zw.Extra = extra
	zw.ModTime = time.Unix(1700000000, 0)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := Decode(b.Bytes(), -1)
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(r.Data))
	assert.Equal(t, "std.txt", string(r.Name))
	assert.Equal(t, "from stdlib", string(r.Comment))
	assert.Equal(t, uint32(1700000000), r.ModTime)
	require.Len(t, r.Extra, 1)
	assert.Equal(t, "std", string(r.Extra[0].Data))
}

// The stdlib gzip reader must accept streams produced by this package,
// including the optional header checksum it verifies on read.
func TestStdlibReadsEncoded(t *testing.T) {
	payload := bytes.Repeat([]byte("read me back "), 64)
	enc := mustEncode(t, payload,
		WithName("ours.txt"),
		WithComment("emitted by gzbuf"),
		WithHeaderChecksum(),
		WithModTime(time.Unix(1700000000, 0)),
	)

	zr, err := gzip.NewReader(bytes.NewReader(enc))
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	require.NoError(t, zr.Close())

	assert.Equal(t, string(payload), string(data))
	assert.Equal(t, "ours.txt", zr.Name)
	assert.Equal(t, "emitted by gzbuf", zr.Comment)
	assert.Equal(t, int64(1700000000), zr.ModTime.Unix())
}

func TestPoolReadsEncoded(t *testing.T) {
	payload := bytes.Repeat([]byte("pooled reader "), 256)
	enc := mustEncode(t, payload, WithName("pool.txt"))

	zr, err := pgzip.NewReader(io.NewSectionReader(bytes.NewReader(enc), 0, int64(len(enc))))
	require.NoError(t, err)
	defer zr.Close()

	b := buffer.Get()
	defer b.Close()
	_, err = b.ReadFrom(zr)
	require.NoError(t, err)
	assert.Equal(t, string(payload), string(b.Bytes()))
}
