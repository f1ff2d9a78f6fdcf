package diagnostic

import (
	"io"

	"github.com/valyala/gozstd"
)

// CompressionLevel is the level used when writing .zst files. Session
// exports are written once and replayed many times; 2 keeps writes fast
// without giving up much ratio on JSON.
const CompressionLevel = 2

// Compress deflates bundle bytes for archival
func Compress(data []byte) []byte {
	return gozstd.CompressLevel(nil, data, CompressionLevel)
}

// NewStreamingReader wraps a reader with streaming zstd decompression.
// The returned reader must be released after use.
func NewStreamingReader(r io.Reader) *gozstd.Reader {
	return gozstd.NewReader(r)
}
