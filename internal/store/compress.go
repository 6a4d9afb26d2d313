package store

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// minSizeToCompress mirrors original_source's MIN_SIZE_TO_COMPRESS: values
// shorter than this are never worth the gzip framing overhead.
const minSizeToCompress = 30

// compressValue gzip-compresses data at the best compression level. ok is
// false when the compressor fails for any reason (e.g. writer construction
// error); callers must fall back to storing data uncompressed, matching
// original_source's insertEntry behavior on compressor failure.
func compressValue(data []byte) (out []byte, ok bool) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, false
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, false
	}
	if err := w.Close(); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// decompressValue reverses compressValue. The returned slice is freshly
// allocated and owned by the caller.
func decompressValue(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func shouldCompress(enabled bool, value []byte) bool {
	return enabled && len(value) >= minSizeToCompress
}
