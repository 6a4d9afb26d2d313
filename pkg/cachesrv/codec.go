package cachesrv

import "github.com/lattice-kv/cachecore/internal/protocol"

// newCodec builds the response codec shared by every connection the
// reactor serves. A single Codec (and therefore a single inline arena) per
// server process matches original_source's one-process-wide inline arena.
func newCodec() *protocol.Codec {
	return protocol.NewCodec(0)
}
