package reactor

import (
	"time"

	"github.com/google/uuid"

	"github.com/lattice-kv/cachecore/internal/protocol"
)

// connection holds everything the reactor goroutine needs to drive one
// socket: its unprocessed read bytes, RESP transaction state, and any bytes
// still waiting to be flushed from a previous partial write.
type connection struct {
	fd   int32
	id   uuid.UUID

	readBuf []byte // unprocessed bytes read so far, front-compacted after each full frame

	tx protocol.Transaction

	writeBuf    []byte // pending response bytes not yet fully written
	writeCursor int

	lastActivity time.Time
}

func newConnection(fd int32) *connection {
	return &connection{
		fd:           fd,
		id:           uuid.New(),
		readBuf:      make([]byte, 0, readBufferSize),
		lastActivity: time.Now(),
	}
}

// hasPendingWrite reports whether a previous write left bytes unflushed.
func (c *connection) hasPendingWrite() bool {
	return c.writeCursor < len(c.writeBuf)
}

// queueWrite appends data to the connection's outbound buffer. Responses
// for a single read cycle are batched together and flushed once, matching
// original_source's sendResponses (one write per connection per
// epoll_wait iteration, not per request).
func (c *connection) queueWrite(data []byte) {
	c.writeBuf = append(c.writeBuf, data...)
}

// compactWriteBuf drops already-written bytes once the cursor reaches the
// end, so writeBuf doesn't grow unboundedly across a long-lived connection.
func (c *connection) compactWriteBuf() {
	if c.writeCursor >= len(c.writeBuf) {
		c.writeBuf = c.writeBuf[:0]
		c.writeCursor = 0
	}
}

// compactReadBuf drops bytes already consumed by ScanFrame, keeping only the
// unprocessed remainder at the front of the slice.
func (c *connection) compactReadBuf(consumed int) {
	remaining := copy(c.readBuf, c.readBuf[consumed:])
	c.readBuf = c.readBuf[:remaining]
}
