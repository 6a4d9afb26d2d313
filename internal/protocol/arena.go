package protocol

import "sync"

// defaultInlineSlotWidth mirrors original_source's g_respInlineCapacity
// default of 255 bytes: most GET/SET/DEL responses ("OK", "+QUEUED\r\n",
// small bulk strings) fit comfortably under this, so they never touch the
// general heap allocator.
const defaultInlineSlotWidth = 255

// arena is the Go translation of original_source's thread-local inline
// response arena (protocol.cpp's RESP_INLINE_SLOTS / tryUseInline). Go has
// no thread-locals, so the 256-fixed-slot free list design doesn't
// translate literally; sync.Pool is the idiomatic analogue for "avoid the
// general allocator for small, short-lived buffers; let go of them after a
// single use", and it additionally survives across goroutines, which a
// literal per-thread slot table would not for a Go server shaped around
// goroutines-per-connection rather than threads-per-connection.
type arena struct {
	width int
	pool  sync.Pool
}

func newArena(width int) *arena {
	if width <= 0 {
		width = defaultInlineSlotWidth
	}
	a := &arena{width: width}
	a.pool.New = func() any {
		buf := make([]byte, a.width)
		return &buf
	}
	return a
}

// acquire returns a buffer of exactly n bytes drawn from the pool, and true,
// when n fits within the arena's slot width. Otherwise it returns (nil,
// false) and the caller must fall back to a heap allocation sized to n.
func (a *arena) acquire(n int) ([]byte, bool) {
	if n > a.width {
		return nil, false
	}
	bp := a.pool.Get().(*[]byte)
	buf := *bp
	if cap(buf) < a.width {
		// width changed since this buffer was pooled (see setWidth); drop it.
		buf = make([]byte, a.width)
	}
	return buf[:n], true
}

// release returns buf to the pool. Buffers whose capacity no longer matches
// the arena's current width are simply not retained (GC reclaims them),
// which is how setWidth's "deferred until slots are free" reconfiguration
// is realized: in-flight buffers finish their life naturally instead of
// being forcibly resized.
func (a *arena) release(buf []byte) {
	if cap(buf) != a.width {
		return
	}
	full := buf[:a.width]
	a.pool.Put(&full)
}

// setWidth changes the slot width for buffers acquired from now on.
func (a *arena) setWidth(width int) {
	if width <= 0 {
		return
	}
	a.width = width
}
