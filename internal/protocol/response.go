package protocol

import "strconv"

// Packet is a response ready to be written to a connection. It may hold a
// pooled inline buffer (from a Codec's arena), a static string constant, or
// an owned heap buffer for oversize payloads — the three cases
// original_source's ResponsePacket distinguishes.
type Packet struct {
	Proto Proto
	data  []byte
	owner *arena // non-nil when data came from owner's pool and must be released
}

// Bytes returns the wire bytes for this packet, not including the trailing
// MsgSeparator that Custom-protocol responses require (the reactor appends
// that once, right before the write, so Packet never has to special-case
// it).
func (p Packet) Bytes() []byte { return p.data }

// Release returns any pooled buffer backing this packet. Safe to call on a
// zero-value or static Packet (no-op).
func (p *Packet) Release() {
	if p.owner != nil && p.data != nil {
		p.owner.release(p.data)
		p.data = nil
		p.owner = nil
	}
}

// Codec builds protocol responses using a fixed-width inline arena. Create
// one Codec per reactor (not per connection); its slot width is immutable
// for the Codec's lifetime except through SetInlineSlotWidth, which only
// affects buffers acquired afterward (see arena.go).
type Codec struct {
	a *arena
}

// NewCodec constructs a Codec whose inline arena uses slotWidth bytes per
// slot (0 selects defaultInlineSlotWidth).
func NewCodec(slotWidth int) *Codec {
	return &Codec{a: newArena(slotWidth)}
}

// SetInlineSlotWidth reconfigures the arena's slot width for buffers
// acquired from now on. This is the supplemented port of original_source's
// setRespInlineCapacity hook.
func (c *Codec) SetInlineSlotWidth(width int) { c.a.setWidth(width) }

func (c *Codec) alloc(n int, proto Proto) Packet {
	if buf, ok := c.a.acquire(n); ok {
		return Packet{Proto: proto, data: buf, owner: c.a}
	}
	return Packet{Proto: proto, data: make([]byte, n)}
}

func (c *Codec) static(s string, proto Proto) Packet {
	return Packet{Proto: proto, data: []byte(s)}
}

/* ---------------- custom-protocol responses ---------------- */

// CustomOK and CustomNil reply with fixed strings and never use the arena;
// CustomError and CustomValue copy their bytes into an arena slot when they
// fit.
func (c *Codec) CustomOK() Packet    { return c.static(OK, ProtoCustom) }
func (c *Codec) CustomNil() Packet   { return c.static(Nothing, ProtoCustom) }
func (c *Codec) CustomError(msg string) Packet {
	return c.buildInto(msg, ProtoCustom)
}
func (c *Codec) CustomValue(value []byte) Packet {
	return c.buildBytesInto(value, ProtoCustom)
}

func (c *Codec) buildInto(s string, proto Proto) Packet {
	p := c.alloc(len(s), proto)
	copy(p.data, s)
	return p
}

func (c *Codec) buildBytesInto(b []byte, proto Proto) Packet {
	p := c.alloc(len(b), proto)
	copy(p.data, b)
	return p
}

/* ---------------- RESP responses ---------------- */

// RespSimpleString builds a "+msg\r\n" reply.
func (c *Codec) RespSimpleString(msg string) Packet {
	return c.buildInto("+"+msg+"\r\n", ProtoRESP)
}

// RespInteger builds a ":n\r\n" reply.
func (c *Codec) RespInteger(n int64) Packet {
	return c.buildInto(":"+strconv.FormatInt(n, 10)+"\r\n", ProtoRESP)
}

// RespError builds a "-ERR msg\r\n" reply. original_source's makeRespError
// (protocol.cpp) always prepends the "ERR " token ahead of the message.
func (c *Codec) RespError(msg string) Packet {
	return c.buildInto("-ERR "+msg+"\r\n", ProtoRESP)
}

// RespNullBulk builds the RESP nil-bulk-string reply "$-1\r\n".
func (c *Codec) RespNullBulk() Packet {
	return c.static("$-1\r\n", ProtoRESP)
}

// RespBulkString builds a "$len\r\nvalue\r\n" reply.
func (c *Codec) RespBulkString(value []byte) Packet {
	header := "$" + strconv.Itoa(len(value)) + "\r\n"
	total := len(header) + len(value) + 2
	p := c.alloc(total, ProtoRESP)
	n := copy(p.data, header)
	n += copy(p.data[n:], value)
	copy(p.data[n:], "\r\n")
	return p
}

// RespArray concatenates already-built element packets into a
// "*count\r\n<elem>...<elem>" reply. Element packets are released after
// being copied in, since their bytes are now owned by the array packet.
func (c *Codec) RespArray(elems []Packet) Packet {
	header := "*" + strconv.Itoa(len(elems)) + "\r\n"
	total := len(header)
	for i := range elems {
		total += len(elems[i].Bytes())
	}
	p := c.alloc(total, ProtoRESP)
	n := copy(p.data, header)
	for i := range elems {
		n += copy(p.data[n:], elems[i].Bytes())
		elems[i].Release()
	}
	return p
}
