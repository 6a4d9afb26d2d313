package protocol

// Request is a parsed GET/SET/DEL/MULTI/EXEC/DISCARD command, independent of
// which wire format produced it. Key and Value are views into the
// connection's read buffer; callers that need to retain them past the
// current read cycle (the RESP transaction queue) must copy.
type Request struct {
	Proto Proto
	Cmd   string
	Key   []byte
	Value []byte
	HasValue bool
}

// FrameStatus reports what ScanFrame found at the start of buf.
type FrameStatus uint8

const (
	// FrameIncomplete means buf does not yet contain a full frame; the
	// caller should read more bytes and retry without consuming anything.
	FrameIncomplete FrameStatus = iota
	// FrameComplete means a full frame was parsed; Consumed bytes should be
	// dropped from the front of buf.
	FrameComplete
	// FrameSkip means buf started with a stray separator byte that carries
	// no command; the caller should drop Consumed bytes and rescan.
	FrameSkip
	// FrameError means buf started with bytes that could never form a
	// valid frame (malformed RESP length prefix, empty custom command,
	// etc.); Consumed bytes should still be dropped so the stream can
	// resynchronize on the next frame.
	FrameError
)

// ScanFrame inspects the start of buf and either parses one complete
// request, skips a stray separator, reports an error frame, or reports that
// more bytes are needed. It never blocks and never allocates for the
// common case (Key/Value are views into buf).
func ScanFrame(buf []byte) (req Request, consumed int, status FrameStatus, errMsg string) {
	if len(buf) == 0 {
		return Request{}, 0, FrameIncomplete, ""
	}
	if buf[0] == MsgSeparator {
		return Request{}, 1, FrameSkip, ""
	}
	if buf[0] == '*' {
		return scanRESP(buf)
	}
	return scanCustom(buf)
}

// scanCustom parses "CMD key[ value]" terminated by MsgSeparator.
func scanCustom(buf []byte) (Request, int, FrameStatus, string) {
	end := -1
	for i, b := range buf {
		if b == MsgSeparator {
			end = i
			break
		}
	}
	if end == -1 {
		return Request{}, 0, FrameIncomplete, ""
	}
	line := buf[:end]
	consumed := end + 1

	sp1 := indexByte(line, ' ')
	if sp1 == -1 {
		return Request{Proto: ProtoCustom}, consumed, FrameError, InvalidCommandFormat
	}
	cmd := bytesToString(line[:sp1])
	rest := line[sp1+1:]

	sp2 := indexByte(rest, ' ')
	var key, value []byte
	hasValue := false
	if sp2 == -1 {
		key = rest
	} else {
		key = rest[:sp2]
		value = rest[sp2+1:]
		hasValue = true
	}
	if len(key) == 0 {
		return Request{Proto: ProtoCustom}, consumed, FrameError, InvalidCommandFormat
	}
	return Request{Proto: ProtoCustom, Cmd: cmd, Key: key, Value: value, HasValue: hasValue}, consumed, FrameComplete, ""
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
