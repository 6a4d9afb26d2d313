package protocol

import (
	"bytes"
	"testing"
)

func TestCodecCustomValueBytesUnchanged(t *testing.T) {
	c := NewCodec(0)
	value := []byte("bar")
	resp := c.CustomValue(value)
	if !bytes.Equal(resp.Bytes(), value) {
		t.Fatalf("CustomValue = %q, want %q", resp.Bytes(), value)
	}
}

func TestScanFrameCustomGet(t *testing.T) {
	raw := []byte("GET mykey")
	raw = append(raw, MsgSeparator)
	req, consumed, status, _ := ScanFrame(raw)
	if status != FrameComplete {
		t.Fatalf("status = %v", status)
	}
	if consumed != len(raw) {
		t.Fatalf("consumed = %d, want %d", consumed, len(raw))
	}
	if req.Cmd != "GET" || string(req.Key) != "mykey" || req.HasValue {
		t.Fatalf("parsed %+v", req)
	}
}

func TestScanFrameCustomSet(t *testing.T) {
	raw := []byte("SET mykey myvalue")
	raw = append(raw, MsgSeparator)
	req, _, status, _ := ScanFrame(raw)
	if status != FrameComplete {
		t.Fatalf("status = %v", status)
	}
	if req.Cmd != "SET" || string(req.Key) != "mykey" || string(req.Value) != "myvalue" || !req.HasValue {
		t.Fatalf("parsed %+v", req)
	}
}

func TestScanFrameIncomplete(t *testing.T) {
	raw := []byte("GET mykey") // no separator yet
	_, consumed, status, _ := ScanFrame(raw)
	if status != FrameIncomplete || consumed != 0 {
		t.Fatalf("status=%v consumed=%d, want Incomplete/0", status, consumed)
	}
}

func TestScanFrameStraySeparatorSkipped(t *testing.T) {
	raw := []byte{MsgSeparator, 'G'}
	_, consumed, status, _ := ScanFrame(raw)
	if status != FrameSkip || consumed != 1 {
		t.Fatalf("status=%v consumed=%d, want Skip/1", status, consumed)
	}
}

func TestScanFrameRESPGet(t *testing.T) {
	raw := []byte("*2\r\n$3\r\nGET\r\n$5\r\nhello\r\n")
	req, consumed, status, _ := ScanFrame(raw)
	if status != FrameComplete {
		t.Fatalf("status = %v", status)
	}
	if consumed != len(raw) {
		t.Fatalf("consumed = %d, want %d", consumed, len(raw))
	}
	if req.Cmd != "GET" || string(req.Key) != "hello" {
		t.Fatalf("parsed %+v", req)
	}
}

func TestScanFrameRESPZeroLengthArrayIsFrameError(t *testing.T) {
	raw := []byte("*0\r\n")
	req, consumed, status, errMsg := ScanFrame(raw)
	if status != FrameError {
		t.Fatalf("status = %v, want FrameError", status)
	}
	if req.Proto != ProtoRESP {
		t.Fatalf("req.Proto = %v, want ProtoRESP (caller needs this to close the connection)", req.Proto)
	}
	if consumed != len(raw) {
		t.Fatalf("consumed = %d, want %d", consumed, len(raw))
	}
	if errMsg != InvalidCommandFormat {
		t.Fatalf("errMsg = %q", errMsg)
	}
}

func TestScanFrameRESPIncomplete(t *testing.T) {
	raw := []byte("*2\r\n$3\r\nGET\r\n$5\r\nhel")
	_, consumed, status, _ := ScanFrame(raw)
	if status != FrameIncomplete || consumed != 0 {
		t.Fatalf("status=%v consumed=%d, want Incomplete/0", status, consumed)
	}
}

func TestCodecRespBuilders(t *testing.T) {
	c := NewCodec(0)

	if got := c.RespSimpleString(OK).Bytes(); string(got) != "+OK\r\n" {
		t.Fatalf("SimpleString = %q", got)
	}
	if got := c.RespInteger(42).Bytes(); string(got) != ":42\r\n" {
		t.Fatalf("Integer = %q", got)
	}
	if got := c.RespNullBulk().Bytes(); string(got) != "$-1\r\n" {
		t.Fatalf("NullBulk = %q", got)
	}
	if got := c.RespBulkString([]byte("hi")).Bytes(); string(got) != "$2\r\nhi\r\n" {
		t.Fatalf("BulkString = %q", got)
	}
	if got := c.RespError(RespErrExecNoMulti).Bytes(); string(got) != "-ERR EXEC without MULTI\r\n" {
		t.Fatalf("Error = %q", got)
	}
}

func TestCodecRespArray(t *testing.T) {
	c := NewCodec(0)
	elems := []Packet{c.RespBulkString([]byte("a")), c.RespBulkString([]byte("bb"))}
	got := c.RespArray(elems).Bytes()
	want := "*2\r\n$1\r\na\r\n$2\r\nbb\r\n"
	if string(got) != want {
		t.Fatalf("Array = %q, want %q", got, want)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	var tx Transaction
	if tx.State() != TxIdle {
		t.Fatalf("initial state = %v, want Idle", tx.State())
	}
	if !tx.Begin() {
		t.Fatalf("Begin should succeed from Idle")
	}
	if tx.Begin() {
		t.Fatalf("nested Begin should fail")
	}
	tx.Enqueue(QueuedCommand{Cmd: "GET", Key: []byte("k")})
	cmds, wasActive, wasAborted := tx.Exec()
	if !wasActive || wasAborted {
		t.Fatalf("wasActive=%v wasAborted=%v, want true/false", wasActive, wasAborted)
	}
	if len(cmds) != 1 || cmds[0].Cmd != "GET" {
		t.Fatalf("cmds = %+v", cmds)
	}
	if tx.State() != TxIdle {
		t.Fatalf("state after Exec = %v, want Idle", tx.State())
	}
}

func TestTransactionAbortedExec(t *testing.T) {
	var tx Transaction
	tx.Begin()
	tx.Abort()
	_, wasActive, wasAborted := tx.Exec()
	if !wasActive || !wasAborted {
		t.Fatalf("wasActive=%v wasAborted=%v, want true/true", wasActive, wasAborted)
	}
}

func TestTransactionDiscardWithoutMulti(t *testing.T) {
	var tx Transaction
	if tx.Discard() {
		t.Fatalf("Discard without MULTI should fail")
	}
}
