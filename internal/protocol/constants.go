// Package protocol implements the two wire formats the server accepts on a
// single TCP stream: a custom line format terminated by MsgSeparator, and a
// RESP-style bulk-array format compatible with common Redis client
// libraries. Parsing and response building are pure functions over byte
// slices; the only stateful piece is the pooled inline response arena in
// arena.go.
//
// © 2025 cachecore authors. MIT License.
package protocol

// MsgSeparator terminates every custom-protocol frame and every
// custom-protocol response.
const MsgSeparator = 0x1F

// Status / error strings, verbatim from original_source/src/server/protocol.h
// and src/client/cache_client.hpp.
const (
	OK                   = "OK"
	Nothing              = "(nil)"
	InternalError        = "ERROR: Internal error"
	InvalidCommandCode   = "INVALID_COMMAND"
	InvalidQueryCode     = "INVALID_QUERY"
	UnknownCommand       = "ERROR: Unknown command"
	UnableToParseRequest = "ERROR: Unable to parse request"
	InvalidCommandFormat = "ERROR: Invalid command format"
	KeyNotExists         = "ERROR: Key does not exist"

	MultiStr              = "MULTI"
	ExecStr               = "EXEC"
	DiscardStr            = "DISCARD"
	QueuedStr             = "QUEUED"
	RespErrMultiNested    = "MULTI calls can not be nested"
	RespErrExecNoMulti    = "EXEC without MULTI"
	RespErrDiscardNoMulti = "DISCARD without MULTI"
	RespErrExecAborted    = "EXECABORT Transaction discarded because of previous errors"
)

// Command names understood by both protocols.
const (
	CmdGet = "GET"
	CmdSet = "SET"
	CmdDel = "DEL"
)

// Proto identifies which wire format produced a request, so the dispatcher
// knows which builder to use for the matching response.
type Proto uint8

const (
	ProtoCustom Proto = iota
	ProtoRESP
)

func (p Proto) String() string {
	if p == ProtoRESP {
		return "resp"
	}
	return "custom"
}
