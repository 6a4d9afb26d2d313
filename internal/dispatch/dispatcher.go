// Package dispatch routes parsed requests to the shard that owns their key,
// runs the RESP MULTI/EXEC/DISCARD transaction state machine, and builds the
// response packet for whichever protocol the request arrived on.
//
// © 2025 cachecore authors. MIT License.
package dispatch

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lattice-kv/cachecore/internal/protocol"
	"github.com/lattice-kv/cachecore/internal/store"
)

// Dispatcher wires together the shard table, the response codec, and the
// request counters exposed through the metrics snapshot.
type Dispatcher struct {
	table  *store.Table
	codec  *protocol.Codec
	logger *zap.Logger

	numRequests atomic.Uint64
	numErrors   atomic.Uint64
}

// New constructs a Dispatcher over an existing shard table and codec.
func New(table *store.Table, codec *protocol.Codec, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{table: table, codec: codec, logger: logger}
}

// Handle processes one parsed request, running it immediately or (for RESP
// connections with an active transaction) queuing it, and returns the
// packet to write back. tx is the calling connection's transaction state;
// custom-protocol connections always pass a nil-state Transaction (it is
// simply never touched for that protocol, since MULTI/EXEC/DISCARD only
// exist on the RESP side).
func (d *Dispatcher) Handle(req protocol.Request, tx *protocol.Transaction) protocol.Packet {
	d.numRequests.Add(1)
	if req.Proto == protocol.ProtoRESP {
		return d.handleResp(req, tx)
	}
	return d.handleCustom(req)
}

func (d *Dispatcher) handleCustom(req protocol.Request) protocol.Packet {
	switch strings.ToUpper(req.Cmd) {
	case protocol.CmdGet:
		value, ok := d.get(req.Key)
		if !ok {
			return d.codec.CustomNil()
		}
		return d.codec.CustomValue(value)
	case protocol.CmdSet:
		if !req.HasValue {
			d.numErrors.Add(1)
			return d.codec.CustomError(protocol.InvalidCommandFormat)
		}
		if err := d.set(req.Key, req.Value); err != nil {
			return d.codec.CustomError(protocol.InternalError)
		}
		return d.codec.CustomOK()
	case protocol.CmdDel:
		if err := d.del(req.Key); err != nil {
			d.numErrors.Add(1)
			return d.codec.CustomError(protocol.KeyNotExists)
		}
		return d.codec.CustomOK()
	default:
		d.numErrors.Add(1)
		return d.codec.CustomError(protocol.UnknownCommand)
	}
}

func (d *Dispatcher) handleResp(req protocol.Request, tx *protocol.Transaction) protocol.Packet {
	cmd := strings.ToUpper(req.Cmd)

	switch cmd {
	case protocol.MultiStr:
		if !tx.Begin() {
			tx.Abort()
			d.numErrors.Add(1)
			return d.codec.RespError(protocol.RespErrMultiNested)
		}
		return d.codec.RespSimpleString(protocol.OK)

	case protocol.DiscardStr:
		if !tx.Discard() {
			d.numErrors.Add(1)
			return d.codec.RespError(protocol.RespErrDiscardNoMulti)
		}
		return d.codec.RespSimpleString(protocol.OK)

	case protocol.ExecStr:
		cmds, wasActive, wasAborted := tx.Exec()
		if !wasActive {
			d.numErrors.Add(1)
			return d.codec.RespError(protocol.RespErrExecNoMulti)
		}
		if wasAborted {
			d.numErrors.Add(1)
			return d.codec.RespError(protocol.RespErrExecAborted)
		}
		elems := make([]protocol.Packet, len(cmds))
		for i, c := range cmds {
			elems[i] = d.execRespCommand(c.Cmd, c.Key, c.Value, c.HasValue)
		}
		return d.codec.RespArray(elems)

	case protocol.CmdGet, protocol.CmdSet, protocol.CmdDel:
		if !validRespArgs(cmd, req.HasValue) {
			tx.Abort()
			d.numErrors.Add(1)
			return d.codec.RespError(protocol.InvalidCommandFormat)
		}
		if tx.State() == protocol.TxActive || tx.State() == protocol.TxActiveAborted {
			tx.Enqueue(protocol.QueuedCommand{Cmd: cmd, Key: req.Key, Value: req.Value, HasValue: req.HasValue})
			return d.codec.RespSimpleString(protocol.QueuedStr)
		}
		return d.execRespCommand(cmd, req.Key, req.Value, req.HasValue)

	default:
		if tx.State() == protocol.TxActive {
			tx.Abort()
		}
		d.numErrors.Add(1)
		return d.codec.RespError(protocol.UnknownCommand)
	}
}

func validRespArgs(cmd string, hasValue bool) bool {
	if cmd == protocol.CmdSet {
		return hasValue
	}
	return true
}

func (d *Dispatcher) execRespCommand(cmd string, key, value []byte, hasValue bool) protocol.Packet {
	switch cmd {
	case protocol.CmdGet:
		v, ok := d.get(key)
		if !ok {
			return d.codec.RespNullBulk()
		}
		return d.codec.RespBulkString(v)
	case protocol.CmdSet:
		if !hasValue {
			d.numErrors.Add(1)
			return d.codec.RespError(protocol.InvalidCommandFormat)
		}
		if err := d.set(key, value); err != nil {
			return d.codec.RespError(protocol.InternalError)
		}
		return d.codec.RespSimpleString(protocol.OK)
	case protocol.CmdDel:
		if err := d.del(key); err != nil {
			return d.codec.RespInteger(0)
		}
		return d.codec.RespInteger(1)
	default:
		d.numErrors.Add(1)
		return d.codec.RespError(protocol.UnknownCommand)
	}
}

func (d *Dispatcher) get(key []byte) ([]byte, bool) {
	h := store.Hash(key)
	return d.table.ShardFor(h).Get(key, h)
}

func (d *Dispatcher) set(key, value []byte) error {
	h := store.Hash(key)
	if err := d.table.ShardFor(h).Set(key, value, h); err != nil {
		d.numErrors.Add(1)
		d.logger.Warn("dispatch: set failed", zap.Error(err), zap.ByteString("key", key))
		return err
	}
	return nil
}

func (d *Dispatcher) del(key []byte) error {
	h := store.Hash(key)
	return d.table.ShardFor(h).Del(key, h)
}

// NumRequests and NumErrors back the metrics snapshot (see metrics.go).
func (d *Dispatcher) NumRequests() uint64 { return d.numRequests.Load() }
func (d *Dispatcher) NumErrors() uint64   { return d.numErrors.Load() }

// Table exposes the underlying shard table for the metrics exporter.
func (d *Dispatcher) Table() *store.Table { return d.table }

// Codec exposes the response codec so the reactor can build protocol-correct
// error packets outside the normal request path (a malformed frame never
// reaches Handle, since ScanFrame rejects it first).
func (d *Dispatcher) Codec() *protocol.Codec { return d.codec }
