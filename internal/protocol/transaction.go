package protocol

// TxState is the RESP transaction state for one connection.
type TxState uint8

const (
	TxIdle TxState = iota
	TxActive
	TxActiveAborted
)

// QueuedCommand is a deferred request captured while a transaction is
// active. Key and Value are owned copies (unlike Request's buffer views)
// since they must outlive the read cycle they were parsed in, all the way
// to EXEC.
type QueuedCommand struct {
	Cmd   string
	Key   []byte
	Value []byte
	HasValue bool
}

// Transaction tracks one connection's MULTI/EXEC/DISCARD state.
type Transaction struct {
	state TxState
	queue []QueuedCommand
}

func (t *Transaction) State() TxState { return t.state }

// Begin starts a transaction. It returns false if one is already active
// (RESP "MULTI calls can not be nested").
func (t *Transaction) Begin() bool {
	if t.state == TxActive || t.state == TxActiveAborted {
		return false
	}
	t.state = TxActive
	t.queue = t.queue[:0]
	return true
}

// Discard ends a transaction. It returns false if none was active (RESP
// "DISCARD without MULTI").
func (t *Transaction) Discard() bool {
	if t.state == TxIdle {
		return false
	}
	t.state = TxIdle
	t.queue = t.queue[:0]
	return true
}

// Enqueue appends cmd to the pending queue. Only valid while Active (callers
// must check State() first).
func (t *Transaction) Enqueue(cmd QueuedCommand) {
	key := append([]byte(nil), cmd.Key...)
	var value []byte
	if cmd.HasValue {
		value = append([]byte(nil), cmd.Value...)
	}
	t.queue = append(t.queue, QueuedCommand{Cmd: cmd.Cmd, Key: key, Value: value, HasValue: cmd.HasValue})
}

// Abort marks the active transaction as aborted (a malformed command was
// queued); EXEC on an aborted transaction must fail without running
// anything.
func (t *Transaction) Abort() {
	if t.state == TxActive {
		t.state = TxActiveAborted
	}
}

// Exec drains and returns the queued commands, resetting to Idle.
// wasActive is false if there was no active transaction; wasAborted is true
// if it was aborted (the caller uses the two to pick the right RESP error).
func (t *Transaction) Exec() (cmds []QueuedCommand, wasActive bool, wasAborted bool) {
	wasActive = t.state == TxActive || t.state == TxActiveAborted
	wasAborted = t.state == TxActiveAborted
	cmds = t.queue
	t.state = TxIdle
	t.queue = nil
	return cmds, wasActive, wasAborted
}
