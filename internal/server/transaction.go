package server

import (
	"fmt"

	"github.com/moonlightdb/moonlight/internal/resp"
)

func (e *Engine) registerTransactionCommands() {
	e.register("MULTI", commandFunc(multiCmd))
	e.register("EXEC", commandFunc(execCmd))
	e.register("DISCARD", commandFunc(discardCmd))
	e.register("WATCH", commandFunc(watchCmd))
	e.register("UNWATCH", commandFunc(unwatchCmd))
}

// queuedCommand is one command held between MULTI and EXEC.
type queuedCommand struct {
	name string
	args []resp.Value
}

// txState is the per-connection transaction state: whether a MULTI block
// is open, whether a queuing-time error has doomed it, the queue itself,
// and the WATCHed keys' revisions at WATCH time. WATCHING and QUEUEING
// are independent in practice — a connection can WATCH, then MULTI.
type txState struct {
	inMulti bool
	aborted bool
	queued  []queuedCommand
	watched map[string]uint64
}

func newTxState() txState {
	return txState{watched: make(map[string]uint64)}
}

func (tx *txState) reset() {
	tx.inMulti = false
	tx.aborted = false
	tx.queued = nil
	tx.watched = make(map[string]uint64)
}

func multiCmd(ctx *context) resp.Value {
	ctx.peer.tx.inMulti = true
	ctx.peer.tx.aborted = false
	ctx.peer.tx.queued = nil
	return resp.MakeSimpleString("OK")
}

func execCmd(ctx *context) resp.Value {
	return resp.MakeError("EXEC without MULTI")
}

func discardCmd(ctx *context) resp.Value {
	return resp.MakeError("DISCARD without MULTI")
}

func watchCmd(ctx *context) resp.Value {
	if len(ctx.args) == 0 {
		return resp.MakeErrorWrongNumberOfArguments("WATCH")
	}
	for _, a := range ctx.args {
		key := string(a.String)
		ctx.peer.tx.watched[key] = ctx.storage.Revision(key)
	}
	return resp.MakeSimpleString("OK")
}

func unwatchCmd(ctx *context) resp.Value {
	ctx.peer.tx.watched = make(map[string]uint64)
	return resp.MakeSimpleString("OK")
}

// execTransaction runs a queued MULTI block under the dispatch mutex the
// caller already holds. An aborted queue (a bad command name or arity was
// queued) or a WATCHed key that mutated since WATCH both discard the
// queue and reply with a null array, per the transaction model.
func (e *Engine) execTransaction(peer *Peer) resp.Value {
	defer peer.tx.reset()

	if peer.tx.aborted {
		return resp.MakeNilArray()
	}
	for key, rev := range peer.tx.watched {
		if e.storage.Revision(key) != rev {
			return resp.MakeNilArray()
		}
	}

	results := make([]resp.Value, 0, len(peer.tx.queued))
	for _, q := range peer.tx.queued {
		results = append(results, e.dispatch(peer, q.name, q.args))
	}
	return resp.MakeArray(results)
}

func (e *Engine) discardTransaction(peer *Peer) resp.Value {
	if !peer.tx.inMulti {
		return resp.MakeError("DISCARD without MULTI")
	}
	peer.tx.reset()
	return resp.MakeSimpleString("OK")
}

// queueOrIntercept handles command dispatch while a MULTI block is open:
// MULTI/EXEC/DISCARD/WATCH get transaction-specific handling, everything
// else is validated and appended to the queue instead of running.
func (e *Engine) queueOrIntercept(peer *Peer, upper string, args []resp.Value) (resp.Value, bool) {
	switch upper {
	case "MULTI":
		return resp.MakeError("MULTI calls can not be nested"), true
	case "EXEC":
		return e.execTransaction(peer), true
	case "DISCARD":
		return e.discardTransaction(peer), true
	case "WATCH":
		return resp.MakeError("WATCH inside MULTI is not allowed"), true
	}

	if _, ok := e.commands[upper]; !ok {
		peer.tx.aborted = true
		return resp.MakeError(fmt.Sprintf("unknown command '%s'", upper)), true
	}
	if err := checkArity(upper, args); err != nil {
		peer.tx.aborted = true
		return resp.MakeError(err.Error()), true
	}

	peer.tx.queued = append(peer.tx.queued, queuedCommand{name: upper, args: args})
	return resp.MakeSimpleString("QUEUED"), true
}
