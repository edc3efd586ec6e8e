package server

import (
	"github.com/moonlightdb/moonlight/internal/pubsub"
	"github.com/moonlightdb/moonlight/internal/resp"
	"github.com/moonlightdb/moonlight/internal/storage"
)

// context carries everything a command handler needs: its arguments, the
// shared keyspace, the connection that issued it (for MULTI/WATCH/
// SUBSCRIBE state and PUBLISH), and the engine itself (for handlers that
// call back into dispatch, like EXEC).
type context struct {
	args    []resp.Value
	storage *storage.ShardedKeyspace
	bus     *pubsub.Bus
	peer    *Peer
	engine  *Engine
}

type command interface {
	execute(ctx *context) resp.Value
}

type commandFunc func(ctx *context) resp.Value

func (c commandFunc) execute(ctx *context) resp.Value {
	return c(ctx)
}

// arg reads ctx.args[i] as a string. Callers only use this after checkArity
// has already confirmed the index is in range.
func (ctx *context) arg(i int) string {
	return string(ctx.args[i].String)
}

// errReply wraps a storage error as a RESP error reply. Sentinel errors
// like storage.ErrWrongType already carry their own "WRONGTYPE " prefix,
// so this never adds the generic "ERR " prefix on top.
func errReply(err error) resp.Value {
	return resp.Value{Type: resp.TypeError, String: []byte(err.Error())}
}
