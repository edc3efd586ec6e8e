package server

import "github.com/moonlightdb/moonlight/internal/resp"

func (e *Engine) registerConnectionCommands() {
	e.register("PING", commandFunc(pingCmd))
	e.register("ECHO", commandFunc(echoCmd))
}

func pingCmd(ctx *context) resp.Value {
	if len(ctx.args) == 0 {
		return resp.MakeSimpleString("PONG")
	}
	return resp.MakeBulkString(ctx.arg(0))
}

func echoCmd(ctx *context) resp.Value {
	return resp.MakeBulkString(ctx.arg(0))
}
