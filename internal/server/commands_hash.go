package server

import (
	"github.com/moonlightdb/moonlight/internal/resp"
	"github.com/moonlightdb/moonlight/internal/storage"
)

func (e *Engine) registerHashCommands() {
	e.register("HSET", commandFunc(hsetCmd))
	e.register("HGET", commandFunc(hgetCmd))
	e.register("HDEL", commandFunc(hdelCmd))
	e.register("HKEYS", commandFunc(hkeysCmd))
	e.register("HVALS", commandFunc(hvalsCmd))
	e.register("HGETALL", commandFunc(hgetallCmd))
}

func hsetCmd(ctx *context) resp.Value {
	rest := ctx.args[1:]
	if len(rest)%2 != 0 {
		return resp.MakeErrorWrongNumberOfArguments("HSET")
	}
	pairs := make([]storage.HashField, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		pairs = append(pairs, storage.HashField{Field: string(rest[i].String), Value: rest[i+1].String})
	}
	n, err := ctx.storage.HSet(ctx.arg(0), pairs)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func hgetCmd(ctx *context) resp.Value {
	val, ok, err := ctx.storage.HGet(ctx.arg(0), ctx.arg(1))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(string(val))
}

func hdelCmd(ctx *context) resp.Value {
	fields := make([]string, len(ctx.args)-1)
	for i, a := range ctx.args[1:] {
		fields[i] = string(a.String)
	}
	n, err := ctx.storage.HDel(ctx.arg(0), fields)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func hkeysCmd(ctx *context) resp.Value {
	keys, err := ctx.storage.HKeys(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	vals := make([]resp.Value, len(keys))
	for i, k := range keys {
		vals[i] = resp.MakeBulkString(k)
	}
	return resp.MakeArray(vals)
}

func hvalsCmd(ctx *context) resp.Value {
	values, err := ctx.storage.HVals(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	vals := make([]resp.Value, len(values))
	for i, v := range values {
		vals[i] = resp.MakeBulkString(string(v))
	}
	return resp.MakeArray(vals)
}

func hgetallCmd(ctx *context) resp.Value {
	pairs, err := ctx.storage.HGetAll(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	vals := make([]resp.Value, 0, len(pairs)*2)
	for _, p := range pairs {
		vals = append(vals, resp.MakeBulkString(p.Field), resp.MakeBulkString(string(p.Value)))
	}
	return resp.MakeArray(vals)
}
