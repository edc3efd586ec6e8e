package server

import (
	"strconv"

	"github.com/moonlightdb/moonlight/internal/resp"
)

func (e *Engine) registerKeyCommands() {
	e.register("DEL", commandFunc(delCmd))
	e.register("EXISTS", commandFunc(existsCmd))
	e.register("EXPIRE", commandFunc(expireCmd))
	e.register("PEXPIRE", commandFunc(pexpireCmd))
	e.register("EXPIREAT", commandFunc(expireAtCmd))
	e.register("TTL", commandFunc(ttlCmd))
	e.register("PTTL", commandFunc(pttlCmd))
	e.register("PERSIST", commandFunc(persistCmd))
	e.register("TYPE", commandFunc(typeCmd))
	e.register("RENAME", commandFunc(renameCmd))
	e.register("FLUSHALL", commandFunc(flushAllCmd))
}

func delCmd(ctx *context) resp.Value {
	keys := make([]string, len(ctx.args))
	for i, a := range ctx.args {
		keys[i] = string(a.String)
	}
	return resp.MakeInteger(ctx.storage.Delete(keys...))
}

func existsCmd(ctx *context) resp.Value {
	var n int64
	for _, a := range ctx.args {
		if ctx.storage.Exists(string(a.String)) {
			n++
			ctx.engine.recordHit()
		} else {
			ctx.engine.recordMiss()
		}
	}
	return resp.MakeInteger(n)
}

func parseInt64Arg(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func expireCmd(ctx *context) resp.Value {
	secs, ok := parseInt64Arg(ctx.arg(1))
	if !ok {
		return resp.MakeError("value is not an integer or out of range")
	}
	return resp.MakeInteger(ctx.storage.Expire(ctx.arg(0), secs))
}

func pexpireCmd(ctx *context) resp.Value {
	millis, ok := parseInt64Arg(ctx.arg(1))
	if !ok {
		return resp.MakeError("value is not an integer or out of range")
	}
	return resp.MakeInteger(ctx.storage.PExpire(ctx.arg(0), millis))
}

func expireAtCmd(ctx *context) resp.Value {
	ts, ok := parseInt64Arg(ctx.arg(1))
	if !ok {
		return resp.MakeError("value is not an integer or out of range")
	}
	return resp.MakeInteger(ctx.storage.ExpireAt(ctx.arg(0), ts))
}

func ttlCmd(ctx *context) resp.Value {
	return resp.MakeInteger(ctx.storage.TTL(ctx.arg(0)))
}

func pttlCmd(ctx *context) resp.Value {
	return resp.MakeInteger(ctx.storage.PTTL(ctx.arg(0)))
}

func persistCmd(ctx *context) resp.Value {
	return resp.MakeInteger(ctx.storage.Persist(ctx.arg(0)))
}

func typeCmd(ctx *context) resp.Value {
	t := ctx.storage.TypeOf(ctx.arg(0))
	return resp.MakeSimpleString(t.String())
}

func renameCmd(ctx *context) resp.Value {
	if err := ctx.storage.Rename(ctx.arg(0), ctx.arg(1)); err != nil {
		return resp.MakeErrorWithPrefix("ERR", "no such key")
	}
	return resp.MakeSimpleString("OK")
}

func flushAllCmd(ctx *context) resp.Value {
	ctx.storage.FlushAll()
	return resp.MakeSimpleString("OK")
}
