package server

import "github.com/moonlightdb/moonlight/internal/resp"

func (e *Engine) registerListCommands() {
	e.register("LPUSH", commandFunc(lpushCmd))
	e.register("RPUSH", commandFunc(rpushCmd))
	e.register("LPOP", commandFunc(lpopCmd))
	e.register("RPOP", commandFunc(rpopCmd))
	e.register("LLEN", commandFunc(llenCmd))
	e.register("LRANGE", commandFunc(lrangeCmd))
}

func valuesOf(vals []resp.Value) [][]byte {
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = v.String
	}
	return out
}

func lpushCmd(ctx *context) resp.Value {
	n, err := ctx.storage.LPush(ctx.arg(0), valuesOf(ctx.args[1:]))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func rpushCmd(ctx *context) resp.Value {
	n, err := ctx.storage.RPush(ctx.arg(0), valuesOf(ctx.args[1:]))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func lpopCmd(ctx *context) resp.Value {
	val, ok, err := ctx.storage.LPop(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(string(val))
}

func rpopCmd(ctx *context) resp.Value {
	val, ok, err := ctx.storage.RPop(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(string(val))
}

func llenCmd(ctx *context) resp.Value {
	n, err := ctx.storage.LLen(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func lrangeCmd(ctx *context) resp.Value {
	start, ok1 := parseInt64Arg(ctx.arg(1))
	stop, ok2 := parseInt64Arg(ctx.arg(2))
	if !ok1 || !ok2 {
		return resp.MakeError("value is not an integer or out of range")
	}
	items, err := ctx.storage.LRange(ctx.arg(0), start, stop)
	if err != nil {
		return errReply(err)
	}
	vals := make([]resp.Value, len(items))
	for i, v := range items {
		vals[i] = resp.MakeBulkString(string(v))
	}
	return resp.MakeArray(vals)
}
