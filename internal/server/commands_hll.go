package server

import "github.com/moonlightdb/moonlight/internal/resp"

func (e *Engine) registerHLLCommands() {
	e.register("PFADD", commandFunc(pfaddCmd))
	e.register("PFCOUNT", commandFunc(pfcountCmd))
	e.register("PFMERGE", commandFunc(pfmergeCmd))
}

func bytesOf(vals []resp.Value) [][]byte {
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = v.String
	}
	return out
}

func pfaddCmd(ctx *context) resp.Value {
	changed, err := ctx.storage.PFAdd(ctx.arg(0), bytesOf(ctx.args[1:]))
	if err != nil {
		return errReply(err)
	}
	if changed {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func pfcountCmd(ctx *context) resp.Value {
	n, err := ctx.storage.PFCount(stringsOf(ctx.args))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func pfmergeCmd(ctx *context) resp.Value {
	dest := ctx.arg(0)
	sources := stringsOf(ctx.args[1:])
	if len(sources) == 0 {
		sources = []string{dest}
	}
	if err := ctx.storage.PFMerge(dest, sources); err != nil {
		return errReply(err)
	}
	return resp.MakeSimpleString("OK")
}
