package server

import (
	"strings"

	"github.com/moonlightdb/moonlight/internal/resp"
)

func (e *Engine) registerBitmapCommands() {
	e.register("GETBIT", commandFunc(getbitCmd))
	e.register("SETBIT", commandFunc(setbitCmd))
	e.register("BITCOUNT", commandFunc(bitcountCmd))
	e.register("BITOP", commandFunc(bitopCmd))
	e.register("BITPOS", commandFunc(bitposCmd))
}

func getbitCmd(ctx *context) resp.Value {
	offset, ok := parseInt64Arg(ctx.arg(1))
	if !ok {
		return resp.MakeError("bit offset is not an integer or out of range")
	}
	n, err := ctx.storage.GetBit(ctx.arg(0), offset)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func setbitCmd(ctx *context) resp.Value {
	offset, ok1 := parseInt64Arg(ctx.arg(1))
	bit, ok2 := parseInt64Arg(ctx.arg(2))
	if !ok1 || !ok2 || (bit != 0 && bit != 1) {
		return resp.MakeError("bit is not an integer or out of range")
	}
	prev, err := ctx.storage.SetBit(ctx.arg(0), offset, bit)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(prev)
}

func bitcountCmd(ctx *context) resp.Value {
	hasRange := len(ctx.args) > 1
	var start, end int64
	if hasRange {
		if len(ctx.args) < 3 {
			return resp.MakeError("syntax error")
		}
		var ok1, ok2 bool
		start, ok1 = parseInt64Arg(ctx.arg(1))
		end, ok2 = parseInt64Arg(ctx.arg(2))
		if !ok1 || !ok2 {
			return resp.MakeError("value is not an integer or out of range")
		}
	}
	n, err := ctx.storage.BitCount(ctx.arg(0), hasRange, start, end)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func bitopCmd(ctx *context) resp.Value {
	op := strings.ToUpper(ctx.arg(0))
	dest := ctx.arg(1)
	sources := stringsOf(ctx.args[2:])

	switch op {
	case "AND", "OR", "XOR":
	case "NOT":
		if len(sources) != 1 {
			return resp.MakeError("BITOP NOT must be called with a single source key")
		}
	default:
		return resp.MakeError("syntax error")
	}

	n, err := ctx.storage.BitOp(op, dest, sources)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func bitposCmd(ctx *context) resp.Value {
	bit, ok := parseInt64Arg(ctx.arg(1))
	if !ok || (bit != 0 && bit != 1) {
		return resp.MakeError("the bit argument must be 1 or 0")
	}
	hasRange := len(ctx.args) > 2
	var start, end int64
	if hasRange {
		var ok1 bool
		start, ok1 = parseInt64Arg(ctx.arg(2))
		if !ok1 {
			return resp.MakeError("value is not an integer or out of range")
		}
		end = -1
		if len(ctx.args) > 3 {
			var ok2 bool
			end, ok2 = parseInt64Arg(ctx.arg(3))
			if !ok2 {
				return resp.MakeError("value is not an integer or out of range")
			}
		}
	}
	n, err := ctx.storage.BitPos(ctx.arg(0), bit, hasRange, start, end)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}
