package server

import "github.com/moonlightdb/moonlight/internal/resp"

func (e *Engine) registerSetCommands() {
	e.register("SADD", commandFunc(saddCmd))
	e.register("SREM", commandFunc(sremCmd))
	e.register("SCARD", commandFunc(scardCmd))
	e.register("SMEMBERS", commandFunc(smembersCmd))
	e.register("SISMEMBER", commandFunc(sismemberCmd))
	e.register("SMOVE", commandFunc(smoveCmd))
	e.register("SPOP", commandFunc(spopCmd))
	e.register("SRANDMEMBER", commandFunc(srandmemberCmd))
	e.register("SINTER", commandFunc(sinterCmd))
	e.register("SUNION", commandFunc(sunionCmd))
	e.register("SDIFF", commandFunc(sdiffCmd))
}

func stringsOf(vals []resp.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v.String)
	}
	return out
}

func stringArray(members []string) resp.Value {
	vals := make([]resp.Value, len(members))
	for i, m := range members {
		vals[i] = resp.MakeBulkString(m)
	}
	return resp.MakeArray(vals)
}

func saddCmd(ctx *context) resp.Value {
	n, err := ctx.storage.SAdd(ctx.arg(0), stringsOf(ctx.args[1:]))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func sremCmd(ctx *context) resp.Value {
	n, err := ctx.storage.SRem(ctx.arg(0), stringsOf(ctx.args[1:]))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func scardCmd(ctx *context) resp.Value {
	n, err := ctx.storage.SCard(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func smembersCmd(ctx *context) resp.Value {
	members, err := ctx.storage.SMembers(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	return stringArray(members)
}

func sismemberCmd(ctx *context) resp.Value {
	ok, err := ctx.storage.SIsMember(ctx.arg(0), ctx.arg(1))
	if err != nil {
		return errReply(err)
	}
	if ok {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func smoveCmd(ctx *context) resp.Value {
	moved, err := ctx.storage.SMove(ctx.arg(0), ctx.arg(1), ctx.arg(2))
	if err != nil {
		return errReply(err)
	}
	if moved {
		return resp.MakeInteger(1)
	}
	return resp.MakeInteger(0)
}

func spopCmd(ctx *context) resp.Value {
	hasCount := len(ctx.args) > 1
	var count int64 = 1
	if hasCount {
		n, ok := parseInt64Arg(ctx.arg(1))
		if !ok {
			return resp.MakeError("value is not an integer or out of range")
		}
		count = n
	}
	members, err := ctx.storage.SPop(ctx.arg(0), count, hasCount)
	if err != nil {
		return errReply(err)
	}
	if !hasCount {
		if len(members) == 0 {
			return resp.MakeNilBulkString()
		}
		return resp.MakeBulkString(members[0])
	}
	return stringArray(members)
}

func srandmemberCmd(ctx *context) resp.Value {
	hasCount := len(ctx.args) > 1
	var count int64 = 1
	if hasCount {
		n, ok := parseInt64Arg(ctx.arg(1))
		if !ok {
			return resp.MakeError("value is not an integer or out of range")
		}
		count = n
	}
	members, err := ctx.storage.SRandMember(ctx.arg(0), count, hasCount)
	if err != nil {
		return errReply(err)
	}
	if !hasCount {
		if len(members) == 0 {
			return resp.MakeNilBulkString()
		}
		return resp.MakeBulkString(members[0])
	}
	return stringArray(members)
}

func sinterCmd(ctx *context) resp.Value {
	members, err := ctx.storage.SInter(stringsOf(ctx.args))
	if err != nil {
		return errReply(err)
	}
	return stringArray(members)
}

func sunionCmd(ctx *context) resp.Value {
	members, err := ctx.storage.SUnion(stringsOf(ctx.args))
	if err != nil {
		return errReply(err)
	}
	return stringArray(members)
}

func sdiffCmd(ctx *context) resp.Value {
	members, err := ctx.storage.SDiff(stringsOf(ctx.args))
	if err != nil {
		return errReply(err)
	}
	return stringArray(members)
}
