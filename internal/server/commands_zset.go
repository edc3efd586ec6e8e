package server

import (
	"strconv"
	"strings"

	"github.com/moonlightdb/moonlight/internal/resp"
	"github.com/moonlightdb/moonlight/internal/storage"
)

func (e *Engine) registerZSetCommands() {
	e.register("ZADD", commandFunc(zaddCmd))
	e.register("ZREM", commandFunc(zremCmd))
	e.register("ZCARD", commandFunc(zcardCmd))
	e.register("ZCOUNT", commandFunc(zcountCmd))
	e.register("ZSCORE", commandFunc(zscoreCmd))
	e.register("ZINCRBY", commandFunc(zincrbyCmd))
	e.register("ZRANGE", commandFunc(zrangeCmd))
	e.register("ZREVRANGE", commandFunc(zrevrangeCmd))
	e.register("ZRANGEBYSCORE", commandFunc(zrangebyscoreCmd))
}

func parseFloatArg(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func zaddCmd(ctx *context) resp.Value {
	rest := ctx.args[1:]
	if len(rest)%2 != 0 || len(rest) == 0 {
		return resp.MakeErrorWrongNumberOfArguments("ZADD")
	}
	members := make([]storage.ZMember, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		score, ok := parseFloatArg(string(rest[i].String))
		if !ok {
			return resp.MakeError("value is not a valid float")
		}
		members = append(members, storage.ZMember{Score: score, Member: string(rest[i+1].String)})
	}
	n, err := ctx.storage.ZAdd(ctx.arg(0), members)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func zremCmd(ctx *context) resp.Value {
	n, err := ctx.storage.ZRem(ctx.arg(0), stringsOf(ctx.args[1:]))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func zcardCmd(ctx *context) resp.Value {
	n, err := ctx.storage.ZCard(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func zcountCmd(ctx *context) resp.Value {
	min, ok1 := parseFloatArg(ctx.arg(1))
	max, ok2 := parseFloatArg(ctx.arg(2))
	if !ok1 || !ok2 {
		return resp.MakeError("min or max is not a float")
	}
	n, err := ctx.storage.ZCount(ctx.arg(0), min, max)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeInteger(n)
}

func zscoreCmd(ctx *context) resp.Value {
	score, ok, err := ctx.storage.ZScore(ctx.arg(0), ctx.arg(1))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		return resp.MakeNilBulkString()
	}
	return resp.MakeBulkString(formatScore(score))
}

func zincrbyCmd(ctx *context) resp.Value {
	delta, ok := parseFloatArg(ctx.arg(1))
	if !ok {
		return resp.MakeError("value is not a valid float")
	}
	score, err := ctx.storage.ZIncrBy(ctx.arg(0), ctx.arg(2), delta)
	if err != nil {
		return errReply(err)
	}
	return resp.MakeBulkString(formatScore(score))
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func zMembersToReply(members []storage.ZMember, withScores bool) resp.Value {
	if !withScores {
		vals := make([]resp.Value, len(members))
		for i, m := range members {
			vals[i] = resp.MakeBulkString(m.Member)
		}
		return resp.MakeArray(vals)
	}
	vals := make([]resp.Value, 0, len(members)*2)
	for _, m := range members {
		vals = append(vals, resp.MakeBulkString(m.Member), resp.MakeBulkString(formatScore(m.Score)))
	}
	return resp.MakeArray(vals)
}

func hasWithScores(args []resp.Value, from int) bool {
	for _, a := range args[from:] {
		if strings.EqualFold(string(a.String), "WITHSCORES") {
			return true
		}
	}
	return false
}

func zrangeCmd(ctx *context) resp.Value {
	start, ok1 := parseInt64Arg(ctx.arg(1))
	stop, ok2 := parseInt64Arg(ctx.arg(2))
	if !ok1 || !ok2 {
		return resp.MakeError("value is not an integer or out of range")
	}
	members, err := ctx.storage.ZRange(ctx.arg(0), start, stop)
	if err != nil {
		return errReply(err)
	}
	return zMembersToReply(members, hasWithScores(ctx.args, 3))
}

func zrevrangeCmd(ctx *context) resp.Value {
	start, ok1 := parseInt64Arg(ctx.arg(1))
	stop, ok2 := parseInt64Arg(ctx.arg(2))
	if !ok1 || !ok2 {
		return resp.MakeError("value is not an integer or out of range")
	}
	members, err := ctx.storage.ZRevRange(ctx.arg(0), start, stop)
	if err != nil {
		return errReply(err)
	}
	return zMembersToReply(members, hasWithScores(ctx.args, 3))
}

func zrangebyscoreCmd(ctx *context) resp.Value {
	min, ok1 := parseFloatArg(ctx.arg(1))
	max, ok2 := parseFloatArg(ctx.arg(2))
	if !ok1 || !ok2 {
		return resp.MakeError("min or max is not a float")
	}
	members, err := ctx.storage.ZRangeByScore(ctx.arg(0), min, max)
	if err != nil {
		return errReply(err)
	}
	return zMembersToReply(members, hasWithScores(ctx.args, 3))
}
