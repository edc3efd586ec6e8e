package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/moonlightdb/moonlight/internal/resp"
	"github.com/moonlightdb/moonlight/internal/storage"
)

func (e *Engine) registerStringCommands() {
	e.register("SET", commandFunc(setCmd))
	e.register("GET", commandFunc(getCmd))
}

func setCmd(ctx *context) resp.Value {
	key := ctx.arg(0)
	value := ctx.args[1].String

	var opts storage.SetOptions
	for i := 2; i < len(ctx.args); i++ {
		switch strings.ToUpper(ctx.arg(i)) {
		case "EX":
			i++
			if i >= len(ctx.args) {
				return resp.MakeError("syntax error")
			}
			secs, err := strconv.ParseInt(ctx.arg(i), 10, 64)
			if err != nil {
				return resp.MakeError("value is not an integer or out of range")
			}
			opts.HasTTL = true
			opts.TTL = time.Duration(secs) * time.Second
		case "PX":
			i++
			if i >= len(ctx.args) {
				return resp.MakeError("syntax error")
			}
			millis, err := strconv.ParseInt(ctx.arg(i), 10, 64)
			if err != nil {
				return resp.MakeError("value is not an integer or out of range")
			}
			opts.HasTTL = true
			opts.TTL = time.Duration(millis) * time.Millisecond
		case "EXAT":
			i++
			if i >= len(ctx.args) {
				return resp.MakeError("syntax error")
			}
			secs, err := strconv.ParseInt(ctx.arg(i), 10, 64)
			if err != nil {
				return resp.MakeError("value is not an integer or out of range")
			}
			opts.HasAt = true
			opts.At = time.Unix(secs, 0)
		case "PXAT":
			i++
			if i >= len(ctx.args) {
				return resp.MakeError("syntax error")
			}
			millis, err := strconv.ParseInt(ctx.arg(i), 10, 64)
			if err != nil {
				return resp.MakeError("value is not an integer or out of range")
			}
			opts.HasAt = true
			opts.At = time.UnixMilli(millis)
		case "NX":
			opts.NX = true
		case "XX":
			opts.XX = true
		case "KEEPTTL":
			opts.KeepTTL = true
		default:
			return resp.MakeError("syntax error")
		}
	}

	stored, err := ctx.storage.Set(key, value, opts)
	if err != nil {
		return errReply(err)
	}
	if !stored {
		return resp.MakeNilBulkString()
	}
	return resp.MakeSimpleString("OK")
}

func getCmd(ctx *context) resp.Value {
	val, ok, err := ctx.storage.Get(ctx.arg(0))
	if err != nil {
		return errReply(err)
	}
	if !ok {
		ctx.engine.recordMiss()
		return resp.MakeNilBulkString()
	}
	ctx.engine.recordHit()
	return resp.MakeBulkString(string(val))
}
