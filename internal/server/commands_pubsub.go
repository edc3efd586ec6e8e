package server

import (
	"strings"

	"github.com/moonlightdb/moonlight/internal/resp"
)

func (e *Engine) registerPubSubCommands() {
	e.register("SUBSCRIBE", commandFunc(subscribeCmd))
	e.register("UNSUBSCRIBE", commandFunc(unsubscribeCmd))
	e.register("PUBLISH", commandFunc(publishCmd))
	e.register("PUBSUB", commandFunc(pubsubCmd))
}

func subscribeFrame(kind, channel string, count int) resp.Value {
	return resp.MakeArray([]resp.Value{
		resp.MakeBulkString(kind),
		resp.MakeBulkString(channel),
		resp.MakeInteger(int64(count)),
	})
}

// subscribeCmd sends one confirmation frame per channel named. Redis
// pushes these as separate out-of-band replies rather than one array; only
// the last frame is returned so the caller's single reply write carries it,
// the rest go out immediately through the peer.
func subscribeCmd(ctx *context) resp.Value {
	channels := stringsOf(ctx.args)
	var last resp.Value
	for i, ch := range channels {
		count := ctx.bus.Subscribe(ctx.peer, ch)
		frame := subscribeFrame("subscribe", ch, count)
		if i == len(channels)-1 {
			last = frame
		} else {
			ctx.peer.Send(frame) //nolint:errcheck
		}
	}
	return last
}

func unsubscribeCmd(ctx *context) resp.Value {
	channels := stringsOf(ctx.args)
	if len(channels) == 0 {
		channels = ctx.bus.SubscribedChannels(ctx.peer)
		if len(channels) == 0 {
			return subscribeFrame("unsubscribe", "", 0)
		}
	}
	var last resp.Value
	for i, ch := range channels {
		count := ctx.bus.Unsubscribe(ctx.peer, ch)
		frame := subscribeFrame("unsubscribe", ch, count)
		if i == len(channels)-1 {
			last = frame
		} else {
			ctx.peer.Send(frame) //nolint:errcheck
		}
	}
	return last
}

func publishCmd(ctx *context) resp.Value {
	n := ctx.bus.Publish(ctx.arg(0), ctx.args[1].String)
	return resp.MakeInteger(n)
}

func pubsubCmd(ctx *context) resp.Value {
	if len(ctx.args) == 0 {
		return resp.MakeErrorWrongNumberOfArguments("PUBSUB")
	}
	switch strings.ToUpper(ctx.arg(0)) {
	case "CHANNELS":
		pattern := ""
		if len(ctx.args) > 1 {
			pattern = ctx.arg(1)
		}
		return stringArray(ctx.bus.Channels(pattern))
	case "NUMSUB":
		channels := stringsOf(ctx.args[1:])
		counts := ctx.bus.NumSub(channels)
		vals := make([]resp.Value, 0, len(channels)*2)
		for _, ch := range channels {
			vals = append(vals, resp.MakeBulkString(ch), resp.MakeInteger(counts[ch]))
		}
		return resp.MakeArray(vals)
	case "NUMPAT":
		return resp.MakeInteger(ctx.bus.NumPat())
	default:
		return resp.MakeError("unknown PUBSUB subcommand")
	}
}
