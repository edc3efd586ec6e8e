package server

import (
	"errors"
	"strings"
	"time"

	"github.com/moonlightdb/moonlight/internal/info"
	"github.com/moonlightdb/moonlight/internal/persistence"
	"github.com/moonlightdb/moonlight/internal/resp"
	"go.uber.org/zap"
)

func (e *Engine) registerAdminCommands() {
	e.register("SAVE", commandFunc(saveCmd))
	e.register("BGSAVE", commandFunc(bgsaveCmd))
	e.register("LASTSAVE", commandFunc(lastsaveCmd))
	e.register("INFO", commandFunc(infoCmd))
	e.register("SHUTDOWN", commandFunc(shutdownCmd))
	e.register("COMMAND", commandFunc(commandCmd))
}

func saveCmd(ctx *context) resp.Value {
	if ctx.engine.rdb == nil {
		return resp.MakeError("RDB persistence disabled")
	}
	if err := ctx.engine.TriggerSave(); err != nil {
		return resp.MakeError(err.Error())
	}
	return resp.MakeSimpleString("OK")
}

func bgsaveCmd(ctx *context) resp.Value {
	e := ctx.engine
	if e.rdb == nil {
		return resp.MakeError("RDB persistence disabled")
	}
	if e.coordinator.Saving() {
		return resp.MakeError("Background save already in progress")
	}
	go func() {
		if err := e.TriggerSave(); err != nil && !errors.Is(err, persistence.ErrSaveInProgress) {
			e.logger.Error("background save failed", zap.Error(err))
		}
	}()
	return resp.MakeSimpleString("Background saving started")
}

func lastsaveCmd(ctx *context) resp.Value {
	return resp.MakeInteger(ctx.engine.LastSave())
}

func infoCmd(ctx *context) resp.Value {
	e := ctx.engine
	stats := info.Stats{
		Uptime:            time.Since(e.StartedAt()),
		Keys:              e.storage.Len(),
		Shards:            e.storage.NumShards(),
		AOFEnabled:        e.aof != nil,
		RDBEnabled:        e.rdb != nil,
		LastSaveUnix:      e.LastSave(),
		RewriteInProgress: e.RewriteInProgress(),
		GCEnabled:         e.cfg.GC.Enabled,
		PubSubChans:       int64(len(e.bus.Channels(""))),
		ConnectedClients:  int(e.ConnectedClients()),
		CommandsProcessed: e.CommandsProcessed(),
		KeyspaceHits:      e.KeyspaceHits(),
		KeyspaceMisses:    e.KeyspaceMisses(),
		ExpiredKeys:       e.ExpiredKeys(),
	}
	sections := make([]string, len(ctx.args))
	for i, a := range ctx.args {
		sections[i] = string(a.String)
	}
	return resp.MakeBulkString(info.Build(stats, sections...))
}

// shutdownCmd replies before tearing anything down, the same out-of-band
// pattern subscribeCmd uses to push a frame ahead of its return value:
// requestShutdown's persistence and the process teardown it triggers
// otherwise race the connection being torn down before the client ever
// sees a reply.
func shutdownCmd(ctx *context) resp.Value {
	nosave := false
	for _, a := range ctx.args {
		if strings.EqualFold(string(a.String), "NOSAVE") {
			nosave = true
		}
	}
	ctx.peer.Send(resp.MakeSimpleString("OK - shutting down")) //nolint:errcheck
	ctx.engine.requestShutdown(nosave)
	return resp.Value{}
}

func commandCmd(ctx *context) resp.Value {
	if len(ctx.args) == 0 {
		return getAllCommands()
	}
	switch strings.ToUpper(ctx.arg(0)) {
	case "DOCS":
		return getCommandsDocs(ctx.args[1:])
	case "COUNT":
		return resp.MakeInteger(int64(len(commandRegistry)))
	default:
		return getAllCommands()
	}
}
