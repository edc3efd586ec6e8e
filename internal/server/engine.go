package server

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moonlightdb/moonlight/internal/config"
	"github.com/moonlightdb/moonlight/internal/persistence"
	"github.com/moonlightdb/moonlight/internal/pubsub"
	"github.com/moonlightdb/moonlight/internal/resp"
	"github.com/moonlightdb/moonlight/internal/storage"
	"go.uber.org/zap"
)

// Engine coordinates command execution and the background persistence and
// expiration tasks. A single dispatchMu makes MULTI/EXEC atomic: every
// command, queued or immediate, runs while holding it, so no other
// connection's write can land between a transaction's queued commands.
type Engine struct {
	commands map[string]command
	storage  *storage.ShardedKeyspace
	bus      *pubsub.Bus
	cfg      *config.Config

	dispatchMu sync.Mutex

	stopGC   chan struct{}
	stopOnce sync.Once

	aof         *persistence.AOF
	rdb         *persistence.RDB
	coordinator *persistence.Coordinator

	savedAt   time.Time
	savedAtMu sync.RWMutex

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	onShutdown   func()

	startedAt time.Time
	logger    *zap.Logger

	commandsProcessed atomic.Int64
	keyspaceHits      atomic.Int64
	keyspaceMisses    atomic.Int64
	expiredKeys       atomic.Int64
	connectedClients  atomic.Int64
}

// NewEngine wires the command registry, persistence backends, and
// background GC loop. AOF replay takes priority over an RDB load when both
// are enabled and the AOF file already exists, mirroring the teacher's
// recovery order.
func NewEngine(ks *storage.ShardedKeyspace, bus *pubsub.Bus, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	e := &Engine{
		commands:   make(map[string]command),
		storage:    ks,
		bus:        bus,
		cfg:        cfg,
		stopGC:     make(chan struct{}),
		shutdownCh: make(chan struct{}),
		startedAt:  time.Now(),
		logger:     logger,
	}
	e.registerCommands()

	aofExisted := false
	if cfg.Persistence.AOF.Enabled {
		if _, err := os.Stat(cfg.Persistence.AOF.Filename); err == nil {
			aofExisted = true
		}
		aof, err := persistence.NewAOF(cfg.Persistence.AOF.Filename, cfg.Persistence.AOF.Fsync, logger)
		if err != nil {
			return nil, err
		}
		e.aof = aof
		if err := e.restoreAOF(); err != nil {
			return nil, fmt.Errorf("AOF replay failed: %w", err)
		}
	}

	if cfg.Persistence.RDB.Enabled {
		e.rdb = persistence.NewRDB(cfg.Persistence.RDB.Filename, logger)

		if !cfg.Persistence.AOF.Enabled || !aofExisted {
			if err := e.rdb.Load(ks); err != nil {
				return nil, fmt.Errorf("RDB load failed: %w", err)
			}
			e.markSaved()
		}
	}

	if e.rdb != nil || e.aof != nil {
		e.coordinator = persistence.NewCoordinator(
			e.rdb, e.aof,
			cfg.Persistence.RDB.SaveSecs, cfg.Persistence.RDB.MinChanges,
			cfg.Persistence.AOF.RewriteThreshold,
			logger,
		)
		go e.coordinator.Run(ks)
	}

	if cfg.GC.Enabled {
		go e.startGCLoop()
	}

	return e, nil
}

// OnShutdown registers the callback SHUTDOWN invokes after persisting,
// typically main's signal-context cancel function so the accept loop tears
// down the same way it would on SIGTERM.
func (e *Engine) OnShutdown(fn func()) {
	e.onShutdown = fn
}

func (e *Engine) register(name string, cmd command) {
	e.commands[strings.ToUpper(name)] = cmd
}

func (e *Engine) restoreAOF() error {
	cmds, err := e.aof.Load()
	if err != nil {
		return err
	}
	e.logger.Info("restoring AOF", zap.Int("commands", len(cmds)))

	for _, cmdVal := range cmds {
		if cmdVal.Type != resp.TypeArray || len(cmdVal.Array) == 0 {
			continue
		}
		name := strings.ToUpper(string(cmdVal.Array[0].String))
		args := cmdVal.Array[1:]

		cmd, ok := e.commands[name]
		if !ok {
			continue
		}
		cmd.execute(&context{args: args, storage: e.storage, bus: e.bus, engine: e})
	}
	// Drop keys whose deadline had already passed once the replayed state
	// is complete.
	e.storage.DeleteExpired(math.MaxInt)
	e.logger.Info("AOF restore finished")
	return nil
}

// startGCLoop drives active expiration: DeleteExpired samples each shard,
// and when the expired ratio clears MatchThreshold the sweep repeats
// immediately instead of waiting for the next tick, so a burst of expiring
// keys gets reclaimed promptly.
func (e *Engine) startGCLoop() {
	ticker := time.NewTicker(e.cfg.GC.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.runGCSweep()
		case <-e.stopGC:
			e.logger.Info("GC stopped")
			return
		}
	}
}

func (e *Engine) runGCSweep() {
	for {
		expired, ratio := e.storage.DeleteExpired(e.cfg.GC.SamplesPerCheck)
		if len(expired) > 0 {
			e.logger.Debug("GC delete expired", zap.Int("count", len(expired)), zap.Float64("ratio", ratio))
			e.expiredKeys.Add(int64(len(expired)))
			e.logExpiredToAOF(expired)
		}
		if ratio < e.cfg.GC.MatchThreshold {
			return
		}
	}
}

func (e *Engine) logExpiredToAOF(keys []string) {
	if e.aof == nil {
		return
	}
	for _, key := range keys {
		payload, err := resp.SerializeCommand("DEL", []resp.Value{resp.MakeBulkString(key)})
		if err != nil {
			continue
		}
		e.aof.Write(payload)
	}
}

func (e *Engine) markSaved() {
	e.savedAtMu.Lock()
	e.savedAt = time.Now()
	e.savedAtMu.Unlock()
	if e.coordinator != nil {
		e.coordinator.MarkSaved()
	}
}

// TriggerSave runs an RDB save through the coordinator's single-flight
// guard, so SAVE, BGSAVE, and the coordinator's own auto-save tick can
// never race each other's temp-file write and rename of the same RDB file.
// Returns persistence.ErrSaveInProgress if a save is already running.
func (e *Engine) TriggerSave() error {
	if e.coordinator == nil {
		return errors.New("RDB persistence disabled")
	}
	if err := e.coordinator.TriggerSave(e.storage); err != nil {
		return err
	}
	e.savedAtMu.Lock()
	e.savedAt = time.Now()
	e.savedAtMu.Unlock()
	return nil
}

// LastSave reports the unix time of the most recent successful save.
func (e *Engine) LastSave() int64 {
	e.savedAtMu.RLock()
	defer e.savedAtMu.RUnlock()
	if e.savedAt.IsZero() {
		return 0
	}
	return e.savedAt.Unix()
}

// StartedAt is the process start time, used by INFO's uptime field.
func (e *Engine) StartedAt() time.Time { return e.startedAt }

// recordHit/recordMiss feed INFO's keyspace_hits/keyspace_misses counters.
// Scoped to the handful of commands whose whole purpose is a key lookup
// (GET, EXISTS) rather than threaded through every storage call site.
func (e *Engine) recordHit()  { e.keyspaceHits.Add(1) }
func (e *Engine) recordMiss() { e.keyspaceMisses.Add(1) }

// CommandsProcessed, KeyspaceHits, KeyspaceMisses, and ExpiredKeys report
// the running totals INFO's "stats" section renders.
func (e *Engine) CommandsProcessed() int64 { return e.commandsProcessed.Load() }
func (e *Engine) KeyspaceHits() int64      { return e.keyspaceHits.Load() }
func (e *Engine) KeyspaceMisses() int64    { return e.keyspaceMisses.Load() }
func (e *Engine) ExpiredKeys() int64       { return e.expiredKeys.Load() }

// RewriteInProgress reports whether the AOF is currently being compacted,
// for INFO's persistence section.
func (e *Engine) RewriteInProgress() bool {
	return e.coordinator != nil && e.coordinator.Rewriting()
}

// ClientConnected/ClientDisconnected track live connection count for INFO's
// connected_clients field. Called from Server's accept loop rather than
// derived from the dispatcher, since a connection can be idle indefinitely
// between commands.
func (e *Engine) ClientConnected()        { e.connectedClients.Add(1) }
func (e *Engine) ClientDisconnected()     { e.connectedClients.Add(-1) }
func (e *Engine) ConnectedClients() int64 { return e.connectedClients.Load() }

// Execute is the single entry point connections call for every command
// they read. It holds dispatchMu for the whole call, which is what makes
// an EXEC's queued commands atomic with respect to every other
// connection's commands: nothing else can interleave while this call runs.
func (e *Engine) Execute(peer *Peer, name string, args []resp.Value) resp.Value {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	upper := strings.ToUpper(name)
	if peer.tx.inMulti {
		if result, handled := e.queueOrIntercept(peer, upper, args); handled {
			return result
		}
	}
	return e.dispatch(peer, upper, args)
}

// dispatch looks up, validates, and runs a single command, logging it to
// the AOF on a successful write. Both the immediate path and
// execTransaction's queued replay funnel through here so a command behaves
// identically whether it ran standalone or inside MULTI.
func (e *Engine) dispatch(peer *Peer, upper string, args []resp.Value) resp.Value {
	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("executing command", zap.String("cmd", upper), zap.Int("args", len(args)))
	}

	cmd, ok := e.commands[upper]
	if !ok {
		return resp.MakeError(fmt.Sprintf("unknown command '%s'", strings.ToLower(upper)))
	}
	if err := checkArity(upper, args); err != nil {
		return resp.MakeError(err.Error())
	}
	e.commandsProcessed.Add(1)

	ctx := &context{args: args, storage: e.storage, bus: e.bus, peer: peer, engine: e}
	result := cmd.execute(ctx)

	if result.Type != resp.TypeError && isWriteCommand(upper) {
		if e.aof != nil {
			payload, err := resp.SerializeCommand(upper, args)
			if err != nil {
				e.logger.Error("failed to serialize command for AOF", zap.Error(err))
			} else {
				e.aof.Write(payload)
			}
		}
		if e.coordinator != nil {
			e.coordinator.RecordChange()
		}
	}
	return result
}

// requestShutdown persists (unless nosave) and unblocks the process-level
// shutdown, invoked by the SHUTDOWN command handler.
func (e *Engine) requestShutdown(nosave bool) {
	if !nosave && e.rdb != nil {
		if err := e.TriggerSave(); err != nil {
			e.logger.Error("save on shutdown failed", zap.Error(err))
		}
	}
	e.shutdownOnce.Do(func() {
		close(e.shutdownCh)
		if e.onShutdown != nil {
			e.onShutdown()
		}
	})
}

// Done reports the channel closed once a SHUTDOWN command has been
// processed, so the accept loop can tear down without waiting on a signal.
func (e *Engine) Done() <-chan struct{} { return e.shutdownCh }

// Shutdown stops background tasks and closes the AOF file. Safe to call
// more than once; only the first call has any effect.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		if e.cfg.GC.Enabled {
			close(e.stopGC)
		}
		if e.coordinator != nil {
			e.coordinator.Stop()
		}
		if e.aof != nil {
			e.aof.Close() //nolint:errcheck
		}
	})
}
