package persistence

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/moonlightdb/moonlight/internal/storage"
	"go.uber.org/zap"
)

// ErrSaveInProgress is returned by TriggerSave when a save (the
// coordinator's own auto-save tick, SAVE, or BGSAVE) is already running.
var ErrSaveInProgress = errors.New("a save is already in progress")

// Coordinator drives auto-save and AOF-rewrite scheduling from write
// activity instead of a bare interval ticker: an RDB save only fires once
// both enough time and enough changes have accumulated, and an AOF rewrite
// only fires once the log has grown past its threshold, with at most one
// rewrite running at a time.
type Coordinator struct {
	rdb *RDB
	aof *AOF

	saveSecs   int64
	minChanges int64
	rewriteAt  int64

	changes     atomic.Int64
	lastSavedAt atomic.Int64 // unix seconds

	saving    atomic.Bool
	rewriting atomic.Bool

	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewCoordinator builds a coordinator for the given backends. Either rdb or
// aof may be nil when that backend is disabled.
func NewCoordinator(rdb *RDB, aof *AOF, saveSecs, minChanges, rewriteThreshold int64, logger *zap.Logger) *Coordinator {
	c := &Coordinator{
		rdb:        rdb,
		aof:        aof,
		saveSecs:   saveSecs,
		minChanges: minChanges,
		rewriteAt:  rewriteThreshold,
		stopCh:     make(chan struct{}),
		logger:     logger,
	}
	c.lastSavedAt.Store(time.Now().Unix())
	return c
}

// RecordChange marks one write command as applied, feeding the RDB
// min-changes threshold.
func (c *Coordinator) RecordChange() {
	c.changes.Add(1)
}

// MarkSaved resets the change counter and save clock. TriggerSave calls it
// after each successful save, whether from SAVE, BGSAVE or the auto-save
// tick.
func (c *Coordinator) MarkSaved() {
	c.changes.Store(0)
	c.lastSavedAt.Store(time.Now().Unix())
}

// Run ticks once a second, checking both schedules. It returns once Stop is
// called.
func (c *Coordinator) Run(ks *storage.ShardedKeyspace) {
	c.wg.Add(1)
	defer c.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.checkSave(ks)
			c.checkRewrite(ks)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Coordinator) checkSave(ks *storage.ShardedKeyspace) {
	if c.rdb == nil {
		return
	}
	elapsed := time.Now().Unix() - c.lastSavedAt.Load()
	if elapsed < c.saveSecs || c.changes.Load() < c.minChanges {
		return
	}
	if err := c.TriggerSave(ks); err != nil && !errors.Is(err, ErrSaveInProgress) {
		c.logger.Error("auto-save RDB failed", zap.Error(err))
	}
}

// TriggerSave runs an RDB save if one isn't already in flight, the same
// single-flight shape checkRewrite uses for AOF rewrites. SAVE, BGSAVE, and
// the coordinator's own auto-save tick all funnel through this so none of
// them can race another's os.Create/os.Rename of the same temp file.
func (c *Coordinator) TriggerSave(ks *storage.ShardedKeyspace) error {
	if c.rdb == nil {
		return errors.New("RDB persistence disabled")
	}
	if !c.saving.CompareAndSwap(false, true) {
		return ErrSaveInProgress
	}
	defer c.saving.Store(false)

	if err := c.rdb.Save(ks); err != nil {
		return err
	}
	c.MarkSaved()
	return nil
}

// Saving reports whether an RDB save is currently in flight.
func (c *Coordinator) Saving() bool {
	return c.saving.Load()
}

func (c *Coordinator) checkRewrite(ks *storage.ShardedKeyspace) {
	if c.aof == nil || c.rewriteAt <= 0 {
		return
	}
	if c.aof.Size() < c.rewriteAt {
		return
	}
	if !c.rewriting.CompareAndSwap(false, true) {
		return // a rewrite is already in flight
	}

	go func() {
		defer c.rewriting.Store(false)
		if err := c.aof.Rewrite(ks); err != nil {
			c.logger.Error("AOF rewrite failed", zap.Error(err))
		}
	}()
}

// Rewriting reports whether an AOF rewrite is currently in flight.
func (c *Coordinator) Rewriting() bool {
	return c.rewriting.Load()
}

// Stop ends the background loop and waits for it to exit.
func (c *Coordinator) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}
