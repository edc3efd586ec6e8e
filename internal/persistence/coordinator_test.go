package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moonlightdb/moonlight/internal/storage"
	"go.uber.org/zap"
)

func newTestRDB(t *testing.T) *RDB {
	t.Helper()
	return NewRDB(filepath.Join(t.TempDir(), "dump.rdb"), zap.NewNop())
}

func TestCoordinatorChecksSaveThresholds(t *testing.T) {
	rdb := newTestRDB(t)
	ks, err := storage.NewShardedKeyspace(1)
	if err != nil {
		t.Fatalf("NewShardedKeyspace: %v", err)
	}

	c := NewCoordinator(rdb, nil, 0, 2, 0, zap.NewNop())

	// below minChanges: no save
	c.RecordChange()
	c.checkSave(ks)
	if c.changes.Load() != 1 {
		t.Fatalf("expected save to be skipped below minChanges, changes=%d", c.changes.Load())
	}

	c.RecordChange()
	c.checkSave(ks)
	if c.changes.Load() != 0 {
		t.Errorf("expected changes counter reset after save, got %d", c.changes.Load())
	}
}

func TestCoordinatorRespectsSaveSecs(t *testing.T) {
	rdb := newTestRDB(t)
	ks, err := storage.NewShardedKeyspace(1)
	if err != nil {
		t.Fatalf("NewShardedKeyspace: %v", err)
	}

	c := NewCoordinator(rdb, nil, 3600, 1, 0, zap.NewNop())
	c.RecordChange()
	c.checkSave(ks)

	if c.changes.Load() != 1 {
		t.Errorf("expected save to be withheld until saveSecs elapses, changes=%d", c.changes.Load())
	}
}

func TestTriggerSaveRejectsConcurrentSave(t *testing.T) {
	rdb := newTestRDB(t)
	ks, err := storage.NewShardedKeyspace(1)
	if err != nil {
		t.Fatalf("NewShardedKeyspace: %v", err)
	}

	c := NewCoordinator(rdb, nil, 0, 0, 0, zap.NewNop())

	c.saving.Store(true) // simulate a save already in flight (BGSAVE, say)
	if err := c.TriggerSave(ks); err != ErrSaveInProgress {
		t.Fatalf("expected ErrSaveInProgress, got %v", err)
	}

	c.saving.Store(false)
	if err := c.TriggerSave(ks); err != nil {
		t.Fatalf("TriggerSave with no save in flight: %v", err)
	}
}

func TestCoordinatorSingleFlightsRewrite(t *testing.T) {
	aof, _ := newTestAOF(t, "always")
	ks, err := storage.NewShardedKeyspace(1)
	if err != nil {
		t.Fatalf("NewShardedKeyspace: %v", err)
	}

	aof.Write(mustSerialize(t, "SET", "a", "1"))
	time.Sleep(20 * time.Millisecond)

	c := NewCoordinator(nil, aof, 0, 0, 1, zap.NewNop())

	c.rewriting.Store(true) // simulate a rewrite already in flight
	c.checkRewrite(ks)      // must not start a second one

	if !c.rewriting.Load() {
		t.Fatalf("expected in-flight rewrite flag to remain set")
	}
}
