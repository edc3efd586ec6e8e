package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moonlightdb/moonlight/internal/resp"
	"github.com/moonlightdb/moonlight/internal/storage"
	"go.uber.org/zap"
)

func newTestAOF(t *testing.T, strategy string) (*AOF, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appendonly.aof")
	aof, err := NewAOF(path, strategy, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAOF: %v", err)
	}
	t.Cleanup(func() { aof.Close() }) //nolint:errcheck
	return aof, path
}

func mustSerialize(t *testing.T, name string, args ...string) []byte {
	t.Helper()
	vals := make([]resp.Value, len(args))
	for i, a := range args {
		vals[i] = resp.MakeBulkString(a)
	}
	payload, err := resp.SerializeCommand(name, vals)
	if err != nil {
		t.Fatalf("SerializeCommand: %v", err)
	}
	return payload
}

func TestAOFWriteAndLoadRoundTrip(t *testing.T) {
	aof, _ := newTestAOF(t, "always")

	aof.Write(mustSerialize(t, "SET", "a", "1"))
	aof.Write(mustSerialize(t, "SET", "b", "2"))

	// fsyncAlways flushes synchronously on the listen goroutine, but Write
	// only enqueues; give it a moment to drain before reading the file back.
	time.Sleep(50 * time.Millisecond)

	cmds, err := aof.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if string(cmds[0].Array[0].String) != "SET" || string(cmds[0].Array[1].String) != "a" {
		t.Errorf("unexpected first command: %+v", cmds[0])
	}
}

func TestAOFSizeTracksWrites(t *testing.T) {
	aof, _ := newTestAOF(t, "always")

	if aof.Size() != 0 {
		t.Fatalf("expected fresh AOF to report size 0, got %d", aof.Size())
	}

	payload := mustSerialize(t, "SET", "k", "v")
	aof.Write(payload)

	if got := aof.Size(); got != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), got)
	}
}

func TestAOFRewriteCompactsLog(t *testing.T) {
	aof, _ := newTestAOF(t, "always")

	aof.Write(mustSerialize(t, "SET", "a", "1"))
	aof.Write(mustSerialize(t, "SET", "a", "2"))
	aof.Write(mustSerialize(t, "DEL", "a"))
	aof.Write(mustSerialize(t, "SET", "b", "3"))
	time.Sleep(50 * time.Millisecond)

	ks, err := storage.NewShardedKeyspace(1)
	if err != nil {
		t.Fatalf("NewShardedKeyspace: %v", err)
	}
	if _, err := ks.Set("b", []byte("3"), storage.SetOptions{}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := aof.Rewrite(ks); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	cmds, err := aof.Load()
	if err != nil {
		t.Fatalf("Load after rewrite: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("expected rewrite to collapse to 1 command, got %d", len(cmds))
	}
	if string(cmds[0].Array[0].String) != "SET" || string(cmds[0].Array[1].String) != "b" {
		t.Errorf("unexpected surviving command: %+v", cmds[0])
	}
}
