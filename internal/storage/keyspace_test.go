package storage

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func TestNewShardedKeyspace(t *testing.T) {
	tests := []struct {
		name        string
		shards      uint
		expectError bool
	}{
		{"valid 1 shard", 1, false},
		{"valid 16 shards", 16, false},
		{"valid 64 shards", 64, false},
		{"invalid 0 shards", 0, true},
		{"invalid 3 shards (not power of 2)", 3, true},
		{"invalid 128 shards (too many)", 128, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks, err := NewShardedKeyspace(tt.shards)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %d shards, got nil", tt.shards)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %d shards: %v", tt.shards, err)
			}
			if uint(len(ks.shards)) != tt.shards {
				t.Errorf("expected %d shards, got %d", tt.shards, len(ks.shards))
			}
		})
	}
}

func TestExpireAndTTL(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	ks.Set("k", []byte("v"), SetOptions{}) //nolint:errcheck
	if ttl := ks.TTL("k"); ttl != int64(ExpNoTimeout) {
		t.Fatalf("expected no timeout, got %d", ttl)
	}

	ks.Expire("k", 100)
	if ttl := ks.TTL("k"); ttl <= 0 || ttl > 100 {
		t.Fatalf("unexpected ttl %d", ttl)
	}

	ks.Persist("k")
	if ttl := ks.TTL("k"); ttl != int64(ExpNoTimeout) {
		t.Fatalf("expected persist to clear timeout, got %d", ttl)
	}

	ks.Expire("k", 0)
	if ks.Exists("k") {
		t.Fatalf("expire with non-positive ttl should delete the key")
	}

	if ttl := ks.TTL("missing"); ttl != int64(ExpNotFound) {
		t.Fatalf("expected not found for missing key, got %d", ttl)
	}
}

func TestRevisionNeverCollidesAcrossDelete(t *testing.T) {
	ks, _ := NewShardedKeyspace(1)

	ks.Set("k", []byte("a"), SetOptions{}) //nolint:errcheck
	rev1 := ks.Revision("k")

	ks.Delete("k")
	ks.Set("k", []byte("b"), SetOptions{}) //nolint:errcheck
	rev2 := ks.Revision("k")

	if rev2 <= rev1 {
		t.Fatalf("expected revision to strictly increase across delete+recreate: %d -> %d", rev1, rev2)
	}
}

func TestRename(t *testing.T) {
	ks, _ := NewShardedKeyspace(8)

	ks.Set("src", []byte("v"), SetOptions{}) //nolint:errcheck
	ks.Expire("src", 50)

	if err := ks.Rename("src", "dst"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if ks.Exists("src") {
		t.Fatalf("source key should be gone after rename")
	}
	val, ok, _ := ks.Get("dst")
	if !ok || string(val) != "v" {
		t.Fatalf("renamed value mismatch: %q ok=%v", val, ok)
	}
	if ttl := ks.TTL("dst"); ttl <= 0 {
		t.Fatalf("expected ttl to carry over on rename, got %d", ttl)
	}

	if err := ks.Rename("nope", "whatever"); err == nil {
		t.Fatalf("expected error renaming a missing key")
	}
}

func TestFlushAll(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	for i := 0; i < 20; i++ {
		ks.Set(fmt.Sprintf("k%d", i), []byte("v"), SetOptions{}) //nolint:errcheck
	}
	ks.FlushAll()
	for i := 0; i < 20; i++ {
		if ks.Exists(fmt.Sprintf("k%d", i)) {
			t.Fatalf("key k%d survived FlushAll", i)
		}
	}
}

func TestLenAndNumShards(t *testing.T) {
	ks, _ := NewShardedKeyspace(8)
	if ks.NumShards() != 8 {
		t.Fatalf("expected 8 shards, got %d", ks.NumShards())
	}
	for i := 0; i < 5; i++ {
		ks.Set(fmt.Sprintf("len%d", i), []byte("v"), SetOptions{}) //nolint:errcheck
	}
	if n := ks.Len(); n != 5 {
		t.Fatalf("expected 5 keys, got %d", n)
	}
	ks.Delete("len0")
	if n := ks.Len(); n != 4 {
		t.Fatalf("expected 4 keys after delete, got %d", n)
	}
}

func TestDeleteExpiredSweepsPastDeadlines(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.Set("a", []byte("v"), SetOptions{}) //nolint:errcheck
	ks.ExpireAt("a", time.Now().Add(-time.Hour).Unix())

	// ExpireAt in the past deletes eagerly, so seed a second key directly
	// via PExpire with a near-zero window instead.
	ks.Set("b", []byte("v"), SetOptions{}) //nolint:errcheck
	ks.PExpire("b", 1)
	time.Sleep(5 * time.Millisecond)

	deleted, _ := ks.DeleteExpired(1000)
	found := false
	for _, k := range deleted {
		if k == "b" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected DeleteExpired to sweep up key b, got %v", deleted)
	}
}

func TestShardedKeyspaceConcurrent(t *testing.T) {
	ks, _ := NewShardedKeyspace(16)
	var wg sync.WaitGroup

	workers := 50
	ops := 2000

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

			for j := 0; j < ops; j++ {
				key := fmt.Sprintf("key-%d", r.Intn(100))
				switch r.Intn(4) {
				case 0:
					ks.Set(key, []byte(fmt.Sprintf("val-%d", j)), SetOptions{}) //nolint:errcheck
				case 1:
					ks.Get(key) //nolint:errcheck
				case 2:
					ks.Delete(key)
				case 3:
					ks.Expire(key, 10)
				}
			}
		}(i)
	}
	wg.Wait()
}
