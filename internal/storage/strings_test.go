package storage

import (
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	ok, err := ks.Set("k", []byte("hello"), SetOptions{})
	if err != nil || !ok {
		t.Fatalf("set failed: ok=%v err=%v", ok, err)
	}

	val, found, err := ks.Get("k")
	if err != nil || !found || string(val) != "hello" {
		t.Fatalf("get mismatch: val=%q found=%v err=%v", val, found, err)
	}
}

func TestSetNXAndXX(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	ok, _ := ks.Set("k", []byte("v1"), SetOptions{XX: true})
	if ok {
		t.Fatalf("XX should fail against a missing key")
	}

	ok, _ = ks.Set("k", []byte("v1"), SetOptions{NX: true})
	if !ok {
		t.Fatalf("NX should succeed against a missing key")
	}

	ok, _ = ks.Set("k", []byte("v2"), SetOptions{NX: true})
	if ok {
		t.Fatalf("NX should fail once the key exists")
	}

	ok, _ = ks.Set("k", []byte("v3"), SetOptions{XX: true})
	if !ok {
		t.Fatalf("XX should succeed once the key exists")
	}
	val, _, _ := ks.Get("k")
	if string(val) != "v3" {
		t.Fatalf("expected v3, got %q", val)
	}
}

func TestSetKeepTTL(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	ks.Set("k", []byte("v1"), SetOptions{HasTTL: true, TTL: time.Minute}) //nolint:errcheck
	ks.Set("k", []byte("v2"), SetOptions{KeepTTL: true})                  //nolint:errcheck

	if ttl := ks.TTL("k"); ttl <= 0 {
		t.Fatalf("expected KEEPTTL to preserve the TTL, got %d", ttl)
	}

	ks.Set("k", []byte("v3"), SetOptions{}) //nolint:errcheck
	if ttl := ks.TTL("k"); ttl != int64(ExpNoTimeout) {
		t.Fatalf("plain SET should clear the TTL, got %d", ttl)
	}
}

func TestGetWrongType(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.SAdd("k", []string{"m"}) //nolint:errcheck

	if _, _, err := ks.Get("k"); err != ErrWrongType {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestExpiredStringIsInvisible(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.Set("k", []byte("v"), SetOptions{HasTTL: true, TTL: time.Millisecond}) //nolint:errcheck
	time.Sleep(5 * time.Millisecond)

	_, found, err := ks.Get("k")
	if err != nil || found {
		t.Fatalf("expected key to have expired: found=%v err=%v", found, err)
	}
}
