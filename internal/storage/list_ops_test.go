package storage

import "testing"

func TestListPushPopOrder(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	ks.RPush("l", [][]byte{[]byte("a"), []byte("b"), []byte("c")}) //nolint:errcheck
	ks.LPush("l", [][]byte{[]byte("z")})                           //nolint:errcheck

	vals, err := ks.LRange("l", 0, -1)
	if err != nil {
		t.Fatalf("lrange failed: %v", err)
	}
	want := []string{"z", "a", "b", "c"}
	if len(vals) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(vals))
	}
	for i, w := range want {
		if string(vals[i]) != w {
			t.Fatalf("index %d: expected %q, got %q", i, w, vals[i])
		}
	}

	v, ok, _ := ks.LPop("l")
	if !ok || string(v) != "z" {
		t.Fatalf("lpop mismatch: %q", v)
	}
	v, ok, _ = ks.RPop("l")
	if !ok || string(v) != "c" {
		t.Fatalf("rpop mismatch: %q", v)
	}
}

func TestListPopEmptiesKey(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.RPush("l", [][]byte{[]byte("a")}) //nolint:errcheck
	ks.LPop("l")                         //nolint:errcheck

	if ks.Exists("l") {
		t.Fatalf("list should be deleted once empty")
	}
	if n, _ := ks.LLen("l"); n != 0 {
		t.Fatalf("expected length 0 for missing list, got %d", n)
	}
}

func TestListRangeNegativeIndices(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.RPush("l", [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}) //nolint:errcheck

	vals, _ := ks.LRange("l", -2, -1)
	if len(vals) != 2 || string(vals[0]) != "c" || string(vals[1]) != "d" {
		t.Fatalf("unexpected tail range: %v", vals)
	}
}
