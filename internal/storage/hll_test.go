package storage

import (
	"fmt"
	"math"
	"testing"
)

func TestPFAddAndPFCountApproximate(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	const n = 10000
	elements := make([][]byte, n)
	for i := 0; i < n; i++ {
		elements[i] = []byte(fmt.Sprintf("element-%d", i))
	}

	changed, err := ks.PFAdd("hll", elements)
	if err != nil || !changed {
		t.Fatalf("expected registers to change: changed=%v err=%v", changed, err)
	}

	count, err := ks.PFCount([]string{"hll"})
	if err != nil {
		t.Fatalf("pfcount failed: %v", err)
	}

	errPct := math.Abs(float64(count)-float64(n)) / float64(n)
	if errPct > 0.05 {
		t.Fatalf("estimate %d too far from true cardinality %d (%.2f%% error)", count, n, errPct*100)
	}
}

func TestPFAddSameElementTwiceDoesNotGrowCardinality(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	ks.PFAdd("hll", [][]byte{[]byte("a"), []byte("b")}) //nolint:errcheck
	before, _ := ks.PFCount([]string{"hll"})

	ks.PFAdd("hll", [][]byte{[]byte("a"), []byte("b")}) //nolint:errcheck
	after, _ := ks.PFCount([]string{"hll"})

	if before != after {
		t.Fatalf("re-adding known elements should not change the estimate: before=%d after=%d", before, after)
	}
}

func TestPFMergeUnion(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	ks.PFAdd("a", [][]byte{[]byte("x"), []byte("y")}) //nolint:errcheck
	ks.PFAdd("b", [][]byte{[]byte("y"), []byte("z")}) //nolint:errcheck

	if err := ks.PFMerge("dest", []string{"a", "b"}); err != nil {
		t.Fatalf("pfmerge failed: %v", err)
	}

	merged, _ := ks.PFCount([]string{"dest"})
	union, _ := ks.PFCount([]string{"a", "b"})
	if merged != union {
		t.Fatalf("PFMERGE result should match multi-key PFCOUNT: merged=%d union=%d", merged, union)
	}
}

func TestPFCountRejectsNonHLLString(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.Set("k", []byte("not an hll"), SetOptions{}) //nolint:errcheck

	if _, err := ks.PFCount([]string{"k"}); err != ErrInvalidHLL {
		t.Fatalf("expected ErrInvalidHLL, got %v", err)
	}
}
