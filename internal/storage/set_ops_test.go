package storage

import (
	"sort"
	"testing"
)

func sortedStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestSetAddRemoveMembers(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	added, _ := ks.SAdd("s", []string{"a", "b", "a"})
	if added != 2 {
		t.Fatalf("expected 2 new members, got %d", added)
	}

	if ok, _ := ks.SIsMember("s", "a"); !ok {
		t.Fatalf("expected a to be a member")
	}

	removed, _ := ks.SRem("s", []string{"a"})
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if ok, _ := ks.SIsMember("s", "a"); ok {
		t.Fatalf("a should no longer be a member")
	}
}

func TestSetInterUnionDiff(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.SAdd("s1", []string{"a", "b", "c"}) //nolint:errcheck
	ks.SAdd("s2", []string{"b", "c", "d"}) //nolint:errcheck

	inter, _ := ks.SInter([]string{"s1", "s2"})
	if got := sortedStrings(inter); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("unexpected intersection: %v", got)
	}

	union, _ := ks.SUnion([]string{"s1", "s2"})
	if got := sortedStrings(union); len(got) != 4 {
		t.Fatalf("unexpected union: %v", got)
	}

	diff, _ := ks.SDiff([]string{"s1", "s2"})
	if got := sortedStrings(diff); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected diff: %v", got)
	}
}

func TestSetMove(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.SAdd("src", []string{"m"}) //nolint:errcheck

	moved, err := ks.SMove("src", "dst", "m")
	if err != nil || !moved {
		t.Fatalf("expected move to succeed: moved=%v err=%v", moved, err)
	}
	if ok, _ := ks.SIsMember("dst", "m"); !ok {
		t.Fatalf("expected m to be in dst")
	}
	if ks.Exists("src") {
		t.Fatalf("src should be deleted once emptied by the move")
	}

	moved, err = ks.SMove("src", "dst", "m")
	if err != nil || moved {
		t.Fatalf("moving an absent member should be a no-op, got moved=%v err=%v", moved, err)
	}
}

func TestSetPopAndRandMember(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.SAdd("s", []string{"a", "b", "c"}) //nolint:errcheck

	popped, _ := ks.SPop("s", 2, true)
	if len(popped) != 2 {
		t.Fatalf("expected 2 popped members, got %d", len(popped))
	}
	if card, _ := ks.SCard("s"); card != 1 {
		t.Fatalf("expected 1 member left, got %d", card)
	}

	dup, _ := ks.SRandMember("s", -5, true)
	if len(dup) != 5 {
		t.Fatalf("negative count should allow duplicates up to the requested count, got %d", len(dup))
	}
}
