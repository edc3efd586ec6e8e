package storage

import "testing"

func TestZAddAndZScore(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)

	created, _ := ks.ZAdd("z", []ZMember{{Member: "a", Score: 1}, {Member: "b", Score: 2}})
	if created != 2 {
		t.Fatalf("expected 2 new members, got %d", created)
	}

	created, _ = ks.ZAdd("z", []ZMember{{Member: "a", Score: 5}})
	if created != 0 {
		t.Fatalf("updating an existing member should not count as created, got %d", created)
	}

	score, ok, _ := ks.ZScore("z", "a")
	if !ok || score != 5 {
		t.Fatalf("expected updated score 5, got %v ok=%v", score, ok)
	}
}

func TestZRangeAscendingOrder(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.ZAdd("z", []ZMember{ //nolint:errcheck
		{Member: "c", Score: 3},
		{Member: "a", Score: 1},
		{Member: "b", Score: 2},
	})

	members, err := ks.ZRange("z", 0, -1)
	if err != nil {
		t.Fatalf("zrange failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if members[i].Member != w {
			t.Fatalf("index %d: expected %q, got %q", i, w, members[i].Member)
		}
	}
}

func TestZRevRangeMirrorsZRange(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.ZAdd("z", []ZMember{ //nolint:errcheck
		{Member: "c", Score: 3},
		{Member: "a", Score: 1},
		{Member: "b", Score: 2},
	})

	members, _ := ks.ZRevRange("z", 0, -1)
	want := []string{"c", "b", "a"}
	for i, w := range want {
		if members[i].Member != w {
			t.Fatalf("index %d: expected %q, got %q", i, w, members[i].Member)
		}
	}
}

func TestZRangeByScoreAndCount(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.ZAdd("z", []ZMember{ //nolint:errcheck
		{Member: "a", Score: 1},
		{Member: "b", Score: 2},
		{Member: "c", Score: 3},
		{Member: "d", Score: 4},
	})

	members, _ := ks.ZRangeByScore("z", 2, 3)
	if len(members) != 2 || members[0].Member != "b" || members[1].Member != "c" {
		t.Fatalf("unexpected range-by-score result: %+v", members)
	}

	count, _ := ks.ZCount("z", 2, 3)
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestZIncrByCreatesMissingMember(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	score, err := ks.ZIncrBy("z", "a", 2.5)
	if err != nil || score != 2.5 {
		t.Fatalf("expected initial score 2.5, got %v err=%v", score, err)
	}

	score, _ = ks.ZIncrBy("z", "a", 1.5)
	if score != 4 {
		t.Fatalf("expected incremented score 4, got %v", score)
	}
}

func TestZRemEmptiesKey(t *testing.T) {
	ks, _ := NewShardedKeyspace(4)
	ks.ZAdd("z", []ZMember{{Member: "a", Score: 1}}) //nolint:errcheck
	ks.ZRem("z", []string{"a"})                       //nolint:errcheck

	if ks.Exists("z") {
		t.Fatalf("sorted set should be deleted once its last member is removed")
	}
}

func TestSkiplistRankOrdersByScoreThenMember(t *testing.T) {
	sl := newSkiplist()
	sl.insert(1, "b")
	sl.insert(1, "a")
	sl.insert(2, "c")

	order := sl.ascend()
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if order[i].member != w {
			t.Fatalf("index %d: expected %q, got %q", i, w, order[i].member)
		}
	}

	if r := sl.rank(1, "a"); r != 0 {
		t.Fatalf("expected rank 0 for a, got %d", r)
	}
	if r := sl.rank(2, "c"); r != 2 {
		t.Fatalf("expected rank 2 for c, got %d", r)
	}
}

func TestSkiplistByRankRoundTrip(t *testing.T) {
	sl := newSkiplist()
	members := []string{"e", "d", "c", "b", "a"}
	for i, m := range members {
		sl.insert(float64(len(members)-i), m)
	}

	for i := int64(0); i < int64(len(members)); i++ {
		node := sl.byRank(i)
		if node == nil {
			t.Fatalf("expected a node at rank %d", i)
		}
	}
	if sl.byRank(-1) != nil || sl.byRank(int64(len(members))) != nil {
		t.Fatalf("out-of-range ranks should return nil")
	}
}
