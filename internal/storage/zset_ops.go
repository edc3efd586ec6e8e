package storage

// ZMember pairs a sorted-set member with its score.
type ZMember struct {
	Member string
	Score  float64
}

// ZAdd inserts or updates scores for members, creating the sorted set if
// absent. Returns the count of members that are new (ZADD's return value
// counts new members only, not updates, per the data model).
func (ks *ShardedKeyspace) ZAdd(key string, members []ZMember) (int64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if ok && ent.Type != TypeZSet {
		return 0, ErrWrongType
	}
	if !ok {
		ent = &Entity{Type: TypeZSet, ZSet: newZsetValue()}
		s.data[key] = ent
	}

	var created int64
	for _, m := range members {
		if ent.ZSet.add(m.Member, m.Score) {
			created++
		}
	}
	s.bumpRevLocked(key)
	return created, nil
}

// ZRem removes members from the sorted set at key.
func (ks *ShardedKeyspace) ZRem(key string, members []string) (int64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if !ok {
		return 0, nil
	}
	if ent.Type != TypeZSet {
		return 0, ErrWrongType
	}

	var removed int64
	for _, m := range members {
		if ent.ZSet.remove(m) {
			removed++
		}
	}
	if removed > 0 {
		s.bumpRevLocked(key)
		if ent.ZSet.len() == 0 {
			s.deleteLocked(key)
		}
	}
	return removed, nil
}

// ZCard returns the sorted set's cardinality.
func (ks *ShardedKeyspace) ZCard(key string) (int64, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return 0, nil
	}
	if ent.Type != TypeZSet {
		return 0, ErrWrongType
	}
	return int64(ent.ZSet.len()), nil
}

// ZScore returns member's score.
func (ks *ShardedKeyspace) ZScore(key, member string) (float64, bool, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return 0, false, nil
	}
	if ent.Type != TypeZSet {
		return 0, false, ErrWrongType
	}
	score, ok := ent.ZSet.score(member)
	return score, ok, nil
}

// ZCount counts members with min <= score <= max.
func (ks *ShardedKeyspace) ZCount(key string, min, max float64) (int64, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return 0, nil
	}
	if ent.Type != TypeZSet {
		return 0, ErrWrongType
	}
	return int64(len(ent.ZSet.sl.rangeByScore(min, max))), nil
}

// ZIncrBy adds delta to member's score, inserting it with delta as the
// initial score if it was missing, per the data model.
func (ks *ShardedKeyspace) ZIncrBy(key, member string, delta float64) (float64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if ok && ent.Type != TypeZSet {
		return 0, ErrWrongType
	}
	if !ok {
		ent = &Entity{Type: TypeZSet, ZSet: newZsetValue()}
		s.data[key] = ent
	}

	current, _ := ent.ZSet.score(member)
	newScore := current + delta
	ent.ZSet.add(member, newScore)
	s.bumpRevLocked(key)
	return newScore, nil
}

// ZRange returns members ranked start..stop (inclusive, negative indices
// from the tail) in ascending score order.
func (ks *ShardedKeyspace) ZRange(key string, start, stop int64) ([]ZMember, error) {
	return ks.zRangeByRank(key, start, stop, false)
}

// ZRevRange is ZRange in descending score order.
func (ks *ShardedKeyspace) ZRevRange(key string, start, stop int64) ([]ZMember, error) {
	return ks.zRangeByRank(key, start, stop, true)
}

func (ks *ShardedKeyspace) zRangeByRank(key string, start, stop int64, reverse bool) ([]ZMember, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeZSet {
		return nil, ErrWrongType
	}

	n := int64(ent.ZSet.len())
	lo, hi, ok := normalizeRange(start, stop, n)
	if !ok {
		return nil, nil
	}

	out := make([]ZMember, 0, hi-lo+1)
	if !reverse {
		for r := lo; r <= hi; r++ {
			node := ent.ZSet.sl.byRank(r)
			out = append(out, ZMember{Member: node.member, Score: node.score})
		}
	} else {
		for r := lo; r <= hi; r++ {
			node := ent.ZSet.sl.byRank(n - 1 - r)
			out = append(out, ZMember{Member: node.member, Score: node.score})
		}
	}
	return out, nil
}

// ZRangeByScore returns every member with min <= score <= max, ascending.
func (ks *ShardedKeyspace) ZRangeByScore(key string, min, max float64) ([]ZMember, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeZSet {
		return nil, ErrWrongType
	}

	nodes := ent.ZSet.sl.rangeByScore(min, max)
	out := make([]ZMember, len(nodes))
	for i, n := range nodes {
		out[i] = ZMember{Member: n.member, Score: n.score}
	}
	return out, nil
}
