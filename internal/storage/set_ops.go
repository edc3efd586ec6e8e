package storage

import "math/rand/v2"

// SAdd adds members to the set at key, creating it if absent. Returns the
// count of members that were newly added.
func (ks *ShardedKeyspace) SAdd(key string, members []string) (int64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if ok && ent.Type != TypeSet {
		return 0, ErrWrongType
	}
	if !ok {
		ent = &Entity{Type: TypeSet, Set: newSetValue()}
		s.data[key] = ent
	}

	var added int64
	for _, m := range members {
		if ent.Set.add(m) {
			added++
		}
	}
	if added > 0 {
		s.bumpRevLocked(key)
	}
	return added, nil
}

// SRem removes members from the set at key. The key is deleted once its
// last member is removed.
func (ks *ShardedKeyspace) SRem(key string, members []string) (int64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if !ok {
		return 0, nil
	}
	if ent.Type != TypeSet {
		return 0, ErrWrongType
	}

	var removed int64
	for _, m := range members {
		if ent.Set.remove(m) {
			removed++
		}
	}
	if removed > 0 {
		s.bumpRevLocked(key)
		if ent.Set.len() == 0 {
			s.deleteLocked(key)
		}
	}
	return removed, nil
}

// SCard returns the set's cardinality, or 0 if key is absent.
func (ks *ShardedKeyspace) SCard(key string) (int64, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return 0, nil
	}
	if ent.Type != TypeSet {
		return 0, ErrWrongType
	}
	return int64(ent.Set.len()), nil
}

// SMembers returns every member of the set at key, unordered.
func (ks *ShardedKeyspace) SMembers(key string) ([]string, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeSet {
		return nil, ErrWrongType
	}
	return ent.Set.keys(), nil
}

// SIsMember reports whether member belongs to the set at key.
func (ks *ShardedKeyspace) SIsMember(key, member string) (bool, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return false, nil
	}
	if ent.Type != TypeSet {
		return false, ErrWrongType
	}
	return ent.Set.has(member), nil
}

// SMove atomically moves member from src to dst, returning whether the
// move happened (member absent from src is a no-op, not an error).
func (ks *ShardedKeyspace) SMove(src, dst, member string) (bool, error) {
	a, b := ks.shardFor(src), ks.shardFor(dst)

	first, second := a, b
	if a != b && ks.indexOf(dst) < ks.indexOf(src) {
		first, second = b, a
	}
	first.mu.Lock()
	if second != first {
		second.mu.Lock()
	}
	defer func() {
		if second != first {
			second.mu.Unlock()
		}
		first.mu.Unlock()
	}()

	a.expireIfNeededLocked(src)
	srcEnt, ok := a.data[src]
	if !ok {
		return false, nil
	}
	if srcEnt.Type != TypeSet {
		return false, ErrWrongType
	}

	b.expireIfNeededLocked(dst)
	dstEnt, ok := b.data[dst]
	if ok && dstEnt.Type != TypeSet {
		return false, ErrWrongType
	}

	if !srcEnt.Set.has(member) {
		return false, nil
	}

	srcEnt.Set.remove(member)
	a.bumpRevLocked(src)
	if srcEnt.Set.len() == 0 {
		a.deleteLocked(src)
	}

	if !ok {
		dstEnt = &Entity{Type: TypeSet, Set: newSetValue()}
		b.data[dst] = dstEnt
	}
	dstEnt.Set.add(member)
	b.bumpRevLocked(dst)

	return true, nil
}

// SPop removes and returns count members chosen uniformly at random
// without replacement, clamped to the set's cardinality. hasCount=false
// mirrors SPOP with no count argument (pop exactly one, if present).
func (ks *ShardedKeyspace) SPop(key string, count int64, hasCount bool) ([]string, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeSet {
		return nil, ErrWrongType
	}

	if !hasCount {
		count = 1
	}
	if count <= 0 {
		return nil, nil
	}

	keys := ent.Set.keys()
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	if count > int64(len(keys)) {
		count = int64(len(keys))
	}
	picked := keys[:count]
	for _, m := range picked {
		ent.Set.remove(m)
	}
	if len(picked) > 0 {
		s.bumpRevLocked(key)
	}
	if ent.Set.len() == 0 {
		s.deleteLocked(key)
	}
	return picked, nil
}

// SRandMember returns count members without removing them. A negative
// count permits duplicates (independent draws); a positive count does
// not and is clamped to cardinality, per the data model.
func (ks *ShardedKeyspace) SRandMember(key string, count int64, hasCount bool) ([]string, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeSet {
		return nil, ErrWrongType
	}

	keys := ent.Set.keys()
	if len(keys) == 0 {
		return nil, nil
	}

	if !hasCount {
		return []string{keys[rand.IntN(len(keys))]}, nil
	}

	if count < 0 {
		n := -count
		out := make([]string, n)
		for i := range out {
			out[i] = keys[rand.IntN(len(keys))]
		}
		return out, nil
	}

	if count > int64(len(keys)) {
		count = int64(len(keys))
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	return keys[:count], nil
}

// SInter, SUnion, SDiff read each key's members independently (each under
// its own shard lock) and combine in memory; no materialized key is held
// across the whole operation.

func (ks *ShardedKeyspace) setMembersOrNil(key string) (map[string]struct{}, error) {
	s := ks.shardFor(key)
	snap, typ, found := s.membersSnapshot(key)
	if !found {
		return map[string]struct{}{}, nil
	}
	if typ != TypeSet {
		return nil, ErrWrongType
	}
	return snap, nil
}

func (ks *ShardedKeyspace) SInter(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	sets := make([]map[string]struct{}, len(keys))
	for i, k := range keys {
		m, err := ks.setMembersOrNil(k)
		if err != nil {
			return nil, err
		}
		sets[i] = m
	}

	var out []string
	for m := range sets[0] {
		inAll := true
		for _, other := range sets[1:] {
			if _, ok := other[m]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, m)
		}
	}
	return out, nil
}

func (ks *ShardedKeyspace) SUnion(keys []string) ([]string, error) {
	union := make(map[string]struct{})
	for _, k := range keys {
		m, err := ks.setMembersOrNil(k)
		if err != nil {
			return nil, err
		}
		for member := range m {
			union[member] = struct{}{}
		}
	}
	out := make([]string, 0, len(union))
	for m := range union {
		out = append(out, m)
	}
	return out, nil
}

func (ks *ShardedKeyspace) SDiff(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	first, err := ks.setMembersOrNil(keys[0])
	if err != nil {
		return nil, err
	}
	result := make(map[string]struct{}, len(first))
	for m := range first {
		result[m] = struct{}{}
	}
	for _, k := range keys[1:] {
		m, err := ks.setMembersOrNil(k)
		if err != nil {
			return nil, err
		}
		for member := range m {
			delete(result, member)
		}
	}
	out := make([]string, 0, len(result))
	for m := range result {
		out = append(out, m)
	}
	return out, nil
}
