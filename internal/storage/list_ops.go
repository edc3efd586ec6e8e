package storage

// LPush prepends vals (in argument order, so the last element ends up
// closest to the head) and returns the resulting length.
func (ks *ShardedKeyspace) LPush(key string, vals [][]byte) (int64, error) {
	return ks.push(key, vals, true)
}

// RPush appends vals and returns the resulting length.
func (ks *ShardedKeyspace) RPush(key string, vals [][]byte) (int64, error) {
	return ks.push(key, vals, false)
}

func (ks *ShardedKeyspace) push(key string, vals [][]byte, front bool) (int64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if ok && ent.Type != TypeList {
		return 0, ErrWrongType
	}
	if !ok {
		ent = &Entity{Type: TypeList, List: newListValue()}
		s.data[key] = ent
	}

	if front {
		ent.List.pushFront(vals)
	} else {
		ent.List.pushBack(vals)
	}
	s.bumpRevLocked(key)
	return int64(ent.List.len()), nil
}

// LPop removes and returns the head element.
func (ks *ShardedKeyspace) LPop(key string) ([]byte, bool, error) {
	return ks.pop(key, true)
}

// RPop removes and returns the tail element.
func (ks *ShardedKeyspace) RPop(key string) ([]byte, bool, error) {
	return ks.pop(key, false)
}

func (ks *ShardedKeyspace) pop(key string, front bool) ([]byte, bool, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	if ent.Type != TypeList {
		return nil, false, ErrWrongType
	}

	var v []byte
	if front {
		v, ok = ent.List.popFront()
	} else {
		v, ok = ent.List.popBack()
	}
	if !ok {
		return nil, false, nil
	}
	s.bumpRevLocked(key)
	if ent.List.len() == 0 {
		s.deleteLocked(key)
	}
	return v, true, nil
}

// LLen returns the list's length, or 0 if the key is absent.
func (ks *ShardedKeyspace) LLen(key string) (int64, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return 0, nil
	}
	if ent.Type != TypeList {
		return 0, ErrWrongType
	}
	return int64(ent.List.len()), nil
}

// LRange returns the elements between start and stop (inclusive, negative
// indices counted from the tail, clamped to bounds; start > stop yields
// the empty slice).
func (ks *ShardedKeyspace) LRange(key string, start, stop int64) ([][]byte, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeList {
		return nil, ErrWrongType
	}
	return ent.List.rangeSlice(start, stop), nil
}
