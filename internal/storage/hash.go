package storage

// HashField is one ordered (field, value) pair, returned by HGETALL-style
// reads that must preserve insertion order per the data model.
type HashField struct {
	Field string
	Value []byte
}

// HSet writes each field/value pair into the hash at key, creating the
// hash if absent. Returns the count of fields that were newly created.
func (ks *ShardedKeyspace) HSet(key string, pairs []HashField) (int64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if ok && ent.Type != TypeHash {
		return 0, ErrWrongType
	}
	if !ok {
		ent = &Entity{Type: TypeHash, Hash: newHashValue()}
		s.data[key] = ent
	}

	var created int64
	for _, p := range pairs {
		if ent.Hash.set(p.Field, p.Value) {
			created++
		}
	}
	s.bumpRevLocked(key)
	return created, nil
}

// HGet returns the value of field in the hash at key.
func (ks *ShardedKeyspace) HGet(key, field string) ([]byte, bool, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, false, nil
	}
	if ent.Type != TypeHash {
		return nil, false, ErrWrongType
	}
	v, ok := ent.Hash.fields[field]
	return v, ok, nil
}

// HDel removes the given fields, returning the count actually removed. If
// the hash becomes empty, the key itself is deleted (container-emptying
// lifecycle rule from the data model).
func (ks *ShardedKeyspace) HDel(key string, fields []string) (int64, error) {
	s := ks.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireIfNeededLocked(key)
	ent, ok := s.data[key]
	if !ok {
		return 0, nil
	}
	if ent.Type != TypeHash {
		return 0, ErrWrongType
	}

	var removed int64
	for _, f := range fields {
		if ent.Hash.del(f) {
			removed++
		}
	}
	if removed > 0 {
		s.bumpRevLocked(key)
		if len(ent.Hash.fields) == 0 {
			s.deleteLocked(key)
		}
	}
	return removed, nil
}

// HGetAll returns every field/value pair in insertion order.
func (ks *ShardedKeyspace) HGetAll(key string) ([]HashField, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeHash {
		return nil, ErrWrongType
	}
	out := make([]HashField, 0, len(ent.Hash.order))
	for _, f := range ent.Hash.order {
		out = append(out, HashField{Field: f, Value: ent.Hash.fields[f]})
	}
	return out, nil
}

// HKeys returns every field name in insertion order.
func (ks *ShardedKeyspace) HKeys(key string) ([]string, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeHash {
		return nil, ErrWrongType
	}
	out := make([]string, len(ent.Hash.order))
	copy(out, ent.Hash.order)
	return out, nil
}

// HVals returns every value in field-insertion order.
func (ks *ShardedKeyspace) HVals(key string) ([][]byte, error) {
	s := ks.shardFor(key)
	ent, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	if ent.Type != TypeHash {
		return nil, ErrWrongType
	}
	out := make([][]byte, 0, len(ent.Hash.order))
	for _, f := range ent.Hash.order {
		out = append(out, ent.Hash.fields[f])
	}
	return out, nil
}
