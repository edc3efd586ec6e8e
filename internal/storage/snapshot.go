package storage

import (
	"encoding/binary"
	"io"
	"math"
	"time"
)

// Snapshot serializes every live key (skipping ones whose deadline has
// passed but that are still in s.data awaiting lazy or active deletion)
// across all shards into a flat, versionless record stream: one entry per
// key, terminated by a zero type byte. RDB framing (the "MOONRES1" header)
// is the caller's responsibility.
func (ks *ShardedKeyspace) Snapshot(w io.Writer) error {
	for _, s := range ks.shards {
		s.mu.RLock()
		err := func() error {
			now := time.Now().UnixNano()
			for key, ent := range s.data {
				if deadline, ok := s.expires[key]; ok && now >= deadline {
					continue
				}
				if err := writeEntity(w, key, ent, s.expires[key]); err != nil {
					return err
				}
			}
			return nil
		}()
		s.mu.RUnlock()
		if err != nil {
			return err
		}
	}
	return writeByte(w, 0)
}

func writeEntity(w io.Writer, key string, ent *Entity, deadline int64) error {
	if err := writeByte(w, byte(ent.Type)); err != nil {
		return err
	}
	if err := writeField(w, []byte(key)); err != nil {
		return err
	}

	hasExp := byte(0)
	if deadline != 0 {
		hasExp = 1
	}
	if err := writeByte(w, hasExp); err != nil {
		return err
	}
	if hasExp == 1 {
		if err := writeInt64(w, deadline); err != nil {
			return err
		}
	}

	switch ent.Type {
	case TypeString:
		return writeField(w, ent.Str)

	case TypeHash:
		if err := writeUint32(w, uint32(len(ent.Hash.order))); err != nil {
			return err
		}
		for _, f := range ent.Hash.order {
			if err := writeField(w, []byte(f)); err != nil {
				return err
			}
			if err := writeField(w, ent.Hash.fields[f]); err != nil {
				return err
			}
		}

	case TypeList:
		n := int64(ent.List.len())
		vals := ent.List.rangeSlice(0, n-1)
		if err := writeUint32(w, uint32(len(vals))); err != nil {
			return err
		}
		for _, v := range vals {
			if err := writeField(w, v); err != nil {
				return err
			}
		}

	case TypeSet:
		members := ent.Set.keys()
		if err := writeUint32(w, uint32(len(members))); err != nil {
			return err
		}
		for _, m := range members {
			if err := writeField(w, []byte(m)); err != nil {
				return err
			}
		}

	case TypeZSet:
		nodes := ent.ZSet.sl.ascend()
		if err := writeUint32(w, uint32(len(nodes))); err != nil {
			return err
		}
		for _, n := range nodes {
			if err := writeField(w, []byte(n.member)); err != nil {
				return err
			}
			if err := writeFloat64(w, n.score); err != nil {
				return err
			}
		}
	}
	return nil
}

// Restore replaces the keyspace's contents with the entries decoded from
// r, stopping at the terminator byte written by Snapshot. It is meant to
// run once, at startup, before the server accepts connections.
func (ks *ShardedKeyspace) Restore(r io.Reader) error {
	for {
		typByte, err := readByte(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if typByte == 0 {
			return nil
		}
		typ := DataType(typByte)

		keyBytes, err := readField(r)
		if err != nil {
			return err
		}
		key := string(keyBytes)

		hasExp, err := readByte(r)
		if err != nil {
			return err
		}
		var deadline int64
		if hasExp == 1 {
			deadline, err = readInt64(r)
			if err != nil {
				return err
			}
		}

		if err := ks.restoreEntity(typ, key, deadline, r); err != nil {
			return err
		}
	}
}

func (ks *ShardedKeyspace) restoreEntity(typ DataType, key string, deadline int64, r io.Reader) error {
	switch typ {
	case TypeString:
		val, err := readField(r)
		if err != nil {
			return err
		}
		if _, err := ks.Set(key, val, SetOptions{}); err != nil {
			return err
		}

	case TypeHash:
		count, err := readUint32(r)
		if err != nil {
			return err
		}
		pairs := make([]HashField, count)
		for i := range pairs {
			field, err := readField(r)
			if err != nil {
				return err
			}
			value, err := readField(r)
			if err != nil {
				return err
			}
			pairs[i] = HashField{Field: string(field), Value: value}
		}
		if _, err := ks.HSet(key, pairs); err != nil {
			return err
		}

	case TypeList:
		count, err := readUint32(r)
		if err != nil {
			return err
		}
		vals := make([][]byte, count)
		for i := range vals {
			v, err := readField(r)
			if err != nil {
				return err
			}
			vals[i] = v
		}
		if _, err := ks.RPush(key, vals); err != nil {
			return err
		}

	case TypeSet:
		count, err := readUint32(r)
		if err != nil {
			return err
		}
		members := make([]string, count)
		for i := range members {
			m, err := readField(r)
			if err != nil {
				return err
			}
			members[i] = string(m)
		}
		if _, err := ks.SAdd(key, members); err != nil {
			return err
		}

	case TypeZSet:
		count, err := readUint32(r)
		if err != nil {
			return err
		}
		members := make([]ZMember, count)
		for i := range members {
			m, err := readField(r)
			if err != nil {
				return err
			}
			score, err := readFloat64(r)
			if err != nil {
				return err
			}
			members[i] = ZMember{Member: string(m), Score: score}
		}
		if _, err := ks.ZAdd(key, members); err != nil {
			return err
		}
	}

	ks.restoreExpiry(key, deadline)
	return nil
}

func (ks *ShardedKeyspace) restoreExpiry(key string, deadline int64) {
	if deadline == 0 {
		return
	}
	s := ks.shardFor(key)
	s.mu.Lock()
	s.expires[key] = deadline
	s.mu.Unlock()
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

func writeFloat64(w io.Writer, v float64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}

// writeField writes a length-prefixed byte string.
func writeField(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err := w.Write(b)
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func readFloat64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

func readField(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
