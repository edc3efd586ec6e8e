package storage

import (
	"io"
	"strconv"
	"time"

	"github.com/moonlightdb/moonlight/internal/resp"
)

// DumpCommands serializes the live keyspace as an equivalent sequence of
// RESP commands (SET/HSET/RPUSH/SADD/ZADD, plus EXPIREAT for TTL'd keys)
// rather than the binary section Snapshot writes. This is what an AOF
// rewrite replays against: a shorter log that reconstructs the same state.
func (ks *ShardedKeyspace) DumpCommands(w io.Writer) error {
	for _, s := range ks.shards {
		s.mu.RLock()
		err := func() error {
			for key, ent := range s.data {
				if err := writeEntityAsCommand(w, key, ent); err != nil {
					return err
				}
				if deadline, ok := s.expires[key]; ok {
					if err := writeExpireAt(w, key, deadline); err != nil {
						return err
					}
				}
			}
			return nil
		}()
		s.mu.RUnlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeCommand(w io.Writer, name string, args []resp.Value) error {
	payload, err := resp.SerializeCommand(name, args)
	if err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func writeExpireAt(w io.Writer, key string, deadlineNanos int64) error {
	seconds := deadlineNanos / int64(time.Second)
	return writeCommand(w, "EXPIREAT", []resp.Value{
		resp.MakeBulkString(key),
		resp.MakeBulkString(strconv.FormatInt(seconds, 10)),
	})
}

func writeEntityAsCommand(w io.Writer, key string, ent *Entity) error {
	switch ent.Type {
	case TypeString:
		return writeCommand(w, "SET", []resp.Value{
			resp.MakeBulkString(key),
			resp.MakeBulkString(string(ent.Str)),
		})

	case TypeHash:
		args := make([]resp.Value, 1, 1+len(ent.Hash.order)*2)
		args[0] = resp.MakeBulkString(key)
		for _, f := range ent.Hash.order {
			args = append(args, resp.MakeBulkString(f), resp.MakeBulkString(string(ent.Hash.fields[f])))
		}
		return writeCommand(w, "HSET", args)

	case TypeList:
		n := int64(ent.List.len())
		vals := ent.List.rangeSlice(0, n-1)
		args := make([]resp.Value, 1, 1+len(vals))
		args[0] = resp.MakeBulkString(key)
		for _, v := range vals {
			args = append(args, resp.MakeBulkString(string(v)))
		}
		return writeCommand(w, "RPUSH", args)

	case TypeSet:
		members := ent.Set.keys()
		args := make([]resp.Value, 1, 1+len(members))
		args[0] = resp.MakeBulkString(key)
		for _, m := range members {
			args = append(args, resp.MakeBulkString(m))
		}
		return writeCommand(w, "SADD", args)

	case TypeZSet:
		nodes := ent.ZSet.sl.ascend()
		args := make([]resp.Value, 1, 1+len(nodes)*2)
		args[0] = resp.MakeBulkString(key)
		for _, n := range nodes {
			args = append(args, resp.MakeBulkString(strconv.FormatFloat(n.score, 'g', -1, 64)), resp.MakeBulkString(n.member))
		}
		return writeCommand(w, "ZADD", args)
	}
	return nil
}
