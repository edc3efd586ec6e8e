package storage

import (
	"io"
	"time"
)

// ExpiryStatus reports the outcome of a TTL lookup, matching TTL/PTTL's
// wire-level return codes.
type ExpiryStatus int

const (
	// ExpNotFound means the key does not exist.
	ExpNotFound ExpiryStatus = -2
	// ExpNoTimeout means the key exists but carries no TTL.
	ExpNoTimeout ExpiryStatus = -1
	// ExpActive means the key has an active deadline.
	ExpActive ExpiryStatus = 1
)

// SetOptions captures SET's NX/XX/EX/PX/EXAT/PXAT/KEEPTTL modifiers.
type SetOptions struct {
	TTL      time.Duration // relative lifetime; 0 means "not set by this option"
	At       time.Time     // absolute deadline from EXAT/PXAT; zero means "not set"
	HasTTL   bool
	HasAt    bool
	KeepTTL  bool // retain the existing TTL instead of clearing or replacing it
	NX       bool // only set if the key does not already exist
	XX       bool // only set if the key already exists
}

// Keyspace is the generic, type-agnostic surface every key supports
// regardless of which typed storage currently owns it.
type Keyspace interface {
	Exists(key string) bool
	Delete(keys ...string) int64
	TypeOf(key string) DataType
	Expire(key string, seconds int64) int64
	PExpire(key string, millis int64) int64
	ExpireAt(key string, unixSeconds int64) int64
	TTL(key string) int64
	PTTL(key string) int64
	Persist(key string) int64
	Rename(key, newkey string) error
	FlushAll()
	Revision(key string) uint64
	DeleteExpired(limitPerShard int) ([]string, float64)
	Snapshot(w io.Writer) error
	Restore(r io.Reader) error
}
