package storage

// DataType identifies which of the five typed keyspaces a key belongs to.
type DataType byte

const (
	TypeString DataType = iota + 1
	TypeList
	TypeSet
	TypeHash
	TypeZSet
)

// String returns the type name reported by the TYPE command.
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeSet:
		return "set"
	case TypeHash:
		return "hash"
	case TypeZSet:
		return "zset"
	default:
		return "none"
	}
}

// Entity is the generic per-key container. Exactly one of the typed payload
// fields is populated, selected by Type. A key occupies at most one Entity
// at a time, which is what makes the "a key belongs to exactly one type"
// invariant from the data model trivial to enforce: any write path only
// has to look at a single map entry.
type Entity struct {
	Type DataType
	Str  []byte
	Hash *hashValue
	List *listValue
	Set  *setValue
	ZSet *zsetValue
}

// hashValue is an insertion-ordered field -> value map. Go maps do not
// preserve iteration order, so a side slice of field names tracks it for
// HKEYS/HVALS/HGETALL.
type hashValue struct {
	fields map[string][]byte
	order  []string
}

func newHashValue() *hashValue {
	return &hashValue{fields: make(map[string][]byte)}
}

func (h *hashValue) set(field string, value []byte) (created bool) {
	if _, ok := h.fields[field]; !ok {
		h.order = append(h.order, field)
		created = true
	}
	h.fields[field] = value
	return created
}

func (h *hashValue) del(field string) bool {
	if _, ok := h.fields[field]; !ok {
		return false
	}
	delete(h.fields, field)
	for i, f := range h.order {
		if f == field {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	return true
}
