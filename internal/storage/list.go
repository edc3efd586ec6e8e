package storage

import "container/list"

// listValue is a double-ended sequence of binary-safe elements, backed by
// container/list so push/pop at either end is O(1) as required by the
// data model (LPUSH/RPUSH/LPOP/RPOP).
type listValue struct {
	l *list.List
}

func newListValue() *listValue {
	return &listValue{l: list.New()}
}

func (lv *listValue) pushFront(vals [][]byte) {
	for _, v := range vals {
		lv.l.PushFront(v)
	}
}

func (lv *listValue) pushBack(vals [][]byte) {
	for _, v := range vals {
		lv.l.PushBack(v)
	}
}

func (lv *listValue) popFront() ([]byte, bool) {
	e := lv.l.Front()
	if e == nil {
		return nil, false
	}
	lv.l.Remove(e)
	return e.Value.([]byte), true
}

func (lv *listValue) popBack() ([]byte, bool) {
	e := lv.l.Back()
	if e == nil {
		return nil, false
	}
	lv.l.Remove(e)
	return e.Value.([]byte), true
}

func (lv *listValue) len() int {
	return lv.l.Len()
}

// normalizeRange clamps a [start, stop] pair (redis-style, inclusive,
// negative indices counted from the tail) against length n. It returns
// ok=false when the normalized range is empty.
func normalizeRange(start, stop, n int64) (lo, hi int64, ok bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}

// rangeSlice returns a copy of the elements in [lo, hi] (inclusive),
// walking from whichever end of the list is closer to the window.
func (lv *listValue) rangeSlice(lo, hi int64) [][]byte {
	n := int64(lv.l.Len())
	lo, hi, ok := normalizeRange(lo, hi, n)
	if !ok {
		return nil
	}

	out := make([][]byte, 0, hi-lo+1)

	if lo <= n-1-hi {
		// walk forward from the front
		e := lv.l.Front()
		var i int64
		for ; e != nil && i <= hi; e, i = e.Next(), i+1 {
			if i >= lo {
				out = append(out, e.Value.([]byte))
			}
		}
	} else {
		// walk backward from the back
		e := lv.l.Back()
		i := n - 1
		tmp := make([][]byte, 0, hi-lo+1)
		for ; e != nil && i >= lo; e, i = e.Prev(), i-1 {
			if i <= hi {
				tmp = append(tmp, e.Value.([]byte))
			}
		}
		for i := len(tmp) - 1; i >= 0; i-- {
			out = append(out, tmp[i])
		}
	}

	return out
}
