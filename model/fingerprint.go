package model

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

// Snapshot returns a deep plain copy of v (maps, slices and scalars only)
// without subscribing the active computation.
func Snapshot(rt *reactive.Runtime, v Value) any {
	if rt == nil {
		return plain(v.v)
	}
	return reactive.Untracked(rt, func() any { return plain(v.v) })
}

func plain(x any) any {
	switch x := scalar(x).(type) {
	case *Model:
		return x.ToMap()
	case *List:
		return x.ToSlice()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			out[k] = plain(v)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			out[i] = plain(v)
		}
		return out
	default:
		return x
	}
}

// Fingerprint hashes the current content of v. Two values with the same
// content hash the same whether or not they were wrapped yet. Never tracked.
func Fingerprint(rt *reactive.Runtime, v Value) uint64 {
	h := fingerprinter{d: xxhash.New()}
	h.value(Snapshot(rt, v))
	return h.d.Sum64()
}

type fingerprinter struct {
	d   *xxhash.Digest
	buf [9]byte
}

func (h *fingerprinter) tag(t byte, n uint64) {
	h.buf[0] = t
	binary.LittleEndian.PutUint64(h.buf[1:], n)
	h.d.Write(h.buf[:])
}

func (h *fingerprinter) str(t byte, s string) {
	h.tag(t, uint64(len(s)))
	h.d.WriteString(s)
}

func (h *fingerprinter) value(x any) {
	switch x := x.(type) {
	case nil:
		h.tag('n', 0)
	case string:
		h.str('s', x)
	case float64:
		h.tag('f', math.Float64bits(x))
	case bool:
		var b uint64
		if x {
			b = 1
		}
		h.tag('b', b)
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		h.tag('m', uint64(len(keys)))
		for _, k := range keys {
			h.str('k', k)
			h.value(x[k])
		}
	case []any:
		h.tag('l', uint64(len(x)))
		for _, item := range x {
			h.value(item)
		}
	}
}
