package model

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

// Model is a reactive mapping. Reads subscribe the active computation to the
// key they touch, writes invalidate the subscribers of that key, and adding
// or removing a key also invalidates whoever depends on the shape.
type Model struct {
	rt    *reactive.Runtime
	deps  *reactive.KeyedDependency[string]
	attrs map[string]any
	// materialized keys allowed before absent-key reads prune
	pruneAt int
}

// New wraps raw. Nested maps and slices are validated now but only wrapped
// the first time they are read.
func New(rt *reactive.Runtime, raw map[string]any) (*Model, error) {
	if err := check(raw); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return wrapModel(rt, raw), nil
}

func MustNew(rt *reactive.Runtime, raw map[string]any) *Model {
	m, err := New(rt, raw)
	if err != nil {
		panic(err)
	}
	return m
}

func wrapModel(rt *reactive.Runtime, raw map[string]any) *Model {
	attrs := make(map[string]any, len(raw))
	for k, v := range raw {
		attrs[k] = scalar(v)
	}
	return &Model{
		rt:    rt,
		deps:  reactive.NewKeyedDependency[string](rt),
		attrs: attrs,
	}
}

func lazyWrap(rt *reactive.Runtime, x any) (any, bool) {
	switch x := x.(type) {
	case map[string]any:
		return wrapModel(rt, x), true
	case []any:
		return wrapList(rt, x), true
	}
	return nil, false
}

func (m *Model) load(key string) (Value, bool) {
	x, ok := m.attrs[key]
	if !ok {
		return Value{}, false
	}
	if w, wrapped := lazyWrap(m.rt, x); wrapped {
		m.attrs[key] = w
		x = w
	}
	return Value{v: x}, true
}

func (m *Model) Runtime() *reactive.Runtime {
	return m.rt
}

// Dependencies exposes the per-key ledger, mostly for reports.
func (m *Model) Dependencies() *reactive.KeyedDependency[string] {
	return m.deps
}

// Get returns the value under key, None when unset.
func (m *Model) Get(key string) Value {
	v, _ := m.Lookup(key)
	return v
}

// Lookup is Get that also reports presence. Reading an absent key still
// subscribes, so setting it later wakes the reader up.
func (m *Model) Lookup(key string) (Value, bool) {
	m.deps.Depend(key)
	v, ok := m.load(key)
	if !ok {
		m.prune()
	}
	return v, ok
}

// Has subscribes to the value of key, not only its presence: rewriting a
// present key wakes Has readers too.
func (m *Model) Has(key string) bool {
	m.deps.Depend(key)
	_, ok := m.attrs[key]
	if !ok {
		m.prune()
	}
	return ok
}

func (m *Model) prune() {
	pruneAbsent(m.deps, &m.pruneAt, func(key string) bool {
		_, ok := m.attrs[key]
		return !ok
	})
}

// Set stores v under key. Writing a value equal to the current one notifies
// nobody.
func (m *Model) Set(key string, v Value) {
	old, existed := m.attrs[key]
	if existed && equal(old, v.v) {
		return
	}
	m.attrs[key] = v.v
	m.deps.Changed(key)
	if !existed {
		m.deps.ChangedStructure()
	}
}

// SetRaw converts x with Of and stores it.
func (m *Model) SetRaw(key string, x any) error {
	v, err := Of(x)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	m.Set(key, v)
	return nil
}

// Delete removes key and returns what was stored under it.
func (m *Model) Delete(key string) (Value, bool) {
	v, ok := m.load(key)
	if !ok {
		return Value{}, false
	}
	delete(m.attrs, key)
	m.deps.Delete(key)
	m.deps.ChangedStructure()
	return v, true
}

func (m *Model) Len() int {
	m.deps.DependStructure()
	return len(m.attrs)
}

// Keys returns the present keys, sorted.
func (m *Model) Keys() []string {
	m.deps.DependStructure()
	keys := make([]string, 0, len(m.attrs))
	for k := range m.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes every key.
func (m *Model) Clear() {
	if len(m.attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(m.attrs))
	for k := range m.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clear(m.attrs)
	for _, k := range keys {
		m.deps.Delete(k)
	}
	m.deps.ChangedStructure()
}

// Replace swaps the whole content for raw. Every key anyone ever read is
// invalidated, whether its value changed or not.
func (m *Model) Replace(raw map[string]any) error {
	if err := check(raw); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	attrs := make(map[string]any, len(raw))
	for k, v := range raw {
		attrs[k] = scalar(v)
	}
	m.attrs = attrs
	m.deps.ChangedAll()
	m.deps.ChangedStructure()
	return nil
}

// Path walks nested containers. Segments that address a list must be decimal
// indices. Anything that does not resolve yields None.
func (m *Model) Path(keys ...string) Value {
	cur := ModelValue(m)
	for _, key := range keys {
		switch x := cur.v.(type) {
		case *Model:
			cur = x.Get(key)
		case *List:
			i, err := strconv.Atoi(key)
			if err != nil {
				return Value{}
			}
			cur = x.Get(i)
		default:
			return Value{}
		}
	}
	return cur
}

// ToMap returns a deep plain copy. It subscribes to the structure and every
// key, use Snapshot to copy without tracking.
func (m *Model) ToMap() map[string]any {
	m.deps.DependStructure()
	out := make(map[string]any, len(m.attrs))
	for k, x := range m.attrs {
		m.deps.Depend(k)
		out[k] = plain(x)
	}
	return out
}

func (m *Model) String() string {
	return ModelValue(m).String()
}
