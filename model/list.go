package model

import (
	"errors"
	"fmt"
	"slices"

	"github.com/CodyStringham/volt-blog-sub000/reactive"
)

var ErrIndex = errors.New("model: index out of range")

// List is a reactive sequence. Every index has its own dependency, the
// length is the structural one.
//
// Positional mutations don't renumber dependencies: inserting or removing at
// i invalidates every index from i to the end of the longer of the old and
// new sequence.
type List struct {
	rt    *reactive.Runtime
	deps  *reactive.KeyedDependency[int]
	items []any
	// materialized indices allowed before out-of-range reads prune
	pruneAt int
}

func NewList(rt *reactive.Runtime, raw []any) (*List, error) {
	if err := check(raw); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return wrapList(rt, raw), nil
}

func MustNewList(rt *reactive.Runtime, raw []any) *List {
	l, err := NewList(rt, raw)
	if err != nil {
		panic(err)
	}
	return l
}

func wrapList(rt *reactive.Runtime, raw []any) *List {
	items := make([]any, len(raw))
	for i, v := range raw {
		items[i] = scalar(v)
	}
	return &List{
		rt:    rt,
		deps:  reactive.NewKeyedDependency[int](rt),
		items: items,
	}
}

func (l *List) load(i int) Value {
	x := l.items[i]
	if w, wrapped := lazyWrap(l.rt, x); wrapped {
		l.items[i] = w
		x = w
	}
	return Value{v: x}
}

func (l *List) Runtime() *reactive.Runtime {
	return l.rt
}

func (l *List) Dependencies() *reactive.KeyedDependency[int] {
	return l.deps
}

// index resolves negative positions against the current length. Those depend
// on the length too since the slot they name moves with it.
func (l *List) index(i int, track bool) int {
	if i < 0 {
		if track {
			l.deps.DependStructure()
		}
		i += len(l.items)
	}
	return i
}

// Get returns the item at i, None when out of range.
func (l *List) Get(i int) Value {
	i = l.index(i, true)
	if i < 0 {
		return Value{}
	}
	l.deps.Depend(i)
	if i >= len(l.items) {
		pruneAbsent(l.deps, &l.pruneAt, func(j int) bool {
			return j >= len(l.items)
		})
		return Value{}
	}
	return l.load(i)
}

// Set replaces the item at i. Setting at Len appends, anything past it is
// out of range.
func (l *List) Set(i int, v Value) error {
	i = l.index(i, false)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrIndex, i-len(l.items))
	}
	if i > len(l.items) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	if i < len(l.items) {
		if equal(l.items[i], v.v) {
			return nil
		}
		l.items[i] = v.v
		l.deps.Changed(i)
		return nil
	}

	old := len(l.items)
	l.items = append(l.items, v.v)
	l.shifted(old, old)
	return nil
}

func (l *List) Append(vs ...Value) {
	if len(vs) == 0 {
		return
	}
	old := len(l.items)
	for _, v := range vs {
		l.items = append(l.items, v.v)
	}
	l.shifted(old, old)
}

// Insert puts vs before position i, i may equal Len.
func (l *List) Insert(i int, vs ...Value) error {
	i = l.index(i, false)
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("%w: %d", ErrIndex, i)
	}
	if len(vs) == 0 {
		return nil
	}
	old := len(l.items)
	raws := make([]any, len(vs))
	for j, v := range vs {
		raws[j] = v.v
	}
	l.items = slices.Insert(l.items, i, raws...)
	l.shifted(i, old)
	return nil
}

// RemoveAt deletes the item at i and returns it.
func (l *List) RemoveAt(i int) (Value, bool) {
	i = l.index(i, false)
	if i < 0 || i >= len(l.items) {
		return Value{}, false
	}
	v := l.load(i)
	old := len(l.items)
	l.items = slices.Delete(l.items, i, i+1)
	l.shifted(i, old)
	return v, true
}

// Remove deletes the first item equal to v.
func (l *List) Remove(v Value) bool {
	for i, x := range l.items {
		if equal(x, v.v) {
			l.RemoveAt(i)
			return true
		}
	}
	return false
}

func (l *List) Clear() {
	if len(l.items) == 0 {
		return
	}
	old := len(l.items)
	l.items = nil
	l.shifted(0, old)
}

// Replace swaps the whole sequence for raw.
func (l *List) Replace(raw []any) error {
	if err := check(raw); err != nil {
		return fmt.Errorf("list: %w", err)
	}
	old := len(l.items)
	items := make([]any, len(raw))
	for i, v := range raw {
		items[i] = scalar(v)
	}
	l.items = items
	l.shifted(0, old)
	return nil
}

// shifted notifies every index from `from` up to the longer of old and the
// current length. Indices past the new end are forgotten after notification.
func (l *List) shifted(from, old int) {
	n := len(l.items)
	for i := from; i < max(old, n); i++ {
		if i < n {
			l.deps.Changed(i)
		} else {
			l.deps.Delete(i)
		}
	}
	if old != n {
		l.deps.ChangedStructure()
	}
}

func (l *List) Len() int {
	l.deps.DependStructure()
	return len(l.items)
}

// Each calls fn for every item until it returns false. The walk depends on
// the length and on each index it visits.
func (l *List) Each(fn func(i int, v Value) bool) {
	l.deps.DependStructure()
	for i := 0; i < len(l.items); i++ {
		l.deps.Depend(i)
		if !fn(i, l.load(i)) {
			return
		}
	}
}

func (l *List) Values() []Value {
	var out []Value
	l.Each(func(_ int, v Value) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Index returns the position of the first item equal to v, or -1.
func (l *List) Index(v Value) int {
	found := -1
	l.Each(func(i int, x Value) bool {
		if x.Equal(v) {
			found = i
			return false
		}
		return true
	})
	return found
}

func (l *List) Count(pred func(Value) bool) int {
	n := 0
	l.Each(func(_ int, v Value) bool {
		if pred(v) {
			n++
		}
		return true
	})
	return n
}

func (l *List) Filter(pred func(Value) bool) []Value {
	var out []Value
	l.Each(func(_ int, v Value) bool {
		if pred(v) {
			out = append(out, v)
		}
		return true
	})
	return out
}

func (l *List) First() Value { return l.Get(0) }
func (l *List) Last() Value  { return l.Get(-1) }

// ToSlice returns a deep plain copy, tracked like ToMap.
func (l *List) ToSlice() []any {
	l.deps.DependStructure()
	out := make([]any, len(l.items))
	for i, x := range l.items {
		l.deps.Depend(i)
		out[i] = plain(x)
	}
	return out
}

func (l *List) String() string {
	return ListValue(l).String()
}
