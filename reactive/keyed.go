package reactive

// KeyedDependency tracks many independent slots of one container, one
// Dependency per key created on first tracked read, plus a structural
// Dependency for shape changes (keys added or removed, size changes).
type KeyedDependency[K comparable] struct {
	rt   *Runtime
	deps map[K]*keyedEntry[K]
	// First-read order. Deleted entries stay as tombstones until compacted.
	order     []*keyedEntry[K]
	dead      int
	structure *Dependency
}

type keyedEntry[K comparable] struct {
	key     K
	dep     *Dependency
	deleted bool
}

func NewKeyedDependency[K comparable](rt *Runtime) *KeyedDependency[K] {
	return &KeyedDependency[K]{
		rt:        rt,
		deps:      map[K]*keyedEntry[K]{},
		structure: NewDependency(rt),
	}
}

// Depend subscribes the active computation to key.
func (k *KeyedDependency[K]) Depend(key K) {
	if c := k.rt.current; c == nil || !c.tracking() {
		// nobody to subscribe, don't materialize a dependency for nothing
		return
	}
	e, ok := k.deps[key]
	if !ok {
		e = &keyedEntry[K]{key: key, dep: NewDependency(k.rt)}
		k.deps[key] = e
		k.order = append(k.order, e)
	}
	e.dep.Depend()
}

// Changed invalidates the subscribers of key. Keys that were never read have
// no subscribers and cost nothing.
func (k *KeyedDependency[K]) Changed(key K) {
	if e, ok := k.deps[key]; ok {
		e.dep.Changed()
	}
}

// Delete notifies the subscribers of key, then forgets its dependency.
func (k *KeyedDependency[K]) Delete(key K) {
	e, ok := k.deps[key]
	if !ok {
		return
	}
	e.dep.Changed()
	k.forget(e)
	e.dep.Remove()
}

func (k *KeyedDependency[K]) forget(e *keyedEntry[K]) {
	delete(k.deps, e.key)
	e.deleted = true
	k.dead++
	if k.dead > len(k.order)/2 {
		k.compact()
	}
}

func (k *KeyedDependency[K]) compact() {
	live := make([]*keyedEntry[K], 0, len(k.deps))
	for _, e := range k.order {
		if !e.deleted {
			live = append(live, e)
		}
	}
	k.order = live
	k.dead = 0
}

// Prune forgets every materialized key that has no subscribers left and for
// which drop reports true. It returns how many were dropped.
func (k *KeyedDependency[K]) Prune(drop func(key K) bool) int {
	dropped := 0
	for _, e := range k.order {
		if e.deleted || e.dep.Len() > 0 || !drop(e.key) {
			continue
		}
		delete(k.deps, e.key)
		e.deleted = true
		e.dep.Remove()
		dropped++
	}
	if dropped > 0 {
		k.compact()
	}
	return dropped
}

// ChangedAll invalidates every materialized key, used when the whole
// container is replaced.
func (k *KeyedDependency[K]) ChangedAll() {
	entries := make([]*keyedEntry[K], len(k.order))
	copy(entries, k.order)
	for _, e := range entries {
		if !e.deleted {
			e.dep.Changed()
		}
	}
}

func (k *KeyedDependency[K]) DependStructure() {
	k.structure.Depend()
}

func (k *KeyedDependency[K]) ChangedStructure() {
	k.structure.Changed()
}

// Len is the number of materialized keys.
func (k *KeyedDependency[K]) Len() int {
	return len(k.deps)
}

// Keys lists the materialized keys in the order they were first read.
func (k *KeyedDependency[K]) Keys() []K {
	keys := make([]K, 0, len(k.deps))
	for _, e := range k.order {
		if !e.deleted {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Subscribers counts the computations subscribed to key.
func (k *KeyedDependency[K]) Subscribers(key K) int {
	if e, ok := k.deps[key]; ok {
		return e.dep.Len()
	}
	return 0
}

func (k *KeyedDependency[K]) StructureSubscribers() int {
	return k.structure.Len()
}
