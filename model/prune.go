package model

import "github.com/CodyStringham/volt-blog-sub000/reactive"

// pruneFloor is the number of materialized keys a container keeps before
// reads of absent keys start pruning.
const pruneFloor = 64

// pruneAbsent drops the dependencies of absent keys nobody listens to any
// more once deps has grown past *at, then moves *at to twice what survived.
func pruneAbsent[K comparable](deps *reactive.KeyedDependency[K], at *int, absent func(K) bool) {
	if *at < pruneFloor {
		*at = pruneFloor
	}
	if deps.Len() <= *at {
		return
	}
	deps.Prune(absent)
	*at = max(2*deps.Len(), pruneFloor)
}
