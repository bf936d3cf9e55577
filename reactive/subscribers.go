package reactive

import mapset "github.com/deckarep/golang-set/v2"

// subscriberSet deduplicates computations while remembering the order they
// subscribed in, so a change invalidates them in that order.
//
// Removal only drops membership. The stale slot in order is skipped and
// compacted away later, which keeps remove O(1).
type subscriberSet struct {
	members mapset.Set[*Computation]
	order   []*Computation
	// Entries of order that are no longer (or no longer last) members
	stale int
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{
		members: mapset.NewThreadUnsafeSet[*Computation](),
	}
}

func (s *subscriberSet) add(c *Computation) bool {
	if !s.members.Add(c) {
		return false
	}
	s.order = append(s.order, c)
	if s.stale > len(s.order)/2 {
		s.compact()
	}
	return true
}

func (s *subscriberSet) remove(c *Computation) bool {
	if !s.members.Contains(c) {
		return false
	}
	s.members.Remove(c)
	s.stale++
	return true
}

func (s *subscriberSet) contains(c *Computation) bool {
	return s.members.Contains(c)
}

func (s *subscriberSet) len() int {
	return s.members.Cardinality()
}

// compact drops stale slots. A computation removed and added again owns its
// last slot, so the walk runs backwards.
func (s *subscriberSet) compact() {
	if s.stale == 0 {
		return
	}
	seen := mapset.NewThreadUnsafeSet[*Computation]()
	live := make([]*Computation, s.members.Cardinality())
	n := len(live)
	for i := len(s.order) - 1; i >= 0 && n > 0; i-- {
		c := s.order[i]
		if !s.members.Contains(c) || !seen.Add(c) {
			continue
		}
		n--
		live[n] = c
	}
	s.order = live
	s.stale = 0
}

func (s *subscriberSet) snapshot() []*Computation {
	s.compact()
	out := make([]*Computation, len(s.order))
	copy(out, s.order)
	return out
}
