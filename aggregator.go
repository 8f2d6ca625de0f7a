package routedcache

import (
	"github.com/google/uuid"

	pr "github.com/unkn0wn-root/routedcache/provider"
)

// group is the slice of a bulk call that goes to one rule's provider.
type group struct {
	rule *Rule
	keys []string
}

// aggregator partitions the keys of one bulk call by resolved rule.
// It lives for a single call and is not safe for concurrent use.
type aggregator struct {
	order     []uuid.UUID
	keys      map[uuid.UUID][]string
	providers map[uuid.UUID]*Rule
}

func newAggregator(hint int) *aggregator {
	return &aggregator{
		keys:      make(map[uuid.UUID][]string, hint),
		providers: make(map[uuid.UUID]*Rule, hint),
	}
}

func (a *aggregator) collect(key string, r *Rule) {
	id := r.ID()
	if _, seen := a.providers[id]; !seen {
		a.order = append(a.order, id)
		a.providers[id] = r
	}
	a.keys[id] = append(a.keys[id], key)
}

// collectAll resolves every key before recording anything, so a resolution
// error leaves the aggregator empty.
func (a *aggregator) collectAll(keys []string, resolve func(string) (*Rule, error)) error {
	rules := make([]*Rule, len(keys))
	for i, k := range keys {
		r, err := resolve(k)
		if err != nil {
			return err
		}
		rules[i] = r
	}
	for i, k := range keys {
		a.collect(k, rules[i])
	}
	return nil
}

// groups returns one group per rule in first-seen order.
func (a *aggregator) groups() []group {
	out := make([]group, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, group{rule: a.providers[id], keys: a.keys[id]})
	}
	return out
}

func (a *aggregator) clear() {
	a.order = a.order[:0]
	clear(a.keys)
	clear(a.providers)
}

// identitySet tracks providers by reference so two rules bound to the same
// store are visited once.
type identitySet map[any]struct{}

// add reports whether p was not yet in the set.
func (s identitySet) add(p pr.Provider) bool {
	k := identityKey(p)
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}
