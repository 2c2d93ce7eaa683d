package domain

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Zone is one row of either view. Summary rows always carry NoHosts().
type Zone struct {
	Name      string
	Available bool
	Hosts     Hosts
}

// Services maps binary names to their state, in first-seen order.
type Services = orderedmap.OrderedMap[string, ServiceState]

// Hosts is a tagged optional over the host tree of a zone.
//
// The absent form (NoHosts) and the present-but-empty form (NewHosts with no
// entries) are different answers and must survive presentation as null and {}.
type Hosts struct {
	tree *orderedmap.OrderedMap[string, *Services]
}

// NoHosts returns the absent marker.
func NoHosts() Hosts { return Hosts{} }

// NewHosts returns a present, empty host tree.
func NewHosts() Hosts {
	return Hosts{tree: orderedmap.New[string, *Services]()}
}

// Present distinguishes an empty tree from an absent one.
func (h Hosts) Present() bool { return h.tree != nil }

// Len returns the number of hosts.
func (h Hosts) Len() int {
	if h.tree == nil {
		return 0
	}
	return h.tree.Len()
}

// Add records binary on host. It returns false when the pair is already there
// or the tree is absent.
func (h Hosts) Add(host, binary string, state ServiceState) bool {
	if h.tree == nil {
		return false
	}
	services, ok := h.tree.Get(host)
	if !ok {
		services = orderedmap.New[string, ServiceState]()
		h.tree.Set(host, services)
	}
	if _, dup := services.Get(binary); dup {
		return false
	}
	services.Set(binary, state)
	return true
}

// Get returns the state of binary on host.
func (h Hosts) Get(host, binary string) (ServiceState, bool) {
	if h.tree == nil {
		return ServiceState{}, false
	}
	services, ok := h.tree.Get(host)
	if !ok {
		return ServiceState{}, false
	}
	return services.Get(binary)
}

// Each walks hosts in insertion order until fn returns false.
func (h Hosts) Each(fn func(host string, services *Services) bool) {
	if h.tree == nil {
		return
	}
	for pair := h.tree.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// EachService walks every service of every host in insertion order.
func (h Hosts) EachService(fn func(host, binary string, state ServiceState) bool) {
	h.Each(func(host string, services *Services) bool {
		for pair := services.Oldest(); pair != nil; pair = pair.Next() {
			if !fn(host, pair.Key, pair.Value) {
				return false
			}
		}
		return true
	})
}

// Available is the OR over every service entry of the tree.
func (h Hosts) Available() bool {
	available := false
	h.EachService(func(_, _ string, state ServiceState) bool {
		available = state.Available
		return !available
	})
	return available
}
