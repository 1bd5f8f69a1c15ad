package social

import (
	"log/slog"
	"sort"

	"github.com/talgya/spinworld/internal/agents"
)

// Registry owns every network created in a run and the membership relation.
// Networks are never deleted; an emptied network just stops accumulating.
type Registry struct {
	networks []*Network
	members  []map[agents.ParticleID]*agents.Particle
	round    int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// SetRound sets the round stamped on particles that join from now on.
func (r *Registry) SetRound(round int) {
	r.round = round
}

// Create adds a network and returns it. IDs are issued sequentially from 0.
func (r *Registry) Create(params Params) *Network {
	n := newNetwork(agents.NetworkID(len(r.networks)), params)
	r.networks = append(r.networks, n)
	r.members = append(r.members, make(map[agents.ParticleID]*agents.Particle))
	slog.Debug("network created", "network", n.ID, "kind", n.Kind, "allocation", n.Allocation)
	return n
}

// Get returns a network by ID, or nil.
func (r *Registry) Get(id agents.NetworkID) *Network {
	if id < 0 || int(id) >= len(r.networks) {
		return nil
	}
	return r.networks[id]
}

// Len returns the number of networks ever created.
func (r *Registry) Len() int {
	return len(r.networks)
}

// Networks returns every network in ID order.
func (r *Registry) Networks() []*Network {
	return r.networks
}

// NetworkIDs returns the IDs of every network in ascending order.
func (r *Registry) NetworkIDs() []agents.NetworkID {
	ids := make([]agents.NetworkID, len(r.networks))
	for i := range r.networks {
		ids[i] = agents.NetworkID(i)
	}
	return ids
}

// Join makes p a member of network id, leaving any current network first.
// It silently refuses dead particles, unknown networks and banned particles.
func (r *Registry) Join(p *agents.Particle, id agents.NetworkID) bool {
	n := r.Get(id)
	if n == nil || p.Dead || n.IsBanned(p.ID) {
		return false
	}
	if p.Network == id {
		return true
	}
	r.Leave(p)
	r.members[id][p.ID] = p
	p.Network = id
	p.JoinedRound = r.round
	return true
}

// Leave removes p from its network, if any.
func (r *Registry) Leave(p *agents.Particle) {
	if !p.InNetwork() {
		return
	}
	if int(p.Network) < len(r.members) {
		delete(r.members[p.Network], p.ID)
	}
	p.Network = agents.NoNetwork
}

// Ban expels p from network id for good.
func (r *Registry) Ban(p *agents.Particle, id agents.NetworkID) {
	n := r.Get(id)
	if n == nil {
		return
	}
	n.banned[p.ID] = true
	if p.Network == id {
		r.Leave(p)
	}
}

// Members returns the members of a network ordered by particle ID.
func (r *Registry) Members(id agents.NetworkID) []*agents.Particle {
	if r.Get(id) == nil {
		return nil
	}
	out := make([]*agents.Particle, 0, len(r.members[id]))
	for _, p := range r.members[id] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MemberCount returns the number of members of a network.
func (r *Registry) MemberCount(id agents.NetworkID) int {
	if r.Get(id) == nil {
		return 0
	}
	return len(r.members[id])
}

// Age advances the longevity of every network that still has members.
func (r *Registry) Age() {
	for i, n := range r.networks {
		if len(r.members[i]) > 0 {
			n.Longevity++
		}
	}
}
