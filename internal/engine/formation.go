package engine

import (
	"log/slog"
	"math/rand"

	"github.com/talgya/spinworld/internal/agents"
	"github.com/talgya/spinworld/internal/social"
)

// NetworkFactory supplies the parameters of a newly formed network.
type NetworkFactory func(rng *rand.Rand) social.Params

// Formation turns collisions into network creation, joins and switches.
type Formation struct {
	Registry *social.Registry
	Rng      *rand.Rand
	Factory  NetworkFactory

	Created  int
	Joined   int
	Switched int
}

// NewFormation creates a formation protocol over a registry.
func NewFormation(reg *social.Registry, rng *rand.Rand, factory NetworkFactory) *Formation {
	return &Formation{Registry: reg, Rng: rng, Factory: factory}
}

// StrictOrLenient returns a factory that makes strict networks with
// probability strictNets.
func StrictOrLenient(strictNets float64, strict, lenient social.Params) NetworkFactory {
	return func(rng *rand.Rand) social.Params {
		if rng.Float64() < strictNets {
			return strict
		}
		return lenient
	}
}

// OnCollision applies the formation table from a's point of view.
func (f *Formation) OnCollision(a, b *agents.Particle) {
	if a == b || a.Dead || b.Dead {
		return
	}

	switch {
	case !a.InNetwork() && !b.InNetwork():
		n := f.Registry.Create(f.Factory(f.Rng))
		f.Registry.Join(a, n.ID)
		f.Registry.Join(b, n.ID)
		f.Created++
		slog.Debug("network created", "network", n.ID, "kind", n.Kind, "by", a.Name, "with", b.Name)

	case !a.InNetwork():
		if f.Registry.Join(a, b.Network) {
			f.Joined++
		}

	case !b.InNetwork():
		if f.Registry.Join(b, a.Network) {
			f.Joined++
		}

	case a.Network != b.Network:
		if a.Policy == nil {
			return
		}
		a.Policy.Refresh(a, f.Registry)
		preferred, ok := a.Policy.Preferred(a, b.Network)
		if !ok || preferred == a.Network {
			return
		}
		from := a.Network
		if f.Registry.Join(a, preferred) {
			f.Switched++
			slog.Debug("switched network", "particle", a.Name, "from", from, "to", preferred)
		}
	}
}
