package engine

import (
	"math/rand"

	"github.com/talgya/spinworld/internal/agents"
)

// Generator supplies each particle's generation and need for a round.
type Generator interface {
	Generate(p *agents.Particle, rng *rand.Rand) (g, q float64)
}

// UniformGenerator draws g uniformly from [0, Radius) and q from [g, Radius).
type UniformGenerator struct {
	Radius float64
}

// Generate implements Generator.
func (u UniformGenerator) Generate(_ *agents.Particle, rng *rand.Rand) (g, q float64) {
	g = rng.Float64() * u.Radius
	q = g + rng.Float64()*(u.Radius-g)
	return g, q
}
