package engine

import (
	"math/rand"

	"github.com/talgya/spinworld/internal/agents"
)

// Claim is one particle's demand on a network pool.
type Claim struct {
	Particle agents.ParticleID
	Demand   float64
}

// Grant is the amount allocated against a claim.
type Grant struct {
	Particle  agents.ParticleID
	Allocated float64
}

// Allocate rations pool across claims in a fresh random order, granting each
// claimant min(demand, remaining) until the pool runs dry. Grants are returned
// in allocation order.
func Allocate(rng *rand.Rand, claims []Claim, pool float64) []Grant {
	grants := make([]Grant, 0, len(claims))
	remaining := pool
	for _, i := range rng.Perm(len(claims)) {
		c := claims[i]
		amount := c.Demand
		if amount > remaining {
			amount = remaining
		}
		if amount < 0 {
			amount = 0
		}
		remaining -= amount
		grants = append(grants, Grant{Particle: c.Particle, Allocated: amount})
	}
	return grants
}
