package world

import (
	"log/slog"
	"math/rand"
)

// Mobility moves bodies around the map each tick.
type Mobility struct {
	Map   *Map
	Drift *Drift // nil for an unbiased random walk

	DriftBias float64 // Probability a step follows the drift field
	VConst    int     // Extra steps per network link

	base map[BodyID]int
}

// NewMobility creates a mobility model over m.
func NewMobility(m *Map, drift *Drift, driftBias float64, vConst int) *Mobility {
	return &Mobility{
		Map:       m,
		Drift:     drift,
		DriftBias: driftBias,
		VConst:    vConst,
		base:      make(map[BodyID]int),
	}
}

// Add places a body with a base velocity in steps per tick.
func (mo *Mobility) Add(id BodyID, at HexCoord, velocity int) {
	mo.Map.Place(id, at)
	mo.base[id] = velocity
}

// Velocity returns a body's steps per tick given its number of links,
// capped at the map size.
func (mo *Mobility) Velocity(id BodyID, links int) int {
	v := mo.base[id] + mo.VConst*links
	if v > mo.Map.Size {
		v = mo.Map.Size
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Step moves every listed body and returns the collisions that result.
// Bodies move in the order given. links reports a body's network links.
func (mo *Mobility) Step(rng *rand.Rand, round int, ids []BodyID, links func(BodyID) int) []Pair {
	for _, id := range ids {
		at, ok := mo.Map.Position(id)
		if !ok {
			continue
		}
		steps := mo.Velocity(id, links(id))
		for i := 0; i < steps; i++ {
			at = mo.next(rng, at, round)
		}
		mo.Map.Place(id, at)
	}
	pairs := mo.Map.Collisions()
	if len(pairs) > 0 {
		slog.Debug("collisions", "round", round, "pairs", len(pairs))
	}
	return pairs
}

// next picks one step: along the drift, to a random neighbor, or nowhere.
func (mo *Mobility) next(rng *rand.Rand, at HexCoord, round int) HexCoord {
	if mo.Drift != nil && rng.Float64() < mo.DriftBias {
		return at.Add(HexNeighborDirections[mo.Drift.Direction(at, round)]).Wrap(mo.Map.Size)
	}
	choice := rng.Intn(len(HexNeighborDirections) + 1)
	if choice == len(HexNeighborDirections) {
		return at
	}
	return at.Add(HexNeighborDirections[choice]).Wrap(mo.Map.Size)
}

// RandomCoord returns a uniformly random coordinate on the map.
func (mo *Mobility) RandomCoord(rng *rand.Rand) HexCoord {
	return HexCoord{Q: rng.Intn(mo.Map.Size), R: rng.Intn(mo.Map.Size)}
}
