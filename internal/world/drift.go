package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Drift is a slowly changing vector field that biases movement, so particles
// flow in currents instead of a pure random walk.
type Drift struct {
	noise     opensimplex.Noise
	Frequency float64 // Spatial frequency of the field
	Speed     float64 // How fast the field changes per round
}

// NewDrift creates a drift field from a seed.
func NewDrift(seed int64) *Drift {
	return &Drift{
		noise:     opensimplex.NewNormalized(seed),
		Frequency: 0.15,
		Speed:     0.05,
	}
}

// Direction returns the index into HexNeighborDirections the field points to
// at a coordinate and round.
func (d *Drift) Direction(at HexCoord, round int) int {
	// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
	x := float64(at.Q) + float64(at.R)*0.5
	y := float64(at.R) * math.Sqrt(3.0) / 2.0
	t := float64(round) * d.Speed

	v := octaveNoise(d.noise, x*d.Frequency, y*d.Frequency, t, 2, 0.5)
	dir := int(v * 6)
	if dir > 5 {
		dir = 5
	}
	if dir < 0 {
		dir = 0
	}
	return dir
}

// octaveNoise layers multiple frequencies of normalized noise.
func octaveNoise(noise opensimplex.Noise, x, y, t float64, octaves int, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	frequency := 1.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval3(x*frequency, y*frequency, t) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
