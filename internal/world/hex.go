// Package world provides the wrap-around hex grid particles move on and the
// mobility model that turns movement into collisions.
// Uses axial coordinates (q, r) on a size×size torus.
package world

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Add offsets h by d.
func (h HexCoord) Add(d HexCoord) HexCoord {
	return HexCoord{Q: h.Q + d.Q, R: h.R + d.R}
}

// Wrap folds a coordinate onto a torus of the given size.
func (h HexCoord) Wrap(size int) HexCoord {
	return HexCoord{Q: mod(h.Q, size), R: mod(h.R, size)}
}

// Neighbors returns the six adjacent coordinates, wrapped onto the torus.
func (h HexCoord) Neighbors(size int) [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = h.Add(dir).Wrap(size)
	}
	return result
}

// Distance returns the hex distance between two coordinates on an unbounded grid.
func Distance(a, b HexCoord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	return max(dq, dr, ds)
}

// TorusDistance returns the shortest hex distance between two coordinates on
// a torus of the given size.
func TorusDistance(a, b HexCoord, size int) int {
	best := -1
	for _, wq := range [3]int{-size, 0, size} {
		for _, wr := range [3]int{-size, 0, size} {
			d := Distance(a, HexCoord{Q: b.Q + wq, R: b.R + wr})
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

func mod(x, n int) int {
	if n <= 0 {
		return x
	}
	x %= n
	if x < 0 {
		x += n
	}
	return x
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
