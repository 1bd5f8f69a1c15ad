package world

import (
	"fmt"
	"sort"
)

// BodyID identifies something placed on the map.
type BodyID = uint64

// Map tracks which bodies occupy which hex of a size×size torus.
type Map struct {
	Size int `json:"size"`

	positions map[BodyID]HexCoord
	occupants map[HexCoord][]BodyID
}

// NewMap creates an empty torus with the given side length.
func NewMap(size int) *Map {
	if size < 1 {
		size = 1
	}
	return &Map{
		Size:      size,
		positions: make(map[BodyID]HexCoord),
		occupants: make(map[HexCoord][]BodyID),
	}
}

// Place puts a body at a coordinate, moving it if already placed.
func (m *Map) Place(id BodyID, at HexCoord) {
	at = at.Wrap(m.Size)
	if old, ok := m.positions[id]; ok {
		if old == at {
			return
		}
		m.remove(id, old)
	}
	m.positions[id] = at
	m.occupants[at] = append(m.occupants[at], id)
}

// Remove takes a body off the map.
func (m *Map) Remove(id BodyID) {
	if at, ok := m.positions[id]; ok {
		m.remove(id, at)
		delete(m.positions, id)
	}
}

func (m *Map) remove(id BodyID, at HexCoord) {
	ids := m.occupants[at]
	for i, other := range ids {
		if other == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(m.occupants, at)
	} else {
		m.occupants[at] = ids
	}
}

// Position returns where a body is.
func (m *Map) Position(id BodyID) (HexCoord, bool) {
	at, ok := m.positions[id]
	return at, ok
}

// At returns the bodies on a hex.
func (m *Map) At(at HexCoord) []BodyID {
	return m.occupants[at.Wrap(m.Size)]
}

// Pair is two bodies sharing a hex, with A < B.
type Pair struct {
	A, B BodyID
}

// Collisions returns every pair of bodies sharing a hex, ordered by A then B.
func (m *Map) Collisions() []Pair {
	var pairs []Pair
	for _, ids := range m.occupants {
		if len(ids) < 2 {
			continue
		}
		sorted := append([]BodyID(nil), ids...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		for i := 0; i < len(sorted); i++ {
			for j := i + 1; j < len(sorted); j++ {
				pairs = append(pairs, Pair{A: sorted[i], B: sorted[j]})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}

// BodyCount returns the number of bodies on the map.
func (m *Map) BodyCount() int {
	return len(m.positions)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(size=%d, bodies=%d)", m.Size, m.BodyCount())
}
