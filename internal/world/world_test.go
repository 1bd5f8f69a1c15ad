package world

import (
	"math/rand"
	"testing"
)

func TestWrapAndTorusDistance(t *testing.T) {
	if got := (HexCoord{Q: -1, R: 5}).Wrap(5); got != (HexCoord{Q: 4, R: 0}) {
		t.Fatalf("Wrap = %+v", got)
	}
	a, b := HexCoord{Q: 0, R: 0}, HexCoord{Q: 4, R: 0}
	if d := Distance(a, b); d != 4 {
		t.Fatalf("Distance = %d, want 4", d)
	}
	if d := TorusDistance(a, b, 5); d != 1 {
		t.Fatalf("TorusDistance = %d, want 1 across the seam", d)
	}
	for _, n := range a.Neighbors(5) {
		if TorusDistance(a, n, 5) != 1 {
			t.Fatalf("neighbor %+v not adjacent", n)
		}
	}
}

func TestMapCollisions(t *testing.T) {
	m := NewMap(5)
	m.Place(3, HexCoord{Q: 1, R: 1})
	m.Place(1, HexCoord{Q: 1, R: 1})
	m.Place(2, HexCoord{Q: 6, R: 1}) // wraps onto 1,1
	m.Place(4, HexCoord{Q: 0, R: 0})

	pairs := m.Collisions()
	want := []Pair{{1, 2}, {1, 3}, {2, 3}}
	if len(pairs) != len(want) {
		t.Fatalf("pairs = %v, want %v", pairs, want)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Fatalf("pairs = %v, want %v", pairs, want)
		}
	}

	m.Place(3, HexCoord{Q: 2, R: 2})
	m.Remove(2)
	if len(m.Collisions()) != 0 {
		t.Fatal("stale occupancy after move and remove")
	}
	if m.BodyCount() != 3 {
		t.Fatalf("BodyCount = %d, want 3", m.BodyCount())
	}
}

func TestMobilityVelocityCoupling(t *testing.T) {
	mo := NewMobility(NewMap(10), nil, 0, 2)
	mo.Add(1, HexCoord{}, 1)
	if v := mo.Velocity(1, 0); v != 1 {
		t.Fatalf("Velocity with no links = %d, want 1", v)
	}
	if v := mo.Velocity(1, 3); v != 7 {
		t.Fatalf("Velocity with 3 links = %d, want 7", v)
	}
	if v := mo.Velocity(1, 100); v != 10 {
		t.Fatalf("Velocity not capped at map size: %d", v)
	}
}

func TestMobilityStepStaysOnMap(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	mo := NewMobility(NewMap(4), NewDrift(9), 0.5, 1)
	ids := []BodyID{1, 2, 3, 4, 5, 6}
	for _, id := range ids {
		mo.Add(id, mo.RandomCoord(rng), 1)
	}
	noLinks := func(BodyID) int { return 0 }
	for round := 1; round <= 50; round++ {
		for _, p := range mo.Step(rng, round, ids, noLinks) {
			if p.A >= p.B {
				t.Fatalf("pair not ordered: %+v", p)
			}
		}
		for _, id := range ids {
			at, ok := mo.Map.Position(id)
			if !ok || at.Q < 0 || at.Q >= 4 || at.R < 0 || at.R >= 4 {
				t.Fatalf("body %d off the map at %+v", id, at)
			}
		}
	}
}

func TestDriftDirectionInRange(t *testing.T) {
	d := NewDrift(1)
	for q := 0; q < 10; q++ {
		for r := 0; r < 10; r++ {
			if dir := d.Direction(HexCoord{Q: q, R: r}, q*r); dir < 0 || dir > 5 {
				t.Fatalf("direction %d out of range", dir)
			}
		}
	}
}
