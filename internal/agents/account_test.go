package agents

import (
	"math"
	"math/rand"
	"testing"
)

func newTestParticle(pCheat float64, on CheatTarget) *Particle {
	p := NewParticle(1, "p0", DefaultPlanLength)
	p.Utility = UtilityModel{A: 2, B: 1, C: 3}
	p.Alpha, p.Beta = 0.1, 0.1
	p.Theta, p.Phi = 0.1, 0.1
	p.PCheat = pCheat
	p.CheatOn = on
	p.Network = 0
	return p
}

func TestDemandActionOutsideNetwork(t *testing.T) {
	p := newTestParticle(0, CheatProvision)
	p.Network = NoNetwork
	p.BeginRound(1, 1)
	if _, _, ok := p.DemandAction(1, rand.New(rand.NewSource(1))); ok {
		t.Fatal("particle outside a network should sit the round out")
	}
	if p.Playing {
		t.Fatal("Playing set for a skipped particle")
	}
}

func TestDemandActionCompliant(t *testing.T) {
	p := newTestParticle(0, CheatDemand)
	p.BeginRound(0.6, 0.8)
	prov, dem, ok := p.DemandAction(1, rand.New(rand.NewSource(1)))
	if !ok || prov != 0.6 || dem != 0.8 {
		t.Fatalf("DemandAction = (%v, %v, %v), want (0.6, 0.8, true)", prov, dem, ok)
	}
	if !p.CompliantRound {
		t.Fatal("pCheat 0 should always comply")
	}
}

func TestCheatTargets(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		p := newTestParticle(1, CheatProvision)
		p.BeginRound(0.6, 0.8)
		prov, dem, _ := p.DemandAction(1, rng)
		if p.CompliantRound || prov > 0.6 || dem != 0.8 {
			t.Fatalf("provision cheat gave (%v, %v)", prov, dem)
		}

		p = newTestParticle(1, CheatDemand)
		p.BeginRound(0.6, 0.8)
		prov, dem, _ = p.DemandAction(1, rng)
		if prov != 0.6 || dem < 0.8 || dem >= 1 {
			t.Fatalf("demand cheat gave (%v, %v)", prov, dem)
		}

		p = newTestParticle(1, CheatAppropriate)
		p.BeginRound(0.6, 0.8)
		prov, dem, _ = p.DemandAction(1, rng)
		if prov != 0.6 || dem != 0.8 {
			t.Fatalf("appropriate cheat altered demand phase: (%v, %v)", prov, dem)
		}
		p.Allocated = 0.2
		if r := p.AppropriateAction(rng); r < 0.8 || r >= 1 {
			t.Fatalf("appropriate cheat took %v", r)
		}
	}
}

func TestAppropriateAllocated(t *testing.T) {
	p := newTestParticle(0, CheatAppropriate)
	rng := rand.New(rand.NewSource(1))
	p.BeginRound(0.5, 1)
	p.DemandAction(1, rng)
	p.Allocated = 0.7
	if r := p.AppropriateAction(rng); r != 0.7 {
		t.Fatalf("compliant particle appropriated %v, want 0.7", r)
	}
}

func TestScoreSkipsEmptyRound(t *testing.T) {
	p := newTestParticle(0, CheatProvision)
	p.BeginRound(0, 0)
	if _, ok := p.Score(); ok {
		t.Fatal("round with no generation and no need should not be scored")
	}
	if p.RollingUtility.Len() != 0 {
		t.Fatal("unscored round reached the rolling window")
	}
}

func TestScoreOutsideNetwork(t *testing.T) {
	p := newTestParticle(0, CheatProvision)
	p.Network = NoNetwork
	p.BeginRound(0.4, 1)
	p.Allocated, p.Appropriated, p.P, p.D = 1, 1, 0.4, 1

	s, ok := p.Score()
	if !ok {
		t.Fatal("expected a scored round")
	}
	// Only the generated resources are kept: 3 * 0.4.
	if s.RTotal != 0.4 || math.Abs(s.Utility-1.2) > 1e-12 {
		t.Fatalf("Score = %+v, want rTotal 0.4 utility 1.2", s)
	}
	if p.P != 0 || p.D != 0 {
		t.Fatal("provision and demand should be zeroed outside a network")
	}
	if len(p.NetworkUtilities) != 0 {
		t.Fatal("utility recorded against a network while outside one")
	}
}

func TestScoreRecordsStatistics(t *testing.T) {
	p := newTestParticle(0, CheatProvision)
	p.BeginRound(0.5, 1)
	p.P, p.D = 0.5, 1
	p.Allocated, p.Appropriated = 1, 1

	s, _ := p.Score()
	if s.RTotal != 1 || s.Utility != 2 {
		t.Fatalf("Score = %+v, want rTotal 1 utility 2", s)
	}
	if math.Abs(p.Satisfaction-0.55) > 1e-12 {
		t.Fatalf("satisfaction = %v, want 0.55", p.Satisfaction)
	}
	if w := p.NetworkUtilities[0]; w == nil || w.Mean() != 2 {
		t.Fatal("network utility window not updated")
	}
	if p.Scarcity.Mean() != 0.5 || p.Need.Mean() != 1 || p.OverallUtility.N() != 1 {
		t.Fatal("observation windows not updated")
	}
}

func TestSatisfactionBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		p := newTestParticle(0, CheatProvision)
		p.Alpha = rng.Float64()
		p.Beta = rng.Float64()
		for round := 0; round < 500; round++ {
			p.BeginRound(0.5, 1)
			p.D = 1
			if rng.Intn(2) == 0 {
				p.Appropriated = 1
			}
			p.Score()
			if p.Satisfaction < 0 || p.Satisfaction > 1 {
				t.Fatalf("satisfaction %v out of bounds (alpha=%v beta=%v)", p.Satisfaction, p.Alpha, p.Beta)
			}
		}
	}
}
