package agents

import (
	"errors"
	"math/rand"
	"testing"
)

func TestParseCheatTarget(t *testing.T) {
	tests := []struct {
		name    string
		want    CheatTarget
		wantErr bool
	}{
		{"PROVISION", CheatProvision, false},
		{"demand", CheatDemand, false},
		{" Appropriate ", CheatAppropriate, false},
		{"random", 0, true},
		{"steal", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCheatTarget(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCheatTarget) {
					t.Errorf("ParseCheatTarget(%q) err = %v, want ErrUnknownCheatTarget", tt.name, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseCheatTarget(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
			}
		})
	}
}

func TestNewSpawnerRejectsUnknownTarget(t *testing.T) {
	_, err := NewSpawner(SpawnConfig{CheatOn: "steal"}, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrUnknownCheatTarget) {
		t.Errorf("err = %v, want ErrUnknownCheatTarget", err)
	}
}

func TestSpawnGroup(t *testing.T) {
	s, err := NewSpawner(SpawnConfig{
		Utility: UtilityModel{A: 2, B: 1, C: 3},
		Alpha:   0.1, Beta: 0.1, Theta: 0.1, Phi: 0.1,
		CheatOn: "DEMAND",
		Policy:  PolicyAge,
	}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	c := s.SpawnGroup("c", 3, 0, 0)
	nc := s.SpawnGroup("nc", 2, 1, 4)
	if len(c) != 3 || len(nc) != 2 {
		t.Fatalf("groups = %d, %d", len(c), len(nc))
	}
	if c[0].Name != "c0" || c[2].Name != "c2" || nc[1].Name != "nc1" {
		t.Errorf("names = %s %s %s", c[0].Name, c[2].Name, nc[1].Name)
	}

	seen := make(map[ParticleID]bool)
	for _, p := range append(c, nc...) {
		if seen[p.ID] {
			t.Errorf("duplicate id %d", p.ID)
		}
		seen[p.ID] = true
		if p.CheatOn != CheatDemand {
			t.Errorf("%s cheats on %v", p.Name, p.CheatOn)
		}
		if p.Network != NoNetwork {
			t.Errorf("%s starts in network %d", p.Name, p.Network)
		}
		if _, ok := p.Policy.(*AgePolicy); !ok {
			t.Errorf("%s policy = %T, want *AgePolicy", p.Name, p.Policy)
		}
		if _, ok := p.Learner.(*WindowedLearner); !ok {
			t.Errorf("%s learner = %T, want *WindowedLearner", p.Name, p.Learner)
		}
	}

	// A plan sampled from pCheat 0 or 1 is pure, so pCheat is unchanged.
	if c[0].PCheat != 0 || nc[0].PCheat != 1 {
		t.Errorf("pCheat = %v, %v", c[0].PCheat, nc[0].PCheat)
	}
	if nc[0].BornRound != 4 {
		t.Errorf("BornRound = %d, want 4", nc[0].BornRound)
	}
}

func TestSpawnRandomTargetAndRoundLearner(t *testing.T) {
	s, err := NewSpawner(SpawnConfig{
		CheatOn: "Random",
		Learner: LearnerRound,
	}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}

	counts := make(map[CheatTarget]int)
	for _, p := range s.SpawnGroup("p", 300, 0.5, 0) {
		counts[p.CheatOn]++
		if _, ok := p.Learner.(RoundLearner); !ok {
			t.Fatalf("learner = %T, want RoundLearner", p.Learner)
		}
		if _, ok := p.Policy.(*ThresholdPolicy); !ok {
			t.Fatalf("policy = %T, want *ThresholdPolicy", p.Policy)
		}
	}
	for target := CheatTarget(0); target < NumCheatTargets; target++ {
		if counts[target] < 50 {
			t.Errorf("target %v drawn %d times of 300", target, counts[target])
		}
	}
}
