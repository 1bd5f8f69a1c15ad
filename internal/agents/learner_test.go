package agents

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// feedPlan drives a windowed learner through cycles, steering the rolling
// utility so that each recorded delta rewards (or punishes) the slot it is
// attributed to.
func feedPlan(p *Particle, l *WindowedLearner, rng *rand.Rand, cycles int, defectPays bool) {
	level := 0.0
	n := len(l.plan)
	for c := 0; c < cycles; c++ {
		for j := 0; j < n; j++ {
			target := j + 1
			if target >= n {
				target = n - 1
			}
			defect := !l.plan[target]
			if defect == defectPays {
				level++
			} else {
				level--
			}
			p.RollingUtility.Reset()
			p.RollingUtility.Add(level)
			l.Choose(p, rng)
		}
	}
}

func TestWindowedLearnerTrends(t *testing.T) {
	const seeds = 20
	var up, down float64
	for seed := int64(1); seed <= seeds; seed++ {
		rng := rand.New(rand.NewSource(seed))
		p := newTestParticle(0.5, CheatProvision)
		p.Theta, p.Phi = 0.5, 0.5
		l := NewWindowedLearner(p, DefaultPlanLength, rng)
		feedPlan(p, l, rng, 40, true)
		up += p.PCheat

		p = newTestParticle(0.5, CheatProvision)
		p.Theta, p.Phi = 0.5, 0.5
		l = NewWindowedLearner(p, DefaultPlanLength, rng)
		feedPlan(p, l, rng, 40, false)
		down += p.PCheat
	}
	up /= seeds
	down /= seeds
	if up < 0.7 {
		t.Fatalf("mean pCheat when defecting pays = %.3f, want it to trend up", up)
	}
	if down > 0.3 {
		t.Fatalf("mean pCheat when complying pays = %.3f, want it to trend down", down)
	}
}

func TestWindowedLearnerPurePlan(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := newTestParticle(0, CheatProvision)
	l := NewWindowedLearner(p, DefaultPlanLength, rng)
	if l.Plan() != "CCCCCCC" {
		t.Fatalf("plan = %s, want all comply", l.Plan())
	}
	for i := 0; i < 3*DefaultPlanLength; i++ {
		p.RollingUtility.Add(float64(i))
		if !l.Choose(p, rng) {
			t.Fatal("pure comply plan produced a defection")
		}
	}
	if p.PCheat != 0 {
		t.Fatalf("pure plan changed pCheat to %v", p.PCheat)
	}
}

func TestWindowedLearnerResetsPCheat(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := newTestParticle(0.4, CheatProvision)
	l := NewWindowedLearner(p, DefaultPlanLength, rng)
	comply, defect := l.Counts()
	if comply+defect != DefaultPlanLength {
		t.Fatalf("counts %d+%d do not cover the plan", comply, defect)
	}
	if want := float64(defect) / DefaultPlanLength; p.PCheat != want {
		t.Fatalf("pCheat = %v, want defect fraction %v", p.PCheat, want)
	}
}

func TestRoundLearnerRules(t *testing.T) {
	tests := []struct {
		name      string
		compliant bool
		utility   float64
		want      float64
	}{
		{"honesty paid", true, 1, 0.45},
		{"cheating cost", false, -1, 0.45},
		{"honesty cost", true, -1, 0.55},
		{"cheating paid", false, 1, 0.55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestParticle(0.5, CheatProvision)
			p.CompliantRound = tt.compliant
			p.RollingUtility.Add(tt.utility)
			RoundLearner{}.Choose(p, rand.New(rand.NewSource(1)))
			if math.Abs(p.PCheat-tt.want) > 1e-12 {
				t.Fatalf("pCheat = %v, want %v", p.PCheat, tt.want)
			}
			if p.PrevUtility != tt.utility {
				t.Fatalf("PrevUtility = %v, want %v", p.PrevUtility, tt.utility)
			}
		})
	}
}

func TestReinforcementOffsetByRisk(t *testing.T) {
	p := newTestParticle(0.5, CheatProvision)
	p.Sanctions.RecordSanction(0, Expulsion)
	p.Sanctions.RecordCatch(0, true)
	// benefit 1, risk 1, catch 1: 0.1/3 - 0.1*2/3 < 0
	reinforceCheating(p, 1)
	if p.PCheat >= 0.5 {
		t.Fatalf("pCheat = %v, want a decrease when risk dominates", p.PCheat)
	}
}

func TestReinforcementZeroSum(t *testing.T) {
	p := newTestParticle(0.5, CheatProvision)
	reinforceCheating(p, 0)
	if p.PCheat != 0.5 {
		t.Fatalf("pCheat = %v, want unchanged on zero normalisation", p.PCheat)
	}
}

func TestPCheatClamped(t *testing.T) {
	p := newTestParticle(0.9, CheatProvision)
	p.Phi = 2
	decayCheating(p)
	if p.PCheat != 0 {
		t.Fatalf("pCheat = %v, want clamped to 0", p.PCheat)
	}
}

func TestParseLearnerKind(t *testing.T) {
	if k, err := ParseLearnerKind("adaptive"); err != nil || k != LearnerRound {
		t.Fatalf("ParseLearnerKind(adaptive) = %v, %v", k, err)
	}
	if _, err := ParseLearnerKind("genetic"); !errors.Is(err, ErrUnknownLearner) {
		t.Fatalf("err = %v, want ErrUnknownLearner", err)
	}
}
