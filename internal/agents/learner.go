// Cheat-propensity learning. Adapts pCheat from observed benefit, risk and
// catch rate.
package agents

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
)

// DefaultPlanLength is the number of rounds a windowed learner commits to.
const DefaultPlanLength = 7

// ErrUnknownLearner is returned when a learner name cannot be parsed.
var ErrUnknownLearner = errors.New("unknown cheat learner")

// CheatLearner decides, once per DEMAND phase, whether the particle complies.
// Implementations update p.PCheat as a side effect.
type CheatLearner interface {
	Choose(p *Particle, rng *rand.Rand) bool
}

// LearnerKind selects a CheatLearner implementation.
type LearnerKind uint8

const (
	LearnerWindowed LearnerKind = iota // Batch update over a fixed plan (default)
	LearnerRound                       // Update after every round
)

func (k LearnerKind) String() string {
	if k == LearnerRound {
		return "ROUND"
	}
	return "WINDOWED"
}

// ParseLearnerKind maps a case-insensitive name to a learner kind.
func ParseLearnerKind(name string) (LearnerKind, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "WINDOWED", "":
		return LearnerWindowed, nil
	case "ROUND", "ADAPTIVE":
		return LearnerRound, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownLearner, name)
}

// WindowedLearner pre-samples a compliance plan from pCheat, plays it slot by
// slot while recording utility deltas, and only adapts pCheat once the plan is
// exhausted.
type WindowedLearner struct {
	plan     []bool // true = comply
	benefits []float64
	ptr      int

	complyCount int
	defectCount int
}

// NewWindowedLearner samples an initial plan of the given length from
// p.PCheat and resets p.PCheat to the plan's defect fraction.
func NewWindowedLearner(p *Particle, length int, rng *rand.Rand) *WindowedLearner {
	if length < 2 {
		length = 2
	}
	l := &WindowedLearner{
		plan:     make([]bool, length),
		benefits: make([]float64, length-1),
	}
	l.resample(p, rng)
	return l
}

// Plan renders the current plan as C (comply) and D (defect) characters.
func (l *WindowedLearner) Plan() string {
	var b strings.Builder
	for _, comply := range l.plan {
		if comply {
			b.WriteByte('C')
		} else {
			b.WriteByte('D')
		}
	}
	return b.String()
}

// Counts returns the comply and defect slots in the current plan.
func (l *WindowedLearner) Counts() (comply, defect int) {
	return l.complyCount, l.defectCount
}

// Choose plays the next slot of the plan.
func (l *WindowedLearner) Choose(p *Particle, rng *rand.Rand) bool {
	choice := l.plan[l.ptr]
	l.ptr++

	current := p.RollingUtility.Mean()

	if l.ptr < len(l.plan) {
		l.benefits[l.ptr-1] = current - p.PrevUtility
		p.PrevUtility = current
		return choice
	}

	// Plan exhausted. The final delta lands in the last benefit slot.
	l.benefits[l.ptr-2] = current - p.PrevUtility
	p.PrevUtility = current

	if l.defectCount == 0 || l.complyCount == 0 {
		slog.Debug("cannot modify strategy, already pure", "particle", p.Name, "plan", l.Plan())
	} else {
		// Each benefit is attributed to the decision that follows it.
		complyBenefit, defectBenefit := 0.0, 0.0
		for i, b := range l.benefits {
			if l.plan[i+1] {
				complyBenefit += b
			} else {
				defectBenefit += b
			}
		}
		complyBenefit /= float64(l.complyCount)
		defectBenefit /= float64(l.defectCount)

		if defectBenefit > complyBenefit {
			reinforceCheating(p, defectBenefit-complyBenefit)
		} else {
			decayCheating(p)
		}
		l.resample(p, rng)
		slog.Debug("strategy updated", "particle", p.Name, "plan", l.Plan(), "p_cheat", p.PCheat)
	}

	l.ptr = 0
	p.RollingUtility.Reset()
	return choice
}

// resample draws a fresh plan from p.PCheat and resets p.PCheat to the
// realised defect fraction.
func (l *WindowedLearner) resample(p *Particle, rng *rand.Rand) {
	l.complyCount = 0
	l.defectCount = 0
	for i := range l.plan {
		if rng.Float64() < p.PCheat {
			l.plan[i] = false
			l.defectCount++
		} else {
			l.plan[i] = true
			l.complyCount++
		}
	}
	p.PCheat = float64(l.defectCount) / float64(len(l.plan))
}

// RoundLearner adapts pCheat after every round from the change in rolling
// utility, judged against the previous round's choice.
type RoundLearner struct {
	// Normalize divides the utility delta by the model's dynamic range.
	Normalize bool
}

// Choose updates pCheat and draws this round's compliance.
func (l RoundLearner) Choose(p *Particle, rng *rand.Rand) bool {
	current := p.RollingUtility.Mean()
	benefit := current - p.PrevUtility
	if l.Normalize {
		if r := p.Utility.DynamicRange(); r != 0 {
			benefit /= r
		}
	}

	switch {
	case (benefit > 0 && p.CompliantRound) || (benefit < 0 && !p.CompliantRound):
		// Honesty paid, or cheating cost: be more compliant.
		decayCheating(p)
	case benefit < 0 && p.CompliantRound:
		reinforceCheating(p, -benefit)
	default:
		reinforceCheating(p, benefit)
	}

	p.PrevUtility = current
	return rng.Float64() >= p.PCheat
}

// reinforceCheating moves pCheat by the benefit of cheating, offset by the
// observed risk and catch rate in the particle's network.
func reinforceCheating(p *Particle, benefit float64) {
	p.Risk = p.Sanctions.RiskRate(p.Network)
	p.CatchRate = p.Sanctions.CatchRate(p.Network)

	reinforcement := 0.0
	if total := benefit + p.Risk + p.CatchRate; total != 0 {
		normBenefit := benefit / total
		normRisk := p.Risk / total
		normCatch := p.CatchRate / total
		reinforcement = p.Theta*normBenefit - p.Phi*(normRisk+normCatch)
	}

	if reinforcement > 0 {
		p.PCheat += reinforcement * (1 - p.PCheat)
	} else {
		p.PCheat += reinforcement * p.PCheat
	}
	clampPCheat(p)
}

func decayCheating(p *Particle) {
	p.PCheat -= p.Phi * p.PCheat
	clampPCheat(p)
}

// clampPCheat keeps pCheat a probability. The update rules only leave [0,1]
// when theta or phi exceed 1.
func clampPCheat(p *Particle) {
	clamped := p.PCheat
	if clamped < 0 {
		clamped = 0
	} else if clamped > 1 {
		clamped = 1
	}
	if clamped != p.PCheat {
		slog.Debug("p_cheat clamped", "particle", p.Name, "raw", p.PCheat, "clamped", clamped)
		p.PCheat = clamped
	}
}
