// Particle spawning: creates the initial population from the run parameters,
// attaching each particle's learner and network policy.
package agents

import (
	"fmt"
	"math/rand"
	"strings"
)

// CheatRandom asks the spawner to draw a cheat target per particle.
const CheatRandom = "random"

// SpawnConfig holds the per-particle parameters shared by a run.
type SpawnConfig struct {
	Utility UtilityModel
	Alpha   float64
	Beta    float64
	Theta   float64
	Phi     float64

	CheatOn       string // Target name, or "random"
	WarningWeight float64
	RollingWindow int

	Learner    LearnerKind
	PlanLength int
	Normalize  bool

	Policy          PolicyKind
	LeaveThreshold  int
	Tolerance1      float64
	Tolerance2      float64
	Acclimatization int
	BaseLifespan    int
}

// Spawner creates particles for the simulation.
type Spawner struct {
	rng      *rand.Rand
	cfg      SpawnConfig
	cheatOn  CheatTarget
	randomOn bool
	nextID   ParticleID
}

// NewSpawner validates the cheat target and creates a spawner drawing from the
// run's random source.
func NewSpawner(cfg SpawnConfig, rng *rand.Rand) (*Spawner, error) {
	s := &Spawner{rng: rng, cfg: cfg, nextID: 1}
	if strings.EqualFold(strings.TrimSpace(cfg.CheatOn), CheatRandom) {
		s.randomOn = true
	} else {
		target, err := ParseCheatTarget(cfg.CheatOn)
		if err != nil {
			return nil, fmt.Errorf("spawner: %w", err)
		}
		s.cheatOn = target
	}
	if s.cfg.PlanLength == 0 {
		s.cfg.PlanLength = DefaultPlanLength
	}
	if s.cfg.RollingWindow == 0 {
		s.cfg.RollingWindow = s.cfg.PlanLength
	}
	if s.cfg.WarningWeight == 0 {
		s.cfg.WarningWeight = 1.0
	}
	return s, nil
}

// SetNextID sets the next particle ID to be issued.
func (s *Spawner) SetNextID(id ParticleID) {
	s.nextID = id
}

// SpawnGroup creates count particles named prefix0, prefix1, ... with the
// given initial propensity to cheat.
func (s *Spawner) SpawnGroup(prefix string, count int, pCheat float64, round int) []*Particle {
	particles := make([]*Particle, 0, count)
	for i := 0; i < count; i++ {
		particles = append(particles, s.spawnOne(fmt.Sprintf("%s%d", prefix, i), pCheat, round))
	}
	return particles
}

func (s *Spawner) spawnOne(name string, pCheat float64, round int) *Particle {
	id := s.nextID
	s.nextID++

	p := NewParticle(id, name, s.cfg.RollingWindow)
	p.Utility = s.cfg.Utility
	p.Alpha = s.cfg.Alpha
	p.Beta = s.cfg.Beta
	p.Theta = s.cfg.Theta
	p.Phi = s.cfg.Phi
	p.PCheat = pCheat
	p.BornRound = round
	p.Sanctions.WarningWeight = s.cfg.WarningWeight

	p.CheatOn = s.cheatOn
	if s.randomOn {
		p.CheatOn = CheatTarget(s.rng.Intn(NumCheatTargets))
	}

	switch s.cfg.Learner {
	case LearnerRound:
		p.Learner = RoundLearner{Normalize: s.cfg.Normalize}
	default:
		p.Learner = NewWindowedLearner(p, s.cfg.PlanLength, s.rng)
	}

	p.Policy = s.newPolicy()
	return p
}

func (s *Spawner) newPolicy() NetworkPolicy {
	switch s.cfg.Policy {
	case PolicyUtility:
		u := NewUtilityPolicy(s.cfg.Tolerance1, s.cfg.Tolerance2)
		if s.cfg.Acclimatization > 0 {
			u.Acclimatization = s.cfg.Acclimatization
		}
		return u
	case PolicyAge:
		a := NewAgePolicy(s.cfg.Tolerance1, s.cfg.Tolerance2)
		if s.cfg.Acclimatization > 0 {
			a.Acclimatization = s.cfg.Acclimatization
		}
		if s.cfg.BaseLifespan > 0 {
			a.BaseLifespan = s.cfg.BaseLifespan
		}
		return a
	default:
		threshold := s.cfg.LeaveThreshold
		if threshold <= 0 {
			threshold = DefaultLeaveThreshold
		}
		return NewThresholdPolicy(threshold)
	}
}
