// Package agents provides the particle data model: resource accounting,
// utility scoring, sanction history, cheat-propensity learning and network
// evaluation policies.
package agents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/spinworld/internal/stats"
)

// ParticleID is a unique identifier for a particle.
type ParticleID uint64

// NetworkID indexes a network in the registry arena.
type NetworkID int

// NoNetwork marks a particle that belongs to no network.
const NoNetwork NetworkID = -1

// Window capacities for the statistics a particle keeps.
const (
	NetworkUtilityWindow = 50  // Samples of utility kept per known network
	ObservationWindow    = 100 // Samples of scarcity and need
)

// ErrUnknownCheatTarget is returned when a cheat target name cannot be parsed.
var ErrUnknownCheatTarget = errors.New("unknown cheat target")

// CheatTarget is the resource action a particle falsifies when it defects.
type CheatTarget uint8

const (
	CheatProvision   CheatTarget = iota // Provision less than generated
	CheatDemand                         // Demand more than needed
	CheatAppropriate                    // Appropriate more than allocated
)

// NumCheatTargets is the number of cheat targets.
const NumCheatTargets = 3

func (c CheatTarget) String() string {
	switch c {
	case CheatProvision:
		return "PROVISION"
	case CheatDemand:
		return "DEMAND"
	case CheatAppropriate:
		return "APPROPRIATE"
	}
	return fmt.Sprintf("CheatTarget(%d)", uint8(c))
}

// ParseCheatTarget maps a case-insensitive name to a cheat target.
// The name "random" is resolved by the caller, so it is rejected here too.
func ParseCheatTarget(name string) (CheatTarget, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "PROVISION":
		return CheatProvision, nil
	case "DEMAND":
		return CheatDemand, nil
	case "APPROPRIATE":
		return CheatAppropriate, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownCheatTarget, name)
}

// Particle is an economic agent playing the common-pool resource game.
type Particle struct {
	ID   ParticleID `json:"id"`
	Name string     `json:"name"`

	// Resources for the current round.
	G            float64 `json:"g"` // Generated
	Q            float64 `json:"q"` // Needed
	D            float64 `json:"d"` // Demanded
	P            float64 `json:"p"` // Provisioned
	Allocated    float64 `json:"allocated"`
	Appropriated float64 `json:"appropriated"`
	Playing      bool    `json:"playing"` // Submitted a provision/demand this round

	// Behaviour
	PCheat         float64     `json:"p_cheat"`      // 0.0–1.0
	Satisfaction   float64     `json:"satisfaction"` // 0.0–1.0
	CompliantRound bool        `json:"compliant_round"`
	CheatOn        CheatTarget `json:"cheat_on"`

	// Rates
	Alpha float64 `json:"alpha"` // Satisfaction reinforcement
	Beta  float64 `json:"beta"`  // Dissatisfaction reinforcement
	Theta float64 `json:"theta"` // Reinforcement toward cheating
	Phi   float64 `json:"phi"`   // Decay away from cheating

	Utility UtilityModel `json:"utility"`

	// Last scored round, exposed to snapshots.
	LastRTotal  float64 `json:"r_total"`
	LastUtility float64 `json:"last_utility"`
	Risk        float64 `json:"risk"`
	CatchRate   float64 `json:"catch_rate"`

	// Membership is an index into the network registry.
	Network     NetworkID `json:"network"`
	JoinedRound int       `json:"joined_round"` // Round the current membership began
	BornRound   int       `json:"born_round"`
	Dead        bool      `json:"dead"`

	// Learning state.
	RollingUtility   *stats.Window               `json:"-"`
	OverallUtility   stats.Summary               `json:"-"`
	NetworkUtilities map[NetworkID]*stats.Window `json:"-"`
	Scarcity         *stats.Window               `json:"-"`
	Need             *stats.Window               `json:"-"`
	PrevUtility      float64                     `json:"-"`

	Sanctions *SanctionHistory `json:"-"`

	Learner CheatLearner  `json:"-"`
	Policy  NetworkPolicy `json:"-"`
}

// NewParticle creates a particle outside any network with satisfaction 0.5.
// rollingCap sizes the rolling utility window used by the learners.
func NewParticle(id ParticleID, name string, rollingCap int) *Particle {
	return &Particle{
		ID:               id,
		Name:             name,
		Satisfaction:     0.5,
		CompliantRound:   true,
		Network:          NoNetwork,
		RollingUtility:   stats.NewWindow(rollingCap),
		NetworkUtilities: make(map[NetworkID]*stats.Window),
		Scarcity:         stats.NewWindow(ObservationWindow),
		Need:             stats.NewWindow(ObservationWindow),
		Sanctions:        NewSanctionHistory(1.0),
	}
}

// InNetwork reports whether the particle currently belongs to a network.
func (p *Particle) InNetwork() bool {
	return p.Network != NoNetwork
}

// networkWindow returns the utility window kept for a network, creating it lazily.
func (p *Particle) networkWindow(id NetworkID) *stats.Window {
	w, ok := p.NetworkUtilities[id]
	if !ok {
		w = stats.NewWindow(NetworkUtilityWindow)
		p.NetworkUtilities[id] = w
	}
	return w
}

func (p *Particle) String() string {
	return fmt.Sprintf("Particle(%s, g=%.3f, q=%.3f, network=%d)", p.Name, p.G, p.Q, p.Network)
}
