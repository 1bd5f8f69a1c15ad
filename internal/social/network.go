// Package social provides networks: the voluntary groups through which
// particles pool and ration resources, and the registry that tracks them.
package social

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/spinworld/internal/agents"
	"github.com/talgya/spinworld/internal/stats"
)

// ErrUnknownAllocation is returned when an allocation method name cannot be parsed.
var ErrUnknownAllocation = errors.New("unknown allocation method")

// AllocationMethod is how a network rations its pool among members.
type AllocationMethod uint8

const (
	AllocateRandom AllocationMethod = iota // Random order, first come first served
)

func (a AllocationMethod) String() string {
	if a == AllocateRandom {
		return "RANDOM"
	}
	return fmt.Sprintf("AllocationMethod(%d)", uint8(a))
}

// ParseAllocationMethod maps a case-insensitive name to an allocation method.
func ParseAllocationMethod(name string) (AllocationMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "RANDOM":
		return AllocateRandom, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownAllocation, name)
}

// NetworkKind distinguishes strictly and leniently monitored networks.
type NetworkKind uint8

const (
	Lenient NetworkKind = iota
	Strict
)

func (k NetworkKind) String() string {
	if k == Strict {
		return "STRICT"
	}
	return "LENIENT"
}

// Params are the policy parameters a network is created with.
type Params struct {
	Kind             NetworkKind
	Allocation       AllocationMethod
	MonitoringLevel  float64 // Probability a member is monitored each round
	MonitoringCost   float64
	SeverityLB       float64 // Offence magnitude that earns a warning
	SeverityUB       float64 // Offence magnitude that earns expulsion outright
	WarningThreshold int     // Warnings tolerated before expulsion
	Forgiveness      float64 // 1.0 never forgives
}

// Network is a voluntary membership group.
type Network struct {
	ID agents.NetworkID `json:"id"`
	Params

	// Bookkeeping
	Longevity       int           `json:"longevity"` // Rounds survived with members
	CompliantRounds int           `json:"compliant_rounds"`
	Utility         stats.Summary `json:"-"` // Utility contributed by members

	warnings map[agents.ParticleID]int
	banned   map[agents.ParticleID]bool
}

func newNetwork(id agents.NetworkID, params Params) *Network {
	return &Network{
		ID:       id,
		Params:   params,
		warnings: make(map[agents.ParticleID]int),
		banned:   make(map[agents.ParticleID]bool),
	}
}

// NormalizedMonitoringCost returns the share of the pool spent on monitoring
// at full monitoring level.
func (n *Network) NormalizedMonitoringCost() float64 {
	return n.Params.MonitoringCost * 0.5
}

// Warn records a warning against a particle and returns its warning count.
func (n *Network) Warn(id agents.ParticleID) int {
	n.warnings[id]++
	return n.warnings[id]
}

// RemoveWarning forgives one warning.
func (n *Network) RemoveWarning(id agents.ParticleID) {
	if n.warnings[id] > 0 {
		n.warnings[id]--
	}
}

// Warnings returns the outstanding warnings against a particle.
func (n *Network) Warnings(id agents.ParticleID) int {
	return n.warnings[id]
}

// IsBanned reports whether a particle was expelled from this network.
func (n *Network) IsBanned(id agents.ParticleID) bool {
	return n.banned[id]
}

// BannedCount returns the number of expelled particles.
func (n *Network) BannedCount() int {
	return len(n.banned)
}

func (n *Network) String() string {
	return fmt.Sprintf("Network(%d, %s, %s)", n.ID, n.Kind, n.Allocation)
}
