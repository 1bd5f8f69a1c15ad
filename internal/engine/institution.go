// Sanctioning: monitoring members, judging offences and graduating sanctions
// from warnings to expulsion.
package engine

import (
	"math/rand"

	"github.com/talgya/spinworld/internal/agents"
	"github.com/talgya/spinworld/internal/social"
)

// Sanctioner judges a network's members after appropriation and records what
// it saw in their sanction histories.
type Sanctioner interface {
	Sanction(n *social.Network, members []*agents.Particle, reg *social.Registry, rng *rand.Rand) SanctionReport
}

// SanctionReport counts what a sanctioning pass did.
type SanctionReport struct {
	Monitored  int `json:"monitored"`
	Caught     int `json:"caught"`
	Warnings   int `json:"warnings"`
	Expulsions int `json:"expulsions"`
	Forgiven   int `json:"forgiven"`
}

// Add accumulates another report.
func (r *SanctionReport) Add(o SanctionReport) {
	r.Monitored += o.Monitored
	r.Caught += o.Caught
	r.Warnings += o.Warnings
	r.Expulsions += o.Expulsions
	r.Forgiven += o.Forgiven
}

// Institution is the default Sanctioner: each playing member is monitored with
// the network's monitoring level, and offences are graduated by magnitude.
type Institution struct{}

// Sanction implements Sanctioner.
func (Institution) Sanction(n *social.Network, members []*agents.Particle, reg *social.Registry, rng *rand.Rand) SanctionReport {
	var report SanctionReport
	clean := true

	for _, p := range members {
		if !p.Playing {
			continue
		}
		if rng.Float64() >= n.MonitoringLevel {
			continue
		}
		report.Monitored++

		m := OffenceMagnitude(p)
		caught := m > 0
		p.Sanctions.RecordCatch(n.ID, caught)

		if !caught {
			p.Sanctions.RecordSanction(n.ID, agents.NoSanction)
			// Forgiveness 1.0 never forgives.
			if n.Warnings(p.ID) > 0 && rng.Float64() >= n.Forgiveness {
				n.RemoveWarning(p.ID)
				report.Forgiven++
			}
			continue
		}
		report.Caught++
		clean = false

		level := agents.NoSanction
		switch {
		case m >= n.SeverityUB:
			level = agents.Expulsion
		case m >= n.SeverityLB:
			level = agents.Warning
			if n.Warn(p.ID) > n.WarningThreshold {
				level = agents.Expulsion
			}
		}
		p.Sanctions.RecordSanction(n.ID, level)

		switch level {
		case agents.Warning:
			report.Warnings++
		case agents.Expulsion:
			report.Expulsions++
			reg.Ban(p, n.ID)
		}
	}

	if clean {
		n.CompliantRounds++
	}
	return report
}

// OffenceMagnitude measures how far a particle strayed from honest play this
// round, in [0,1]: the largest of its relative under-provision, over-demand
// and over-appropriation. Zero means it played honestly.
func OffenceMagnitude(p *agents.Particle) float64 {
	m := 0.0
	if p.G > 0 && p.P < p.G {
		m = max(m, (p.G-p.P)/p.G)
	}
	if p.Q < 1 && p.D > p.Q {
		m = max(m, (p.D-p.Q)/(1-p.Q))
	}
	if p.Allocated < 1 && p.Appropriated > p.Allocated {
		m = max(m, (p.Appropriated-p.Allocated)/(1-p.Allocated))
	}
	return min(m, 1)
}
