package agents

import "math/rand"

// Score is the outcome of one scored round.
type Score struct {
	RTotal  float64
	Utility float64
}

// BeginRound installs this round's generation and need and clears the
// previous round's actions. Call after Score for the previous round.
func (p *Particle) BeginRound(g, q float64) {
	p.G = g
	p.Q = q
	p.D = 0
	p.P = 0
	p.Allocated = 0
	p.Appropriated = 0
	p.Playing = false
}

// DemandAction decides compliance for the round and returns the provision and
// demand the particle submits. Particles outside a network, or dead, sit the
// round out and report ok=false.
func (p *Particle) DemandAction(round int, rng *rand.Rand) (provision, demand float64, ok bool) {
	if p.Dead || !p.InNetwork() {
		return 0, 0, false
	}

	if round > 1 && p.Learner != nil {
		p.CompliantRound = p.Learner.Choose(p, rng)
	} else {
		// No outcome has been observed yet, so draw straight from pCheat.
		p.CompliantRound = rng.Float64() >= p.PCheat
	}

	provision, demand = p.G, p.Q
	if !p.CompliantRound {
		switch p.CheatOn {
		case CheatProvision:
			provision = p.G * rng.Float64()
		case CheatDemand:
			demand = p.Q + rng.Float64()*(1-p.Q)
		}
	}

	p.P = provision
	p.D = demand
	p.Playing = true
	return provision, demand, true
}

// AppropriateAction returns the amount the particle takes from the pool:
// exactly its allocation, unless it is defecting on appropriation.
func (p *Particle) AppropriateAction(rng *rand.Rand) float64 {
	if !p.Playing {
		return 0
	}
	r := p.Allocated
	if !p.CompliantRound && p.CheatOn == CheatAppropriate {
		r = p.Q + rng.Float64()*(1-p.Q)
	}
	p.Appropriated = r
	return r
}

// Score evaluates the round just played: utility, satisfaction and the
// statistics the learners and policies read. Rounds with neither generation
// nor need are not scored.
func (p *Particle) Score() (Score, bool) {
	p.Risk = p.Sanctions.RiskRate(p.Network)
	p.CatchRate = p.Sanctions.CatchRate(p.Network)

	if p.G == 0 && p.Q == 0 {
		return Score{}, false
	}

	r, rP := p.Allocated, p.Appropriated
	if !p.InNetwork() {
		// Playing outside a network yields nothing from the pool.
		r, rP = 0, 0
		p.P, p.D = 0, 0
	}

	rTotal := RTotal(p.G, p.P, rP)
	u := p.Utility.Utility(p.G, p.Q, p.D, p.P, r, rP)

	if rP >= p.D {
		p.Satisfaction += p.Alpha * (1 - p.Satisfaction)
	} else {
		p.Satisfaction -= p.Beta * p.Satisfaction
	}

	if p.InNetwork() {
		p.networkWindow(p.Network).Add(u)
	}
	p.RollingUtility.Add(u)
	p.OverallUtility.Add(u)
	if p.Q > 0 {
		p.Scarcity.Add(p.G / p.Q)
	}
	p.Need.Add(p.Q)

	p.LastRTotal = rTotal
	p.LastUtility = u
	return Score{RTotal: rTotal, Utility: u}, true
}
