package agents

// Snapshot is the flat per-round view of a particle read by persistence.
type Snapshot struct {
	Particle     ParticleID `json:"particle"`
	Name         string     `json:"name"`
	G            float64    `json:"g"`
	Q            float64    `json:"q"`
	D            float64    `json:"d"`
	P            float64    `json:"p"`
	Allocated    float64    `json:"r"`
	Appropriated float64    `json:"rP"`
	RTotal       float64    `json:"rTotal"`
	Utility      float64    `json:"U"`
	Satisfaction float64    `json:"satisfaction"`
	Network      NetworkID  `json:"network"`
	PCheat       float64    `json:"pCheat"`
	CatchRate    float64    `json:"catchRate"`
	Risk         float64    `json:"risk"`
	Compliant    bool       `json:"compliant"`
	Dead         bool       `json:"dead"`
}

// Snapshot captures the particle's state after its last scored round.
func (p *Particle) Snapshot() Snapshot {
	return Snapshot{
		Particle:     p.ID,
		Name:         p.Name,
		G:            p.G,
		Q:            p.Q,
		D:            p.D,
		P:            p.P,
		Allocated:    p.Allocated,
		Appropriated: p.Appropriated,
		RTotal:       p.LastRTotal,
		Utility:      p.LastUtility,
		Satisfaction: p.Satisfaction,
		Network:      p.Network,
		PCheat:       p.PCheat,
		CatchRate:    p.CatchRate,
		Risk:         p.Risk,
		Compliant:    p.CompliantRound,
		Dead:         p.Dead,
	}
}

// Values returns the snapshot as a key/value map.
func (s Snapshot) Values() map[string]float64 {
	return map[string]float64{
		"g":            s.G,
		"q":            s.Q,
		"d":            s.D,
		"p":            s.P,
		"r":            s.Allocated,
		"rP":           s.Appropriated,
		"rTotal":       s.RTotal,
		"U":            s.Utility,
		"satisfaction": s.Satisfaction,
		"network":      float64(s.Network),
		"pCheat":       s.PCheat,
		"catchRate":    s.CatchRate,
		"risk":         s.Risk,
	}
}
