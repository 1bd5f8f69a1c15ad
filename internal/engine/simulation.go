// Simulation ties together the clock, particles, networks and collaborators
// and runs them each tick.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/spinworld/internal/agents"
	"github.com/talgya/spinworld/internal/config"
	"github.com/talgya/spinworld/internal/social"
	"github.com/talgya/spinworld/internal/world"
)

// Observer receives a report after every completed round.
type Observer func(RoundReport)

// RoundReport is the pull-based view of a completed round.
type RoundReport struct {
	SimulationID string            `json:"simulation_id"`
	Round        int               `json:"round"`
	Snapshots    []agents.Snapshot `json:"snapshots"`
	Networks     []NetworkReport   `json:"networks"`
	Sanctions    SanctionReport    `json:"sanctions"`
	Stats        SimStats          `json:"stats"`
}

// NetworkReport summarises one network after a round.
type NetworkReport struct {
	ID              agents.NetworkID `json:"id"`
	Kind            string           `json:"kind"`
	Members         int              `json:"members"`
	Longevity       int              `json:"longevity"`
	Pool            float64          `json:"pool"`
	Allocated       float64          `json:"allocated"`
	Appropriated    float64          `json:"appropriated"`
	MeanUtility     float64          `json:"mean_utility"`
	Banned          int              `json:"banned"`
	CompliantRounds int              `json:"compliant_rounds"`
}

// SimStats tracks aggregate population statistics.
type SimStats struct {
	Alive            int     `json:"alive"`
	Dead             int     `json:"dead"`
	InNetwork        int     `json:"in_network"`
	ActiveNetworks   int     `json:"active_networks"`
	MeanPCheat       float64 `json:"mean_p_cheat"`
	MeanUtility      float64 `json:"mean_utility"`
	MeanSatisfaction float64 `json:"mean_satisfaction"`
	Compliant        int     `json:"compliant"`
	Playing          int     `json:"playing"`
}

// poolState is one network's pool for the round in progress.
type poolState struct {
	provided     float64
	pool         float64
	allocated    float64
	appropriated float64
}

// Simulation holds the complete run state and wires systems together.
type Simulation struct {
	ID     string
	Config config.Config
	Rng    *rand.Rand
	Engine *Engine

	Particles     []*agents.Particle
	ParticleIndex map[agents.ParticleID]*agents.Particle

	Registry   *social.Registry
	Formation  *Formation
	Sanctioner Sanctioner
	Generator  Generator
	Mobility   *world.Mobility

	Stats SimStats

	observer  Observer
	pools     map[agents.NetworkID]*poolState
	sanctions SanctionReport
}

// NewSimulation validates cfg and builds a run: population, initial networks,
// mobility and the engine callbacks.
func NewSimulation(cfg config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	spawner, err := agents.NewSpawner(cfg.Spawn(), rng)
	if err != nil {
		return nil, err
	}

	var particles []*agents.Particle
	particles = append(particles, spawner.SpawnGroup("c", cfg.Population.CompliantAgents, cfg.Population.CompliantPCheat, 0)...)
	particles = append(particles, spawner.SpawnGroup("nc", cfg.Population.NonCompliantAgents, cfg.Population.NonCompliantPCheat, 0)...)

	reg := social.NewRegistry()
	factory := StrictOrLenient(cfg.Networks.StrictNets,
		cfg.NetworkParams(social.Strict), cfg.NetworkParams(social.Lenient))

	var initial []agents.NetworkID
	for _, name := range cfg.Networks.Initial {
		method, err := social.ParseAllocationMethod(name)
		if err != nil {
			return nil, fmt.Errorf("initial networks: %w", err)
		}
		params := factory(rng)
		params.Allocation = method
		initial = append(initial, reg.Create(params).ID)
	}

	index := make(map[agents.ParticleID]*agents.Particle, len(particles))
	for i, p := range particles {
		index[p.ID] = p
		if len(initial) > 0 {
			reg.Join(p, initial[i%len(initial)])
		}
	}

	mobility := world.NewMobility(world.NewMap(cfg.Mobility.Size), world.NewDrift(cfg.Seed),
		cfg.Mobility.DriftBias, cfg.Mobility.VConst)
	for _, p := range particles {
		mobility.Add(world.BodyID(p.ID), mobility.RandomCoord(rng), cfg.Mobility.Velocity)
	}

	sim := &Simulation{
		ID:            uuid.NewString(),
		Config:        cfg,
		Rng:           rng,
		Engine:        NewEngine(),
		Particles:     particles,
		ParticleIndex: index,
		Registry:      reg,
		Formation:     NewFormation(reg, rng, factory),
		Sanctioner:    Institution{},
		Generator:     UniformGenerator{Radius: cfg.Resources.Radius},
		Mobility:      mobility,
		pools:         make(map[agents.NetworkID]*poolState),
	}

	sim.Engine.EvaluateEvery = cfg.Policy.EvaluateEvery
	sim.Engine.OnEvaluate = sim.evaluateNetworks
	sim.Engine.OnDemand = sim.demand
	sim.Engine.OnAppropriate = sim.appropriate
	sim.Engine.OnTick = sim.move

	slog.Info("simulation created",
		"id", sim.ID,
		"seed", cfg.Seed,
		"particles", len(particles),
		"initial_networks", len(initial),
		"learner", cfg.Learner.Kind,
		"policy", cfg.Policy.Kind,
	)
	return sim, nil
}

// CurrentRound returns the live round.
func (s *Simulation) CurrentRound() Round {
	return s.Engine.Clock.Current()
}

// Step advances the clock by one phase.
func (s *Simulation) Step() Round {
	return s.Engine.Step()
}

// Run plays rounds complete rounds, reporting each to observer (may be nil).
// It stops early when ctx is done.
func (s *Simulation) Run(ctx context.Context, rounds int, observer Observer) error {
	s.observer = observer
	defer func() { s.observer = nil }()
	return s.Engine.Run(ctx, rounds)
}

// Snapshots returns every particle's current snapshot in ID order.
func (s *Simulation) Snapshots() []agents.Snapshot {
	out := make([]agents.Snapshot, len(s.Particles))
	for i, p := range s.Particles {
		out[i] = p.Snapshot()
	}
	return out
}

func (s *Simulation) evaluateNetworks(r Round) {
	ctx := agents.EvalContext{Dir: s.Registry, Rng: s.Rng, Round: r.Number}
	for _, p := range s.Particles {
		if p.Dead || p.Policy == nil {
			continue
		}
		p.Policy.Evaluate(p, ctx)
	}
}

// demand generates resources, collects provisions and demands, and rations
// each network's pool.
func (s *Simulation) demand(r Round) {
	s.Registry.SetRound(r.Number)
	clear(s.pools)
	claims := make(map[agents.NetworkID][]Claim)

	for _, p := range s.Particles {
		if p.Dead {
			p.BeginRound(0, 0)
			continue
		}
		p.BeginRound(s.Generator.Generate(p, s.Rng))

		provision, demand, ok := p.DemandAction(r.Number, s.Rng)
		if !ok {
			continue
		}
		ps := s.pool(p.Network)
		ps.provided += provision
		claims[p.Network] = append(claims[p.Network], Claim{Particle: p.ID, Demand: demand})
	}

	for _, id := range s.Registry.NetworkIDs() {
		cs := claims[id]
		if len(cs) == 0 {
			continue
		}
		n := s.Registry.Get(id)
		ps := s.pool(id)
		ps.pool = ps.provided * (1 - n.MonitoringLevel*n.NormalizedMonitoringCost())
		if ps.pool < 0 {
			ps.pool = 0
		}
		for _, g := range Allocate(s.Rng, cs, ps.pool) {
			s.ParticleIndex[g.Particle].Allocated = g.Allocated
			ps.allocated += g.Allocated
		}
	}
}

// appropriate takes from the pools, scores the round, sanctions and reports.
func (s *Simulation) appropriate(r Round) {
	for _, p := range s.Particles {
		if !p.Playing {
			continue
		}
		taken := p.AppropriateAction(s.Rng)
		if p.InNetwork() {
			s.pool(p.Network).appropriated += taken
		}
	}

	for _, p := range s.Particles {
		if p.Dead {
			continue
		}
		score, ok := p.Score()
		if ok && p.InNetwork() {
			s.Registry.Get(p.Network).Utility.Add(score.Utility)
		}
	}

	s.sanctions = SanctionReport{}
	for _, id := range s.Registry.NetworkIDs() {
		members := s.Registry.Members(id)
		if len(members) == 0 {
			continue
		}
		s.sanctions.Add(s.Sanctioner.Sanction(s.Registry.Get(id), members, s.Registry, s.Rng))
	}

	s.Registry.Age()
	s.updateStats()

	if r.Number%100 == 0 {
		slog.Info("round report",
			"round", r.Number,
			"alive", s.Stats.Alive,
			"dead", s.Stats.Dead,
			"in_network", s.Stats.InNetwork,
			"networks", s.Stats.ActiveNetworks,
			"mean_p_cheat", fmt.Sprintf("%.3f", s.Stats.MeanPCheat),
			"mean_utility", fmt.Sprintf("%.3f", s.Stats.MeanUtility),
			"caught", s.sanctions.Caught,
			"expulsions", s.sanctions.Expulsions,
		)
	}

	if s.observer != nil {
		s.observer(s.report(r))
	}
}

// move runs mobility and feeds the resulting collisions to network formation.
func (s *Simulation) move(r Round) {
	ids := make([]world.BodyID, 0, len(s.Particles))
	for _, p := range s.Particles {
		if p.Dead {
			s.Mobility.Map.Remove(world.BodyID(p.ID))
			continue
		}
		ids = append(ids, world.BodyID(p.ID))
	}

	links := func(id world.BodyID) int {
		p := s.ParticleIndex[agents.ParticleID(id)]
		if !p.InNetwork() {
			return 0
		}
		return s.Registry.MemberCount(p.Network) - 1
	}

	for _, pair := range s.Mobility.Step(s.Rng, r.Number, ids, links) {
		a := s.ParticleIndex[agents.ParticleID(pair.A)]
		b := s.ParticleIndex[agents.ParticleID(pair.B)]
		s.Formation.OnCollision(a, b)
		s.Formation.OnCollision(b, a)
	}
}

func (s *Simulation) pool(id agents.NetworkID) *poolState {
	ps, ok := s.pools[id]
	if !ok {
		ps = &poolState{}
		s.pools[id] = ps
	}
	return ps
}

func (s *Simulation) report(r Round) RoundReport {
	rep := RoundReport{
		SimulationID: s.ID,
		Round:        r.Number,
		Snapshots:    s.Snapshots(),
		Sanctions:    s.sanctions,
		Stats:        s.Stats,
	}
	for _, n := range s.Registry.Networks() {
		members := s.Registry.MemberCount(n.ID)
		ps := s.pools[n.ID]
		if members == 0 && ps == nil {
			continue
		}
		nr := NetworkReport{
			ID:              n.ID,
			Kind:            n.Kind.String(),
			Members:         members,
			Longevity:       n.Longevity,
			MeanUtility:     n.Utility.Mean(),
			Banned:          n.BannedCount(),
			CompliantRounds: n.CompliantRounds,
		}
		if ps != nil {
			nr.Pool = ps.pool
			nr.Allocated = ps.allocated
			nr.Appropriated = ps.appropriated
		}
		rep.Networks = append(rep.Networks, nr)
	}
	return rep
}

func (s *Simulation) updateStats() {
	var st SimStats
	var pCheat, utility, satisfaction float64

	for _, p := range s.Particles {
		if p.Dead {
			st.Dead++
			continue
		}
		st.Alive++
		if p.InNetwork() {
			st.InNetwork++
		}
		if p.Playing {
			st.Playing++
			if p.CompliantRound {
				st.Compliant++
			}
		}
		pCheat += p.PCheat
		utility += p.LastUtility
		satisfaction += p.Satisfaction
	}
	for _, id := range s.Registry.NetworkIDs() {
		if s.Registry.MemberCount(id) > 0 {
			st.ActiveNetworks++
		}
	}
	if st.Alive > 0 {
		st.MeanPCheat = pCheat / float64(st.Alive)
		st.MeanUtility = utility / float64(st.Alive)
		st.MeanSatisfaction = satisfaction / float64(st.Alive)
	}
	s.Stats = st
}
