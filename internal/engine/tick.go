// Package engine provides the round-based simulation loop: the clock, the
// allocator, network formation and the simulation that wires them together.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultEvaluateEvery is how often, in rounds, particles evaluate their networks.
const DefaultEvaluateEvery = 20

// Engine drives the clock and dispatches each phase to its callbacks.
type Engine struct {
	Clock         *Clock
	Interval      time.Duration // Pause between ticks; 0 runs flat out
	EvaluateEvery int           // Rounds between network evaluations

	// Callbacks for each tick layer, populated during setup.
	OnEvaluate    func(r Round) // DEMAND of every EvaluateEvery-th round, before OnDemand
	OnDemand      func(r Round)
	OnAppropriate func(r Round)
	OnTick        func(r Round) // Every tick, after the phase callback
}

// NewEngine creates an engine with the default evaluation interval.
func NewEngine() *Engine {
	return &Engine{
		Clock:         NewClock(),
		EvaluateEvery: DefaultEvaluateEvery,
	}
}

// Run ticks until rounds complete rounds have been played or ctx is done.
func (e *Engine) Run(ctx context.Context, rounds int) error {
	if rounds <= 0 {
		return nil
	}
	slog.Info("simulation engine started", "round", e.Clock.Number(), "rounds", rounds)

	target := e.Clock.Number() + rounds
	for {
		r := e.Clock.Current()
		if r.Number >= target && r.Phase == PhaseAppropriate {
			break
		}
		if err := ctx.Err(); err != nil {
			slog.Info("simulation engine stopped", "round", r.Number, "reason", err)
			return err
		}

		start := time.Now()
		e.Step()

		if e.Interval > 0 {
			if elapsed := time.Since(start); elapsed < e.Interval {
				select {
				case <-ctx.Done():
				case <-time.After(e.Interval - elapsed):
				}
			}
		}
	}

	slog.Info("simulation engine stopped", "round", e.Clock.Number())
	return nil
}

// Step advances the clock by one phase and runs its callbacks.
func (e *Engine) Step() Round {
	r := e.Clock.Advance()

	switch r.Phase {
	case PhaseDemand:
		if e.EvaluateEvery > 0 && r.Number%e.EvaluateEvery == 0 && e.OnEvaluate != nil {
			e.OnEvaluate(r)
		}
		if e.OnDemand != nil {
			e.OnDemand(r)
		}
	case PhaseAppropriate:
		if e.OnAppropriate != nil {
			e.OnAppropriate(r)
		}
	}

	if e.OnTick != nil {
		e.OnTick(r)
	}
	return r
}
