package engine

import "fmt"

// Phase is the stage of a round.
type Phase uint8

const (
	PhaseInit        Phase = iota // Before the first round
	PhaseDemand                   // Provision and demand, then allocation
	PhaseAppropriate              // Appropriation, scoring and sanctions
)

func (p Phase) String() string {
	switch p {
	case PhaseDemand:
		return "DEMAND"
	case PhaseAppropriate:
		return "APPROPRIATE"
	}
	return "INIT"
}

// Round identifies one tick of the clock.
type Round struct {
	Number int   `json:"number"`
	Phase  Phase `json:"phase"`
}

func (r Round) String() string {
	return fmt.Sprintf("round %d %s", r.Number, r.Phase)
}

// Clock alternates DEMAND and APPROPRIATE, numbering rounds from 1.
type Clock struct {
	current Round
}

// NewClock returns a clock in the INIT phase of round 0.
func NewClock() *Clock {
	return &Clock{}
}

// Advance moves to the next phase and returns it. Entering DEMAND starts a
// new round.
func (c *Clock) Advance() Round {
	if c.current.Phase == PhaseDemand {
		c.current.Phase = PhaseAppropriate
	} else {
		c.current.Phase = PhaseDemand
		c.current.Number++
	}
	return c.current
}

// Current returns the live round.
func (c *Clock) Current() Round { return c.current }

// Phase returns the current phase.
func (c *Clock) Phase() Phase { return c.current.Phase }

// Number returns the current round number.
func (c *Clock) Number() int { return c.current.Number }
