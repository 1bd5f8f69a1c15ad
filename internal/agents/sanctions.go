package agents

// GraduationLevel is the sanction a network imposed on an observed offence.
type GraduationLevel uint8

const (
	NoSanction GraduationLevel = iota
	Warning
	Expulsion
)

func (g GraduationLevel) String() string {
	switch g {
	case Warning:
		return "WARNING"
	case Expulsion:
		return "EXPULSION"
	default:
		return "NO_SANCTION"
	}
}

// SanctionHistory is an append-only record, per network, of the sanctions a
// particle received and whether it was caught cheating.
type SanctionHistory struct {
	// WarningWeight scales how much a warning counts toward the risk rate.
	// 1.0 counts warnings like expulsions, 0.5 is the weighted variant.
	WarningWeight float64

	sanctions map[NetworkID][]GraduationLevel
	catches   map[NetworkID][]bool
}

// NewSanctionHistory creates an empty history.
func NewSanctionHistory(warningWeight float64) *SanctionHistory {
	return &SanctionHistory{
		WarningWeight: warningWeight,
		sanctions:     make(map[NetworkID][]GraduationLevel),
		catches:       make(map[NetworkID][]bool),
	}
}

// RecordSanction appends a sanction outcome for a network.
func (h *SanctionHistory) RecordSanction(net NetworkID, level GraduationLevel) {
	h.sanctions[net] = append(h.sanctions[net], level)
}

// RecordCatch appends whether the particle was caught cheating in a network.
func (h *SanctionHistory) RecordCatch(net NetworkID, caught bool) {
	h.catches[net] = append(h.catches[net], caught)
}

// Sanctions returns the sanction outcomes recorded for a network.
func (h *SanctionHistory) Sanctions(net NetworkID) []GraduationLevel {
	return h.sanctions[net]
}

// RiskRate is the fraction of recorded outcomes in a network that were
// sanctions. Returns 0 when nothing has been recorded.
func (h *SanctionHistory) RiskRate(net NetworkID) float64 {
	history := h.sanctions[net]
	if len(history) == 0 {
		return 0
	}
	weighted := 0.0
	for _, level := range history {
		switch level {
		case Warning:
			weighted += h.WarningWeight
		case Expulsion:
			weighted++
		}
	}
	return weighted / float64(len(history))
}

// CatchRate is the fraction of observations in a network where the particle
// was caught cheating. Returns 0 when nothing has been recorded.
func (h *SanctionHistory) CatchRate(net NetworkID) float64 {
	history := h.catches[net]
	if len(history) == 0 {
		return 0
	}
	caught := 0
	for _, c := range history {
		if c {
			caught++
		}
	}
	return float64(caught) / float64(len(history))
}
