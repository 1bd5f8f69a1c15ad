// Network evaluation: when a particle should leave its network, and which of
// two networks it prefers when it meets a member of another one.
package agents

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
)

// Policy constants.
const (
	DefaultLeaveThreshold  = 100 // Consecutive dissatisfied evaluations before leaving
	DefaultSatisfactionTau = 0.1 // Satisfaction below which a network is unacceptable
	DefaultAcclimatization = 50  // Rounds after joining with no churn
	DeathSampleThreshold   = 50  // Utility samples needed before a particle can die
	DefaultBaseLifespan    = 200 // Rounds
	newNetworkSatisfaction = 0.5
)

// ErrUnknownPolicy is returned when a policy name cannot be parsed.
var ErrUnknownPolicy = errors.New("unknown network policy")

// Directory is the view of the network registry a policy acts through.
type Directory interface {
	NetworkIDs() []NetworkID
	// Join moves p into id, leaving its current network. When id refuses p,
	// Join returns false and p stays where it was.
	Join(p *Particle, id NetworkID) bool
	Leave(p *Particle)
}

// EvalContext carries what a periodic evaluation needs beyond the particle.
type EvalContext struct {
	Dir   Directory
	Rng   *rand.Rand
	Round int
}

// NetworkPolicy decides network churn for one particle.
type NetworkPolicy interface {
	// Evaluate may leave or switch networks and may mark the particle dead.
	Evaluate(p *Particle, ctx EvalContext)
	// Preferred picks between the particle's network and other.
	// ok is false when the policy has no basis for a preference.
	Preferred(p *Particle, other NetworkID) (id NetworkID, ok bool)
	// Refresh learns newly created networks and forgets vanished ones.
	Refresh(p *Particle, dir Directory)
}

// PolicyKind selects a NetworkPolicy implementation.
type PolicyKind uint8

const (
	PolicyThreshold PolicyKind = iota
	PolicyUtility
	PolicyAge
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyUtility:
		return "UTILITY"
	case PolicyAge:
		return "AGE"
	}
	return "THRESHOLD"
}

// ParsePolicyKind maps a case-insensitive name to a policy kind.
func ParsePolicyKind(name string) (PolicyKind, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "THRESHOLD", "":
		return PolicyThreshold, nil
	case "UTILITY":
		return PolicyUtility, nil
	case "AGE":
		return PolicyAge, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownPolicy, name)
}

func availableSet(dir Directory) map[NetworkID]bool {
	ids := dir.NetworkIDs()
	set := make(map[NetworkID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortedIDs[V any](m map[NetworkID]V) []NetworkID {
	ids := make([]NetworkID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ── Threshold ─────────────────────────────────────────────────────────

// ThresholdPolicy leaves a network after LeaveThreshold consecutive
// evaluations in which it was either unacceptable or beaten by another
// known network. Networks left while unacceptable are never preferred again.
type ThresholdPolicy struct {
	LeaveThreshold int
	Tau            float64

	dissatisfied int
	satisfaction map[NetworkID]float64
	blacklist    map[NetworkID]bool
}

// NewThresholdPolicy creates a threshold policy with the default tau.
func NewThresholdPolicy(leaveThreshold int) *ThresholdPolicy {
	return &ThresholdPolicy{
		LeaveThreshold: leaveThreshold,
		Tau:            DefaultSatisfactionTau,
		satisfaction:   make(map[NetworkID]float64),
		blacklist:      make(map[NetworkID]bool),
	}
}

// Satisfaction returns the recorded satisfaction for a network.
func (t *ThresholdPolicy) Satisfaction(id NetworkID) (float64, bool) {
	s, ok := t.satisfaction[id]
	return s, ok
}

// Blacklisted reports whether a network was left for good.
func (t *ThresholdPolicy) Blacklisted(id NetworkID) bool {
	return t.blacklist[id]
}

// Dissatisfied returns the consecutive dissatisfied evaluation count.
func (t *ThresholdPolicy) Dissatisfied() int {
	return t.dissatisfied
}

func (t *ThresholdPolicy) Refresh(p *Particle, dir Directory) {
	available := availableSet(dir)
	for id := range available {
		if t.blacklist[id] {
			delete(t.satisfaction, id)
			continue
		}
		if _, ok := t.satisfaction[id]; !ok {
			t.satisfaction[id] = newNetworkSatisfaction
		}
	}
	for id := range t.satisfaction {
		if !available[id] {
			delete(t.satisfaction, id)
		}
	}
	for id := range t.blacklist {
		if !available[id] {
			delete(t.blacklist, id)
		}
	}
}

func (t *ThresholdPolicy) Evaluate(p *Particle, ctx EvalContext) {
	t.Refresh(p, ctx.Dir)
	if !p.InNetwork() {
		return
	}
	t.satisfaction[p.Network] = p.Satisfaction

	optimal, best := p.Network, p.Satisfaction
	for _, id := range sortedIDs(t.satisfaction) {
		if s := t.satisfaction[id]; s > best {
			optimal, best = id, s
		}
	}

	if best < t.Tau || optimal != p.Network {
		t.dissatisfied++
	} else {
		t.dissatisfied = 0
	}

	if t.dissatisfied < t.LeaveThreshold {
		return
	}
	left := p.Network
	if t.satisfaction[left] < t.Tau {
		t.blacklist[left] = true
		delete(t.satisfaction, left)
	}
	ctx.Dir.Leave(p)
	t.dissatisfied = 0
	slog.Debug("left network", "particle", p.Name, "network", left, "policy", "threshold",
		"blacklisted", t.blacklist[left])
}

func (t *ThresholdPolicy) Preferred(p *Particle, other NetworkID) (NetworkID, bool) {
	if t.blacklist[other] {
		return p.Network, true
	}
	if t.blacklist[p.Network] {
		return other, true
	}
	s, ok := t.satisfaction[other]
	if !ok {
		return NoNetwork, false
	}
	if s <= p.Satisfaction {
		return p.Network, true
	}
	return other, true
}

// ── Utility tolerance ─────────────────────────────────────────────────

// UtilityPolicy compares each network's rolling mean utility against three
// thresholds derived from the best and worst case utility at the observed
// scarcity: below T3 overall the particle dies, below T2 it leaves, below T1
// it looks for something better.
type UtilityPolicy struct {
	Tolerance1      float64
	Tolerance2      float64
	Acclimatization int // Rounds after joining with no churn

	T1, T2, T3 float64
}

// NewUtilityPolicy creates a utility policy with the default acclimatization.
func NewUtilityPolicy(tolerance1, tolerance2 float64) *UtilityPolicy {
	return &UtilityPolicy{
		Tolerance1:      tolerance1,
		Tolerance2:      tolerance2,
		Acclimatization: DefaultAcclimatization,
	}
}

// TargetRates recomputes T1..T3 from the particle's observed scarcity.
func (u *UtilityPolicy) TargetRates(p *Particle) {
	scarcity := p.Scarcity.Mean()
	best := p.Utility.EstimateFullComply(scarcity)
	worst := p.Utility.EstimateFullDefect(scarcity)

	u.T3 = worst
	u.T2 = best - u.Tolerance2*(best-worst)
	u.T1 = best - u.Tolerance1*(best-worst)
}

func (u *UtilityPolicy) acclimatizing(p *Particle, round int) bool {
	return p.InNetwork() && round-p.JoinedRound < u.Acclimatization
}

func (u *UtilityPolicy) Refresh(p *Particle, dir Directory) {
	available := availableSet(dir)
	for id := range available {
		p.networkWindow(id)
	}
	for id := range p.NetworkUtilities {
		if !available[id] {
			delete(p.NetworkUtilities, id)
		}
	}
}

func (u *UtilityPolicy) Evaluate(p *Particle, ctx EvalContext) {
	u.TargetRates(p)

	if p.OverallUtility.N() > DeathSampleThreshold && p.OverallUtility.Mean() < u.T3 {
		die(p, ctx.Dir, "utility collapse")
		return
	}
	if u.acclimatizing(p, ctx.Round) {
		return
	}

	u.Refresh(p, ctx.Dir)

	current := u.T3
	if p.InNetwork() {
		w, ok := p.NetworkUtilities[p.Network]
		if !ok || w.Len() == 0 {
			// Nothing observed in this network yet.
			return
		}
		current = w.Mean()
	}

	if len(p.NetworkUtilities) <= 1 {
		if p.InNetwork() && current < u.T2 {
			ctx.Dir.Leave(p)
		}
		return
	}

	switch {
	case current < u.T2:
		ctx.Dir.Leave(p)
	case current < u.T1:
		// Look for a network above T1, or one barely sampled.
		t1 := u.T1
		u.switchTo(p, ctx, func(id NetworkID) bool {
			w := p.NetworkUtilities[id]
			return w.Len() < 2 || w.Mean() > t1
		})
	default:
		u.switchTo(p, ctx, func(id NetworkID) bool {
			w := p.NetworkUtilities[id]
			return w.Len() > 0 && w.Mean() > current
		})
	}
}

// switchTo picks a random candidate network accepted by keep and moves there.
func (u *UtilityPolicy) switchTo(p *Particle, ctx EvalContext, keep func(NetworkID) bool) {
	var candidates []NetworkID
	for _, id := range sortedIDs(p.NetworkUtilities) {
		if id != p.Network && keep(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return
	}
	chosen := candidates[ctx.Rng.Intn(len(candidates))]
	from := p.Network
	joined := ctx.Dir.Join(p, chosen)
	slog.Debug("switched network", "particle", p.Name, "from", from, "to", chosen, "joined", joined)
}

func (u *UtilityPolicy) Preferred(p *Particle, other NetworkID) (NetworkID, bool) {
	mine, ok := p.NetworkUtilities[p.Network]
	if !ok || mine.Len() == 0 {
		return NoNetwork, false
	}
	theirs, ok := p.NetworkUtilities[other]
	if !ok || theirs.Len() == 0 {
		return NoNetwork, false
	}
	if theirs.Mean() <= mine.Mean() {
		return p.Network, true
	}
	return other, true
}

// ── Age bounded ───────────────────────────────────────────────────────

// AgePolicy adds a lifespan to UtilityPolicy: particles whose long-run utility
// sits above T2 live longer, those below it die sooner.
type AgePolicy struct {
	*UtilityPolicy
	BaseLifespan int
}

// NewAgePolicy creates an age-bounded policy.
func NewAgePolicy(tolerance1, tolerance2 float64) *AgePolicy {
	return &AgePolicy{
		UtilityPolicy: NewUtilityPolicy(tolerance1, tolerance2),
		BaseLifespan:  DefaultBaseLifespan,
	}
}

// ExpectedLifespan returns the lifespan in rounds given the current T2.
func (a *AgePolicy) ExpectedLifespan(p *Particle) int {
	base := float64(a.BaseLifespan)
	return int(base + (p.OverallUtility.Mean()-a.T2)*base)
}

func (a *AgePolicy) Evaluate(p *Particle, ctx EvalContext) {
	if len(p.NetworkUtilities) > 1 {
		a.UtilityPolicy.Evaluate(p, ctx)
	} else {
		a.TargetRates(p)
	}
	if p.Dead || a.acclimatizing(p, ctx.Round) {
		return
	}

	age := ctx.Round - p.BornRound
	if age > a.ExpectedLifespan(p) {
		die(p, ctx.Dir, "old age")
	}
}

func die(p *Particle, dir Directory, cause string) {
	if p.InNetwork() {
		dir.Leave(p)
	}
	p.Dead = true
	slog.Info("particle died", "particle", p.Name, "cause", cause,
		"mean_utility", fmt.Sprintf("%.3f", p.OverallUtility.Mean()))
}
