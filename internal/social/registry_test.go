package social

import (
	"errors"
	"testing"

	"github.com/talgya/spinworld/internal/agents"
)

func particle(id agents.ParticleID) *agents.Particle {
	return agents.NewParticle(id, "p", agents.DefaultPlanLength)
}

func TestJoinLeave(t *testing.T) {
	r := NewRegistry()
	a := r.Create(Params{})
	b := r.Create(Params{Kind: Strict})
	if a.ID != 0 || b.ID != 1 {
		t.Fatalf("ids = %d, %d; want sequential from 0", a.ID, b.ID)
	}

	p := particle(1)
	r.SetRound(7)
	if !r.Join(p, a.ID) || p.Network != a.ID || p.JoinedRound != 7 {
		t.Fatal("join failed")
	}
	// Joining elsewhere moves the particle.
	if !r.Join(p, b.ID) {
		t.Fatal("second join failed")
	}
	if r.MemberCount(a.ID) != 0 || r.MemberCount(b.ID) != 1 {
		t.Fatalf("member counts %d, %d", r.MemberCount(a.ID), r.MemberCount(b.ID))
	}

	r.Leave(p)
	if p.InNetwork() || r.MemberCount(b.ID) != 0 {
		t.Fatal("leave did not clear membership")
	}
	r.Leave(p)

	if r.Join(p, 5) {
		t.Fatal("joined an unknown network")
	}
}

func TestBanRefusesRejoin(t *testing.T) {
	r := NewRegistry()
	n := r.Create(Params{})
	p := particle(1)
	r.Join(p, n.ID)
	r.Ban(p, n.ID)
	if p.InNetwork() {
		t.Fatal("banned particle still a member")
	}
	if r.Join(p, n.ID) {
		t.Fatal("banned particle was let back in")
	}
	if !n.IsBanned(p.ID) || n.BannedCount() != 1 {
		t.Fatal("ban not recorded")
	}
}

func TestDeadCannotJoin(t *testing.T) {
	r := NewRegistry()
	n := r.Create(Params{})
	p := particle(1)
	p.Dead = true
	if r.Join(p, n.ID) {
		t.Fatal("dead particle joined a network")
	}
}

func TestMembersSortedAndAge(t *testing.T) {
	r := NewRegistry()
	n := r.Create(Params{})
	empty := r.Create(Params{})
	for _, id := range []agents.ParticleID{5, 2, 9} {
		r.Join(particle(id), n.ID)
	}
	members := r.Members(n.ID)
	if len(members) != 3 || members[0].ID != 2 || members[2].ID != 9 {
		t.Fatalf("members not ordered by id: %v", members)
	}
	r.Age()
	r.Age()
	if n.Longevity != 2 || empty.Longevity != 0 {
		t.Fatalf("longevity = %d, %d; want 2, 0", n.Longevity, empty.Longevity)
	}
}

func TestWarnings(t *testing.T) {
	n := newNetwork(0, Params{MonitoringCost: 0.3})
	if n.Warn(1) != 1 || n.Warn(1) != 2 {
		t.Fatal("warn count not incremented")
	}
	n.RemoveWarning(1)
	n.RemoveWarning(1)
	n.RemoveWarning(1)
	if n.Warnings(1) != 0 {
		t.Fatalf("warnings = %d, want 0", n.Warnings(1))
	}
	if n.NormalizedMonitoringCost() != 0.15 {
		t.Fatalf("normalized cost = %v", n.NormalizedMonitoringCost())
	}
}

func TestParseAllocationMethod(t *testing.T) {
	if m, err := ParseAllocationMethod("random"); err != nil || m != AllocateRandom {
		t.Fatalf("ParseAllocationMethod(random) = %v, %v", m, err)
	}
	if _, err := ParseAllocationMethod("fair"); !errors.Is(err, ErrUnknownAllocation) {
		t.Fatalf("err = %v, want ErrUnknownAllocation", err)
	}
}
