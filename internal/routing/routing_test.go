package routing_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/aurorasat/dtnsim/internal/routing"
	"github.com/aurorasat/dtnsim/pkg/bundle"
)

func mustBundle(t *testing.T, source, dest string, created time.Time, ttl time.Duration) *bundle.Bundle {
	t.Helper()
	b, err := bundle.New(source, dest, []byte("payload"), created, ttl, bundle.PriorityNormal, 1)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}
	return b
}

func TestEpidemicNeverReplicatesToExistingHolder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := routing.NewEpidemic(rand.New(rand.NewPCG(1, 1)))
	b := mustBundle(t, "sat1", "gs-dest", now, time.Hour)

	contacts := []routing.ActiveContact{{PeerID: "sat2", RateMbps: 100, OpenSince: now}}
	decision := e.Decide("sat1", b, contacts, now)
	if decision.Kind != routing.Forward || decision.NextHop != "sat2" {
		t.Fatalf("expected forward to sat2, got %+v", decision)
	}
	e.OnForwarded(b.ID.String(), "sat2", b.Clone())

	// sat2 already holds a replica; it must not be offered again.
	decision = e.Decide("sat1", b, contacts, now)
	if decision.Kind == routing.Forward && decision.NextHop == "sat2" {
		t.Fatal("expected epidemic to skip a peer that already holds the bundle")
	}
}

func TestEpidemicReplicationCapEnforced(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := routing.NewEpidemic(rand.New(rand.NewPCG(2, 2)))
	b := mustBundle(t, "sat1", "gs-dest", now, time.Hour)

	for i := 0; i < 60; i++ {
		// distinct peer per iteration so the cap, not seenBy, is the limiter
		peer := stringFromInt(i)
		contacts := []routing.ActiveContact{{PeerID: peer, RateMbps: 50, OpenSince: now}}
		decision := e.Decide("sat1", b, contacts, now)
		if decision.Kind == routing.Forward {
			e.OnForwarded(b.ID.String(), decision.NextHop, b.Clone())
		}
	}

	if e.ReplicaCount(b.ID.String()) > 50 {
		t.Errorf("replication count %d exceeds cap of 50", e.ReplicaCount(b.ID.String()))
	}
}

func stringFromInt(i int) string {
	digits := "0123456789"
	if i < 10 {
		return string(digits[i])
	}
	return string(digits[i/10]) + string(digits[i%10])
}

func TestEpidemicDeliversWhenDestinationIsActiveContact(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := routing.NewEpidemic(rand.New(rand.NewPCG(3, 3)))
	b := mustBundle(t, "sat1", "gs-dest", now, time.Hour)

	contacts := []routing.ActiveContact{{PeerID: "gs-dest", RateMbps: 10, OpenSince: now, IsGroundStation: true}}
	decision := e.Decide("sat1", b, contacts, now)
	if decision.Kind != routing.Deliver {
		t.Fatalf("expected deliver when destination is an active contact, got %+v", decision)
	}
}

func TestEpidemicDropsExpiredBundle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := routing.NewEpidemic(rand.New(rand.NewPCG(4, 4)))
	b := mustBundle(t, "sat1", "gs-dest", now.Add(-2*time.Hour), time.Hour)

	decision := e.Decide("sat1", b, nil, now)
	if decision.Kind != routing.Drop || decision.Reason != "ttl_expired" {
		t.Fatalf("expected ttl_expired drop, got %+v", decision)
	}
}

func TestProphetPredictabilityStaysInUnitInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := routing.NewPRoPHET()

	for i := 0; i < 20; i++ {
		p.Encounter("peerA", map[string]float64{"gs-dest": 0.9}, now.Add(time.Duration(i)*time.Minute))
		if p.P("peerA") < 0 || p.P("peerA") > 1 {
			t.Fatalf("P(peerA) = %f out of [0,1] after %d encounters", p.P("peerA"), i)
		}
		if p.P("gs-dest") < 0 || p.P("gs-dest") > 1 {
			t.Fatalf("P(gs-dest) = %f out of [0,1] after %d encounters", p.P("gs-dest"), i)
		}
	}
}

func TestProphetAgingIsNonIncreasingBetweenEncounters(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := routing.NewPRoPHET()
	p.Encounter("peerA", nil, now)

	initial := p.P("peerA")
	last := initial
	for i := 1; i <= 10; i++ {
		p.Tick(now.Add(time.Duration(i) * time.Minute))
		current := p.P("peerA")
		if current > last {
			t.Fatalf("predictability increased during aging: %f -> %f", last, current)
		}
		last = current
	}
	if last >= initial {
		t.Error("expected predictability to have decayed after repeated aging")
	}
}

func TestProphetNeverEncounteredStaysZero(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := routing.NewPRoPHET()
	for i := 0; i < 100; i++ {
		p.Tick(now.Add(time.Duration(i) * time.Minute))
	}
	if p.P("never-seen") != 0 {
		t.Errorf("expected P(never-seen) = 0, got %f", p.P("never-seen"))
	}
}

func TestSprayAndWaitConservesCopies(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	const l = 6

	sw := routing.NewSprayAndWait(l, rand.New(rand.NewPCG(5, 5)))
	total := l
	peer := "sat2"
	contacts := []routing.ActiveContact{{PeerID: peer, RateMbps: 10, OpenSince: now}}

	b := mustBundle(t, "sat1", "gs-dest", now, time.Hour)
	decision := sw.Decide("sat1", b, contacts, now)
	if decision.Kind != routing.Forward {
		t.Fatalf("expected forward, got %+v", decision)
	}
	replica := b.Clone()
	sw.OnForwarded(bundleIDFor(b), peer, replica)

	senderCopies := sw.Copies(bundleIDFor(b))
	handed, _ := replica.Scratch["spray_copies"].(int)
	if senderCopies+handed != total {
		t.Errorf("copies not conserved: sender %d + handed %d != total %d", senderCopies, handed, total)
	}
	if senderCopies > total {
		t.Errorf("sender copies %d exceed initial L=%d", senderCopies, total)
	}
}

func bundleIDFor(b *bundle.Bundle) string {
	return b.ID.String()
}

func TestSprayAndWaitTransitionsToWaitAtOneCopy(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sw := routing.NewSprayAndWait(2, rand.New(rand.NewPCG(6, 6)))
	b := mustBundle(t, "sat1", "gs-dest", now, time.Hour)

	contacts := []routing.ActiveContact{{PeerID: "sat2", RateMbps: 10, OpenSince: now}}
	decision := sw.Decide("sat1", b, contacts, now)
	if decision.Kind != routing.Forward {
		t.Fatalf("expected forward, got %+v", decision)
	}
	sw.OnForwarded(bundleIDFor(b), "sat2", b.Clone())

	spraying, known := sw.Phase(bundleIDFor(b))
	if !known {
		t.Fatal("expected phase to be known after forwarding")
	}
	if spraying {
		t.Error("expected phase to transition to wait once copies <= 1")
	}

	// In wait phase, forwarding to a non-destination peer must not occur.
	decision = sw.Decide("sat1", b, contacts, now)
	if decision.Kind == routing.Forward {
		t.Error("expected no forward in wait phase to a non-destination peer")
	}
}

func TestSprayAndWaitDeliversToDestination(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sw := routing.NewSprayAndWait(6, rand.New(rand.NewPCG(7, 7)))
	b := mustBundle(t, "sat1", "gs-dest", now, time.Hour)

	contacts := []routing.ActiveContact{{PeerID: "gs-dest", RateMbps: 10, OpenSince: now, IsGroundStation: true}}
	decision := sw.Decide("sat1", b, contacts, now)
	if decision.Kind != routing.Deliver {
		t.Fatalf("expected deliver, got %+v", decision)
	}
}

// TestSprayAndWaitCrossInstanceConservesCopies drives two independent
// SprayAndWait instances, one per holder, the way internal/engine actually
// does (one strategy instance per satellite). It catches the case
// TestSprayAndWaitConservesCopies can't: a receiving holder seeding its copy
// count from the replica's handoff rather than the full initial L.
func TestSprayAndWaitCrossInstanceConservesCopies(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	const l = 4

	holderA := routing.NewSprayAndWait(l, rand.New(rand.NewPCG(8, 8)))
	holderB := routing.NewSprayAndWait(l, rand.New(rand.NewPCG(9, 9)))

	b := mustBundle(t, "sat1", "gs-dest", now, time.Hour)
	contacts := []routing.ActiveContact{{PeerID: "sat2", RateMbps: 10, OpenSince: now}}

	decision := holderA.Decide("sat1", b, contacts, now)
	if decision.Kind != routing.Forward {
		t.Fatalf("expected forward, got %+v", decision)
	}
	replica := b.Clone()
	replica.RecordHop("sat2")
	holderA.OnForwarded(bundleIDFor(b), "sat2", replica)

	// holderB only learns about the bundle through replica, exactly as the
	// engine's per-satellite strategy instances do.
	holderB.Decide("sat2", replica, nil, now)

	total := holderA.Copies(bundleIDFor(b)) + holderB.Copies(bundleIDFor(replica))
	if total != l {
		t.Errorf("copies not conserved across instances: holderA %d + holderB %d = %d, want %d",
			holderA.Copies(bundleIDFor(b)), holderB.Copies(bundleIDFor(replica)), total, l)
	}
}
