package routing

import (
	"math/rand/v2"
	"time"

	"github.com/aurorasat/dtnsim/pkg/bundle"
)

// sprayPhase distinguishes a bundle's spray phase (actively halving copies
// to new holders) from its wait phase (direct delivery only).
type sprayPhase int

const (
	phaseSpray sprayPhase = iota
	phaseWait
)

// DefaultSprayCopies is the default initial copy count L, per §3.
const DefaultSprayCopies = 6

type sprayState struct {
	copies int
	phase  sprayPhase
	seenBy map[string]bool
}

// SprayAndWait implements the binary Spray-and-Wait variant from §4.4.3: a
// fixed initial copy count L halved at each spray handoff, transitioning to
// direct-delivery-only once a holder is down to a single copy.
type SprayAndWait struct {
	initialCopies int
	rng           *rand.Rand
	state         map[string]*sprayState
}

// NewSprayAndWait builds a Spray-and-Wait strategy with the given initial
// copy count L (DefaultSprayCopies if l <= 0). rng drives tie-break jitter
// and must be a per-simulation deterministic source.
func NewSprayAndWait(l int, rng *rand.Rand) *SprayAndWait {
	if l <= 0 {
		l = DefaultSprayCopies
	}
	return &SprayAndWait{
		initialCopies: l,
		rng:           rng,
		state:         make(map[string]*sprayState),
	}
}

// scratchCopiesKey is the Bundle.Scratch key a forwarding holder stashes its
// handed-over copy count under, so the receiving holder's independent
// SprayAndWait instance seeds sprayState.copies from the actual handoff
// instead of defaulting to the full initial count.
const scratchCopiesKey = "spray_copies"

func (sw *SprayAndWait) stateFor(b *bundle.Bundle) *sprayState {
	id := b.ID.String()
	s, ok := sw.state[id]
	if !ok {
		copies := sw.initialCopies
		if handed, ok := b.Scratch[scratchCopiesKey].(int); ok {
			copies = handed
		}
		s = &sprayState{
			copies: copies,
			phase:  phaseSpray,
			seenBy: map[string]bool{b.Source: true},
		}
		if copies <= 1 {
			s.phase = phaseWait
		}
		sw.state[id] = s
	}
	return s
}

// Decide implements Strategy.
func (sw *SprayAndWait) Decide(holderID string, b *bundle.Bundle, contacts []ActiveContact, now time.Time) Decision {
	if b.IsExpired(now) {
		return Decision{Kind: Drop, Reason: "ttl_expired"}
	}

	s := sw.stateFor(b)

	for i := range contacts {
		if contacts[i].PeerID == b.Destination {
			return Decision{Kind: Deliver, NextHop: contacts[i].PeerID, Contact: contacts[i]}
		}
	}

	if s.phase == phaseWait {
		return Decision{Kind: Store}
	}

	if s.copies <= 1 {
		s.phase = phaseWait
		return Decision{Kind: Store}
	}

	var best *ActiveContact
	bestScore := -1.0
	for i := range contacts {
		c := contacts[i]
		if s.seenBy[c.PeerID] {
			continue
		}
		score := scoreContact(c, false, now, sw.rng.Float64()*0.1)
		if score > bestScore {
			bestScore = score
			cc := c
			best = &cc
		}
	}
	if best == nil {
		return Decision{Kind: Store}
	}
	return Decision{Kind: Forward, NextHop: best.PeerID, Contact: *best}
}

// OnForwarded implements Strategy: halves the holder's remaining copies,
// hands the other half to the peer, and flips to the wait phase once a
// holder is down to a single copy. The handed-over count is stashed in
// replica.Scratch so the peer's own SprayAndWait instance seeds its copy
// count from the actual handoff instead of the full initial count.
func (sw *SprayAndWait) OnForwarded(bundleID string, peerID string, replica *bundle.Bundle) {
	s, ok := sw.state[bundleID]
	if !ok {
		return
	}
	handed := s.copies / 2
	s.copies -= handed
	s.seenBy[peerID] = true
	if s.copies <= 1 {
		s.phase = phaseWait
	}
	if replica != nil {
		replica.Scratch[scratchCopiesKey] = handed
	}
}

// Tick implements Strategy. Spray-and-Wait has no background time-driven
// process.
func (sw *SprayAndWait) Tick(now time.Time) {}

// Copies returns the current remaining copy count for a bundle at this
// holder, for metrics and testing.
func (sw *SprayAndWait) Copies(bundleID string) int {
	s, ok := sw.state[bundleID]
	if !ok {
		return 0
	}
	return s.copies
}

// Phase reports whether the bundle is still in the spray phase at this
// holder.
func (sw *SprayAndWait) Phase(bundleID string) (spray bool, known bool) {
	s, ok := sw.state[bundleID]
	if !ok {
		return false, false
	}
	return s.phase == phaseSpray, true
}
