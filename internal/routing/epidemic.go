package routing

import (
	"math/rand/v2"
	"time"

	"github.com/aurorasat/dtnsim/pkg/bundle"
)

// epidemicReplicationCap is the global ceiling on replicas per bundle across
// the whole constellation, per §3/§4.4.1.
const epidemicReplicationCap = 50

const epidemicAntiEntropyInterval = 5 * time.Minute
const epidemicSummaryTTL = 24 * time.Hour

// epidemicState is the per-bundle bookkeeping Epidemic needs: who has
// already received a replica, and how many total replicas exist.
type epidemicState struct {
	seenBy       map[string]bool
	replicas     int
	lastObserved time.Time
}

// Epidemic replicates a bundle to every active contact whose peer has not
// already received it, up to a global replication cap, scoring candidates
// per §4.4.1 and forwarding to the highest scorer each tick.
type Epidemic struct {
	rng   *rand.Rand
	state map[string]*epidemicState

	lastAntiEntropy time.Time
}

// NewEpidemic builds an Epidemic strategy. rng drives the tie-break jitter
// and must be a per-simulation deterministic source, never the global one.
func NewEpidemic(rng *rand.Rand) *Epidemic {
	return &Epidemic{
		rng:   rng,
		state: make(map[string]*epidemicState),
	}
}

func (e *Epidemic) stateFor(b *bundle.Bundle) *epidemicState {
	id := b.ID.String()
	s, ok := e.state[id]
	if !ok {
		s = &epidemicState{seenBy: map[string]bool{b.Source: true}}
		e.state[id] = s
	}
	return s
}

// Decide implements Strategy.
func (e *Epidemic) Decide(holderID string, b *bundle.Bundle, contacts []ActiveContact, now time.Time) Decision {
	if b.IsExpired(now) {
		return Decision{Kind: Drop, Reason: "ttl_expired"}
	}

	s := e.stateFor(b)
	s.lastObserved = now

	var best *ActiveContact
	bestScore := -1.0
	for i := range contacts {
		c := contacts[i]
		if c.PeerID == b.Destination {
			return Decision{Kind: Deliver, NextHop: c.PeerID, Contact: c}
		}
		if s.seenBy[c.PeerID] {
			continue
		}
		if s.replicas >= epidemicReplicationCap {
			continue
		}
		score := scoreContact(c, false, now, e.rng.Float64()*0.1)
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

// OnForwarded implements Strategy: records the peer as a new holder and
// increments the replication counter.
func (e *Epidemic) OnForwarded(bundleID string, peerID string, replica *bundle.Bundle) {
	s, ok := e.state[bundleID]
	if !ok {
		s = &epidemicState{seenBy: map[string]bool{}}
		e.state[bundleID] = s
	}
	s.seenBy[peerID] = true
	s.replicas++
}

// Tick implements Strategy: anti-entropy pruning of summary-vector entries
// older than 24h, performed every 5 minutes of virtual time.
func (e *Epidemic) Tick(now time.Time) {
	if e.lastAntiEntropy.IsZero() {
		e.lastAntiEntropy = now
		return
	}
	if now.Sub(e.lastAntiEntropy) < epidemicAntiEntropyInterval {
		return
	}
	e.lastAntiEntropy = now

	for id, s := range e.state {
		if now.Sub(s.lastObserved) > epidemicSummaryTTL {
			delete(e.state, id)
		}
	}
}

// ReplicaCount returns the current replication count for a bundle, for
// metrics and testing.
func (e *Epidemic) ReplicaCount(bundleID string) int {
	s, ok := e.state[bundleID]
	if !ok {
		return 0
	}
	return s.replicas
}
