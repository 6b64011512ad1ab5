package routing

import (
	"math"
	"time"

	"github.com/aurorasat/dtnsim/pkg/bundle"
)

const (
	prophetEncounterMax = 0.7
	prophetBeta         = 0.95
	prophetAgingUnit    = time.Minute
	prophetMinPredictability = 0.01
	prophetForwardMargin     = 0.1
	prophetDirectThreshold   = 0.5
)

// neighborTable is the predictability-to-destination table PRoPHET exchanges
// with encountered neighbors: destination endpoint -> P(destination).
type neighborTable map[string]float64

// PRoPHET implements the RFC 6693 probabilistic routing semantics from
// §4.4.2, using the RFC's additive transitive-update form per the Design
// Notes, not a max-based variant.
type PRoPHET struct {
	predictability  neighborTable
	lastEncounter   map[string]time.Time
	neighborTables  map[string]neighborTable
	lastAging       time.Time
}

// NewPRoPHET builds an empty PRoPHET state for one node.
func NewPRoPHET() *PRoPHET {
	return &PRoPHET{
		predictability: make(neighborTable),
		lastEncounter:  make(map[string]time.Time),
		neighborTables: make(map[string]neighborTable),
	}
}

// P returns the current predictability for reaching destination dest.
func (p *PRoPHET) P(dest string) float64 {
	return p.predictability[dest]
}

// Encounter records a fresh contact with neighbor peerID and exchanges
// predictability tables: applies PRoPHET's direct and transitive update
// rules. peerTable is the neighbor's own table as of the encounter.
func (p *PRoPHET) Encounter(peerID string, peerTable map[string]float64, now time.Time) {
	current := p.predictability[peerID]
	p.predictability[peerID] = current + (1-current)*prophetEncounterMax
	p.lastEncounter[peerID] = now

	peerPredToPeer := p.predictability[peerID]
	for dest, peerP := range peerTable {
		if dest == "" {
			continue
		}
		cur := p.predictability[dest]
		p.predictability[dest] = cur + (1-cur)*peerPredToPeer*peerP*prophetBeta
	}

	tableCopy := make(neighborTable, len(p.predictability))
	for k, v := range p.predictability {
		tableCopy[k] = v
	}
	p.neighborTables[peerID] = tableCopy
}

// Snapshot returns a copy of this node's current predictability table, for
// handing to a peer during an encounter.
func (p *PRoPHET) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(p.predictability))
	for k, v := range p.predictability {
		out[k] = v
	}
	return out
}

// Decide implements Strategy.
func (p *PRoPHET) Decide(holderID string, b *bundle.Bundle, contacts []ActiveContact, now time.Time) Decision {
	if b.IsExpired(now) {
		return Decision{Kind: Drop, Reason: "ttl_expired"}
	}

	dest := b.Destination
	localP := p.predictability[dest]

	var best *ActiveContact
	bestPeerP := -1.0
	for i := range contacts {
		c := contacts[i]
		if c.PeerID == dest {
			return Decision{Kind: Deliver, NextHop: c.PeerID, Contact: c}
		}
		peerTable, known := p.neighborTables[c.PeerID]
		if !known {
			continue
		}
		peerP := peerTable[dest]
		if peerP > localP+prophetForwardMargin && peerP > bestPeerP {
			bestPeerP = peerP
			cc := c
			best = &cc
		}
	}
	if best != nil {
		return Decision{Kind: Forward, NextHop: best.PeerID, Contact: *best}
	}

	for i := range contacts {
		c := contacts[i]
		if c.PeerID == dest && localP > prophetDirectThreshold {
			return Decision{Kind: Forward, NextHop: c.PeerID, Contact: c}
		}
	}

	return Decision{Kind: Store}
}

// OnForwarded implements Strategy. PRoPHET's own predictability does not
// change on a forward; only encounters and aging mutate it.
func (p *PRoPHET) OnForwarded(bundleID string, peerID string, replica *bundle.Bundle) {}

// Tick implements Strategy: ages every predictability entry once per minute
// of virtual time, deleting entries that decay below the floor.
func (p *PRoPHET) Tick(now time.Time) {
	if p.lastAging.IsZero() {
		p.lastAging = now
		return
	}
	elapsed := now.Sub(p.lastAging)
	if elapsed < prophetAgingUnit {
		return
	}
	units := int(elapsed / prophetAgingUnit)
	p.lastAging = p.lastAging.Add(time.Duration(units) * prophetAgingUnit)

	decay := math.Pow(prophetBeta, float64(units))
	for dest, val := range p.predictability {
		aged := val * decay
		if aged < prophetMinPredictability {
			delete(p.predictability, dest)
			delete(p.lastEncounter, dest)
			continue
		}
		p.predictability[dest] = aged
	}
}
