// Package routing implements the per-contact forwarding strategies (C4):
// Epidemic, PRoPHET, and Spray-and-Wait. Each strategy decides, for one
// bundle at one holder, what to do given the set of contacts currently
// active at that holder.
package routing

import (
	"time"

	"github.com/aurorasat/dtnsim/pkg/bundle"
)

// ActiveContact is the routing-relevant view of a contact a holder node
// currently has open: a peer id, an achievable rate, and whether the peer
// is a ground station (used for delivery and scoring bonuses).
type ActiveContact struct {
	PeerID         string
	RateMbps       float64
	OpenSince      time.Time
	IsGroundStation bool
}

// DecisionKind distinguishes what a strategy wants done with a bundle.
type DecisionKind int

const (
	// Store keeps the bundle at the current holder; no transfer this tick.
	Store DecisionKind = iota
	// Forward hands (a replica of) the bundle to NextHop over Contact.
	Forward
	// Deliver moves the bundle to its destination; the holder is in direct
	// contact with the destination endpoint.
	Deliver
	// Drop discards the bundle locally; Reason explains why.
	Drop
)

// Decision is the result of a strategy's per-bundle, per-tick choice.
// NextHop and Contact are populated for Forward and Deliver; Reason only for Drop.
type Decision struct {
	Kind    DecisionKind
	NextHop string
	Contact ActiveContact
	Reason  string
}

// Strategy is the shared contract every routing algorithm implements:
// decide what to do with one bundle given the contacts currently active at
// its holder, and observe an encounter so any algorithm-specific state
// (summary vectors, predictability tables, copy counts) can update.
type Strategy interface {
	// Decide returns the forwarding decision for bundle b at holder
	// holderID, given the contacts active at holderID as of now.
	Decide(holderID string, b *bundle.Bundle, contacts []ActiveContact, now time.Time) Decision

	// OnForwarded is called after a Forward decision is actually executed
	// (contact capacity allowed it), so the strategy can update replication
	// counts or copy bookkeeping tied to the specific bundle id. replica is
	// the clone just inserted at peerID's buffer, letting a strategy stash
	// per-replica state (e.g. Spray-and-Wait's handed-over copy count) in
	// its Scratch before the peer's own strategy instance ever sees it.
	OnForwarded(bundleID string, peerID string, replica *bundle.Bundle)

	// Tick advances any time-driven background process: PRoPHET aging,
	// Epidemic anti-entropy pruning. now is the current virtual time.
	Tick(now time.Time)
}

// scoreContact ranks a candidate contact for Epidemic and Spray-and-Wait tie
// breaking, per §4.4.1: rate, destination/ground-station bonuses, an age
// penalty, a short-contact penalty, and jitter supplied by the caller so the
// strategy stays decoupled from any particular random source.
func scoreContact(c ActiveContact, destinationIsPeer bool, now time.Time, jitter float64) float64 {
	score := c.RateMbps / 100
	if destinationIsPeer {
		score += 10
	}
	if c.IsGroundStation {
		score += 2
	}
	ageHours := now.Sub(c.OpenSince).Hours()
	score -= 1 / (1 + ageHours)
	if now.Sub(c.OpenSince) <= 60*time.Second {
		score *= 0.5
	}
	score += jitter
	return score
}
