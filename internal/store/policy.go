package store

import (
	"math/rand/v2"
	"time"

	"github.com/aurorasat/dtnsim/pkg/bundle"
)

// EvictionPolicy selects which bundle a buffer gives up first when it must
// free capacity for an insert. Policies are independent of routing strategy.
type EvictionPolicy interface {
	// SelectVictim returns the index into candidates of the bundle to evict.
	// candidates is never empty when called.
	SelectVictim(candidates []*bundle.Bundle, now time.Time) int
}

// OldestFirst evicts the bundle with the least creation time.
type OldestFirst struct{}

func (OldestFirst) SelectVictim(candidates []*bundle.Bundle, now time.Time) int {
	victim := 0
	for i, c := range candidates {
		if c.CreationTime.Before(candidates[victim].CreationTime) {
			victim = i
		}
	}
	return victim
}

// LargestFirst evicts the bundle with the greatest payload size.
type LargestFirst struct{}

func (LargestFirst) SelectVictim(candidates []*bundle.Bundle, now time.Time) int {
	victim := 0
	for i, c := range candidates {
		if c.Size() > candidates[victim].Size() {
			victim = i
		}
	}
	return victim
}

// ShortestTTL evicts the bundle with the least remaining TTL.
type ShortestTTL struct{}

func (ShortestTTL) SelectVictim(candidates []*bundle.Bundle, now time.Time) int {
	victim := 0
	for i, c := range candidates {
		if c.RemainingTTL(now) < candidates[victim].RemainingTTL(now) {
			victim = i
		}
	}
	return victim
}

// Random evicts a uniformly random bundle, driven by a per-simulation
// deterministic source so runs with the same seed are bit-identical.
type Random struct {
	Source *rand.Rand
}

func (r Random) SelectVictim(candidates []*bundle.Bundle, now time.Time) int {
	return r.Source.IntN(len(candidates))
}

// PriorityThenAge evicts the lowest-priority bundle; ties are broken by age,
// oldest first.
type PriorityThenAge struct{}

func (PriorityThenAge) SelectVictim(candidates []*bundle.Bundle, now time.Time) int {
	victim := 0
	for i, c := range candidates {
		v := candidates[victim]
		if c.Priority < v.Priority || (c.Priority == v.Priority && c.CreationTime.Before(v.CreationTime)) {
			victim = i
		}
	}
	return victim
}
