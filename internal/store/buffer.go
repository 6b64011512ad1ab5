// Package store implements the per-node bundle buffer (C3): a
// capacity-bounded container with a pluggable eviction policy, independent
// of which routing strategy is driving the node.
package store

import (
	"sync"
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/aurorasat/dtnsim/pkg/bundle"
	"github.com/google/uuid"
)

// Buffer is a bounded container of bundles exclusively owned by one node.
// Capacity is configured in bytes; insert evicts via the configured policy
// when over capacity, failing with BufferFull only once the buffer is empty
// and still cannot fit the incoming bundle.
type Buffer struct {
	mu            sync.Mutex
	capacityBytes int64
	usedBytes     int64
	bundles       map[uuid.UUID]*bundle.Bundle
	policy        EvictionPolicy

	evictions int64
	rejects   int64
}

// NewBuffer constructs an empty buffer with the given byte capacity and
// eviction policy.
func NewBuffer(capacityBytes int64, policy EvictionPolicy) *Buffer {
	return &Buffer{
		capacityBytes: capacityBytes,
		bundles:       make(map[uuid.UUID]*bundle.Bundle),
		policy:        policy,
	}
}

// Insert adds a bundle, evicting via the policy as needed to stay within
// capacity. A duplicate id is a no-op returning nil. Returns a BufferFull
// apierr.Error if the bundle cannot be made to fit even in an empty buffer.
func (b *Buffer) Insert(bd *bundle.Bundle, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.bundles[bd.ID]; exists {
		return nil
	}

	size := int64(bd.Size())
	if size > b.capacityBytes {
		b.rejects++
		return apierr.BufferFull("bundle %s (%d bytes) exceeds total buffer capacity (%d bytes)", bd.ID, size, b.capacityBytes)
	}

	for b.usedBytes+size > b.capacityBytes && len(b.bundles) > 0 {
		b.evictOneLocked(now)
	}

	if b.usedBytes+size > b.capacityBytes {
		b.rejects++
		return apierr.BufferFull("insufficient capacity for bundle %s after evicting all candidates", bd.ID)
	}

	b.bundles[bd.ID] = bd
	b.usedBytes += size
	return nil
}

func (b *Buffer) evictOneLocked(now time.Time) {
	candidates := make([]*bundle.Bundle, 0, len(b.bundles))
	for _, bd := range b.bundles {
		candidates = append(candidates, bd)
	}
	victimIdx := b.policy.SelectVictim(candidates, now)
	victim := candidates[victimIdx]
	delete(b.bundles, victim.ID)
	b.usedBytes -= int64(victim.Size())
	b.evictions++
}

// Remove deletes a bundle by id, reporting whether it was present.
func (b *Buffer) Remove(id uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bd, ok := b.bundles[id]
	if !ok {
		return false
	}
	delete(b.bundles, id)
	b.usedBytes -= int64(bd.Size())
	return true
}

// Get looks up a bundle by id.
func (b *Buffer) Get(id uuid.UUID) (*bundle.Bundle, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd, ok := b.bundles[id]
	return bd, ok
}

// ScanForDestination returns every bundle addressed to dest, in no
// particular order; callers needing deterministic order sort the result.
func (b *Buffer) ScanForDestination(dest string) []*bundle.Bundle {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matches []*bundle.Bundle
	for _, bd := range b.bundles {
		if bd.Destination == dest {
			matches = append(matches, bd)
		}
	}
	return matches
}

// All returns every bundle currently held, in no particular order.
func (b *Buffer) All() []*bundle.Bundle {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := make([]*bundle.Bundle, 0, len(b.bundles))
	for _, bd := range b.bundles {
		all = append(all, bd)
	}
	return all
}

// SweepExpired removes every bundle whose age exceeds its TTL as of now,
// returning the count removed.
func (b *Buffer) SweepExpired(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for id, bd := range b.bundles {
		if bd.IsExpired(now) {
			delete(b.bundles, id)
			b.usedBytes -= int64(bd.Size())
			count++
		}
	}
	return count
}

// Len returns the number of bundles currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bundles)
}

// UsedBytes returns the current occupied capacity.
func (b *Buffer) UsedBytes() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.usedBytes
}

// Evictions returns the cumulative number of bundles evicted to make room.
func (b *Buffer) Evictions() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evictions
}

// Rejects returns the cumulative number of inserts that failed with BufferFull.
func (b *Buffer) Rejects() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rejects
}
