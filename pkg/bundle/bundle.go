// Package bundle implements the store-carry-forward message envelope used
// throughout the DTN satellite simulator: a bounded-lifetime unit of payload
// with a content-stable identity, a priority class, and per-holder routing
// scratch that never leaks between replicas.
package bundle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority classes a bundle may carry. Ordered low to high so numeric
// comparison doubles as priority comparison.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ValidPriority reports whether p is one of the four defined levels.
func ValidPriority(p Priority) bool {
	return p <= PriorityCritical
}

// idNamespace is the fixed namespace for every bundle fingerprint, so the
// same (source, creation time, sequence) yields the same id in any process.
var idNamespace = uuid.MustParse("7b6a6f1e-2c0a-4c7a-9d7f-6f6c9d5a2d31")

// Bundle is a store-carry-forward message: an immutable envelope and payload
// plus a mutable hop trail and per-holder routing scratch. Two replicas of
// the same logical bundle share an ID and Payload but never share HopTrail
// or Scratch.
type Bundle struct {
	ID           uuid.UUID      `json:"id"`
	Source       string         `json:"source"`
	Destination  string         `json:"destination"`
	Payload      []byte         `json:"payload"`
	CreationTime time.Time      `json:"creationTime"`
	TTL          time.Duration  `json:"ttl"`
	Priority     Priority       `json:"priority"`
	HopTrail     []string       `json:"hopTrail"`
	Scratch      map[string]any `json:"-"`
}

// New creates a bundle with a content-stable fingerprint ID derived from
// source, creation time, and a caller-supplied sequence number (typically a
// per-source monotonic counter from the ingestion loop). Two calls with
// identical (source, creationTime, sequence) always produce the same ID.
func New(source, destination string, payload []byte, creationTime time.Time, ttl time.Duration, priority Priority, sequence uint64) (*Bundle, error) {
	if source == "" || destination == "" {
		return nil, fmt.Errorf("bundle: source and destination endpoints are required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("bundle: ttl must be positive, got %s", ttl)
	}
	if !ValidPriority(priority) {
		return nil, fmt.Errorf("bundle: invalid priority %d", priority)
	}
	fingerprint := fmt.Sprintf("%s|%d|%d", source, creationTime.UnixNano(), sequence)
	return &Bundle{
		ID:           uuid.NewSHA1(idNamespace, []byte(fingerprint)),
		Source:       source,
		Destination:  destination,
		Payload:      payload,
		CreationTime: creationTime,
		TTL:          ttl,
		Priority:     priority,
		HopTrail:     []string{source},
		Scratch:      make(map[string]any),
	}, nil
}

// ExpiresAt returns the timestamp at which the bundle becomes expired.
func (b *Bundle) ExpiresAt() time.Time {
	return b.CreationTime.Add(b.TTL)
}

// IsExpired reports whether the bundle has aged past its TTL as of now.
func (b *Bundle) IsExpired(now time.Time) bool {
	return now.Sub(b.CreationTime) > b.TTL
}

// Age returns how long the bundle has existed as of now.
func (b *Bundle) Age(now time.Time) time.Duration {
	return now.Sub(b.CreationTime)
}

// RemainingTTL returns the time left before expiry, floored at zero.
func (b *Bundle) RemainingTTL(now time.Time) time.Duration {
	remaining := b.ExpiresAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Size returns the approximate wire size of the bundle in bytes: a fixed
// envelope overhead plus endpoint strings, hop trail, and payload.
func (b *Bundle) Size() int {
	overhead := 48
	for _, hop := range b.HopTrail {
		overhead += len(hop)
	}
	return overhead + len(b.Source) + len(b.Destination) + len(b.Payload)
}

// Validate checks the invariants from the data model: positive TTL, a valid
// priority, and non-empty endpoints.
func (b *Bundle) Validate() error {
	if b.Source == "" {
		return fmt.Errorf("bundle: source endpoint cannot be empty")
	}
	if b.Destination == "" {
		return fmt.Errorf("bundle: destination endpoint cannot be empty")
	}
	if b.TTL <= 0 {
		return fmt.Errorf("bundle: ttl must be positive, got %s", b.TTL)
	}
	if !ValidPriority(b.Priority) {
		return fmt.Errorf("bundle: invalid priority %d", b.Priority)
	}
	return nil
}

// RecordHop appends a holder to the hop trail. The envelope itself (source,
// destination, payload, TTL) is never touched: only the trail mutates.
func (b *Bundle) RecordHop(nodeID string) {
	b.HopTrail = append(b.HopTrail, nodeID)
}

// HopCount returns the number of recorded holders, including the source.
func (b *Bundle) HopCount() int {
	return len(b.HopTrail)
}

// Clone produces a new replica: same ID, envelope, and payload (the payload
// backing array is shared, never mutated), but an independent hop trail and
// scratch so routing state never leaks between holders.
func (b *Bundle) Clone() *Bundle {
	trail := make([]string, len(b.HopTrail))
	copy(trail, b.HopTrail)
	scratch := make(map[string]any, len(b.Scratch))
	for k, v := range b.Scratch {
		scratch[k] = v
	}
	return &Bundle{
		ID:           b.ID,
		Source:       b.Source,
		Destination:  b.Destination,
		Payload:      b.Payload,
		CreationTime: b.CreationTime,
		TTL:          b.TTL,
		Priority:     b.Priority,
		HopTrail:     trail,
		Scratch:      scratch,
	}
}

func (b *Bundle) String() string {
	return fmt.Sprintf("Bundle[id=%s, src=%s, dst=%s, priority=%s, hops=%d, size=%d]",
		b.ID.String()[:8], b.Source, b.Destination, b.Priority, b.HopCount(), b.Size())
}
