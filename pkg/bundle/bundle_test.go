package bundle_test

import (
	"testing"
	"time"

	"github.com/aurorasat/dtnsim/pkg/bundle"
)

func mustNew(t *testing.T, source, dest string, payload []byte, ttl time.Duration, priority bundle.Priority, seq uint64) *bundle.Bundle {
	t.Helper()
	b, err := bundle.New(source, dest, payload, time.Unix(1_700_000_000, 0).UTC(), ttl, priority, seq)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}
	return b
}

func TestNewAssignsFields(t *testing.T) {
	b := mustNew(t, "dtn://source/test", "dtn://dest/ground", []byte("test payload data"), time.Hour, bundle.PriorityNormal, 1)

	if b.ID.String() == "" {
		t.Fatal("bundle ID should not be empty")
	}
	if b.Source != "dtn://source/test" {
		t.Errorf("unexpected source: %s", b.Source)
	}
	if b.Destination != "dtn://dest/ground" {
		t.Errorf("unexpected destination: %s", b.Destination)
	}
	if string(b.Payload) != "test payload data" {
		t.Error("payload mismatch")
	}
	if b.Priority != bundle.PriorityNormal {
		t.Errorf("expected priority %s, got %s", bundle.PriorityNormal, b.Priority)
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	if _, err := bundle.New("", "dtn://dest/valid", []byte("data"), now, time.Hour, bundle.PriorityNormal, 1); err == nil {
		t.Fatal("empty source should be rejected")
	}
	if _, err := bundle.New("dtn://source/valid", "", []byte("data"), now, time.Hour, bundle.PriorityNormal, 1); err == nil {
		t.Fatal("empty destination should be rejected")
	}
	if _, err := bundle.New("dtn://src", "dtn://dst", []byte("data"), now, 0, bundle.PriorityNormal, 1); err == nil {
		t.Fatal("non-positive ttl should be rejected")
	}
	if _, err := bundle.New("dtn://src", "dtn://dst", []byte("data"), now, time.Hour, bundle.Priority(200), 1); err == nil {
		t.Fatal("out-of-range priority should be rejected")
	}
}

func TestFingerprintIsContentStable(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()

	a := mustNew(t, "dtn://src", "dtn://dst", []byte("payload one"), time.Hour, bundle.PriorityNormal, 7)
	b, err := bundle.New("dtn://src", "dtn://dst", []byte("payload two"), now, time.Hour, bundle.PriorityHigh, 7)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}

	if a.ID != b.ID {
		t.Error("same source/creationTime/sequence should yield the same fingerprint id regardless of payload or priority")
	}

	c, err := bundle.New("dtn://src", "dtn://dst", []byte("payload one"), now, time.Hour, bundle.PriorityNormal, 8)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}
	if a.ID == c.ID {
		t.Error("different sequence should yield a different fingerprint id")
	}
}

func TestValidate(t *testing.T) {
	b := mustNew(t, "dtn://source/valid", "dtn://dest/valid", []byte("data"), time.Hour, bundle.PriorityNormal, 1)
	if err := b.Validate(); err != nil {
		t.Fatalf("valid bundle failed validation: %v", err)
	}

	b.TTL = 0
	if err := b.Validate(); err == nil {
		t.Fatal("zero ttl should fail validation")
	}
}

func TestClone(t *testing.T) {
	original := mustNew(t, "dtn://original", "dtn://destination", []byte("original payload"), time.Hour, bundle.PriorityCritical, 1)
	original.RecordHop("relay-1")

	cloned := original.Clone()

	if cloned.ID != original.ID {
		t.Error("cloned bundle should have same ID")
	}
	if cloned.Source != original.Source || cloned.Destination != original.Destination {
		t.Error("envelope should match")
	}
	if string(cloned.Payload) != string(original.Payload) {
		t.Error("payload should match")
	}
	if cloned.HopCount() != original.HopCount() {
		t.Error("hop trail should be copied")
	}

	cloned.RecordHop("relay-2")
	if original.HopCount() == cloned.HopCount() {
		t.Error("appending a hop to the clone should not affect the original's trail")
	}

	cloned.Scratch["seen"] = true
	if _, ok := original.Scratch["seen"]; ok {
		t.Error("scratch must not leak between replicas")
	}
}

func TestExpiration(t *testing.T) {
	creation := time.Unix(1_700_000_000, 0).UTC()
	b, err := bundle.New("dtn://src", "dtn://dst", []byte("data"), creation, 10*time.Second, bundle.PriorityNormal, 1)
	if err != nil {
		t.Fatalf("bundle.New: %v", err)
	}

	if b.IsExpired(creation.Add(5 * time.Second)) {
		t.Error("bundle within ttl should not be expired")
	}
	if !b.IsExpired(creation.Add(11 * time.Second)) {
		t.Error("bundle past ttl should be expired")
	}
	if remaining := b.RemainingTTL(creation.Add(11 * time.Second)); remaining != 0 {
		t.Errorf("remaining ttl should floor at zero, got %s", remaining)
	}
	if !b.ExpiresAt().After(b.CreationTime) {
		t.Error("expiry should be after creation")
	}
}

func TestHopTrail(t *testing.T) {
	b := mustNew(t, "dtn://src", "dtn://dst", []byte("data"), time.Hour, bundle.PriorityNormal, 1)

	if b.HopCount() != 1 {
		t.Errorf("initial hop count should be 1 (source), got %d", b.HopCount())
	}

	b.RecordHop("node-1")
	if b.HopCount() != 2 {
		t.Errorf("hop count should be 2, got %d", b.HopCount())
	}
	if b.HopTrail[len(b.HopTrail)-1] != "node-1" {
		t.Errorf("last hop should be node-1, got %s", b.HopTrail[len(b.HopTrail)-1])
	}
}

func TestSize(t *testing.T) {
	payload := []byte("test payload data")
	b := mustNew(t, "dtn://src", "dtn://dst", payload, time.Hour, bundle.PriorityNormal, 1)

	if size := b.Size(); size < len(payload) {
		t.Errorf("bundle size %d should be at least payload size %d", size, len(payload))
	}
}

func TestString(t *testing.T) {
	b := mustNew(t, "dtn://source/test", "dtn://dest/test", []byte("data"), time.Hour, bundle.PriorityNormal, 1)
	if b.String() == "" {
		t.Error("string representation should not be empty")
	}
}
