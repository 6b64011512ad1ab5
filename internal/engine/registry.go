package engine

import (
	"context"
	"sync"

	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/google/uuid"
)

// Registry holds every simulation created this process's lifetime, keyed by
// id, and is the sole backing store behind the control API (§6). There is
// no persisted state: a process restart loses every simulation.
type Registry struct {
	mu          sync.RWMutex
	simulations map[string]*Simulation
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{simulations: make(map[string]*Simulation)}
}

// Create builds and registers a new simulation from cfg, returning its id.
func (r *Registry) Create(cfg Config) (string, error) {
	id := uuid.NewString()
	sim, err := New(id, cfg)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.simulations[id] = sim
	return id, nil
}

// Get looks up a simulation by id.
func (r *Registry) Get(id string) (*Simulation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sim, ok := r.simulations[id]
	if !ok {
		return nil, apierr.NotFound("no simulation with id %s", id)
	}
	return sim, nil
}

// Start starts the named simulation.
func (r *Registry) Start(ctx context.Context, id string) error {
	sim, err := r.Get(id)
	if err != nil {
		return err
	}
	return sim.Start(ctx)
}

// Pause pauses the named simulation.
func (r *Registry) Pause(id string) error {
	sim, err := r.Get(id)
	if err != nil {
		return err
	}
	return sim.Pause()
}

// Resume resumes the named simulation.
func (r *Registry) Resume(id string) error {
	sim, err := r.Get(id)
	if err != nil {
		return err
	}
	return sim.Resume()
}

// Stop stops the named simulation.
func (r *Registry) Stop(id string) error {
	sim, err := r.Get(id)
	if err != nil {
		return err
	}
	return sim.Stop()
}

// Snapshot returns the named simulation's current snapshot.
func (r *Registry) Snapshot(id string) (Snapshot, error) {
	sim, err := r.Get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sim.Snapshot(), nil
}
