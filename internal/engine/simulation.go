package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/aurorasat/dtnsim/internal/contact"
	"github.com/aurorasat/dtnsim/internal/observability"
	"github.com/aurorasat/dtnsim/internal/orbital"
	"github.com/aurorasat/dtnsim/internal/routing"
	"github.com/aurorasat/dtnsim/internal/store"
	"github.com/aurorasat/dtnsim/internal/utils"
	"github.com/aurorasat/dtnsim/pkg/bundle"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// State is a simulation's lifecycle state, per §4.5.
type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
	StateCompleted State = "completed"
	StateError     State = "error"
)

// satelliteRuntime is one satellite's mutable state for the run: its
// elements (immutable), its last-computed orbital state, its buffer, and
// its routing strategy instance.
type satelliteRuntime struct {
	id       string
	elements orbital.Elements
	state    orbital.State
	buffer   *store.Buffer
	strategy routing.Strategy
}

// Simulation drives one simulation's tick loop and owns every piece of
// per-run state: clock, satellite runtimes, contact predictor, ground
// stations, and metrics. Each simulation owns its own RNG so concurrent
// simulations never share entropy state.
type Simulation struct {
	id  string
	cfg Config
	log *utils.Logger

	mu    sync.Mutex
	state State
	err   error

	clock     *clock
	satellites map[string]*satelliteRuntime
	satOrder   []string
	groundStations map[string]*contact.GroundStation
	predictor *contact.Predictor

	sequence uint64
	rng      *rand.Rand

	epidemic *routing.Epidemic // shared across satellites: the replication cap is network-wide

	metrics runMetrics

	destBuffer   []*bundle.Bundle // bundles delivered to the destination ground station
	delivered    map[uuid.UUID]bool // bundle IDs already delivered, so later replicas are dropped as duplicates
	lastContacts []contact.Contact

	cancel context.CancelFunc
	done   chan struct{}
	paused chan struct{}
}

// New constructs a Simulation in the created state. It does not start the
// tick loop.
func New(id string, cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	band, err := contact.BandByName(cfg.RFBand)
	if err != nil {
		return nil, err
	}

	gsByID := make(map[string]*contact.GroundStation, len(cfg.GroundStations))
	for _, gs := range cfg.GroundStations {
		gsByID[gs.ID] = gs
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))

	sim := &Simulation{
		id:             id,
		cfg:            cfg,
		log:            utils.NewLogger(id),
		state:          StateCreated,
		clock:          newClock(cfg.Epoch, cfg.DeltaT),
		satellites:     make(map[string]*satelliteRuntime),
		groundStations: gsByID,
		rng:            rng,
		epidemic:       routing.NewEpidemic(rng),
		delivered:      make(map[uuid.UUID]bool),
		paused:         make(chan struct{}),
	}
	close(sim.paused) // start unpaused: reading from a closed channel never blocks

	sim.predictor = contact.NewPredictor(contact.Config{
		Band:           band,
		WeatherEnabled: cfg.WeatherEnabled,
		GroundStations: cfg.GroundStations,
	})

	for _, spec := range cfg.Satellites {
		rt := &satelliteRuntime{
			id:       spec.ID,
			elements: spec.Elements,
			buffer:   store.NewBuffer(cfg.BufferBytes, store.PriorityThenAge{}),
			strategy: sim.newStrategy(),
		}
		sim.satellites[spec.ID] = rt
		sim.satOrder = append(sim.satOrder, spec.ID)
	}
	sort.Strings(sim.satOrder)

	return sim, nil
}

// newStrategy builds the per-satellite routing strategy instance for
// PRoPHET and Spray-and-Wait (per-node state), or returns the shared
// Epidemic instance (network-wide replication cap).
func (s *Simulation) newStrategy() routing.Strategy {
	switch s.cfg.RoutingAlgorithm {
	case AlgorithmPRoPHET:
		return routing.NewPRoPHET()
	case AlgorithmSprayAndWait:
		return routing.NewSprayAndWait(s.cfg.SprayInitialCopies, s.rng)
	default:
		return s.epidemic
	}
}

// ID returns the simulation's identifier.
func (s *Simulation) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start transitions created->running and begins the tick loop in a
// background goroutine, driven until stop(), completion, or ctx
// cancellation.
func (s *Simulation) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return apierr.IllegalState("cannot start simulation %s from state %s", s.id, s.state)
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateRunning
	s.mu.Unlock()

	observability.GetMetrics().SimulationsActive.Inc()
	go s.run(runCtx)
	return nil
}

// Pause transitions running->paused. Idempotent when already paused.
func (s *Simulation) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePaused {
		return nil
	}
	if s.state != StateRunning {
		return apierr.IllegalState("cannot pause simulation %s from state %s", s.id, s.state)
	}
	s.state = StatePaused
	s.paused = make(chan struct{})
	return nil
}

// Resume transitions paused->running. Idempotent when already running.
func (s *Simulation) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return nil
	}
	if s.state != StatePaused {
		return apierr.IllegalState("cannot resume simulation %s from state %s", s.id, s.state)
	}
	s.state = StateRunning
	close(s.paused)
	return nil
}

// Stop transitions any non-terminal state to stopped. Idempotent w.r.t.
// terminal states, per §6.
func (s *Simulation) Stop() error {
	s.mu.Lock()
	switch s.state {
	case StateStopped, StateCompleted, StateError:
		s.mu.Unlock()
		return nil
	case StateCreated:
		s.state = StateStopped
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}

// run is the background tick loop. It completes the current tick before
// observing cancellation, per §5's cancellation contract.
func (s *Simulation) run(ctx context.Context) {
	defer close(s.done)
	defer observability.GetMetrics().SimulationsActive.Dec()

	duration := s.cfg.Duration()

	for {
		select {
		case <-ctx.Done():
			s.finish(StateStopped, nil)
			return
		case <-s.pausedGate():
		}

		if s.clock.Elapsed() >= duration {
			s.finish(StateCompleted, nil)
			return
		}

		if err := s.tick(ctx); err != nil {
			s.finish(StateError, err)
			return
		}

		observability.GetMetrics().SimulationTicks.WithLabelValues(s.id).Inc()

		// Pace against wall-clock time: each DeltaT of virtual time takes
		// DeltaT/Alpha of wall time.
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(float64(s.cfg.DeltaT) / s.cfg.Alpha)):
		}
	}
}

// pausedGate returns the channel that gates tick progress: closed (so a
// receive proceeds immediately) while running, and a fresh open channel
// while paused, swapped back to closed by Resume.
func (s *Simulation) pausedGate() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Simulation) finish(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.err = err
	s.mu.Unlock()
	if err != nil {
		s.log.Error("entered error state: %v", err)
	}
}

// tick executes the 8-step pipeline from §4.5 exactly once.
func (s *Simulation) tick(ctx context.Context) error {
	now := s.clock.Advance() // 1. advance clock

	if err := s.propagateAll(ctx, now); err != nil { // 2. propagate
		return err
	}

	sats := make([]contact.SatelliteState, 0, len(s.satellites))
	for _, id := range s.satOrder {
		rt := s.satellites[id]
		sats = append(sats, contact.SatelliteState{ID: rt.id, ECI: rt.state.ECI, ECEF: rt.state.ECEF})
	}
	contacts, events := s.predictor.Tick(now, sats) // 3. refresh visibility
	s.mu.Lock()
	s.lastContacts = contacts
	s.mu.Unlock()

	for _, ev := range events {
		if ev.Kind == contact.EventOpen {
			observability.GetMetrics().ContactsOpened.WithLabelValues(s.id).Inc()
		}
	}

	s.ingestSourceBundles(now, contacts) // 4. source ingestion

	s.routingPass(now, contacts) // 5. routing pass

	s.deliveryPass(now, contacts) // 6. delivery pass

	for _, rt := range s.satellites {
		rt.buffer.SweepExpired(now) // 7. sweep expired
	}

	s.updateLinkMetrics(contacts) // 8. update metrics

	for _, rt := range s.satellites {
		rt.strategy.Tick(now)
	}

	return nil
}

// propagateAll advances every satellite's orbital state to now. Propagation
// is a pure read of immutable elements, so it runs concurrently across
// satellites via errgroup, per §4.1's implementation note.
func (s *Simulation) propagateAll(ctx context.Context, now time.Time) error {
	g, _ := errgroup.WithContext(ctx)
	for _, id := range s.satOrder {
		rt := s.satellites[id]
		g.Go(func() error {
			st, err := orbital.Propagate(rt.elements, now)
			if err != nil {
				return fmt.Errorf("propagate satellite %s: %w", rt.id, err)
			}
			rt.state = st
			return nil
		})
	}
	return g.Wait()
}

// ingestSourceBundles synthesizes new bundles at rate λ and hands each to
// any satellite currently in contact with the source ground station.
func (s *Simulation) ingestSourceBundles(now time.Time, contacts []contact.Contact) {
	if s.cfg.BundleRate <= 0 {
		return
	}
	expected := s.cfg.BundleRate * s.cfg.DeltaT.Seconds()
	whole := int(expected)
	if frac := expected - float64(whole); s.rng.Float64() < frac {
		whole++
	}
	if whole == 0 {
		return
	}

	var carriers []string
	for _, c := range contacts {
		if c.EndpointB == s.cfg.SourceStation {
			carriers = append(carriers, c.EndpointA)
		} else if c.EndpointA == s.cfg.SourceStation {
			carriers = append(carriers, c.EndpointB)
		}
	}
	if len(carriers) == 0 {
		return
	}

	for i := 0; i < whole; i++ {
		s.sequence++
		b, err := bundle.New(s.cfg.SourceStation, s.cfg.DestStation, make([]byte, 1<<20), now, 2*time.Hour, bundle.PriorityNormal, s.sequence)
		if err != nil {
			continue
		}
		carrier := carriers[s.rng.IntN(len(carriers))]
		if rt, ok := s.satellites[carrier]; ok {
			if err := rt.buffer.Insert(b, now); err == nil {
				s.recordGenerated()
			}
		}
	}
}

// routingPass invokes the configured strategy for every bundle held by
// every satellite, executing Forward decisions subject to the contact's
// remaining byte budget for this tick.
func (s *Simulation) routingPass(now time.Time, contacts []contact.Contact) {
	byEndpoint := activeContactsByEndpoint(contacts, s.groundStations)
	remaining := make(map[string]int64, len(contacts))
	for _, c := range contacts {
		remaining[contactKey(c.EndpointA, c.EndpointB)] = int64(c.RateMbps * 1e6 / 8 * s.cfg.DeltaT.Seconds())
	}

	for _, id := range s.satOrder {
		rt := s.satellites[id]
		held := rt.buffer.All()
		sort.Slice(held, func(i, j int) bool {
			if held[i].Priority != held[j].Priority {
				return held[i].Priority > held[j].Priority
			}
			if !held[i].CreationTime.Equal(held[j].CreationTime) {
				return held[i].CreationTime.Before(held[j].CreationTime)
			}
			return held[i].ID.String() < held[j].ID.String()
		})

		for _, b := range held {
			active := byEndpoint[id]
			decision := rt.strategy.Decide(id, b, active, now)
			switch decision.Kind {
			case routing.Drop:
				rt.buffer.Remove(b.ID)
				observability.GetMetrics().BundlesDropped.WithLabelValues(s.id, decision.Reason).Inc()
			case routing.Forward:
				key := contactKey(id, decision.NextHop)
				budget := remaining[key]
				size := int64(b.Size())
				if budget < size {
					continue
				}
				peerRT, ok := s.satellites[decision.NextHop]
				if !ok {
					continue
				}
				replica := b.Clone()
				replica.RecordHop(decision.NextHop)
				if err := peerRT.buffer.Insert(replica, now); err != nil {
					continue
				}
				remaining[key] -= size
				rt.strategy.OnForwarded(b.ID.String(), decision.NextHop, replica)
				s.recordTransmission(1)
			case routing.Deliver, routing.Store:
				// Deliver is finalized in the delivery pass; Store is a no-op.
			}
		}
	}
}

// deliveryPass moves bundles addressed to the destination off any satellite
// currently in contact with it, marking them delivered.
func (s *Simulation) deliveryPass(now time.Time, contacts []contact.Contact) {
	for _, c := range contacts {
		var satID, peerID string
		if c.EndpointA == s.cfg.DestStation {
			satID, peerID = c.EndpointB, c.EndpointA
		} else if c.EndpointB == s.cfg.DestStation {
			satID, peerID = c.EndpointA, c.EndpointB
		} else {
			continue
		}
		_ = peerID
		rt, ok := s.satellites[satID]
		if !ok {
			continue
		}
		for _, b := range rt.buffer.ScanForDestination(s.cfg.DestStation) {
			rt.buffer.Remove(b.ID)
			if s.delivered[b.ID] {
				observability.GetMetrics().BundlesDropped.WithLabelValues(s.id, "duplicate_delivery").Inc()
				continue
			}
			s.delivered[b.ID] = true
			s.destBuffer = append(s.destBuffer, b)
			s.recordDelivered(b.Age(now).Seconds())
			observability.GetMetrics().BundlesDelivered.WithLabelValues(s.id).Inc()
		}
	}
}

// metrics mutations happen in the single-goroutine tick loop but Snapshot is
// read from arbitrary goroutines (the control API), so every access to
// s.metrics goes through s.mu.

func (s *Simulation) recordGenerated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.recordGenerated()
}

func (s *Simulation) recordTransmission(replicas int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.recordTransmission(replicas)
}

func (s *Simulation) recordDelivered(delaySeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.recordDelivered(delaySeconds)
}

func (s *Simulation) recordContactAttempt(succeeded bool, snrDb, rateMbps float64, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.recordContactAttempt(succeeded, snrDb, rateMbps, bytes)
}

func (s *Simulation) updateLinkMetrics(contacts []contact.Contact) {
	for _, c := range contacts {
		s.recordContactAttempt(true, 0, c.RateMbps, int64(c.RateMbps*1e6/8*s.cfg.DeltaT.Seconds()))
		observability.GetMetrics().LinkRateMbps.WithLabelValues(s.id).Observe(c.RateMbps)
	}
}

// Snapshot returns a read-only view of the simulation's current progress
// and metrics, safe to call from any goroutine.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.metrics.snapshot()
	snap.SimulationID = s.id
	snap.State = s.state
	snap.VirtualTime = s.clock.Now().Format(time.RFC3339)
	snap.ActiveContacts = len(s.lastContacts)
	return snap
}

func activeContactsByEndpoint(contacts []contact.Contact, groundStations map[string]*contact.GroundStation) map[string][]routing.ActiveContact {
	out := make(map[string][]routing.ActiveContact)
	add := func(holder, peer string, c contact.Contact) {
		_, isGS := groundStations[peer]
		out[holder] = append(out[holder], routing.ActiveContact{
			PeerID:          peer,
			RateMbps:        c.RateMbps,
			IsGroundStation: isGS,
		})
	}
	for _, c := range contacts {
		add(c.EndpointA, c.EndpointB, c)
		add(c.EndpointB, c.EndpointA, c)
	}
	return out
}

func contactKey(a, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}
