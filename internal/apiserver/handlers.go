package apiserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aurorasat/dtnsim/internal/apierr"
	"github.com/aurorasat/dtnsim/internal/constellation"
	"github.com/aurorasat/dtnsim/internal/contact"
	"github.com/aurorasat/dtnsim/internal/engine"
	"github.com/go-chi/chi/v5"
)

type handler struct {
	registry *engine.Registry
}

// groundStationRequest is the wire shape for one ground station within a
// createSimulation request body; the optional fields default the same way
// internal/constellation.LoadGroundStationsCSV's optional CSV columns do.
type groundStationRequest struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	LatDeg           float64 `json:"lat_deg"`
	LonDeg           float64 `json:"lon_deg"`
	AltKm            float64 `json:"alt_km"`
	ElevationMaskDeg float64 `json:"elevation_mask_deg"`
	MaxRangeKm       float64 `json:"max_range_km"`
}

// createSimulationRequest is the §6 createSimulation request body.
type createSimulationRequest struct {
	ConstellationID     string                 `json:"constellation_id"`
	GroundStations      []groundStationRequest `json:"ground_stations"`
	SourceStation       string                 `json:"source_station"`
	DestStation         string                 `json:"dest_station"`
	RoutingAlgorithm    string                 `json:"routing_algorithm"`
	DurationHours       float64                `json:"duration_hours"`
	BundleRatePerSecond float64                `json:"bundle_rate_per_second"`
	BufferBytes         int64                  `json:"buffer_bytes"`
	RFBand              string                 `json:"rf_band"`
	WeatherEnabled      bool                   `json:"weather_enabled"`
	Seed                uint64                 `json:"seed"`
}

type createSimulationResponse struct {
	ID string `json:"id"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createSimulation handles POST /api/simulations.
func (h *handler) createSimulation(w http.ResponseWriter, r *http.Request) {
	var req createSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, apierr.InvalidInput("decoding request body: %v", err))
		return
	}

	epoch := time.Now().UTC()
	sats, err := constellation.Build(req.ConstellationID, epoch)
	if err != nil {
		handleError(w, err)
		return
	}

	groundStations := make([]*contact.GroundStation, 0, len(req.GroundStations))
	for _, gsr := range req.GroundStations {
		maxRangeKm := gsr.MaxRangeKm
		if maxRangeKm == 0 {
			maxRangeKm = 4000
		}
		elevationMaskDeg := gsr.ElevationMaskDeg
		if elevationMaskDeg == 0 {
			elevationMaskDeg = 10
		}
		gs, err := contact.NewGroundStation(gsr.ID, gsr.Name, gsr.LatDeg, gsr.LonDeg, gsr.AltKm, elevationMaskDeg, maxRangeKm, 30)
		if err != nil {
			handleError(w, err)
			return
		}
		groundStations = append(groundStations, gs)
	}

	cfg := engine.Config{
		ConstellationID:  req.ConstellationID,
		Satellites:       sats,
		GroundStations:   groundStations,
		SourceStation:    req.SourceStation,
		DestStation:      req.DestStation,
		RoutingAlgorithm: engine.Algorithm(req.RoutingAlgorithm),
		DurationHours:    req.DurationHours,
		BundleRate:       req.BundleRatePerSecond,
		BufferBytes:      req.BufferBytes,
		RFBand:           req.RFBand,
		WeatherEnabled:   req.WeatherEnabled,
		Epoch:            epoch,
		Seed:             req.Seed,
	}

	id, err := h.registry.Create(cfg)
	if err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, createSimulationResponse{ID: id})
}

func (h *handler) start(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Start(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"id": id, "state": "running"})
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Pause(id); err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"id": id, "state": "paused"})
}

func (h *handler) resume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Resume(id); err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"id": id, "state": "running"})
}

func (h *handler) stop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Stop(id); err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"id": id, "state": "stopped"})
}

func (h *handler) snapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := h.registry.Snapshot(id)
	if err != nil {
		handleError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, snap)
}
