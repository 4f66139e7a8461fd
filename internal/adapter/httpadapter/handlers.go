package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/couchcryptid/surf-conditions-etl/internal/pipeline"
)

const maxRequestBytes = 1 << 20

// spotResponse is the wire form of a spot profile.
type spotResponse struct {
	domain.SpotProfile
	Exposure map[string]domain.Exposure `json:"exposure"`
}

func newSpotResponse(p domain.SpotProfile) spotResponse {
	return spotResponse{SpotProfile: p, Exposure: p.ExposureMap()}
}

// conditionsRequest is the body of POST /spots/{spotID}/conditions. Bucket
// defaults to the hour of the newest observation. Staleness is judged at the
// end of the bucket. Observations without a spot_id inherit the path spot.
type conditionsRequest struct {
	Bucket       *time.Time                    `json:"bucket,omitempty"`
	Observations []pipeline.ObservationMessage `json:"observations"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) handleListSpots(w http.ResponseWriter, _ *http.Request) {
	profiles := s.spots.Profiles()
	out := make([]spotResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, newSpotResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSpot(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("spotID")
	p, ok := s.spots.Lookup(spotID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Unknown spot", Detail: spotID})
		return
	}
	writeJSON(w, http.StatusOK, newSpotResponse(p))
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	spotID := r.PathValue("spotID")

	var body conditionsRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Malformed request body", Detail: err.Error()})
		return
	}

	req, err := buildRequest(spotID, body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid observation", Detail: err.Error()})
		return
	}
	req.Profile = s.spots.Resolve(spotID)

	out, err := s.aggregator.Aggregate(r.Context(), req)
	switch {
	case errors.Is(err, domain.ErrNoData):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "No data available", Detail: err.Error()})
		return
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid input", Detail: err.Error()})
		return
	case err != nil:
		s.logger.Error("on-demand aggregation failed", "spot_id", spotID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Aggregation failed"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func buildRequest(spotID string, body conditionsRequest) (domain.AggregateRequest, error) {
	req := domain.AggregateRequest{SpotID: spotID}
	var newest time.Time
	for i, msg := range body.Observations {
		if msg.SpotID == "" {
			msg.SpotID = spotID
		}
		obs, err := msg.Observation()
		if err != nil {
			return req, fmt.Errorf("observation %d: %w", i, err)
		}
		if obs.Timestamp.After(newest) {
			newest = obs.Timestamp
		}
		req.Observations = append(req.Observations, obs)
	}

	switch {
	case body.Bucket != nil:
		req.Bucket = body.Bucket.UTC().Truncate(pipeline.BucketSize)
	case !newest.IsZero():
		req.Bucket = newest.Truncate(pipeline.BucketSize)
	}
	if !req.Bucket.IsZero() {
		req.AsOf = pipeline.BucketKey{SpotID: req.SpotID, Bucket: req.Bucket}.End()
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
