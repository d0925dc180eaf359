package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/engine"
	"github.com/Kaiman22/autonomy-explorer/internal/geo"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
	"github.com/Kaiman22/autonomy-explorer/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v) //nolint:errcheck
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"areas":  len(s.areas),
	})
}

func (s *Server) handleListReferences(w http.ResponseWriter, r *http.Request) {
	refs := make([]model.Reference, 0, len(s.builtin))
	refs = append(refs, s.builtin...)

	if s.store != nil {
		custom, err := s.store.ListReferences(r.Context())
		if err != nil {
			s.log.Error("list references", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "list references")
			return
		}
		refs = append(refs, custom...)
	}
	respondJSON(w, http.StatusOK, refs)
}

type createReferenceRequest struct {
	Name       string   `json:"name"`
	Query      string   `json:"query"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	MaxMinutes *float64 `json:"max_minutes"`
}

func (s *Server) handleCreateReference(w http.ResponseWriter, r *http.Request) {
	var req createReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	ref := model.Reference{
		Name:       req.Name,
		Enabled:    true,
		Custom:     true,
		MaxMinutes: req.MaxMinutes,
	}

	switch {
	case req.Lat != nil && req.Lng != nil:
		ref.Lat, ref.Lng = *req.Lat, *req.Lng
	case s.geocoder != nil:
		query := req.Query
		if query == "" {
			query = req.Name
		}
		res, err := s.geocoder.Search(r.Context(), query)
		if err != nil {
			s.log.Error("geocode reference", zap.String("query", query), zap.Error(err))
			respondError(w, http.StatusBadGateway, "geocoding failed")
			return
		}
		if !res.Matched {
			respondError(w, http.StatusUnprocessableEntity, "location not found")
			return
		}
		ref.Lat, ref.Lng = res.Lat, res.Lng
	default:
		respondError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	created, err := s.store.CreateReference(r.Context(), ref)
	if err != nil {
		s.log.Error("create reference", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "create reference")
		return
	}

	if err := s.synthesizeTimes(r.Context(), *created); err != nil {
		s.log.Error("synthesize times", zap.String("ref", created.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "synthesize travel times")
		return
	}

	s.log.Info("reference created",
		zap.String("id", created.ID),
		zap.String("name", created.Name),
		zap.Float64("lat", created.Lat),
		zap.Float64("lng", created.Lng))
	respondJSON(w, http.StatusCreated, created)
}

type updateReferenceRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleUpdateReference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Enabled == nil {
		respondError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if err := s.store.SetReferenceEnabled(r.Context(), id, *req.Enabled); err != nil {
		respondError(w, http.StatusNotFound, "reference not found")
		return
	}

	ref, err := s.store.GetReference(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "get reference")
		return
	}
	respondJSON(w, http.StatusOK, ref)
}

func (s *Server) handleDeleteReference(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteReference(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, "reference not found")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	metric := engine.MetricComposite
	if m := r.URL.Query().Get("metric"); m != "" {
		parsed, err := engine.ParseMetric(m)
		if err != nil {
			respondError(w, http.StatusBadRequest, "unknown metric "+m)
			return
		}
		metric = parsed
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	in, err := s.scoringInput(r.Context(), s.defaults)
	if err != nil {
		s.log.Error("build scoring input", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "score areas")
		return
	}
	scored := engine.Compute(in)

	if q := r.URL.Query().Get("q"); q != "" {
		filtered := scored[:0:0]
		for _, sa := range scored {
			if geo.MatchName(sa.Name, q) || sa.PLZ == q {
				filtered = append(filtered, sa)
			}
		}
		scored = filtered
	}

	engine.SortByMetric(scored, metric)
	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	respondJSON(w, http.StatusOK, scored)
}

type computeScoresRequest struct {
	PTFactor *float64           `json:"pt_factor"`
	AVFactor *float64           `json:"av_factor"`
	Weights  *model.Weights     `json:"weights"`
	Caps     map[string]float64 `json:"caps"`
	Snapshot bool               `json:"snapshot"`
}

type computeScoresResponse struct {
	SnapshotID string                `json:"snapshot_id,omitempty"`
	Summary    model.SnapshotSummary `json:"summary"`
	Areas      []model.ScoredArea    `json:"areas"`
}

func (s *Server) handleComputeScores(w http.ResponseWriter, r *http.Request) {
	var req computeScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := s.defaults
	if req.PTFactor != nil {
		p.PTFactor = *req.PTFactor
	}
	if req.AVFactor != nil {
		p.AVFactor = *req.AVFactor
	}
	if req.Weights != nil {
		p.Weights = *req.Weights
	}

	in, err := s.scoringInput(r.Context(), p)
	if err != nil {
		s.log.Error("build scoring input", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "score areas")
		return
	}
	in.Builtin = applyCaps(in.Builtin, req.Caps)
	in.Custom = applyCaps(in.Custom, req.Caps)

	scored := engine.Compute(in)
	summary := engine.Summarize(scored)

	resp := computeScoresResponse{Summary: summary, Areas: scored}
	if req.Snapshot && s.store != nil {
		snap, err := s.store.CreateSnapshot(r.Context(), model.Snapshot{
			Params:  p,
			RefIDs:  refIDs(in),
			Summary: summary,
		})
		if err != nil {
			s.log.Error("create snapshot", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "create snapshot")
			return
		}
		resp.SnapshotID = snap.ID
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	snaps, err := s.store.ListSnapshots(r.Context(), store.SnapshotFilter{Limit: limit, Offset: offset})
	if err != nil {
		s.log.Error("list snapshots", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list snapshots")
		return
	}
	if snaps == nil {
		snaps = []model.Snapshot{}
	}
	respondJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// applyCaps returns reference copies with per-reference exclusion caps
// overridden. A negative cap clears the reference's cap.
func applyCaps(refs []model.Reference, caps map[string]float64) []model.Reference {
	if len(caps) == 0 {
		return refs
	}
	out := make([]model.Reference, len(refs))
	copy(out, refs)
	for i := range out {
		limit, ok := caps[out[i].ID]
		if !ok {
			continue
		}
		if limit < 0 {
			out[i].MaxMinutes = nil
		} else {
			v := limit
			out[i].MaxMinutes = &v
		}
	}
	return out
}

func refIDs(in engine.Input) []string {
	resolved := engine.Resolve(in.Builtin, in.Custom)
	ids := make([]string, len(resolved))
	for i, r := range resolved {
		ids[i] = r.ID
	}
	return ids
}
