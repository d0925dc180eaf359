// Package server exposes the scoring engine over a JSON API: reference
// management, area queries, and on-demand recomputation. All scoring is
// done in memory against the loaded dataset; only custom references and
// snapshots touch the store.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Kaiman22/autonomy-explorer/internal/engine"
	"github.com/Kaiman22/autonomy-explorer/internal/estimate"
	"github.com/Kaiman22/autonomy-explorer/internal/ingest"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
	"github.com/Kaiman22/autonomy-explorer/internal/store"
	"github.com/Kaiman22/autonomy-explorer/pkg/geocode"
)

// Server holds the dataset and collaborators for the JSON API.
type Server struct {
	areas    []model.Area
	builtin  []model.Reference
	store    store.Store
	geocoder geocode.Client
	defaults model.Params
	log      *zap.Logger
}

// New creates a Server over the given dataset.
func New(areas []model.Area, builtin []model.Reference, st store.Store, gc geocode.Client, defaults model.Params) *Server {
	return &Server{
		areas:    areas,
		builtin:  builtin,
		store:    st,
		geocoder: gc,
		defaults: defaults,
		log:      zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/references", s.handleListReferences)
		r.Post("/references", s.handleCreateReference)
		r.Patch("/references/{id}", s.handleUpdateReference)
		r.Delete("/references/{id}", s.handleDeleteReference)
		r.Get("/areas", s.handleListAreas)
		r.Post("/scores", s.handleComputeScores)
		r.Get("/snapshots", s.handleListSnapshots)
		r.Get("/snapshots/{id}", s.handleGetSnapshot)
	})
	return r
}

// scoringInput assembles the engine input: the loaded dataset plus the
// stored custom references with their synthesized travel times merged into
// fresh area copies. The loaded dataset itself is never modified.
func (s *Server) scoringInput(ctx context.Context, p model.Params) (engine.Input, error) {
	in := engine.Input{Areas: s.areas, Builtin: s.builtin, Params: p}

	if s.store == nil {
		return in, nil
	}
	custom, err := s.store.ListReferences(ctx)
	if err != nil {
		return engine.Input{}, err
	}
	if len(custom) == 0 {
		return in, nil
	}
	in.Custom = custom

	merged := s.areas
	for _, ref := range custom {
		drive, pt, err := s.store.GetReferenceTimes(ctx, ref.ID)
		if err != nil {
			return engine.Input{}, err
		}
		if drive == nil && pt == nil {
			continue
		}
		merged = ingest.MergeReferenceTimes(merged, ref.ID, drive, pt)
	}
	in.Areas = merged
	return in, nil
}

// synthesizeTimes estimates and stores travel times for a new custom
// reference.
func (s *Server) synthesizeTimes(ctx context.Context, ref model.Reference) error {
	drive, pt := estimate.ForReference(ref, s.areas, s.builtin)
	return s.store.SetReferenceTimes(ctx, ref.ID, drive, pt)
}
