// Package api serves the read-only HTTP view over the published indexes.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/okian/olrank/internal/adapters/repository"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	AthleteProfile(ctx context.Context, name string) (*model.AthleteProfile, error)
	Club(ctx context.Context, name string) (*model.ClubProfile, error)
	TopClubs(ctx context.Context, n int) ([]*model.ClubProfile, error)
}

// Server wires HTTP routes for the read API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	athleteHandler *AthleteHandler
	clubHandler    *ClubHandler
}

// Option applies a configuration option to the Server.
type Option func(*options)

type options struct {
	log logger.Logger
}

// WithLogger sets the logger that receives failed lookups.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxClubs int, opts ...Option) *Server {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Named("api")
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		athleteHandler: NewAthleteHandler(deps, o.log),
		clubHandler:    NewClubHandler(deps, maxClubs, o.log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, routeHealth))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, routeStats))
	mux.HandleFunc("GET /athletes/{name}", MetricsMiddleware(s.athleteHandler.HandleGetAthlete, routeAthleteLookup))
	mux.HandleFunc("GET /clubs", MetricsMiddleware(s.clubHandler.HandleListClubs, routeClubRanking))
	mux.HandleFunc("GET /clubs/{name}", MetricsMiddleware(s.clubHandler.HandleGetClub, routeClubLookup))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

// writeError never echoes err for server errors.
func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}

// writeLookup renders the outcome of a single-resource lookup. Store errors
// carry file paths, so failures reach the client as bare status text and
// the detail goes to the log.
func writeLookup(w http.ResponseWriter, r *http.Request, log logger.Logger, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, v)
	case isNotFound(err):
		log.Debug(r.Context(), "lookup miss", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusNotFound, "not_found", nil)
	default:
		log.Error(r.Context(), "lookup failed", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
