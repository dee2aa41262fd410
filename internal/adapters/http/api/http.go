// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/roundreport/internal/domain/report"
	"github.com/okian/roundreport/pkg/logger"
)

// Server wires HTTP routes for the report API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	reportsHandler *ReportsHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxNtop     int
	minFraction float64
	log         logger.Logger
}

// WithMaxNtop caps |ntop| on ranked reports.
func WithMaxNtop(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxNtop = n
		}
	}
}

// WithMinParticipation sets the consistency fraction used when the request
// does not give one.
func WithMinParticipation(f float64) Option {
	return func(o *serverOptions) {
		if f >= 0 && f <= 1 {
			o.minFraction = f
		}
	}
}

// WithLogger sets the logger for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Reporter, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{minFraction: report.DefaultMinFraction, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		reportsHandler: NewReportsHandler(deps, o.maxNtop, o.minFraction, o.log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}
	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("GET /reports/stake", "stake", s.reportsHandler.HandleStake)
	route("GET /reports/earn", "earn", s.reportsHandler.HandleEarn)
	route("GET /reports/burn", "burn", s.reportsHandler.HandleBurn)
	route("GET /reports/participation", "participation", s.reportsHandler.HandleParticipation)
	route("GET /reports/big-staker", "big_staker", s.reportsHandler.HandleBigStaker)
	route("GET /reports/new-users", "new_users", s.reportsHandler.HandleNewUsers)
	route("GET /reports/consistency", "consistency", s.reportsHandler.HandleConsistency)
	route("GET /reports/ten99", "ten99", s.reportsHandler.HandleTen99)
	route("GET /users/{user}/rounds", "user_rounds", s.reportsHandler.HandleUserRounds)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
