// Package api exposes leaderboards, score ingestion and health over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/rankd/internal/adapters/store"
	service "github.com/okian/rankd/internal/app"
	"github.com/okian/rankd/internal/domain/model"
	"github.com/okian/rankd/internal/domain/rank"
	"github.com/okian/rankd/pkg/logger"
)

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	Plain() (*rank.Registry[*rank.Leaderboard], error)
	Recency() (*rank.Registry[*rank.RecencyLeaderboard], error)
	Enqueue(ctx context.Context, e model.Event) (service.Receipt, error)
	Stats(ctx context.Context) service.Stats
	Ping(ctx context.Context) error
	Now() time.Time
}

// Server wires HTTP routes for the leaderboard API.
type Server struct {
	deps     Dependencies
	maxRange int
	logger   logger.Logger
}

// NewServer creates an API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:     deps,
		maxRange: defaultMaxRangeLimit,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, RequestID(MetricsMiddleware(h, endpoint)))
	}

	route("GET /healthz", "healthz", s.handleHealth)
	mux.Handle("GET /metrics", metricsHandler())
	route("GET /stats", "stats", s.handleStats)
	route("POST /events", "events", s.handlePostEvent)

	route("GET /leaderboards/{variant}", "leaderboards", s.handleList)
	route("PUT /leaderboards/{variant}/{name}", "leaderboard", s.handleRegister)
	route("DELETE /leaderboards/{variant}/{name}", "leaderboard", s.handleRemove)
	route("POST /leaderboards/{variant}/move", "move", s.handleMove)

	route("PUT /leaderboards/{variant}/{name}/members/{id}", "member", s.handleUpsert)
	route("POST /leaderboards/{variant}/{name}/members", "members", s.handleUpsertBatch)
	route("POST /leaderboards/{variant}/{name}/members/{id}/increment", "increment", s.handleIncrement)
	route("GET /leaderboards/{variant}/{name}/members/{id}", "member", s.handleGetMember)
	route("DELETE /leaderboards/{variant}/{name}/members/{id}", "member", s.handleDeleteMember)

	route("GET /leaderboards/{variant}/{name}/range", "range", s.handleRange)
	route("DELETE /leaderboards/{variant}/{name}/range", "range", s.handleRemoveRange)
	route("GET /leaderboards/{variant}/{name}/count", "count", s.handleCount)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return mux
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

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeds):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, rank.ErrInvalidArgument),
		errors.Is(err, store.ErrInvalidScore),
		errors.Is(err, model.ErrInvalidEvent):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, rank.ErrUnsupported):
		return http.StatusNotImplemented, "unsupported_operation"
	case errors.Is(err, ErrNotFound), errors.Is(err, rank.ErrNotRegistered):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status. Server-side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		s.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decode reads a JSON body into v.
func decode(r *http.Request, op string, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
