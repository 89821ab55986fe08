package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type upsertRequest struct {
	Score *float64   `json:"score"`
	TS    *time.Time `json:"ts,omitempty"`
}

type incrementRequest struct {
	Delta *float64   `json:"delta"`
	TS    *time.Time `json:"ts,omitempty"`
}

type batchResponse struct {
	Added int64 `json:"added"`
}

type scoreResponse struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type removedResponse struct {
	Removed int64 `json:"removed"`
}

func (s *Server) tsOrNow(ts *time.Time) time.Time {
	if ts == nil {
		return s.deps.Now()
	}
	return *ts
}

// handleUpsert handles PUT /leaderboards/{variant}/{name}/members/{id}.
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_member"
	var req upsertRequest
	if err := decode(r, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Score == nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("missing score")))
		return
	}
	b, err := s.lookup(r.Context(), r, true)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	id := r.PathValue("id")
	if err := b.upsert(r.Context(), id, *req.Score, s.tsOrNow(req.TS)); err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{ID: id, Score: *req.Score})
}

// handleUpsertBatch handles POST /leaderboards/{variant}/{name}/members.
func (s *Server) handleUpsertBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_members"
	var req []memberWrite
	if err := decode(r, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	for i, e := range req {
		if e.ID == "" || e.Score == nil {
			s.fail(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("entry %d: id and score are required", i)))
			return
		}
	}
	b, err := s.lookup(r.Context(), r, true)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	added, err := b.upsertBatch(r.Context(), req, s.deps.Now())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Added: added})
}

// handleIncrement handles POST /leaderboards/{variant}/{name}/members/{id}/increment.
func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	const op = "api.increment_member"
	var req incrementRequest
	if err := decode(r, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Delta == nil {
		s.fail(w, r, WrapKind(op, ErrBadRequest, errors.New("missing delta")))
		return
	}
	b, err := s.lookup(r.Context(), r, true)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	id := r.PathValue("id")
	score, err := b.increment(r.Context(), id, *req.Delta, s.tsOrNow(req.TS))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{ID: id, Score: score})
}

// handleGetMember handles GET /leaderboards/{variant}/{name}/members/{id}.
func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_member"
	b, err := s.lookup(r.Context(), r, false)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	id := r.PathValue("id")
	view, ok, err := b.member(r.Context(), id)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if !ok {
		s.fail(w, r, WrapKind(op, ErrNotFound, fmt.Errorf("member %q", id)))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDeleteMember handles DELETE /leaderboards/{variant}/{name}/members/{id}.
func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_member"
	b, err := s.lookup(r.Context(), r, false)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	n, err := b.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, removedResponse{Removed: n})
}
