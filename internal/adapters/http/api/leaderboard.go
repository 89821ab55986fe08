package api

import (
	"net/http"
	"sort"

	"github.com/okian/rankd/internal/domain/rank"
)

type leaderboardResponse struct {
	Name    string `json:"name"`
	Variant string `json:"variant"`
	Key     string `json:"key"`
}

type listResponse struct {
	Variant      string                `json:"variant"`
	Leaderboards []leaderboardResponse `json:"leaderboards"`
}

type moveRequest struct {
	Src string `json:"src"`
	Tgt string `json:"tgt"`
	ID  string `json:"id"`
}

type moveResponse struct {
	Moved bool `json:"moved"`
}

func describe[L rank.Board](boards []L) []leaderboardResponse {
	out := make([]leaderboardResponse, 0, len(boards))
	for _, b := range boards {
		out = append(out, leaderboardResponse{Name: b.Name(), Variant: b.Variant().String(), Key: b.Key()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// handleList handles GET /leaderboards/{variant}.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_leaderboards"
	v, err := rank.ParseVariant(r.PathValue("variant"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	var boards []leaderboardResponse
	switch v {
	case rank.VariantRecency:
		reg, err := s.deps.Recency()
		if err != nil {
			s.fail(w, r, Wrap(op, err))
			return
		}
		boards = describe(reg.Ranks())
	default:
		reg, err := s.deps.Plain()
		if err != nil {
			s.fail(w, r, Wrap(op, err))
			return
		}
		boards = describe(reg.Ranks())
	}
	writeJSON(w, http.StatusOK, listResponse{Variant: v.String(), Leaderboards: boards})
}

// handleRegister handles PUT /leaderboards/{variant}/{name}.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_leaderboard"
	b, err := s.lookup(r.Context(), r, true)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Name: b.Name(), Variant: b.Variant().String(), Key: b.Key()})
}

// handleRemove handles DELETE /leaderboards/{variant}/{name}. The name does
// not have to be registered; its store data is cleared either way.
func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove_leaderboard"
	v, err := rank.ParseVariant(r.PathValue("variant"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	name := r.PathValue("name")

	switch v {
	case rank.VariantRecency:
		reg, rerr := s.deps.Recency()
		if rerr != nil {
			err = rerr
			break
		}
		err = reg.Remove(r.Context(), name)
	default:
		reg, rerr := s.deps.Plain()
		if rerr != nil {
			err = rerr
			break
		}
		err = reg.Remove(r.Context(), name)
	}
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMove handles POST /leaderboards/{variant}/move.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	const op = "api.move_member"
	v, err := rank.ParseVariant(r.PathValue("variant"))
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	var req moveRequest
	if err := decode(r, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ID == "" {
		s.fail(w, r, NewKind(op, ErrBadRequest))
		return
	}

	var moved bool
	switch v {
	case rank.VariantRecency:
		reg, rerr := s.deps.Recency()
		if rerr != nil {
			err = rerr
			break
		}
		moved, err = reg.Move(r.Context(), req.Src, req.Tgt, req.ID)
	default:
		reg, rerr := s.deps.Plain()
		if rerr != nil {
			err = rerr
			break
		}
		moved, err = reg.Move(r.Context(), req.Src, req.Tgt, req.ID)
	}
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, moveResponse{Moved: moved})
}
