package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/rankd/internal/domain/rank"
)

const defaultRangeSize = 10

type rangeResponse struct {
	Leaderboard string `json:"leaderboard"`
	Variant     string `json:"variant"`
	Order       string `json:"order"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	Entries     any    `json:"entries"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

func queryInt(q url.Values, key string, def int64) (int64, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadRequest, key, err)
	}
	return n, nil
}

// queryFloat accepts "inf", "-inf" and "+inf" as open bounds. NaN is
// rejected.
func queryFloat(q url.Values, key string, def float64) (float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadRequest, key, err)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("%w: %s must be a number", ErrBadRequest, key)
	}
	return f, nil
}

// rankWindow parses start and end. Both must have the same sign so the
// window size is known without reading the leaderboard. A missing end selects
// the default size, stopping at the last member for a negative start.
func (s *Server) rankWindow(q url.Values) (int64, int64, error) {
	start, err := queryInt(q, "start", 0)
	if err != nil {
		return 0, 0, err
	}
	size := int64(min(defaultRangeSize, s.maxRange))
	def := int64(math.MaxInt64)
	if start <= math.MaxInt64-size+1 {
		def = start + size - 1
	}
	if start < 0 && def >= 0 {
		def = -1
	}
	end, err := queryInt(q, "end", def)
	if err != nil {
		return 0, 0, err
	}
	if (start < 0) != (end < 0) || end < start {
		return 0, 0, fmt.Errorf("%w: invalid window [%d, %d]", ErrBadRequest, start, end)
	}
	// Same sign, so end-start cannot overflow.
	if end-start >= int64(s.maxRange) {
		return 0, 0, fmt.Errorf("%w: window [%d, %d] exceeds %d", ErrLimitExceeds, start, end, s.maxRange)
	}
	return start, end, nil
}

// handleRange handles GET /leaderboards/{variant}/{name}/range.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	const op = "api.range"
	q := r.URL.Query()
	start, end, err := s.rankWindow(q)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	b, err := s.lookup(r.Context(), r, false)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	order := q.Get("order")
	var entries any
	switch order {
	case "", "desc":
		order = "desc"
		entries, err = b.rangeDescending(r.Context(), start, end)
	case "asc":
		var asc rank.AscendingRankable
		if asc, err = rank.Ascending(b); err == nil {
			entries, err = asc.RangeAscendingWithScores(r.Context(), start, end)
		}
	default:
		err = fmt.Errorf("%w: order must be asc or desc", ErrBadRequest)
	}
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rangeResponse{
		Leaderboard: b.Name(),
		Variant:     b.Variant().String(),
		Order:       order,
		Start:       start,
		End:         end,
		Entries:     entries,
	})
}

// handleCount handles GET /leaderboards/{variant}/{name}/count. Without min
// and max it counts every member; score bounds need the ascending capability.
func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	const op = "api.count"
	b, err := s.lookup(r.Context(), r, false)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	q := r.URL.Query()
	var n int64
	if q.Get("min") == "" && q.Get("max") == "" {
		n, err = b.Count(r.Context())
	} else {
		n, err = s.countByScore(r, b, q)
	}
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (s *Server) countByScore(r *http.Request, b board, q url.Values) (int64, error) {
	asc, err := rank.Ascending(b)
	if err != nil {
		return 0, err
	}
	lo, err := queryFloat(q, "min", math.Inf(-1))
	if err != nil {
		return 0, err
	}
	hi, err := queryFloat(q, "max", math.Inf(1))
	if err != nil {
		return 0, err
	}
	return asc.CountByScoreRange(r.Context(), lo, hi)
}

// handleRemoveRange handles DELETE /leaderboards/{variant}/{name}/range with
// by=rank (start, end) or by=score (min, max).
func (s *Server) handleRemoveRange(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove_range"
	b, err := s.lookup(r.Context(), r, false)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	asc, err := rank.Ascending(b)
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}

	q := r.URL.Query()
	var n int64
	switch q.Get("by") {
	case "rank":
		var start, end int64
		if start, err = queryInt(q, "start", 0); err != nil {
			break
		}
		if end, err = queryInt(q, "end", -1); err != nil {
			break
		}
		n, err = asc.RemoveByRankRange(r.Context(), start, end)
	case "score":
		if q.Get("min") == "" || q.Get("max") == "" {
			err = fmt.Errorf("%w: min and max are required", ErrBadRequest)
			break
		}
		var lo, hi float64
		if lo, err = queryFloat(q, "min", 0); err != nil {
			break
		}
		if hi, err = queryFloat(q, "max", 0); err != nil {
			break
		}
		n, err = asc.RemoveByScoreRange(r.Context(), lo, hi)
	default:
		err = fmt.Errorf("%w: by must be rank or score", ErrBadRequest)
	}
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, removedResponse{Removed: n})
}
