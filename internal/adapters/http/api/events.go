package api

import (
	"net/http"
	"time"

	"github.com/okian/rankd/internal/domain/model"
)

// eventRequest is the body of POST /events.
type eventRequest struct {
	EventID     string     `json:"event_id"`
	Variant     string     `json:"variant"`
	Leaderboard string     `json:"leaderboard"`
	MemberID    string     `json:"member_id"`
	Op          model.Op   `json:"op"`
	Value       float64    `json:"value"`
	TS          *time.Time `json:"ts,omitempty"`
}

func (e eventRequest) event() model.Event {
	ev := model.Event{
		EventID:     e.EventID,
		Variant:     e.Variant,
		Leaderboard: e.Leaderboard,
		MemberID:    e.MemberID,
		Op:          e.Op,
		Value:       e.Value,
	}
	if e.TS != nil {
		ev.TS = *e.TS
	}
	return ev
}

type ackResponse struct {
	Status    string `json:"status"`
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
}

// handlePostEvent handles POST /events. Events are applied asynchronously;
// a repeated event_id is acknowledged without being queued again.
func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	var req eventRequest
	if err := decode(r, op, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	receipt, err := s.deps.Enqueue(r.Context(), req.event())
	if err != nil {
		s.fail(w, r, Wrap(op, err))
		return
	}
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", EventID: receipt.EventID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", EventID: receipt.EventID})
}
