// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Op is what a score event does to its member.
type Op string

const (
	// OpSet overwrites the member's score with Value.
	OpSet Op = "set"
	// OpIncr adds Value to the member's score.
	OpIncr Op = "incr"
)

// ErrInvalidEvent is returned by Validate.
var ErrInvalidEvent = errors.New("invalid event")

// Event is a score update submitted for asynchronous processing.
type Event struct {
	EventID     string    // unique id for idempotency
	Variant     string    // leaderboard family: score or recency
	Leaderboard string    // leaderboard name, registered on first use
	MemberID    string    // member whose score changes
	Op          Op        // set or incr
	Value       float64   // new score or delta
	TS          time.Time // write time; recency leaderboards order ties by it
}

// Validate checks the fields every event needs. The variant tag is checked
// where it is resolved.
func (e Event) Validate() error {
	switch {
	case strings.TrimSpace(e.EventID) == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case strings.TrimSpace(e.Leaderboard) == "":
		return fmt.Errorf("%w: leaderboard is required", ErrInvalidEvent)
	case e.MemberID == "":
		return fmt.Errorf("%w: member_id is required", ErrInvalidEvent)
	case e.Op != OpSet && e.Op != OpIncr:
		return fmt.Errorf("%w: op must be %q or %q", ErrInvalidEvent, OpSet, OpIncr)
	case math.IsNaN(e.Value) || math.IsInf(e.Value, 0):
		return fmt.Errorf("%w: value must be finite", ErrInvalidEvent)
	}
	return nil
}
