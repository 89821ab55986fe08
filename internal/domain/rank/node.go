package rank

import "time"

// RankNode is one query result: a member, its 0-based rank and its score.
// Rank is -1 when unknown.
type RankNode struct {
	MemberID string  `json:"id"`
	Rank     int64   `json:"rank"`
	Score    float64 `json:"score"`
}

// TimedNode is a recency leaderboard result carrying the member's write time.
type TimedNode struct {
	RankNode
	Timestamp time.Time `json:"ts"`
}

// Entry is one (id, score) pair for batch upserts on a plain leaderboard.
type Entry struct {
	MemberID string
	Score    float64
}

// TimedEntry is one (id, score, timestamp) triple for recency batch upserts.
type TimedEntry struct {
	MemberID  string
	Score     float64
	Timestamp time.Time
}

// snapshot is a member's state as carried across a move.
type snapshot struct {
	score    float64
	tsMillis int64
}
