// Package queue defines the estimate event payload exchanged over the
// message broker, plus the publisher and the background consumer.
package queue

// EstimateRecordedEvent is published whenever a story's final estimate
// is fixed, either auto-suggested on advance or set manually by a
// facilitator.  It carries enough for downstream consumers to log or
// trigger analytics without querying the primary database.
type EstimateRecordedEvent struct {
	RoomCode     string  `json:"room_code"`
	StoryID      int64   `json:"story_id"`
	StoryTitle   string  `json:"story_title"`
	Points       float64 `json:"points"`
	Auto         bool    `json:"auto"`
	VoteCount    int     `json:"vote_count"`
	Average      float64 `json:"average"`
	Median       float64 `json:"median"`
	Mode         float64 `json:"mode"`
	ConsensusPct float64 `json:"consensus_percentage"`
	RecordedAt   string  `json:"recorded_at"`
}
