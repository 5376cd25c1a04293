package model

import "time"

// Story is one estimable unit of work in a room's queue, ordered by
// OrderIndex (dense zero-based integers).  FinalEstimate is the
// facilitator-confirmed value, distinct from the raw vote
// distribution.  VotedAt is stamped the first time votes are revealed
// for the story and marks it as resolved for history purposes.
type Story struct {
	ID            int64      // stories.id
	RoomCode      string     // stories.room_code
	Title         string     // stories.title
	ExternalLink  *string    // stories.external_link (nullable)
	OrderIndex    int        // stories.order_index
	FinalEstimate *float64   // stories.final_estimate (nullable)
	VotedAt       *time.Time // stories.voted_at (nullable)
}
