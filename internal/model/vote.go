package model

import "time"

// Vote is the ephemeral per-participant value for the story currently
// being voted on.  There is never more than one generation of votes
// live per room: the set is fully cleared whenever voting restarts or
// the room advances, which is why no story reference is needed here.
type Vote struct {
	RoomCode        string    // votes.room_code
	ParticipantName string    // votes.participant_name
	Value           float64   // votes.value
	CreatedAt       time.Time // votes.created_at
}

// VoteHistoryEntry is an immutable snapshot of one participant's vote,
// written at reveal time.  Multiple reveals of the same story each
// produce a disjoint snapshot; history is an append log.
type VoteHistoryEntry struct {
	ID              int64     // vote_history.id
	RoomCode        string    // vote_history.room_code
	StoryID         int64     // vote_history.story_id
	StoryTitle      string    // vote_history.story_title
	ParticipantName string    // vote_history.participant_name
	Value           float64   // vote_history.value
	VotedAt         time.Time // vote_history.voted_at (vote creation time)
	RevealedAt      time.Time // vote_history.revealed_at
}
