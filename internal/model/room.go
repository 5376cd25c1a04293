package model

import "time"

// VotingPhase enumerates the states of a room's voting round.
type VotingPhase string

const (
	PhaseIdle     VotingPhase = "idle"     // no active vote, results hidden
	PhaseVoting   VotingPhase = "voting"   // accepting votes
	PhaseRevealed VotingPhase = "revealed" // votes locked and visible
)

// Room is one planning poker session, addressed by a short code.
// The code is immutable after creation.  TimerDuration and TimerEnd
// are both stored so that elapsed time can be recovered by any client
// as TimerEnd - TimerDuration without clock-sync assumptions.
type Room struct {
	Code              string      // rooms.code
	Phase             VotingPhase // rooms.voting_phase
	CurrentStoryIndex int         // rooms.current_story_index (may be out of bounds)
	TimerDuration     *int        // rooms.timer_duration (seconds, nullable)
	TimerEnd          *int64      // rooms.timer_end_ms (unix millis, nullable)
	LastActivity      time.Time   // rooms.last_activity
	IssueTrackerURL   *string     // rooms.issue_tracker_base_url (nullable)
	CreatedAt         time.Time   // rooms.created_at
}
