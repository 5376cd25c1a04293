package model

import "time"

// ParticipantView is a participant together with their current vote,
// as seen in a room snapshot.
type ParticipantView struct {
	Name          string   `json:"name"`
	IsFacilitator bool     `json:"isFacilitator"`
	IsVoter       bool     `json:"isVoter"`
	Vote          *float64 `json:"vote"`
}

// RoomSnapshot is the full consistent view of a room fanned out to
// clients.  It is always rebuilt from a single consistent read across
// the room, participant, story and vote collections; change
// notifications are only the trigger, never the source of truth.
type RoomSnapshot struct {
	Code              string            `json:"code"`
	Phase             VotingPhase       `json:"phase"`
	CurrentStoryIndex int               `json:"currentStoryIndex"`
	CurrentStory      *Story            `json:"currentStory"`
	StoryQueue        []Story           `json:"storyQueue"`
	Participants      []ParticipantView `json:"participants"`
	TimerDuration     *int              `json:"timerDuration"`
	TimerEnd          *int64            `json:"timerEnd"`
	IssueTrackerURL   *string           `json:"issueTrackerBaseUrl"`
	VotedCount        int               `json:"votedCount"`
	VoterCount        int               `json:"voterCount"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// HasParticipant reports whether a participant with the given name is
// present in the snapshot roster.  The synchronization layer uses it
// to detect that the locally-known participant has been kicked.
func (s *RoomSnapshot) HasParticipant(name string) bool {
	for _, p := range s.Participants {
		if p.Name == name {
			return true
		}
	}
	return false
}
