package service

import (
	"context"
	"time"

	"github.com/iliyamo/planning-poker/internal/model"
	"github.com/iliyamo/planning-poker/internal/queue"
	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/stats"
	"github.com/iliyamo/planning-poker/internal/utils"
)

// StoryInput is the payload for creating a story.
type StoryInput struct {
	Title string
	Link  *string
}

// StartVoting begins a voting round.  Valid from Idle or Revealed;
// starting while a round is already open is a conflict (the original
// relied on disabled buttons alone, which two facilitators can race).
// An optional story payload is appended to the queue without advancing
// the current-story pointer.  All votes are cleared, and an optional
// timer is stored as duration plus absolute end timestamp.
func (s *RoomService) StartVoting(ctx context.Context, code string, story *StoryInput, timerSeconds int) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		if room.Phase == model.PhaseVoting {
			return errConflict("voting already in progress")
		}
		if story != nil {
			if err := s.appendStory(ctx, tx, code, *story); err != nil {
				return err
			}
		}
		if err := tx.ClearVotes(ctx, code); err != nil {
			return err
		}
		now := s.now().UTC()
		room.Phase = model.PhaseVoting
		if timerSeconds > 0 {
			dur := timerSeconds
			end := now.UnixMilli() + int64(timerSeconds)*1000
			room.TimerDuration = &dur
			room.TimerEnd = &end
		} else {
			room.TimerDuration = nil
			room.TimerEnd = nil
		}
		room.LastActivity = now
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// RevealVotes locks and exposes the current votes.  Revealing while
// already Revealed is an idempotent no-op so that two facilitators
// clicking concurrently cannot produce duplicate history snapshots;
// revealing with no round open is a conflict.  When the current story
// exists and has at least one vote, the vote set is snapshotted into
// history and the story's votedAt is stamped on first reveal.
func (s *RoomService) RevealVotes(ctx context.Context, code string) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		if room.Phase == model.PhaseRevealed {
			snap, err = s.buildSnapshot(ctx, tx, room)
			return err
		}
		if room.Phase != model.PhaseVoting {
			return errConflict("no voting round in progress")
		}
		now := s.now().UTC()
		stories, err := tx.ListStories(ctx, code)
		if err != nil {
			return err
		}
		votes, err := tx.ListVotes(ctx, code)
		if err != nil {
			return err
		}
		if room.CurrentStoryIndex >= 0 && room.CurrentStoryIndex < len(stories) && len(votes) > 0 {
			cur := stories[room.CurrentStoryIndex]
			entries := make([]model.VoteHistoryEntry, 0, len(votes))
			for _, v := range votes {
				entries = append(entries, model.VoteHistoryEntry{
					RoomCode:        code,
					StoryID:         cur.ID,
					StoryTitle:      cur.Title,
					ParticipantName: v.ParticipantName,
					Value:           v.Value,
					VotedAt:         v.CreatedAt,
					RevealedAt:      now,
				})
			}
			if err := tx.InsertHistory(ctx, entries); err != nil {
				return err
			}
			if cur.VotedAt == nil {
				cur.VotedAt = &now
				if err := tx.UpdateStory(ctx, &cur); err != nil {
					return err
				}
			}
		}
		room.Phase = model.PhaseRevealed
		room.LastActivity = now
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// AdvanceToNextStory moves the room past the current story.  If the
// story has votes but no manually-set final estimate, one is computed
// as nearestAllowed(median(votes)) and persisted before the votes are
// cleared; an explicitly set estimate is never overwritten.  The
// transition is tolerated from any phase but only meaningful after a
// reveal.
func (s *RoomService) AdvanceToNextStory(ctx context.Context, code string) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	var recorded *queue.EstimateRecordedEvent
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		stories, err := tx.ListStories(ctx, code)
		if err != nil {
			return err
		}
		if room.CurrentStoryIndex >= 0 && room.CurrentStoryIndex < len(stories) {
			cur := stories[room.CurrentStoryIndex]
			if cur.FinalEstimate == nil {
				participants, err := tx.ListParticipants(ctx, code)
				if err != nil {
					return err
				}
				votes, err := tx.ListVotes(ctx, code)
				if err != nil {
					return err
				}
				if values := voterValues(participants, votes); len(values) > 0 {
					estimate := stats.NearestAllowed(stats.Median(values), s.scale)
					cur.FinalEstimate = &estimate
					if err := tx.UpdateStory(ctx, &cur); err != nil {
						return err
					}
					recorded = s.estimateEvent(&cur, estimate, true, values)
				}
			}
		}
		if err := tx.ClearVotes(ctx, code); err != nil {
			return err
		}
		room.CurrentStoryIndex++
		room.Phase = model.PhaseIdle
		room.TimerDuration = nil
		room.TimerEnd = nil
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	if recorded != nil {
		s.publishEstimate(ctx, *recorded)
	}
	s.notify(ctx, code)
	return snap, nil
}

// SubmitVote records or retracts a participant's vote for the current
// round.  A nil value deletes the vote; a number upserts it after a
// defensive check against the allowed scale.  Observers are rejected
// so they can never skew facilitator-visible progress counters.
func (s *RoomService) SubmitVote(ctx context.Context, code, name string, value *float64) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		p, err := tx.GetParticipant(ctx, code, name)
		if err != nil {
			return err
		}
		if !p.IsVoter {
			return errConflict("observers cannot vote")
		}
		if value == nil {
			if err := tx.DeleteVote(ctx, code, name); err != nil {
				return err
			}
		} else {
			if !s.allowedValue(*value) {
				return errValidation("value %v is not on the scale", *value)
			}
			v := &model.Vote{
				RoomCode:        code,
				ParticipantName: name,
				Value:           *value,
				CreatedAt:       s.now().UTC(),
			}
			if err := tx.UpsertVote(ctx, v); err != nil {
				return err
			}
		}
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// SetFinalEstimate annotates a story with a facilitator-confirmed
// value.  It is valid in any phase, never touches the state machine
// and never recomputes anything.
func (s *RoomService) SetFinalEstimate(ctx context.Context, code string, storyID int64, value float64) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	if value < 0 {
		return nil, errValidation("estimate must not be negative")
	}
	var snap *model.RoomSnapshot
	var recorded *queue.EstimateRecordedEvent
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		story, err := tx.GetStory(ctx, code, storyID)
		if err != nil {
			return err
		}
		story.FinalEstimate = &value
		if err := tx.UpdateStory(ctx, story); err != nil {
			return err
		}
		participants, err := tx.ListParticipants(ctx, code)
		if err != nil {
			return err
		}
		votes, err := tx.ListVotes(ctx, code)
		if err != nil {
			return err
		}
		recorded = s.estimateEvent(story, value, false, voterValues(participants, votes))
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	if recorded != nil {
		s.publishEstimate(ctx, *recorded)
	}
	s.notify(ctx, code)
	return snap, nil
}

func (s *RoomService) allowedValue(v float64) bool {
	for _, a := range s.scale {
		if a == v {
			return true
		}
	}
	return false
}

// estimateEvent builds the broker event for a recorded estimate,
// attaching statistics when the round had votes.
func (s *RoomService) estimateEvent(story *model.Story, value float64, auto bool, values []float64) *queue.EstimateRecordedEvent {
	ev := &queue.EstimateRecordedEvent{
		RoomCode:   story.RoomCode,
		StoryID:    story.ID,
		StoryTitle: story.Title,
		Points:     value,
		Auto:       auto,
		RecordedAt: s.now().UTC().Format(time.RFC3339),
	}
	if summary, ok := stats.Summarize(values, s.threshold); ok {
		ev.VoteCount = summary.Count
		ev.Average = summary.Average
		ev.Median = summary.Median
		ev.Mode = summary.Mode
		ev.ConsensusPct = summary.ConsensusPct
	}
	return ev
}
