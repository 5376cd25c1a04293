// Package service implements the room state store: the authoritative
// voting state machine, the snapshot builder and the vote history
// aggregator.  Every operation is a short transactional round trip
// against the injected Store; no process-wide state is held here.
//
// Facilitator gating is deliberately NOT enforced at this layer (the
// HTTP middleware is the soft gate); the only authorization-flavoured
// rule the store owns is that a facilitator cannot be kicked.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/planning-poker/internal/model"
	"github.com/iliyamo/planning-poker/internal/queue"
	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/utils"
)

// Notifier publishes a change trigger for a room.  Payloads carry no
// state: subscribers refetch the full snapshot on every trigger.
type Notifier interface {
	Publish(ctx context.Context, roomCode string) error
}

// EstimatePublisher emits an estimate.recorded event to the message
// broker.  Failures are logged and never fail the calling operation.
type EstimatePublisher func(ctx context.Context, ev queue.EstimateRecordedEvent) error

// RoomService coordinates all mutations of a room and its child
// collections.  Scale is the allowed ordered set of point values;
// ConsensusThreshold is the strong-consensus cutoff in percent.
type RoomService struct {
	store     repository.Store
	notifier  Notifier
	publish   EstimatePublisher
	scale     []float64
	threshold float64
	now       func() time.Time
}

// NewRoomService wires the service.  notifier and publisher may be nil
// (tests, degraded mode); scale must be non-empty and ascending.
func NewRoomService(store repository.Store, notifier Notifier, publish EstimatePublisher, scale []float64, threshold float64) *RoomService {
	return &RoomService{
		store:     store,
		notifier:  notifier,
		publish:   publish,
		scale:     scale,
		threshold: threshold,
		now:       time.Now,
	}
}

// Scale returns the allowed point scale.
func (s *RoomService) Scale() []float64 { return s.scale }

// ConsensusThreshold returns the strong-consensus cutoff in percent.
func (s *RoomService) ConsensusThreshold() float64 { return s.threshold }

const createRetries = 5

// CreateRoom creates a room with a fresh random code and registers the
// creator as its facilitator, atomically: a room must never exist
// without one.  Collisions on the 6-character code are statistically
// negligible but cheap to retry.
func (s *RoomService) CreateRoom(ctx context.Context, creatorName string, issueTrackerURL *string) (*model.RoomSnapshot, error) {
	creatorName = strings.TrimSpace(creatorName)
	if creatorName == "" {
		return nil, errValidation("name is required")
	}
	now := s.now().UTC()
	room := &model.Room{
		Phase:             model.PhaseIdle,
		CurrentStoryIndex: 0,
		LastActivity:      now,
		IssueTrackerURL:   issueTrackerURL,
		CreatedAt:         now,
	}
	var err error
	for i := 0; i < createRetries; i++ {
		room.Code = utils.NewRoomCode()
		err = s.store.WithinTx(ctx, func(tx repository.Store) error {
			if err := tx.CreateRoom(ctx, room); err != nil {
				return err
			}
			return tx.UpsertParticipant(ctx, &model.Participant{
				RoomCode:      room.Code,
				Name:          creatorName,
				IsFacilitator: true,
				IsVoter:       true,
			})
		})
		if err == nil {
			break
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	return s.GetRoomState(ctx, room.Code)
}

// Join upserts a participant by name.  Rejoining with the same name
// merges into the existing row (last writer wins); the voter flag of
// an existing row is preserved by reading it back first.
func (s *RoomService) Join(ctx context.Context, code, name string) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errValidation("name is required")
	}
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		p := &model.Participant{RoomCode: code, Name: name, IsVoter: true}
		if existing, err := tx.GetParticipant(ctx, code, name); err == nil {
			p.IsFacilitator = existing.IsFacilitator
			p.IsVoter = existing.IsVoter
		}
		if err := tx.UpsertParticipant(ctx, p); err != nil {
			return err
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

// GetRoomState returns the full room snapshot via a single consistent
// read: room, roster, queue and votes are all loaded inside one
// transaction so the synchronization layer never observes a partial
// update across the four collections.  This is a passive read and does
// not touch last_activity (touching it here would feed the change
// stream back into itself).
func (s *RoomService) GetRoomState(ctx context.Context, code string) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// buildSnapshot assembles the client view from the four collections.
// Must run inside the same transaction as the room read.
func (s *RoomService) buildSnapshot(ctx context.Context, tx repository.Store, room *model.Room) (*model.RoomSnapshot, error) {
	participants, err := tx.ListParticipants(ctx, room.Code)
	if err != nil {
		return nil, err
	}
	stories, err := tx.ListStories(ctx, room.Code)
	if err != nil {
		return nil, err
	}
	votes, err := tx.ListVotes(ctx, room.Code)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]float64, len(votes))
	for _, v := range votes {
		byName[v.ParticipantName] = v.Value
	}

	snap := &model.RoomSnapshot{
		Code:              room.Code,
		Phase:             room.Phase,
		CurrentStoryIndex: room.CurrentStoryIndex,
		StoryQueue:        stories,
		TimerDuration:     room.TimerDuration,
		TimerEnd:          room.TimerEnd,
		IssueTrackerURL:   room.IssueTrackerURL,
		CreatedAt:         room.CreatedAt,
	}
	if room.CurrentStoryIndex >= 0 && room.CurrentStoryIndex < len(stories) {
		cur := stories[room.CurrentStoryIndex]
		snap.CurrentStory = &cur
	}
	for _, p := range participants {
		view := model.ParticipantView{
			Name:          p.Name,
			IsFacilitator: p.IsFacilitator,
			IsVoter:       p.IsVoter,
		}
		if v, ok := byName[p.Name]; ok {
			value := v
			view.Vote = &value
		}
		// Progress counters only ever count voters; observers are
		// invisible to them no matter what rows exist.
		if p.IsVoter {
			snap.VoterCount++
			if view.Vote != nil {
				snap.VotedCount++
			}
		}
		snap.Participants = append(snap.Participants, view)
	}
	return snap, nil
}

// voterValues extracts the vote values of voting participants, in
// roster order.  Votes from rows that no longer belong to a voter are
// dropped defensively.
func voterValues(participants []model.Participant, votes []model.Vote) []float64 {
	voter := make(map[string]bool, len(participants))
	for _, p := range participants {
		if p.IsVoter {
			voter[p.Name] = true
		}
	}
	var out []float64
	for _, v := range votes {
		if voter[v.ParticipantName] {
			out = append(out, v.Value)
		}
	}
	return out
}

// notify publishes a change trigger, logging and swallowing failures:
// a missed trigger heals on the next mutation or reconnect.
func (s *RoomService) notify(ctx context.Context, code string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, code); err != nil {
		log.Printf("room-service: notify %s failed: %v", code, err)
	}
}

// publishEstimate emits an estimate.recorded event best-effort.
func (s *RoomService) publishEstimate(ctx context.Context, ev queue.EstimateRecordedEvent) {
	if s.publish == nil {
		return
	}
	if err := s.publish(ctx, ev); err != nil {
		log.Printf("room-service: publish estimate for %s failed: %v", ev.RoomCode, err)
	}
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062), the only insert failure CreateRoom retries on.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
