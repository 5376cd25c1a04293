package service

import (
	"context"

	"github.com/iliyamo/planning-poker/internal/model"
	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/utils"
)

// KickParticipant removes a participant and cascades their current
// vote in the same transaction.  Facilitators cannot be kicked; demote
// or promote someone else first.
func (s *RoomService) KickParticipant(ctx context.Context, code, name string) (*model.RoomSnapshot, error) {
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
		if p.IsFacilitator {
			return errConflict("facilitators cannot be removed")
		}
		if err := tx.DeleteVote(ctx, code, name); err != nil {
			return err
		}
		if err := tx.DeleteParticipant(ctx, code, name); err != nil {
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

// PromoteParticipant grants facilitator status.  Nothing prevents
// several facilitators from coexisting.
func (s *RoomService) PromoteParticipant(ctx context.Context, code, name string) (*model.RoomSnapshot, error) {
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
		p.IsFacilitator = true
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

// SetVoter toggles a participant between voter and observer.  A
// demotion to observer drops any live vote so tallies and progress
// counters stay consistent with the roster.
func (s *RoomService) SetVoter(ctx context.Context, code, name string, isVoter bool) (*model.RoomSnapshot, error) {
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
		p.IsVoter = isVoter
		if err := tx.UpsertParticipant(ctx, p); err != nil {
			return err
		}
		if !isVoter {
			if err := tx.DeleteVote(ctx, code, name); err != nil {
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
