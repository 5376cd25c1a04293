package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/planning-poker/internal/model"
)

// ErrRoomNotFound is returned when no room exists for a given code.
// Handlers should translate this into an HTTP 404 response.
var ErrRoomNotFound = errors.New("room not found")

// GetRoom loads a room by its code.
func (s *MySQLStore) GetRoom(ctx context.Context, code string) (*model.Room, error) {
	const q = `SELECT code, voting_phase, current_story_index, timer_duration, timer_end_ms,
	           last_activity, issue_tracker_base_url, created_at
	           FROM rooms WHERE code = ?`
	var r model.Room
	var phase string
	err := s.q().QueryRowContext(ctx, q, code).Scan(
		&r.Code, &phase, &r.CurrentStoryIndex, &r.TimerDuration, &r.TimerEnd,
		&r.LastActivity, &r.IssueTrackerURL, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Phase = model.VotingPhase(phase)
	return &r, nil
}

// CreateRoom inserts a new room row.  A duplicate code surfaces as a
// MySQL 1062 error; the service retries with a fresh code.
func (s *MySQLStore) CreateRoom(ctx context.Context, room *model.Room) error {
	const q = `INSERT INTO rooms (code, voting_phase, current_story_index, timer_duration,
	           timer_end_ms, last_activity, issue_tracker_base_url, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.q().ExecContext(ctx, q,
		room.Code, string(room.Phase), room.CurrentStoryIndex, room.TimerDuration,
		room.TimerEnd, room.LastActivity, room.IssueTrackerURL, room.CreatedAt,
	)
	return err
}

// SaveRoom writes back every mutable room column.
func (s *MySQLStore) SaveRoom(ctx context.Context, room *model.Room) error {
	const q = `UPDATE rooms SET voting_phase = ?, current_story_index = ?, timer_duration = ?,
	           timer_end_ms = ?, last_activity = ?, issue_tracker_base_url = ?
	           WHERE code = ?`
	res, err := s.q().ExecContext(ctx, q,
		string(room.Phase), room.CurrentStoryIndex, room.TimerDuration,
		room.TimerEnd, room.LastActivity, room.IssueTrackerURL, room.Code,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is 0 both for a missing room and for a no-op
		// update, so confirm existence before reporting not found.
		if _, gerr := s.GetRoom(ctx, room.Code); gerr != nil {
			return gerr
		}
	}
	return nil
}

// DeleteRoomsInactiveBefore removes rooms whose last_activity is older
// than the cutoff (unix millis).  Child rows cascade via foreign keys.
// It returns the number of rooms swept.
func (s *MySQLStore) DeleteRoomsInactiveBefore(ctx context.Context, cutoff int64) (int64, error) {
	res, err := s.q().ExecContext(ctx,
		`DELETE FROM rooms WHERE last_activity < ?`, time.UnixMilli(cutoff).UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
