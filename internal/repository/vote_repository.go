package repository

import (
	"context"

	"github.com/iliyamo/planning-poker/internal/model"
)

// ListVotes returns the current vote generation for a room.  No story
// filter is needed: the clearing discipline guarantees at most one
// generation is live at a time.
func (s *MySQLStore) ListVotes(ctx context.Context, code string) ([]model.Vote, error) {
	const q = `SELECT room_code, participant_name, value, created_at
	           FROM votes WHERE room_code = ?`
	rows, err := s.q().QueryContext(ctx, q, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Vote
	for rows.Next() {
		var v model.Vote
		if err := rows.Scan(&v.RoomCode, &v.ParticipantName, &v.Value, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpsertVote inserts or replaces a participant's vote for the current
// round, refreshing created_at on change.
func (s *MySQLStore) UpsertVote(ctx context.Context, v *model.Vote) error {
	const q = `INSERT INTO votes (room_code, participant_name, value, created_at)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE value = VALUES(value), created_at = VALUES(created_at)`
	_, err := s.q().ExecContext(ctx, q, v.RoomCode, v.ParticipantName, v.Value, v.CreatedAt)
	return err
}

// DeleteVote removes one participant's vote.  Missing rows are not an
// error: a null submission is a retraction and retracting nothing is
// fine.
func (s *MySQLStore) DeleteVote(ctx context.Context, code, name string) error {
	_, err := s.q().ExecContext(ctx,
		`DELETE FROM votes WHERE room_code = ? AND participant_name = ?`, code, name)
	return err
}

// ClearVotes deletes the room's entire vote generation.
func (s *MySQLStore) ClearVotes(ctx context.Context, code string) error {
	_, err := s.q().ExecContext(ctx, `DELETE FROM votes WHERE room_code = ?`, code)
	return err
}
