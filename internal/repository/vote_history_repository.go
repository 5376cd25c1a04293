package repository

import (
	"context"

	"github.com/iliyamo/planning-poker/internal/model"
)

// InsertHistory bulk-inserts one reveal's snapshot.  History rows are
// append-only; nothing in this package updates or deletes them short
// of the room cascade.
func (s *MySQLStore) InsertHistory(ctx context.Context, entries []model.VoteHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `INSERT INTO vote_history (room_code, story_id, story_title, participant_name, value, voted_at, revealed_at) VALUES `
	args := make([]any, 0, len(entries)*7)
	for i, e := range entries {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		args = append(args, e.RoomCode, e.StoryID, e.StoryTitle, e.ParticipantName, e.Value, e.VotedAt, e.RevealedAt)
	}
	_, err := s.q().ExecContext(ctx, query, args...)
	return err
}

// ListHistory returns every history row for a room, most recent reveal
// first.  Rows of the same reveal stay adjacent so the aggregator can
// group them in one pass.
func (s *MySQLStore) ListHistory(ctx context.Context, code string) ([]model.VoteHistoryEntry, error) {
	const q = `SELECT id, room_code, story_id, story_title, participant_name, value, voted_at, revealed_at
	           FROM vote_history WHERE room_code = ?
	           ORDER BY revealed_at DESC, story_id, id`
	rows, err := s.q().QueryContext(ctx, q, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.VoteHistoryEntry
	for rows.Next() {
		var e model.VoteHistoryEntry
		if err := rows.Scan(&e.ID, &e.RoomCode, &e.StoryID, &e.StoryTitle,
			&e.ParticipantName, &e.Value, &e.VotedAt, &e.RevealedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
