package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/planning-poker/internal/model"
)

// ErrStoryNotFound is returned when no story with the given id exists
// in the room.
var ErrStoryNotFound = errors.New("story not found")

// GetStory loads one story scoped to a room.
func (s *MySQLStore) GetStory(ctx context.Context, code string, id int64) (*model.Story, error) {
	const q = `SELECT id, room_code, title, external_link, order_index, final_estimate, voted_at
	           FROM stories WHERE room_code = ? AND id = ?`
	var st model.Story
	err := s.q().QueryRowContext(ctx, q, code, id).Scan(
		&st.ID, &st.RoomCode, &st.Title, &st.ExternalLink,
		&st.OrderIndex, &st.FinalEstimate, &st.VotedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrStoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStories returns the room's queue ordered by order_index.
func (s *MySQLStore) ListStories(ctx context.Context, code string) ([]model.Story, error) {
	const q = `SELECT id, room_code, title, external_link, order_index, final_estimate, voted_at
	           FROM stories WHERE room_code = ? ORDER BY order_index`
	rows, err := s.q().QueryContext(ctx, q, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Story
	for rows.Next() {
		var st model.Story
		if err := rows.Scan(&st.ID, &st.RoomCode, &st.Title, &st.ExternalLink,
			&st.OrderIndex, &st.FinalEstimate, &st.VotedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// InsertStory appends one story and populates its generated id.
func (s *MySQLStore) InsertStory(ctx context.Context, st *model.Story) error {
	const q = `INSERT INTO stories (room_code, title, external_link, order_index, final_estimate, voted_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.q().ExecContext(ctx, q,
		st.RoomCode, st.Title, st.ExternalLink, st.OrderIndex, st.FinalEstimate, st.VotedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = id
	return nil
}

// InsertStories bulk-inserts stories in one statement.  Passing an
// empty slice has no effect.  Generated ids are not populated; bulk
// import reads the queue back afterwards.
func (s *MySQLStore) InsertStories(ctx context.Context, stories []*model.Story) error {
	if len(stories) == 0 {
		return nil
	}
	query := `INSERT INTO stories (room_code, title, external_link, order_index, final_estimate, voted_at) VALUES `
	args := make([]any, 0, len(stories)*6)
	for i, st := range stories {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, st.RoomCode, st.Title, st.ExternalLink, st.OrderIndex, st.FinalEstimate, st.VotedAt)
	}
	_, err := s.q().ExecContext(ctx, query, args...)
	return err
}

// UpdateStory writes back every mutable story column.
func (s *MySQLStore) UpdateStory(ctx context.Context, st *model.Story) error {
	const q = `UPDATE stories SET title = ?, external_link = ?, order_index = ?,
	           final_estimate = ?, voted_at = ?
	           WHERE room_code = ? AND id = ?`
	res, err := s.q().ExecContext(ctx, q,
		st.Title, st.ExternalLink, st.OrderIndex, st.FinalEstimate, st.VotedAt,
		st.RoomCode, st.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, gerr := s.GetStory(ctx, st.RoomCode, st.ID); gerr != nil {
			return gerr
		}
	}
	return nil
}

// DeleteStory removes one story.  Order compaction is the caller's
// job and must run in the same transaction.
func (s *MySQLStore) DeleteStory(ctx context.Context, code string, id int64) error {
	res, err := s.q().ExecContext(ctx,
		`DELETE FROM stories WHERE room_code = ? AND id = ?`, code, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStoryNotFound
	}
	return nil
}

// ReindexStories rewrites order_index so that it matches the position
// of each id in orderedIDs (dense, zero-based).  Callers wrap this in
// WithinTx so no client can observe a partially reordered queue.
func (s *MySQLStore) ReindexStories(ctx context.Context, code string, orderedIDs []int64) error {
	for i, id := range orderedIDs {
		res, err := s.q().ExecContext(ctx,
			`UPDATE stories SET order_index = ? WHERE room_code = ? AND id = ?`, i, code, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, gerr := s.GetStory(ctx, code, id); gerr != nil {
				return gerr
			}
		}
	}
	return nil
}
