package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/planning-poker/internal/model"
)

// ErrParticipantNotFound is returned when no participant with the
// given name exists in the room.
var ErrParticipantNotFound = errors.New("participant not found")

// GetParticipant loads one participant by room code and name.
func (s *MySQLStore) GetParticipant(ctx context.Context, code, name string) (*model.Participant, error) {
	const q = `SELECT room_code, name, is_facilitator, is_voter
	           FROM participants WHERE room_code = ? AND name = ?`
	var p model.Participant
	err := s.q().QueryRowContext(ctx, q, code, name).Scan(
		&p.RoomCode, &p.Name, &p.IsFacilitator, &p.IsVoter,
	)
	if err == sql.ErrNoRows {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParticipants returns the room roster ordered by join time.
func (s *MySQLStore) ListParticipants(ctx context.Context, code string) ([]model.Participant, error) {
	const q = `SELECT room_code, name, is_facilitator, is_voter
	           FROM participants WHERE room_code = ? ORDER BY joined_at, name`
	rows, err := s.q().QueryContext(ctx, q, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.RoomCode, &p.Name, &p.IsFacilitator, &p.IsVoter); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertParticipant inserts the participant or, on a (room_code, name)
// conflict, overwrites the facilitator and voter flags.  Name is the
// de facto identity key, so a rejoin with the same name lands here as
// an update (last writer wins).
func (s *MySQLStore) UpsertParticipant(ctx context.Context, p *model.Participant) error {
	const q = `INSERT INTO participants (room_code, name, is_facilitator, is_voter)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE is_facilitator = VALUES(is_facilitator),
	                                   is_voter = VALUES(is_voter)`
	_, err := s.q().ExecContext(ctx, q, p.RoomCode, p.Name, p.IsFacilitator, p.IsVoter)
	return err
}

// DeleteParticipant removes a participant row.  The caller is
// responsible for cascading the participant's current vote in the
// same transaction.
func (s *MySQLStore) DeleteParticipant(ctx context.Context, code, name string) error {
	res, err := s.q().ExecContext(ctx,
		`DELETE FROM participants WHERE room_code = ? AND name = ?`, code, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
